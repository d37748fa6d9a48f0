package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/flexprice/recurring/internal/types"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Configuration struct {
	Deployment DeploymentConfig `mapstructure:"deployment" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Logging    LoggingConfig    `mapstructure:"logging" validate:"required"`
	Postgres   PostgresConfig   `mapstructure:"postgres" validate:"required"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Recurring  RecurringConfig  `mapstructure:"recurring"`
	Invoicing  InvoicingConfig  `mapstructure:"invoicing"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Webhook    Webhook          `mapstructure:"webhook"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Sentry     SentryConfig     `mapstructure:"sentry"`
	Cache      CacheConfig      `mapstructure:"cache"`
}

type DeploymentConfig struct {
	Mode types.RunMode `mapstructure:"mode" validate:"required"`
}

type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `mapstructure:"level" validate:"required"`
}

type PostgresConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"password"`
	DBName                 string `mapstructure:"dbname"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

// SchedulerConfig drives the in-process sweep worker
type SchedulerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	Interval         time.Duration `mapstructure:"interval"`
	MaxConcurrency   int           `mapstructure:"max_concurrency" validate:"omitempty,min=1"`
	RemindersEnabled bool          `mapstructure:"reminders_enabled"`
}

type RecurringConfig struct {
	PricePolicy types.PricePolicy `mapstructure:"price_policy"`
}

// InvoicingConfig points at the external invoicing API
type InvoicingConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RetryMax  int           `mapstructure:"retry_max"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

// CatalogConfig points at the external product catalog API
type CatalogConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	APIKey    string        `mapstructure:"api_key"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RetryMax  int           `mapstructure:"retry_max"`
	RateLimit float64       `mapstructure:"rate_limit"`
}

type KafkaConfig struct {
	Brokers  []string `mapstructure:"brokers"`
	ClientID string   `mapstructure:"client_id"`
	TLS      bool     `mapstructure:"tls"`
}

type SentryConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	DSN         string  `mapstructure:"dsn"`
	Environment string  `mapstructure:"environment"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func NewConfig() (*Configuration, error) {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./internal/config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/recurring")

	v.SetEnvPrefix("RECURRING")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("Error reading config file: %v\n", err)
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	} else {
		fmt.Printf("Using config file: %s\n", v.ConfigFileUsed())
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("deployment.mode", types.ModeLocal)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("logging.level", types.LogLevelInfo)
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.max_open_conns", 10)
	v.SetDefault("postgres.max_idle_conns", 5)
	v.SetDefault("postgres.conn_max_lifetime_minutes", 30)
	v.SetDefault("scheduler.interval", time.Hour)
	v.SetDefault("scheduler.max_concurrency", 1)
	v.SetDefault("scheduler.reminders_enabled", true)
	v.SetDefault("recurring.price_policy", types.PricePolicySnapshot)
	v.SetDefault("invoicing.timeout", 30*time.Second)
	v.SetDefault("invoicing.retry_max", 3)
	v.SetDefault("invoicing.rate_limit", 10)
	v.SetDefault("catalog.cache_ttl", 5*time.Minute)
	v.SetDefault("catalog.timeout", 10*time.Second)
	v.SetDefault("catalog.retry_max", 3)
	v.SetDefault("catalog.rate_limit", 20)
	v.SetDefault("webhook.topic", "recurring_invoice_events")
	v.SetDefault("webhook.pubsub", types.MemoryPubSub)
	v.SetDefault("webhook.max_retries", 3)
	v.SetDefault("webhook.initial_interval", time.Second)
	v.SetDefault("webhook.max_interval", 10*time.Second)
	v.SetDefault("webhook.multiplier", 2.0)
	v.SetDefault("webhook.max_elapsed_time", 2*time.Minute)
	v.SetDefault("kafka.client_id", "recurring")
	v.SetDefault("cache.enabled", true)
}

func (c Configuration) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Recurring.PricePolicy != "" {
		if err := c.Recurring.PricePolicy.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// GetDefaultConfig returns a default configuration for local development
// and tests.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Deployment: DeploymentConfig{Mode: types.ModeLocal},
		Server:     ServerConfig{Address: ":8080"},
		Logging:    LoggingConfig{Level: types.LogLevelDebug},
		Scheduler: SchedulerConfig{
			Interval:         time.Hour,
			MaxConcurrency:   1,
			RemindersEnabled: true,
		},
		Recurring: RecurringConfig{PricePolicy: types.PricePolicySnapshot},
		Invoicing: InvoicingConfig{Timeout: 30 * time.Second, RetryMax: 3, RateLimit: 10},
		Catalog: CatalogConfig{
			CacheTTL:  5 * time.Minute,
			Timeout:   10 * time.Second,
			RetryMax:  3,
			RateLimit: 20,
		},
		Webhook: Webhook{
			Enabled:         true,
			Topic:           "recurring_invoice_events",
			PubSub:          types.MemoryPubSub,
			MaxRetries:      3,
			InitialInterval: time.Second,
			MaxInterval:     10 * time.Second,
			Multiplier:      2,
			MaxElapsedTime:  2 * time.Minute,
		},
		Cache:     CacheConfig{Enabled: true},
	}
}

func (c PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"user=%s password=%s dbname=%s host=%s port=%d sslmode=%s",
		c.User,
		c.Password,
		c.DBName,
		c.Host,
		c.Port,
		c.SSLMode,
	)
}
