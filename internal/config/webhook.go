package config

import (
	"time"

	"github.com/flexprice/recurring/internal/types"
)

// Webhook configures where recurring invoice events are published and,
// when Endpoint is set, where the delivery handler forwards them
type Webhook struct {
	Enabled         bool              `mapstructure:"enabled"`
	Topic           string            `mapstructure:"topic"`
	PubSub          types.PubSubType  `mapstructure:"pubsub"`
	Endpoint        string            `mapstructure:"endpoint"`
	Headers         map[string]string `mapstructure:"headers"`
	MaxRetries      int               `mapstructure:"max_retries"`
	InitialInterval time.Duration     `mapstructure:"initial_interval"`
	MaxInterval     time.Duration     `mapstructure:"max_interval"`
	Multiplier      float64           `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration     `mapstructure:"max_elapsed_time"`
}
