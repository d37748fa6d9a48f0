package testutil

import (
	"context"
	"time"

	"github.com/flexprice/recurring/internal/cache"
	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/sentry"
	"github.com/flexprice/recurring/internal/types"
	"github.com/flexprice/recurring/internal/validator"
	webhookPublisher "github.com/flexprice/recurring/internal/webhook/publisher"
	"github.com/stretchr/testify/suite"
)

// Stores holds all the repository fakes for testing
type Stores struct {
	RecurringInvoiceRepo *InMemoryRecurringInvoiceStore
	GeneratedInvoiceRepo *InMemoryGeneratedInvoiceStore
}

// Collaborators holds the fakes standing in for external services
type Collaborators struct {
	Catalog        *FakeCatalog
	InvoiceCreator *FakeInvoiceCreator
	ReminderSender *FakeReminderSender
}

// BaseServiceTestSuite provides common functionality for all service test suites
type BaseServiceTestSuite struct {
	suite.Suite
	ctx              context.Context
	stores           Stores
	collaborators    Collaborators
	pubSub           *InMemoryPubSub
	webhookPublisher webhookPublisher.WebhookPublisher
	db               *MockPostgresClient
	cache            cache.Cache
	sentry           *sentry.Service
	logger           *logger.Logger
	config           *config.Configuration
	now              time.Time
}

// SetupSuite is called once before running the tests in the suite
func (s *BaseServiceTestSuite) SetupSuite() {
	validator.NewValidator()

	s.config = config.GetDefaultConfig()
	s.config.Logging.Level = types.LogLevelInfo

	var err error
	s.logger, err = logger.NewLogger(s.config)
	if err != nil {
		s.T().Fatalf("failed to create logger: %v", err)
	}
	s.sentry = sentry.NewSentryService(s.config, s.logger)
}

// SetupTest is called before each test
func (s *BaseServiceTestSuite) SetupTest() {
	s.ctx = SetupContext()
	s.setupStores()
	s.now = time.Now().UTC()
}

// TearDownTest is called after each test
func (s *BaseServiceTestSuite) TearDownTest() {
	s.clearStores()
}

func (s *BaseServiceTestSuite) setupStores() {
	s.stores = Stores{
		RecurringInvoiceRepo: NewInMemoryRecurringInvoiceStore(),
		GeneratedInvoiceRepo: NewInMemoryGeneratedInvoiceStore(),
	}
	s.collaborators = Collaborators{
		Catalog:        NewFakeCatalog(),
		InvoiceCreator: NewFakeInvoiceCreator(),
		ReminderSender: NewFakeReminderSender(),
	}

	s.db = NewMockPostgresClient(s.logger)
	s.cache = cache.NewInMemoryCache(s.config, s.logger)
	s.pubSub = NewInMemoryPubSub()

	publisher, err := webhookPublisher.NewPublisher(s.pubSub, s.config, s.logger)
	if err != nil {
		s.T().Fatalf("failed to create webhook publisher: %v", err)
	}
	s.webhookPublisher = publisher
}

func (s *BaseServiceTestSuite) clearStores() {
	s.stores.RecurringInvoiceRepo.Clear()
	s.stores.GeneratedInvoiceRepo.Clear()
	s.collaborators.Catalog.Clear()
	s.collaborators.InvoiceCreator.Clear()
	s.collaborators.ReminderSender.Clear()
	s.pubSub.ClearMessages()
	s.cache.Flush(s.ctx)
}

func (s *BaseServiceTestSuite) ClearStores() {
	s.clearStores()
}

// GetContext returns the test context
func (s *BaseServiceTestSuite) GetContext() context.Context {
	return s.ctx
}

// GetConfig returns the test configuration
func (s *BaseServiceTestSuite) GetConfig() *config.Configuration {
	return s.config
}

// GetStores returns all test repositories
func (s *BaseServiceTestSuite) GetStores() Stores {
	return s.stores
}

// GetCollaborators returns the external service fakes
func (s *BaseServiceTestSuite) GetCollaborators() Collaborators {
	return s.collaborators
}

// GetPubSub returns the pubsub webhook events are published on
func (s *BaseServiceTestSuite) GetPubSub() *InMemoryPubSub {
	return s.pubSub
}

// GetWebhookPublisher returns the test webhook publisher
func (s *BaseServiceTestSuite) GetWebhookPublisher() webhookPublisher.WebhookPublisher {
	return s.webhookPublisher
}

// GetDB returns the test database client
func (s *BaseServiceTestSuite) GetDB() *MockPostgresClient {
	return s.db
}

// GetCache returns the test cache
func (s *BaseServiceTestSuite) GetCache() cache.Cache {
	return s.cache
}

// GetSentry returns a sentry service with reporting disabled
func (s *BaseServiceTestSuite) GetSentry() *sentry.Service {
	return s.sentry
}

// GetLogger returns the test logger
func (s *BaseServiceTestSuite) GetLogger() *logger.Logger {
	return s.logger
}

// GetNow returns the current test time
func (s *BaseServiceTestSuite) GetNow() time.Time {
	return s.now.UTC()
}

// GetUUID returns a new UUID string
func (s *BaseServiceTestSuite) GetUUID() string {
	return types.GenerateUUID()
}
