package service

import (
	"github.com/flexprice/recurring/internal/cache"
	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/domain/catalog"
	"github.com/flexprice/recurring/internal/domain/invoicing"
	"github.com/flexprice/recurring/internal/domain/recurringinvoice"
	"github.com/flexprice/recurring/internal/idempotency"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/postgres"
	"github.com/flexprice/recurring/internal/sentry"
	webhookPublisher "github.com/flexprice/recurring/internal/webhook/publisher"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache
	Sentry *sentry.Service

	// Repositories
	RecurringInvoiceRepo recurringinvoice.Repository
	GeneratedInvoiceRepo recurringinvoice.GeneratedInvoiceRepository

	// Collaborators
	CatalogClient  catalog.Client
	InvoiceCreator invoicing.Creator
	ReminderSender invoicing.ReminderSender

	// Publishers
	WebhookPublisher webhookPublisher.WebhookPublisher

	IdempotencyGenerator *idempotency.Generator
}

// Common service params
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	sentry *sentry.Service,
	recurringInvoiceRepo recurringinvoice.Repository,
	generatedInvoiceRepo recurringinvoice.GeneratedInvoiceRepository,
	catalogClient catalog.Client,
	invoiceCreator invoicing.Creator,
	reminderSender invoicing.ReminderSender,
	webhookPublisher webhookPublisher.WebhookPublisher,
) ServiceParams {
	return ServiceParams{
		Logger:               logger,
		Config:               config,
		DB:                   db,
		Cache:                cache,
		Sentry:               sentry,
		RecurringInvoiceRepo: recurringInvoiceRepo,
		GeneratedInvoiceRepo: generatedInvoiceRepo,
		CatalogClient:        catalogClient,
		InvoiceCreator:       invoiceCreator,
		ReminderSender:       reminderSender,
		WebhookPublisher:     webhookPublisher,
		IdempotencyGenerator: idempotency.NewGenerator(),
	}
}
