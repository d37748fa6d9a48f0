package repository

import (
	"github.com/flexprice/recurring/internal/domain/recurringinvoice"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/postgres"
	postgresRepo "github.com/flexprice/recurring/internal/repository/postgres"
)

type RepositoryType string

const (
	PostgresRepo RepositoryType = "postgres"
)

func NewRecurringInvoiceRepository(db *postgres.DB, logger *logger.Logger) recurringinvoice.Repository {
	return postgresRepo.NewRecurringInvoiceRepository(db, logger)
}

func NewGeneratedInvoiceRepository(db *postgres.DB, logger *logger.Logger) recurringinvoice.GeneratedInvoiceRepository {
	return postgresRepo.NewGeneratedInvoiceRepository(db, logger)
}
