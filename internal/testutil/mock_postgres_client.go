package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/postgres"
	"github.com/flexprice/recurring/internal/types"
)

var _ postgres.IClient = (*MockPostgresClient)(nil) // Ensure MockPostgresClient implements IClient

type txMarker struct{}

// MockPostgresClient runs transactional closures inline and counts them
type MockPostgresClient struct {
	logger *logger.Logger

	mu      sync.Mutex
	txCount int
}

// NewMockPostgresClient creates a new mock postgres client
func NewMockPostgresClient(logger *logger.Logger) *MockPostgresClient {
	return &MockPostgresClient{
		logger: logger,
	}
}

// WithTx executes the given function within a transaction
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	// If we're already in a transaction, reuse it
	if ctx.Value(types.CtxDBTransaction) != nil {
		return fn(ctx)
	}

	c.mu.Lock()
	c.txCount++
	c.mu.Unlock()

	return fn(context.WithValue(ctx, types.CtxDBTransaction, txMarker{}))
}

// TxCount returns how many outermost transactions were opened
func (c *MockPostgresClient) TxCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.txCount
}
