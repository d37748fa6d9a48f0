package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/flexprice/recurring/internal/domain/catalog"
	"github.com/flexprice/recurring/internal/domain/invoicing"
	ierr "github.com/flexprice/recurring/internal/errors"
)

var (
	_ catalog.Client           = (*FakeCatalog)(nil)
	_ invoicing.Creator        = (*FakeInvoiceCreator)(nil)
	_ invoicing.ReminderSender = (*FakeReminderSender)(nil)
)

// FakeCatalog serves products from memory and counts lookups
type FakeCatalog struct {
	mu       sync.RWMutex
	products map[string]*catalog.Product
	lookups  int
}

func NewFakeCatalog() *FakeCatalog {
	return &FakeCatalog{products: make(map[string]*catalog.Product)}
}

func (c *FakeCatalog) AddProduct(p *catalog.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[p.ID] = p
}

func (c *FakeCatalog) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lookups++

	p, ok := c.products[id]
	if !ok {
		return nil, ierr.NewErrorf("product %s not found", id).
			WithHint("Product not found in catalog").
			Mark(ierr.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (c *FakeCatalog) Lookups() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lookups
}

func (c *FakeCatalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = make(map[string]*catalog.Product)
	c.lookups = 0
}

// FakeInvoiceCreator mimics the invoicing API: a repeated idempotency key
// returns the invoice created the first time
type FakeInvoiceCreator struct {
	mu       sync.Mutex
	byKey    map[string]string
	requests []*invoicing.CreateInvoiceRequest
	calls    int
	// FailFor makes requests for the listed series IDs fail
	FailFor map[string]error
	// PanicFor makes requests for the listed series IDs panic
	PanicFor map[string]bool
	// OnCreate runs after an invoice is created, before the response returns
	OnCreate func(ctx context.Context, req *invoicing.CreateInvoiceRequest)
}

func NewFakeInvoiceCreator() *FakeInvoiceCreator {
	return &FakeInvoiceCreator{
		byKey:    make(map[string]string),
		FailFor:  make(map[string]error),
		PanicFor: make(map[string]bool),
	}
}

func (c *FakeInvoiceCreator) CreateInvoice(ctx context.Context, req *invoicing.CreateInvoiceRequest) (*invoicing.CreateInvoiceResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	if c.PanicFor[req.SeriesID] {
		panic(fmt.Sprintf("invoicing exploded for %s", req.SeriesID))
	}
	if err, ok := c.FailFor[req.SeriesID]; ok {
		return nil, err
	}

	if id, ok := c.byKey[req.IdempotencyKey]; ok {
		return &invoicing.CreateInvoiceResponse{InvoiceID: id}, nil
	}

	id := fmt.Sprintf("inv_%d", len(c.byKey)+1)
	c.byKey[req.IdempotencyKey] = id
	c.requests = append(c.requests, req)
	if c.OnCreate != nil {
		c.OnCreate(ctx, req)
	}
	return &invoicing.CreateInvoiceResponse{InvoiceID: id}, nil
}

// Requests returns the requests that created a new invoice
func (c *FakeInvoiceCreator) Requests() []*invoicing.CreateInvoiceRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*invoicing.CreateInvoiceRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

// Calls returns every CreateInvoice call including idempotent replays
func (c *FakeInvoiceCreator) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *FakeInvoiceCreator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byKey = make(map[string]string)
	c.requests = nil
	c.calls = 0
	c.FailFor = make(map[string]error)
	c.PanicFor = make(map[string]bool)
	c.OnCreate = nil
}

// FakeReminderSender records reminders
type FakeReminderSender struct {
	mu        sync.Mutex
	reminders []*invoicing.Reminder
	Err       error
}

func NewFakeReminderSender() *FakeReminderSender {
	return &FakeReminderSender{}
}

func (s *FakeReminderSender) SendReminder(ctx context.Context, r *invoicing.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.reminders = append(s.reminders, r)
	return nil
}

func (s *FakeReminderSender) Reminders() []*invoicing.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*invoicing.Reminder, len(s.reminders))
	copy(out, s.reminders)
	return out
}

func (s *FakeReminderSender) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reminders = nil
	s.Err = nil
}
