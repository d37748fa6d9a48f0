package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/flexprice/recurring/internal/types"
)

// Scope represents the scope of idempotency
type Scope string

const (
	// ScopeRecurringInvoice guards invoice creation for one generation of a series
	ScopeRecurringInvoice Scope = "recurring_invoice"

	// ScopeRecurringReminder guards the reminder sent ahead of one generation
	ScopeRecurringReminder Scope = "recurring_reminder"
)

// Generator generates idempotency keys
type Generator struct{}

// NewGenerator creates a new idempotency key generator
func NewGenerator() *Generator {
	return &Generator{}
}

// GenerateKey generates an idempotency key from a scope and parameters
func (g *Generator) GenerateKey(scope Scope, params map[string]interface{}) string {
	// Sort params for consistent hashing
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(scope))
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(":%s=%v", k, params[k]))
	}

	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s-%s", scope, hex.EncodeToString(hash[:16]))
}

// GenerationKey is the key of one generation: the same series and anchor
// date always produce the same key.
func (g *Generator) GenerationKey(seriesID string, generationDate time.Time) string {
	return g.GenerateKey(ScopeRecurringInvoice, map[string]interface{}{
		"series_id":       seriesID,
		"generation_date": types.FormatDate(generationDate),
	})
}

// ReminderKey is the key of the reminder for one generation
func (g *Generator) ReminderKey(seriesID string, generationDate time.Time) string {
	return g.GenerateKey(ScopeRecurringReminder, map[string]interface{}{
		"series_id":       seriesID,
		"generation_date": types.FormatDate(generationDate),
	})
}
