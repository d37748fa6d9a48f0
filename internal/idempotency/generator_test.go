package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerationKeyIsDeterministic(t *testing.T) {
	g := NewGenerator()
	date := time.Date(2024, time.January, 31, 0, 0, 0, 0, time.UTC)

	k1 := g.GenerationKey("rinv_1", date)
	k2 := g.GenerationKey("rinv_1", date.Add(15*time.Hour))
	assert.Equal(t, k1, k2)
	assert.Contains(t, k1, string(ScopeRecurringInvoice))

	assert.NotEqual(t, k1, g.GenerationKey("rinv_2", date))
	assert.NotEqual(t, k1, g.GenerationKey("rinv_1", date.AddDate(0, 0, 1)))
	assert.NotEqual(t, k1, g.ReminderKey("rinv_1", date))
}

func TestGenerateKeyIgnoresParamOrder(t *testing.T) {
	g := NewGenerator()
	key := g.GenerateKey(ScopeRecurringInvoice, map[string]interface{}{"b": 2, "a": "x"})

	assert.Equal(t, key, g.GenerateKey(ScopeRecurringInvoice, map[string]interface{}{"a": "x", "b": 2}))
	assert.NotEqual(t, key, g.GenerateKey(ScopeRecurringReminder, map[string]interface{}{"a": "x", "b": 2}))
}
