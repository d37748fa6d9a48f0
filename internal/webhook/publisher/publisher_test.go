package publisher

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/domain/invoicing"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/pubsub/memory"
	"github.com/flexprice/recurring/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReminderSender_PublishesReminderEvent(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cfg := config.GetDefaultConfig()
	log := logger.NewNoopLogger()
	ps := memory.NewPubSub(cfg, log)
	defer ps.Close()

	messages, err := ps.Subscribe(ctx, cfg.Webhook.Topic)
	require.NoError(t, err)

	pub, err := NewPublisher(ps, cfg, log)
	require.NoError(t, err)
	sender := NewReminderSender(pub, log)

	err = sender.SendReminder(ctx, &invoicing.Reminder{
		IdempotencyKey:     "recurring_reminder-abc",
		SeriesID:           "rinv_1",
		ClientID:           "client_1",
		NextGenerationDate: time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC),
		DaysBefore:         3,
	})
	require.NoError(t, err)

	select {
	case msg := <-messages:
		msg.Ack()
		assert.Equal(t, "recurring_reminder-abc", msg.UUID)

		var event types.WebhookEvent
		require.NoError(t, json.Unmarshal(msg.Payload, &event))
		assert.Equal(t, types.WebhookEventRecurringInvoiceReminder, event.EventName)

		var payload reminderPayload
		require.NoError(t, json.Unmarshal(event.Payload, &payload))
		assert.Equal(t, "rinv_1", payload.RecurringInvoiceID)
		assert.Equal(t, "2024-03-10", payload.NextGenerationDate)
		assert.Equal(t, 3, payload.DaysBefore)
	case <-ctx.Done():
		t.Fatal("reminder event was not published")
	}
}

func TestPublishWebhook_DisabledDropsEvent(t *testing.T) {
	cfg := config.GetDefaultConfig()
	cfg.Webhook.Enabled = false
	log := logger.NewNoopLogger()
	ps := memory.NewPubSub(cfg, log)
	defer ps.Close()

	pub, err := NewPublisher(ps, cfg, log)
	require.NoError(t, err)

	event, err := NewEvent(context.Background(), types.WebhookEventRecurringInvoiceGenerated, map[string]string{"id": "x"})
	require.NoError(t, err)
	assert.NoError(t, pub.PublishWebhook(context.Background(), event))
}
