package handler

import (
	"encoding/json"
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/httpclient"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/pubsub"
	pubsubRouter "github.com/flexprice/recurring/internal/pubsub/router"
	"github.com/flexprice/recurring/internal/types"
)

// Handler interface for processing webhook events
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

// handler forwards every event on the webhook topic to the configured endpoint
type handler struct {
	pubSub pubsub.PubSub
	config *config.Webhook
	client httpclient.Client
	logger *logger.Logger
}

// NewHandler creates a new delivery handler
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	client httpclient.Client,
	logger *logger.Logger,
) (Handler, error) {
	return &handler{
		pubSub: pubSub,
		config: &cfg.Webhook,
		client: client,
		logger: logger,
	}, nil
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"webhook_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage processes a single webhook message
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var event types.WebhookEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		h.logger.Errorw("failed to unmarshal webhook event",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	if h.config.Endpoint == "" {
		h.logger.Debugw("no webhook endpoint configured, skipping delivery",
			"event_id", event.ID,
			"event_name", event.EventName,
		)
		return nil
	}

	headers := map[string]string{
		"X-Webhook-Event": event.EventName,
		"X-Webhook-ID":    event.ID,
	}
	for k, v := range h.config.Headers {
		headers[k] = v
	}

	resp, err := h.client.Send(ctx, &httpclient.Request{
		Method:  http.MethodPost,
		URL:     h.config.Endpoint,
		Headers: headers,
		Body:    msg.Payload,
	})
	if err != nil {
		if !shouldRetry(h.logger, err) {
			h.logger.Errorw("dropping webhook after non-retryable failure",
				"error", err,
				"event_id", event.ID,
				"event_name", event.EventName,
			)
			return nil
		}
		return err
	}

	h.logger.Infow("webhook delivered",
		"message_uuid", msg.UUID,
		"event_id", event.ID,
		"event_name", event.EventName,
		"status_code", resp.StatusCode,
	)
	return nil
}
