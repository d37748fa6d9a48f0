package webhook

import (
	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/httpclient"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/pubsub"
	"github.com/flexprice/recurring/internal/pubsub/kafka"
	"github.com/flexprice/recurring/internal/pubsub/memory"
	pubsubRouter "github.com/flexprice/recurring/internal/pubsub/router"
	"github.com/flexprice/recurring/internal/types"
	"github.com/flexprice/recurring/internal/webhook/handler"
	"github.com/flexprice/recurring/internal/webhook/publisher"
	"go.uber.org/fx"
)

// Module provides all webhook-related dependencies
var Module = fx.Options(
	fx.Provide(
		providePubSub,
		provideDeliveryClient,
		pubsubRouter.NewRouter,
	),

	fx.Provide(
		// Publisher for sending webhook events
		publisher.NewPublisher,

		// Reminder dispatch rides on the webhook topic
		publisher.NewReminderSender,

		// Handler forwarding events to the configured endpoint
		handler.NewHandler,

		NewWebhookService,
	),
)

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) (pubsub.PubSub, error) {
	switch cfg.Webhook.PubSub {
	case types.KafkaPubSub:
		return kafka.NewPubSub(cfg, logger)
	default:
		return memory.NewPubSub(cfg, logger), nil
	}
}

func provideDeliveryClient(cfg *config.Configuration, logger *logger.Logger) httpclient.Client {
	// the router's retry middleware owns redelivery
	return httpclient.NewDefaultClient(httpclient.ClientConfig{
		Timeout: cfg.Invoicing.Timeout,
	}, logger)
}
