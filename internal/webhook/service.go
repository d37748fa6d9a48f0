package webhook

import (
	"context"
	"fmt"

	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/logger"
	pubsubRouter "github.com/flexprice/recurring/internal/pubsub/router"
	"github.com/flexprice/recurring/internal/webhook/handler"
	"github.com/flexprice/recurring/internal/webhook/publisher"
	"go.uber.org/fx"
)

// WebhookService orchestrates webhook operations
type WebhookService struct {
	config    *config.Configuration
	publisher publisher.WebhookPublisher
	handler   handler.Handler
	router    *pubsubRouter.Router
	logger    *logger.Logger
	cancel    context.CancelFunc
}

// NewWebhookService creates a new webhook service
func NewWebhookService(
	cfg *config.Configuration,
	publisher publisher.WebhookPublisher,
	h handler.Handler,
	router *pubsubRouter.Router,
	l *logger.Logger,
) *WebhookService {
	return &WebhookService{
		config:    cfg,
		publisher: publisher,
		handler:   h,
		router:    router,
		logger:    l,
	}
}

// Start registers the delivery handler and runs the router in the background
func (s *WebhookService) Start(ctx context.Context) error {
	if !s.config.Webhook.Enabled {
		s.logger.Info("webhook service disabled")
		return nil
	}

	s.handler.RegisterHandler(s.router)

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		if err := s.router.Run(runCtx); err != nil {
			s.logger.Errorw("webhook router stopped", "error", err)
		}
	}()

	select {
	case <-s.router.Running():
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("webhook service started successfully")
	return nil
}

// Stop stops the webhook service
func (s *WebhookService) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}

	if err := s.router.Close(); err != nil {
		s.logger.Errorw("failed to close webhook router", "error", err)
		return fmt.Errorf("failed to close webhook router: %w", err)
	}

	if err := s.publisher.Close(); err != nil {
		s.logger.Errorw("failed to close webhook publisher", "error", err)
		return fmt.Errorf("failed to close webhook publisher: %w", err)
	}

	s.logger.Info("webhook service stopped successfully")
	return nil
}

// RegisterHooks ties the service to the fx lifecycle
func RegisterHooks(lc fx.Lifecycle, svc *WebhookService) {
	lc.Append(fx.Hook{
		OnStart: svc.Start,
		OnStop: func(ctx context.Context) error {
			return svc.Stop()
		},
	})
}
