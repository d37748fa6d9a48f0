package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/recurring/internal/config"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/flexprice/recurring/internal/service"
	"go.uber.org/fx"
)

// Worker periodically runs the generation sweep followed by the reminder sweep
type Worker struct {
	svc    service.SchedulerService
	cfg    config.SchedulerConfig
	logger *logger.Logger
	now    func() time.Time

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewWorker(svc service.SchedulerService, cfg *config.Configuration, logger *logger.Logger) *Worker {
	return &Worker{
		svc:    svc,
		cfg:    cfg.Scheduler,
		logger: logger.With("component", "scheduler"),
		now:    time.Now,
	}
}

// Start launches the loop in the background. It is a no-op when the worker
// is disabled or already running.
func (w *Worker) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.cfg.Enabled || w.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.done = make(chan struct{})

	interval := w.cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}

	w.logger.Infow("starting recurring invoice scheduler",
		"interval", interval.String(),
		"max_concurrency", w.cfg.MaxConcurrency,
		"reminders_enabled", w.cfg.RemindersEnabled,
	)
	go w.run(ctx, interval)
}

// Stop cancels the loop and waits for an in-flight sweep to return
func (w *Worker) Stop(ctx context.Context) error {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-done:
		w.logger.Info("recurring invoice scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) run(ctx context.Context, interval time.Duration) {
	defer close(w.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		w.RunOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RunOnce performs a single generation sweep and, when enabled, a reminder sweep
func (w *Worker) RunOnce(ctx context.Context) {
	asOf := w.now().UTC()

	if _, err := w.svc.ProcessDueSeries(ctx, asOf); err != nil {
		w.logger.Errorw("recurring invoice generation sweep failed", "error", err)
	}

	if !w.cfg.RemindersEnabled || ctx.Err() != nil {
		return
	}

	if _, err := w.svc.ProcessReminders(ctx, asOf); err != nil {
		w.logger.Errorw("recurring invoice reminder sweep failed", "error", err)
	}
}

// RegisterHooks ties the worker to the fx lifecycle
func RegisterHooks(lc fx.Lifecycle, w *Worker) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			w.Start()
			return nil
		},
		OnStop: w.Stop,
	})
}
