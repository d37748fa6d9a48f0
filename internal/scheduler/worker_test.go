package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/flexprice/recurring/internal/api/dto"
	"github.com/flexprice/recurring/internal/config"
	ierr "github.com/flexprice/recurring/internal/errors"
	"github.com/flexprice/recurring/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingScheduler struct {
	mu        sync.Mutex
	generate  []time.Time
	remind    []time.Time
	failSweep bool
}

func (r *recordingScheduler) ProcessDueSeries(ctx context.Context, asOf time.Time) (*dto.SweepResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generate = append(r.generate, asOf)
	if r.failSweep {
		return nil, ierr.NewError("database unavailable").Mark(ierr.ErrDatabase)
	}
	return &dto.SweepResponse{}, nil
}

func (r *recordingScheduler) ProcessReminders(ctx context.Context, asOf time.Time) (*dto.SweepResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remind = append(r.remind, asOf)
	return &dto.SweepResponse{}, nil
}

func (r *recordingScheduler) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.generate), len(r.remind)
}

func newTestWorker(svc *recordingScheduler, mutate func(*config.SchedulerConfig)) *Worker {
	cfg := config.GetDefaultConfig()
	cfg.Scheduler.Enabled = true
	cfg.Scheduler.Interval = 10 * time.Millisecond
	if mutate != nil {
		mutate(&cfg.Scheduler)
	}
	w := NewWorker(svc, cfg, logger.NewNoopLogger())
	w.now = func() time.Time { return time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC) }
	return w
}

func TestRunOnce(t *testing.T) {
	svc := &recordingScheduler{}
	w := newTestWorker(svc, nil)

	w.RunOnce(context.Background())

	generated, reminded := svc.counts()
	assert.Equal(t, 1, generated)
	assert.Equal(t, 1, reminded)
	assert.Equal(t, time.Date(2024, 1, 31, 8, 0, 0, 0, time.UTC), svc.generate[0])
}

func TestRunOnceWithoutReminders(t *testing.T) {
	svc := &recordingScheduler{}
	w := newTestWorker(svc, func(c *config.SchedulerConfig) { c.RemindersEnabled = false })

	w.RunOnce(context.Background())

	generated, reminded := svc.counts()
	assert.Equal(t, 1, generated)
	assert.Zero(t, reminded)
}

func TestRunOnceContinuesAfterGenerationFailure(t *testing.T) {
	svc := &recordingScheduler{failSweep: true}
	w := newTestWorker(svc, nil)

	w.RunOnce(context.Background())

	_, reminded := svc.counts()
	assert.Equal(t, 1, reminded)
}

func TestStartStop(t *testing.T) {
	svc := &recordingScheduler{}
	w := newTestWorker(svc, nil)

	w.Start()
	// a second start is ignored
	w.Start()

	require.Eventually(t, func() bool {
		generated, _ := svc.counts()
		return generated >= 2
	}, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, w.Stop(ctx))

	generated, _ := svc.counts()
	time.Sleep(30 * time.Millisecond)
	after, _ := svc.counts()
	assert.Equal(t, generated, after)

	// stopping twice is fine
	assert.NoError(t, w.Stop(ctx))
}

func TestDisabledWorkerDoesNotStart(t *testing.T) {
	svc := &recordingScheduler{}
	w := newTestWorker(svc, func(c *config.SchedulerConfig) { c.Enabled = false })

	w.Start()
	time.Sleep(30 * time.Millisecond)

	generated, _ := svc.counts()
	assert.Zero(t, generated)
	assert.NoError(t, w.Stop(context.Background()))
}
