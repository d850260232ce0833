// Package scheduler runs periodic maintenance jobs
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/Dan9191/card-service/internal/metrics"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// sweepTimeout bounds a single expired-card sweep
const sweepTimeout = time.Minute

// CardSweeper deactivates cards whose expiry month has ended
type CardSweeper interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// Scheduler wraps a cron runner
type Scheduler struct {
	cron    *cron.Cron
	log     *logrus.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates a scheduler. Jobs recover from panics and are skipped while a
// previous run is still in progress.
func New(log *logrus.Logger, m *metrics.Metrics) *Scheduler {
	cronLog := cron.PrintfLogger(log)
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.Recover(cronLog),
			cron.SkipIfStillRunning(cronLog),
		)),
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// AddCardSweep schedules the expired-card sweep. An empty spec disables it.
func (s *Scheduler) AddCardSweep(spec string, sweeper CardSweeper) error {
	if spec == "" {
		s.log.Info("Expired card sweeper disabled")
		return nil
	}
	_, err := s.cron.AddFunc(spec, func() {
		s.SweepCards(context.Background(), sweeper)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule card sweep %q: %w", spec, err)
	}
	s.log.Infof("Expired card sweeper scheduled: %s", spec)
	return nil
}

// SweepCards runs one sweep and records its outcome
func (s *Scheduler) SweepCards(ctx context.Context, sweeper CardSweeper) {
	ctx, cancel := context.WithTimeout(ctx, sweepTimeout)
	defer cancel()

	n, err := sweeper.DeactivateExpired(ctx, s.now())
	if s.metrics != nil {
		s.metrics.SweepCompleted(n, err)
	}
	if err != nil {
		s.log.WithError(err).Error("Expired card sweep failed")
		return
	}
	s.log.WithField("deactivated", n).Info("Expired card sweep completed")
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("Scheduler stopped before running jobs finished")
	}
}
