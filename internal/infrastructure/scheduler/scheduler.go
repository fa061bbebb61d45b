package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/taskmate/server/internal/application/services"
	"github.com/taskmate/server/internal/infrastructure/config"
	"github.com/taskmate/server/internal/infrastructure/logger"
)

// Scheduler drives the periodic sweeps in the background. The penalty sweep
// runs on a fixed interval; the reset sweep runs shortly after every local
// midnight, when reset boundaries can newly fall due. Both sweeps are
// idempotent, so the cadence only affects how quickly work is picked up.
type Scheduler struct {
	sweeps *services.SweepService
	cfg    config.SweepConfig
	logger *logger.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new sweep scheduler
func New(sweeps *services.SweepService, cfg config.SweepConfig, appLogger *logger.Logger) *Scheduler {
	return &Scheduler{
		sweeps: sweeps,
		cfg:    cfg,
		logger: appLogger,
	}
}

// Start launches the background sweep loops. Calling Start on a running
// scheduler is a no-op.
func (s *Scheduler) Start() {
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.wg.Add(2)
	go s.penaltyLoop(ctx)
	go s.resetLoop(ctx)

	s.logger.Info("Sweep scheduler started", "penalty_interval", s.cfg.PenaltyInterval)
}

// Stop halts the sweep loops and waits for any in-flight sweep to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.cancel = nil

	s.logger.Info("Sweep scheduler stopped")
}

func (s *Scheduler) penaltyLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.PenaltyInterval)
	defer ticker.Stop()

	// One pass at startup to catch work accumulated while down.
	s.runPenalties(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runPenalties(ctx)
		}
	}
}

func (s *Scheduler) resetLoop(ctx context.Context) {
	defer s.wg.Done()

	s.runResets(ctx)

	for {
		timer := time.NewTimer(untilNextMidnight(time.Now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.runResets(ctx)
		}
	}
}

func (s *Scheduler) runPenalties(ctx context.Context) {
	if _, err := s.sweeps.PenalizeOverdue(ctx); err != nil {
		s.logger.Error("Scheduled penalty sweep failed", "error", err)
	}
}

func (s *Scheduler) runResets(ctx context.Context) {
	if _, err := s.sweeps.RunResets(ctx); err != nil {
		s.logger.Error("Scheduled reset sweep failed", "error", err)
	}
}

// untilNextMidnight returns the wait until just past the next local midnight.
// The minute of slack keeps the sweep clear of the boundary itself.
func untilNextMidnight(now time.Time) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, 1)
	return next.Sub(now) + time.Minute
}
