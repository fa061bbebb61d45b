package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/infrastructure/logger"
	"github.com/taskmate/server/internal/infrastructure/metrics"
	"github.com/taskmate/server/internal/ports"
)

// SweepService runs the periodic sweeps: penalizing overdue tasks and
// resetting group coin standings. Both sweeps are plain methods driven by an
// external trigger (the background scheduler, the CLI, or the guarded
// endpoints) and are idempotent per item, so re-running within the same
// period is safe. Per-item failures are logged and skipped; only a failure to
// enumerate the work aborts a sweep.
type SweepService struct {
	taskRepo  ports.TaskRepository
	groupRepo ports.GroupRepository
	ledger    ports.LedgerRepository
	clock     Clock
	metrics   *metrics.SweepMetrics
	logger    *logger.Logger
}

// NewSweepService creates a new sweep service
func NewSweepService(
	taskRepo ports.TaskRepository,
	groupRepo ports.GroupRepository,
	ledger ports.LedgerRepository,
	clock Clock,
	sweepMetrics *metrics.SweepMetrics,
	logger *logger.Logger,
) *SweepService {
	return &SweepService{
		taskRepo:  taskRepo,
		groupRepo: groupRepo,
		ledger:    ledger,
		clock:     clock,
		metrics:   sweepMetrics,
		logger:    logger,
	}
}

// PenalizeOverdue debits the fixed penalty from the owner of every task that
// is still pending past its due date and has not been penalized before. The
// penalized flag guards each task so it is fined at most once no matter how
// many sweeps run. Tasks stay pending and still earn full coins if completed
// later; the penalty is not reversed.
func (s *SweepService) PenalizeOverdue(ctx context.Context) (*ports.SweepResult, error) {
	now := s.clock.Now()

	tasks, err := s.taskRepo.ListOverduePending(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("penalty sweep aborted: %w", err)
	}

	result := &ports.SweepResult{}
	for _, task := range tasks {
		penalized, err := s.penalizeTask(ctx, task)
		if err != nil {
			s.logger.Warn("Skipping task in penalty sweep", "error", err, "task_id", task.ID)
			s.metrics.ItemsSkipped.WithLabelValues("penalties").Inc()
			result.Skipped++
			continue
		}
		if penalized {
			result.Processed++
		}
	}

	s.logger.LogSweep("penalties", result.Processed, result.Skipped, nil)

	return result, nil
}

// penalizeTask applies the penalty for one task. The flag claim and the debit
// are one transaction in the ledger, so a failed item leaves the task
// unpenalized and undebited and the next sweep settles it exactly once.
func (s *SweepService) penalizeTask(ctx context.Context, task *entities.Task) (bool, error) {
	claimed, err := s.ledger.ApplyPenalty(ctx, task.ID, task.UserID, task.GroupID, entities.OverduePenalty)
	if err != nil {
		return false, fmt.Errorf("apply penalty: %w", err)
	}
	if !claimed {
		// Another sweep got here first; nothing was debited.
		s.logger.Warn("Task already penalized by a concurrent sweep", "task_id", task.ID)
		return false, nil
	}

	s.logger.LogCoinMutation(task.UserID.String(), task.GroupID.String(), -entities.OverduePenalty, "overdue_penalty")
	s.metrics.TasksPenalized.Inc()
	return true, nil
}

// RunResets walks every group and performs its periodic coin reset when the
// boundary has passed. Groups with no computed boundary get one and are left
// alone until the next cycle. A group whose boundary is still in the future
// is untouched, which makes re-running the sweep within a period a no-op.
func (s *SweepService) RunResets(ctx context.Context) (*ports.SweepResult, error) {
	now := s.clock.Now()

	groups, err := s.groupRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset sweep aborted: %w", err)
	}

	result := &ports.SweepResult{}
	for _, group := range groups {
		processed, err := s.checkGroupReset(ctx, group, now)
		if err != nil {
			s.logger.Warn("Skipping group in reset sweep", "error", err, "group_id", group.ID)
			s.metrics.ItemsSkipped.WithLabelValues("resets").Inc()
			result.Skipped++
			continue
		}
		if processed {
			result.Processed++
		}
	}

	s.logger.LogSweep("resets", result.Processed, result.Skipped, nil)

	return result, nil
}

// checkGroupReset handles a single group. Returns true when a reset was
// actually performed.
func (s *SweepService) checkGroupReset(ctx context.Context, group *entities.Group, now time.Time) (bool, error) {
	// Initialize the boundary on first sight and skip further action this
	// cycle. An unknown cadence leaves it unset so the group is retried next
	// cycle instead of corrupting state.
	if group.NextResetDate == nil {
		from := group.CreatedAt
		if group.LastResetDate != nil {
			from = *group.LastResetDate
		}

		next, err := entities.NextResetDate(group.ResetFrequency, from)
		if err != nil {
			return false, fmt.Errorf("compute initial boundary: %w", err)
		}

		if err := s.groupRepo.SetNextResetDate(ctx, group.ID, next); err != nil {
			return false, fmt.Errorf("persist initial boundary: %w", err)
		}

		s.logger.Info("Initialized reset boundary", "group_id", group.ID, "next_reset", next)
		return false, nil
	}

	if !group.ResetDue(now) {
		return false, nil
	}

	// Compute the next boundary before touching any balances so a
	// misconfigured cadence skips the group cleanly.
	next, err := entities.NextResetDate(group.ResetFrequency, now)
	if err != nil {
		return false, fmt.Errorf("compute next boundary: %w", err)
	}

	if err := s.resetGroup(ctx, group, now, next); err != nil {
		return false, err
	}

	return true, nil
}

// resetGroup snapshots the period's leader and loser, zeroes every member's
// weekly counter for this group, and advances the reset dates. Only the
// per-group entries are zeroed; the users table running totals are not
// touched by a reset.
func (s *SweepService) resetGroup(ctx context.Context, group *entities.Group, now, next time.Time) error {
	members, err := s.groupRepo.ListMembers(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}

	balances, err := s.ledger.ListGroupBalances(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("list balances: %w", err)
	}

	byUser := make(map[uuid.UUID]entities.GroupCoin, len(balances))
	for _, b := range balances {
		byUser[b.UserID] = b
	}

	// Members come back in join order; strict comparisons keep the first
	// encountered member on ties.
	var leader, loser *entities.PeriodStanding
	memberIDs := make([]uuid.UUID, 0, len(members))
	for _, member := range members {
		memberIDs = append(memberIDs, member.ID)
		coins := byUser[member.ID].WeeklyCoins // absent entry reads as 0

		if leader == nil || coins > leader.Coins {
			leader = &entities.PeriodStanding{UserID: member.ID, Coins: coins, WeekEnding: now}
		}
		if loser == nil || coins < loser.Coins {
			loser = &entities.PeriodStanding{UserID: member.ID, Coins: coins, WeekEnding: now}
		}
	}

	if err := s.ledger.ZeroWeekly(ctx, group.ID, memberIDs); err != nil {
		return fmt.Errorf("zero weekly coins: %w", err)
	}

	if err := s.groupRepo.RecordReset(ctx, group.ID, leader, loser, now, next); err != nil {
		return fmt.Errorf("record reset: %w", err)
	}

	s.metrics.GroupsReset.Inc()
	s.logger.Info("Group coins reset",
		"group_id", group.ID,
		"members", len(members),
		"next_reset", next,
	)

	return nil
}
