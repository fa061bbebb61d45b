package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/infrastructure/logger"
	"github.com/taskmate/server/internal/infrastructure/metrics"
)

func newSweepService(taskRepo *fakeTaskRepo, groupRepo *fakeGroupRepo, ledger *fakeLedger, now time.Time) *SweepService {
	ledger.tasks = taskRepo
	return NewSweepService(
		taskRepo,
		groupRepo,
		ledger,
		&fakeClock{now: now},
		metrics.NewSweepMetrics(prometheus.NewRegistry()),
		logger.NewNop(),
	)
}

func TestPenalizeOverdue(t *testing.T) {
	now := time.Date(2026, time.January, 7, 3, 0, 0, 0, time.UTC)
	groupID := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	taskRepo := newFakeTaskRepo()
	ledger := newFakeLedger()

	overdueA := taskRepo.add(&entities.Task{
		UserID: alice, GroupID: groupID,
		Status: entities.TaskStatusPending, DueDate: now.Add(-24 * time.Hour),
	})
	overdueB := taskRepo.add(&entities.Task{
		UserID: bob, GroupID: groupID,
		Status: entities.TaskStatusPending, DueDate: now.Add(-time.Hour),
	})
	// Not due yet and already completed tasks must be untouched.
	taskRepo.add(&entities.Task{
		UserID: alice, GroupID: groupID,
		Status: entities.TaskStatusPending, DueDate: now.Add(time.Hour),
	})
	taskRepo.add(&entities.Task{
		UserID: alice, GroupID: groupID,
		Status: entities.TaskStatusCompleted, DueDate: now.Add(-time.Hour),
	})

	svc := newSweepService(taskRepo, newFakeGroupRepo(), ledger, now)

	result, err := svc.PenalizeOverdue(context.Background())
	if err != nil {
		t.Fatalf("PenalizeOverdue returned error: %v", err)
	}

	if result.Processed != 2 || result.Skipped != 0 {
		t.Errorf("result = %+v, want 2 processed, 0 skipped", result)
	}

	if len(ledger.deltas) != 2 {
		t.Fatalf("ledger deltas = %d, want 2", len(ledger.deltas))
	}
	for _, d := range ledger.deltas {
		if d.delta != -entities.OverduePenalty {
			t.Errorf("delta = %d, want %d", d.delta, -entities.OverduePenalty)
		}
	}

	if !taskRepo.tasks[overdueA.ID].Penalized || !taskRepo.tasks[overdueB.ID].Penalized {
		t.Error("overdue tasks were not flagged as penalized")
	}

	// A second run finds nothing to do.
	ledger.deltas = nil
	result, err = svc.PenalizeOverdue(context.Background())
	if err != nil {
		t.Fatalf("second PenalizeOverdue returned error: %v", err)
	}
	if result.Processed != 0 || len(ledger.deltas) != 0 {
		t.Errorf("second run penalized again: %+v, %d deltas", result, len(ledger.deltas))
	}
}

func TestPenalizeOverdueContinuesOnItemFailure(t *testing.T) {
	now := time.Date(2026, time.January, 7, 3, 0, 0, 0, time.UTC)
	groupID := uuid.New()
	broken := uuid.New()
	healthy := uuid.New()

	taskRepo := newFakeTaskRepo()
	ledger := newFakeLedger()
	ledger.applyErrFor[broken] = errors.New("connection reset")

	taskRepo.add(&entities.Task{
		UserID: broken, GroupID: groupID,
		Status: entities.TaskStatusPending, DueDate: now.Add(-time.Hour),
	})
	fine := taskRepo.add(&entities.Task{
		UserID: healthy, GroupID: groupID,
		Status: entities.TaskStatusPending, DueDate: now.Add(-time.Hour),
	})

	svc := newSweepService(taskRepo, newFakeGroupRepo(), ledger, now)

	result, err := svc.PenalizeOverdue(context.Background())
	if err != nil {
		t.Fatalf("PenalizeOverdue returned error: %v", err)
	}

	if result.Processed != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 1 processed, 1 skipped", result)
	}
	if !taskRepo.tasks[fine.ID].Penalized {
		t.Error("healthy task was not penalized after the failing one")
	}
}

func TestPenalizeOverdueDebitsOncePerTaskAcrossFailedRuns(t *testing.T) {
	now := time.Date(2026, time.January, 7, 3, 0, 0, 0, time.UTC)
	groupID := uuid.New()
	alice := uuid.New()

	taskRepo := newFakeTaskRepo()
	ledger := newFakeLedger()
	ledger.applyErrFor[alice] = errors.New("connection reset")

	task := taskRepo.add(&entities.Task{
		UserID: alice, GroupID: groupID,
		Status: entities.TaskStatusPending, DueDate: now.Add(-time.Hour),
	})

	svc := newSweepService(taskRepo, newFakeGroupRepo(), ledger, now)

	// The failing run must leave the task unpenalized and undebited, so the
	// next run can settle it exactly once.
	result, err := svc.PenalizeOverdue(context.Background())
	if err != nil {
		t.Fatalf("PenalizeOverdue returned error: %v", err)
	}
	if result.Processed != 0 || result.Skipped != 1 {
		t.Fatalf("result = %+v, want 0 processed, 1 skipped", result)
	}
	if taskRepo.tasks[task.ID].Penalized {
		t.Fatal("task was flagged penalized by a failed run")
	}
	if len(ledger.deltas) != 0 {
		t.Fatalf("ledger deltas = %d after failed run, want 0", len(ledger.deltas))
	}

	delete(ledger.applyErrFor, alice)

	result, err = svc.PenalizeOverdue(context.Background())
	if err != nil {
		t.Fatalf("second PenalizeOverdue returned error: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("result = %+v, want 1 processed", result)
	}

	if len(ledger.deltas) != 1 {
		t.Fatalf("ledger deltas = %d, want exactly 1 across both runs", len(ledger.deltas))
	}
	if got := ledger.balances[groupID][alice].LifetimeCoins; got != -entities.OverduePenalty {
		t.Errorf("lifetime balance = %d, want %d", got, -entities.OverduePenalty)
	}
	if !taskRepo.tasks[task.ID].Penalized {
		t.Error("task was not flagged penalized after the successful run")
	}
}

func TestPenalizeOverdueAbortsWhenListFails(t *testing.T) {
	taskRepo := newFakeTaskRepo()
	taskRepo.listOverdueErr = errors.New("db down")

	svc := newSweepService(taskRepo, newFakeGroupRepo(), newFakeLedger(), time.Now())

	if _, err := svc.PenalizeOverdue(context.Background()); err == nil {
		t.Fatal("expected error when listing fails")
	}
}

func TestRunResetsPerformsDueReset(t *testing.T) {
	// 2026-01-11 is a Sunday; the boundary has just passed.
	now := time.Date(2026, time.January, 11, 0, 5, 0, 0, time.UTC)
	boundary := time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC)

	alice := &entities.User{ID: uuid.New(), Username: "alice"}
	bob := &entities.User{ID: uuid.New(), Username: "bob"}
	cara := &entities.User{ID: uuid.New(), Username: "cara"}

	groupRepo := newFakeGroupRepo()
	group := &entities.Group{
		Name:           "study",
		ResetFrequency: entities.ResetWeekly,
		NextResetDate:  &boundary,
	}
	groupRepo.add(group, alice, bob, cara)

	ledger := newFakeLedger()
	ledger.setBalance(group.ID, alice.ID, 40, 200)
	ledger.setBalance(group.ID, bob.ID, 40, 150) // ties alice; alice joined first
	ledger.setBalance(group.ID, cara.ID, -20, 90)

	svc := newSweepService(newFakeTaskRepo(), groupRepo, ledger, now)

	result, err := svc.RunResets(context.Background())
	if err != nil {
		t.Fatalf("RunResets returned error: %v", err)
	}
	if result.Processed != 1 || result.Skipped != 0 {
		t.Fatalf("result = %+v, want 1 processed", result)
	}

	if len(groupRepo.resets) != 1 {
		t.Fatalf("resets recorded = %d, want 1", len(groupRepo.resets))
	}
	reset := groupRepo.resets[0]

	if reset.leader == nil || reset.leader.UserID != alice.ID || reset.leader.Coins != 40 {
		t.Errorf("leader = %+v, want alice with 40 coins (first-encountered tie-break)", reset.leader)
	}
	if reset.loser == nil || reset.loser.UserID != cara.ID || reset.loser.Coins != -20 {
		t.Errorf("loser = %+v, want cara with -20 coins", reset.loser)
	}

	if len(ledger.zeroed) != 1 || len(ledger.zeroed[0].memberIDs) != 3 {
		t.Fatalf("zeroed = %+v, want one call covering all 3 members", ledger.zeroed)
	}
	for _, member := range []*entities.User{alice, bob, cara} {
		if ledger.balances[group.ID][member.ID].WeeklyCoins != 0 {
			t.Errorf("%s weekly coins not zeroed", member.Username)
		}
	}
	// Lifetime balances survive the reset.
	if ledger.balances[group.ID][alice.ID].LifetimeCoins != 200 {
		t.Error("lifetime coins were modified by the reset")
	}

	if !reset.next.After(now) {
		t.Errorf("next boundary %s is not strictly in the future", reset.next)
	}
	wantNext := time.Date(2026, time.January, 18, 0, 0, 0, 0, time.UTC)
	if !reset.next.Equal(wantNext) {
		t.Errorf("next boundary = %s, want %s", reset.next, wantNext)
	}

	// Re-running within the same period is a no-op.
	result, err = svc.RunResets(context.Background())
	if err != nil {
		t.Fatalf("second RunResets returned error: %v", err)
	}
	if result.Processed != 0 || len(groupRepo.resets) != 1 {
		t.Errorf("second run reset again: %+v", result)
	}
}

func TestRunResetsInitializesMissingBoundary(t *testing.T) {
	now := time.Date(2026, time.January, 7, 12, 0, 0, 0, time.UTC) // Wednesday

	groupRepo := newFakeGroupRepo()
	group := &entities.Group{
		Name:           "fresh",
		ResetFrequency: entities.ResetWeekly,
		CreatedAt:      time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC), // Monday
	}
	groupRepo.add(group)

	ledger := newFakeLedger()
	svc := newSweepService(newFakeTaskRepo(), groupRepo, ledger, now)

	result, err := svc.RunResets(context.Background())
	if err != nil {
		t.Fatalf("RunResets returned error: %v", err)
	}

	if result.Processed != 0 {
		t.Errorf("initialization pass must not count as a reset, got %+v", result)
	}
	if len(groupRepo.resets) != 0 || len(ledger.zeroed) != 0 {
		t.Error("initialization pass must not touch balances")
	}

	want := time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC)
	got, ok := groupRepo.boundarySets[group.ID]
	if !ok || !got.Equal(want) {
		t.Errorf("boundary initialized to %s, want %s", got, want)
	}
}

func TestRunResetsInitializesFromLastReset(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	lastReset := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	groupRepo := newFakeGroupRepo()
	group := &entities.Group{
		Name:           "restored",
		ResetFrequency: entities.ResetBiweekly,
		LastResetDate:  &lastReset,
		CreatedAt:      time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	groupRepo.add(group)

	svc := newSweepService(newFakeTaskRepo(), groupRepo, newFakeLedger(), now)

	if _, err := svc.RunResets(context.Background()); err != nil {
		t.Fatalf("RunResets returned error: %v", err)
	}

	want := lastReset.AddDate(0, 0, 14)
	got := groupRepo.boundarySets[group.ID]
	if !got.Equal(want) {
		t.Errorf("boundary = %s, want %s (anchored to last reset, not creation)", got, want)
	}
}

func TestRunResetsEmptyGroupSnapshotsNothing(t *testing.T) {
	now := time.Date(2026, time.January, 11, 1, 0, 0, 0, time.UTC)
	boundary := time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC)

	groupRepo := newFakeGroupRepo()
	group := &entities.Group{
		Name:           "ghost town",
		ResetFrequency: entities.ResetWeekly,
		NextResetDate:  &boundary,
	}
	groupRepo.add(group)

	svc := newSweepService(newFakeTaskRepo(), groupRepo, newFakeLedger(), now)

	result, err := svc.RunResets(context.Background())
	if err != nil {
		t.Fatalf("RunResets returned error: %v", err)
	}
	if result.Processed != 1 {
		t.Fatalf("result = %+v, want 1 processed", result)
	}

	reset := groupRepo.resets[0]
	if reset.leader != nil || reset.loser != nil {
		t.Errorf("empty group produced snapshots: leader=%+v loser=%+v", reset.leader, reset.loser)
	}
}

func TestRunResetsSkipsUnknownFrequency(t *testing.T) {
	now := time.Date(2026, time.January, 11, 1, 0, 0, 0, time.UTC)
	boundary := time.Date(2026, time.January, 11, 0, 0, 0, 0, time.UTC)

	groupRepo := newFakeGroupRepo()
	bad := &entities.Group{
		Name:           "misconfigured",
		ResetFrequency: entities.ResetFrequency("quarterly"),
		NextResetDate:  &boundary,
	}
	good := &entities.Group{
		Name:           "fine",
		ResetFrequency: entities.ResetWeekly,
		NextResetDate:  &boundary,
	}
	groupRepo.add(bad)
	groupRepo.add(good)

	ledger := newFakeLedger()
	svc := newSweepService(newFakeTaskRepo(), groupRepo, ledger, now)

	result, err := svc.RunResets(context.Background())
	if err != nil {
		t.Fatalf("RunResets returned error: %v", err)
	}

	if result.Processed != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 1 processed, 1 skipped", result)
	}
	// The misconfigured group keeps its state untouched.
	if len(groupRepo.resets) != 1 || groupRepo.resets[0].groupID != good.ID {
		t.Errorf("resets = %+v, want only the healthy group", groupRepo.resets)
	}
}

func TestRunResetsAbortsWhenListFails(t *testing.T) {
	groupRepo := newFakeGroupRepo()
	groupRepo.listErr = errors.New("db down")

	svc := newSweepService(newFakeTaskRepo(), groupRepo, newFakeLedger(), time.Now())

	if _, err := svc.RunResets(context.Background()); err == nil {
		t.Fatal("expected error when listing fails")
	}
}
