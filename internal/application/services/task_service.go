package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/infrastructure/logger"
	"github.com/taskmate/server/internal/ports"
)

// TaskService handles task lifecycle and the completion coin flow
type TaskService struct {
	taskRepo     ports.TaskRepository
	groupRepo    ports.GroupRepository
	userRepo     ports.UserRepository
	ledger       ports.LedgerRepository
	achievements *AchievementService
	publisher    ports.EventPublisher
	clock        Clock
	logger       *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(
	taskRepo ports.TaskRepository,
	groupRepo ports.GroupRepository,
	userRepo ports.UserRepository,
	ledger ports.LedgerRepository,
	achievements *AchievementService,
	publisher ports.EventPublisher,
	clock Clock,
	logger *logger.Logger,
) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		groupRepo:    groupRepo,
		userRepo:     userRepo,
		ledger:       ledger,
		achievements: achievements,
		publisher:    publisher,
		clock:        clock,
		logger:       logger,
	}
}

// CreateTask creates a new pending task for the requesting user
func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, req ports.CreateTaskRequest) (*entities.Task, error) {
	isMember, err := s.groupRepo.IsMember(ctx, req.GroupID, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		return nil, entities.ErrNotGroupMember
	}

	task := &entities.Task{
		UserID:      userID,
		GroupID:     req.GroupID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Effort:      req.Effort,
		Status:      entities.TaskStatusPending,
		DueDate:     req.DueDate,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("Task created", "task_id", task.ID, "user_id", userID, "group_id", task.GroupID)

	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	return task, nil
}

// ListGroupTasks lists a group's tasks; members only
func (s *TaskService) ListGroupTasks(ctx context.Context, userID, groupID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	isMember, err := s.groupRepo.IsMember(ctx, groupID, userID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		return nil, entities.ErrNotGroupMember
	}

	filter.GroupID = &groupID

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list group tasks: %w", err)
	}

	return tasks, nil
}

// ListUserTasks lists the requesting user's own tasks
func (s *TaskService) ListUserTasks(ctx context.Context, userID uuid.UUID, filter ports.TaskFilter) ([]*entities.Task, error) {
	filter.UserID = &userID

	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list user tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTask updates a task's editable fields; owner only
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	if task.UserID != userID {
		return nil, entities.ErrUnauthorized
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Effort != nil {
		task.Effort = *req.Effort
	}
	if req.DueDate != nil {
		task.DueDate = *req.DueDate
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// DeleteTask deletes a task; owner only
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return fmt.Errorf("task not found: %w", err)
	}

	if task.UserID != userID {
		return entities.ErrUnauthorized
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("Task deleted", "task_id", taskID, "user_id", userID)

	return nil
}

// CompleteTask marks a pending task completed, computes the reward once and
// credits it to the owner's ledger for the task's group. Achievement
// evaluation and event publishing run after the credit and never fail the
// completion.
func (s *TaskService) CompleteTask(ctx context.Context, userID, taskID uuid.UUID) (*ports.CompleteTaskResponse, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	if task.UserID != userID {
		return nil, entities.ErrUnauthorized
	}

	if err := task.Complete(s.clock.Now()); err != nil {
		return nil, err
	}

	// Conditional transition: a concurrent completion of the same task loses
	// the race here and earns nothing.
	claimed, err := s.taskRepo.MarkCompleted(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	if !claimed {
		return nil, entities.ErrTaskAlreadyCompleted
	}

	if err := s.ledger.ApplyDelta(ctx, userID, task.GroupID, task.CoinsEarned); err != nil {
		return nil, fmt.Errorf("failed to credit coins: %w", err)
	}

	s.logger.LogCoinMutation(userID.String(), task.GroupID.String(), task.CoinsEarned, "task_completed")

	if _, err := s.achievements.Evaluate(ctx, userID); err != nil {
		s.logger.Warn("Achievement evaluation failed", "error", err, "user_id", userID)
	}

	s.broadcastCompletion(ctx, task)

	return &ports.CompleteTaskResponse{Task: task, CoinsEarned: task.CoinsEarned}, nil
}

// broadcastCompletion pushes the completion and the owner's fresh balances to
// real-time subscribers. Best-effort: failures are logged, never returned.
func (s *TaskService) broadcastCompletion(ctx context.Context, task *entities.Task) {
	if err := s.publisher.PublishTaskCompleted(ctx, task, task.CoinsEarned); err != nil {
		s.logger.Warn("Failed to publish task-completed event", "error", err, "task_id", task.ID)
	}

	user, err := s.userRepo.GetByID(ctx, task.UserID)
	if err != nil {
		s.logger.Warn("Failed to load user for balance broadcast", "error", err, "user_id", task.UserID)
		return
	}

	if err := s.publisher.PublishCoinsUpdated(ctx, user.ID, user.WeeklyCoins, user.LifetimeCoins); err != nil {
		s.logger.Warn("Failed to publish coins-updated event", "error", err, "user_id", user.ID)
	}
}

// VerifyTask transitions a completed task to verified. The verifier must be a
// group member other than the owner; verification has no coin effect.
func (s *TaskService) VerifyTask(ctx context.Context, verifierID, taskID uuid.UUID) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	isMember, err := s.groupRepo.IsMember(ctx, task.GroupID, verifierID)
	if err != nil {
		return nil, fmt.Errorf("check membership: %w", err)
	}
	if !isMember {
		return nil, entities.ErrNotGroupMember
	}

	if err := task.Verify(verifierID, s.clock.Now()); err != nil {
		return nil, err
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("Task verified", "task_id", taskID, "verified_by", verifierID)

	return task, nil
}

// GetStats summarizes the user's tasks in the group for today and the
// current week (Sunday-anchored).
func (s *TaskService) GetStats(ctx context.Context, userID, groupID uuid.UUID) (*ports.TaskStats, error) {
	now := s.clock.Now()
	today := entities.Midnight(now)
	endOfDay := today.AddDate(0, 0, 1).Add(-time.Millisecond)

	todayTotal, todayCompleted, _, err := s.taskRepo.CountInWindow(ctx, groupID, userID, today, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to get today stats: %w", err)
	}

	weekStart := entities.WeekStart(now)
	weekTotal, weekCompleted, weekCoins, err := s.taskRepo.CountInWindow(ctx, groupID, userID, weekStart, endOfDay)
	if err != nil {
		return nil, fmt.Errorf("failed to get week stats: %w", err)
	}

	return &ports.TaskStats{
		Today: ports.TaskWindowStats{
			Total:          todayTotal,
			Completed:      todayCompleted,
			CompletionRate: completionRate(todayCompleted, todayTotal),
		},
		Week: ports.TaskWindowStats{
			Total:          weekTotal,
			Completed:      weekCompleted,
			CompletionRate: completionRate(weekCompleted, weekTotal),
			CoinsEarned:    weekCoins,
		},
	}, nil
}

func completionRate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
