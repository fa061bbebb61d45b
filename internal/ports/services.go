package ports

import (
	"time"

	"github.com/google/uuid"
	"github.com/taskmate/server/internal/domain/entities"
)

// Request/Response Types

// Task related types
type CreateTaskRequest struct {
	GroupID     uuid.UUID         `json:"group_id" validate:"required"`
	Title       string            `json:"title" validate:"required,max=100"`
	Description string            `json:"description" validate:"max=500"`
	Priority    entities.Priority `json:"priority" validate:"required,oneof=low medium high"`
	Effort      int               `json:"effort" validate:"required,min=1,max=5"`
	DueDate     time.Time         `json:"due_date" validate:"required"`
}

type UpdateTaskRequest struct {
	Title       *string            `json:"title" validate:"omitempty,max=100"`
	Description *string            `json:"description" validate:"omitempty,max=500"`
	Priority    *entities.Priority `json:"priority" validate:"omitempty,oneof=low medium high"`
	Effort      *int               `json:"effort" validate:"omitempty,min=1,max=5"`
	DueDate     *time.Time         `json:"due_date"`
}

type CompleteTaskResponse struct {
	Task        *entities.Task `json:"task"`
	CoinsEarned int            `json:"coins_earned"`
}

type TaskStats struct {
	Today TaskWindowStats `json:"today"`
	Week  TaskWindowStats `json:"week"`
}

type TaskWindowStats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	CompletionRate int `json:"completion_rate"`
	CoinsEarned    int `json:"coins_earned,omitempty"`
}

// User related types
type RegisterUserRequest struct {
	Name     string `json:"name" validate:"omitempty,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Group related types
type CreateGroupRequest struct {
	Name           string                  `json:"name" validate:"required,max=50"`
	Description    string                  `json:"description" validate:"max=200"`
	ResetFrequency entities.ResetFrequency `json:"reset_frequency" validate:"omitempty,oneof=weekly biweekly monthly"`
}

type JoinGroupRequest struct {
	InviteCode string `json:"invite_code" validate:"required"`
}

type UpdateGroupSettingsRequest struct {
	ResetFrequency entities.ResetFrequency `json:"reset_frequency" validate:"required,oneof=weekly biweekly monthly"`
	CoinMultiplier int                     `json:"coin_multiplier" validate:"required,min=1,max=5"`
}

// Leaderboard related types

// LeaderboardEntry is one ranked row of a group leaderboard projection.
type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	WeeklyCoins   int       `json:"weekly_coins"`
	LifetimeCoins int       `json:"lifetime_coins"`
}

// GlobalLeaderboardEntry ranks users by top-level lifetime coins.
type GlobalLeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	Name          string    `json:"name"`
	Username      string    `json:"username"`
	LifetimeCoins int       `json:"lifetime_coins"`
	Points        int       `json:"points"`
}

type MemberStats struct {
	UserID         uuid.UUID `json:"user_id"`
	Name           string    `json:"name"`
	Username       string    `json:"username"`
	TasksCompleted int       `json:"tasks_completed"`
	TotalTasks     int       `json:"total_tasks"`
	CompletionRate int       `json:"completion_rate"`
	WeeklyCoins    int       `json:"weekly_coins"`
}

type LowestPerformer struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Username string    `json:"username"`
	Coins    int       `json:"coins"`
}

type GroupLeaderboard struct {
	Weekly          []LeaderboardEntry `json:"weekly"`
	Lifetime        []LeaderboardEntry `json:"lifetime"`
	MemberStats     []MemberStats      `json:"member_stats"`
	LowestPerformer *LowestPerformer   `json:"lowest_performer"`
}

// Sweep related types

// SweepResult summarizes one sweep run. Per-item failures are skipped and
// counted; only a failure to enumerate the work aborts the sweep.
type SweepResult struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
}

// Common response structures
type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
