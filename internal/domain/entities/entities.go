package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrGroupNotFound        = errors.New("group not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrInvalidStatus        = errors.New("invalid status")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotGroupMember       = errors.New("user is not a member of the group")
	ErrTaskAlreadyCompleted = errors.New("task is already completed")
	ErrTaskNotCompleted     = errors.New("task must be completed before verification")
	ErrCannotVerifyOwnTask  = errors.New("cannot verify your own task")
	ErrInvalidPriority      = errors.New("invalid priority")
	ErrInvalidEffort        = errors.New("effort must be between 1 and 5")
	ErrUnknownResetCadence  = errors.New("unknown reset frequency")
	ErrInvalidInviteCode    = errors.New("invalid invite code")
	ErrAlreadyMember        = errors.New("user is already a member of the group")
)

// Enums and types
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusVerified  TaskStatus = "verified"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

type ResetFrequency string

const (
	ResetWeekly   ResetFrequency = "weekly"
	ResetBiweekly ResetFrequency = "biweekly"
	ResetMonthly  ResetFrequency = "monthly"
)

// User represents a user in the system
type User struct {
	ID            uuid.UUID     `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	Username      string        `json:"username" db:"username"`
	Email         string        `json:"email" db:"email"`
	PasswordHash  string        `json:"-" db:"password_hash"`
	WeeklyCoins   int           `json:"weekly_coins" db:"weekly_coins"`
	LifetimeCoins int           `json:"lifetime_coins" db:"lifetime_coins"`
	IsAdmin       bool          `json:"is_admin" db:"is_admin"`
	Achievements  []Achievement `json:"achievements,omitempty"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// Achievement is a milestone badge; a user holds each badge at most once.
type Achievement struct {
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Icon        string    `json:"icon" db:"icon"`
	Description string    `json:"description" db:"description"`
	EarnedAt    time.Time `json:"earned_at" db:"earned_at"`
}

// GroupCoin is the per-group ledger row for one user.
type GroupCoin struct {
	UserID        uuid.UUID `json:"user_id" db:"user_id"`
	GroupID       uuid.UUID `json:"group_id" db:"group_id"`
	WeeklyCoins   int       `json:"weekly_coins" db:"weekly_coins"`
	LifetimeCoins int       `json:"lifetime_coins" db:"lifetime_coins"`
}

// Group represents an accountability group
type Group struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	Name           string          `json:"name" db:"name"`
	Description    string          `json:"description" db:"description"`
	AdminID        uuid.UUID       `json:"admin_id" db:"admin_id"`
	InviteCode     string          `json:"invite_code" db:"invite_code"`
	ResetFrequency ResetFrequency  `json:"reset_frequency" db:"reset_frequency"`
	CoinMultiplier int             `json:"coin_multiplier" db:"coin_multiplier"`
	LastResetDate  *time.Time      `json:"last_reset_date" db:"last_reset_date"`
	NextResetDate  *time.Time      `json:"next_reset_date" db:"next_reset_date"`
	WeeklyLeader   *PeriodStanding `json:"weekly_leader,omitempty"`
	WeeklyLoser    *PeriodStanding `json:"weekly_loser,omitempty"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at" db:"updated_at"`
}

// PeriodStanding is the leader/loser snapshot captured at each reset.
type PeriodStanding struct {
	UserID     uuid.UUID `json:"user_id"`
	Coins      int       `json:"coins"`
	WeekEnding time.Time `json:"week_ending"`
}

// GroupMember links a user to a group; join order drives leaderboard tie-breaks.
type GroupMember struct {
	GroupID  uuid.UUID `json:"group_id" db:"group_id"`
	UserID   uuid.UUID `json:"user_id" db:"user_id"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

// Task represents a daily task
type Task struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	GroupID     uuid.UUID  `json:"group_id" db:"group_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Priority    Priority   `json:"priority" db:"priority"`
	Effort      int        `json:"effort" db:"effort"`
	Status      TaskStatus `json:"status" db:"status"`
	DueDate     time.Time  `json:"due_date" db:"due_date"`
	CompletedAt *time.Time `json:"completed_at" db:"completed_at"`
	VerifiedBy  *uuid.UUID `json:"verified_by" db:"verified_by"`
	VerifiedAt  *time.Time `json:"verified_at" db:"verified_at"`
	CoinsEarned int        `json:"coins_earned" db:"coins_earned"`
	Penalized   bool       `json:"penalized" db:"penalized"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Business logic methods for Task

func (t *Task) CanBeCompleted() bool {
	return t.Status == TaskStatusPending
}

func (t *Task) CanBeVerified() bool {
	return t.Status == TaskStatusCompleted
}

// IsOverdue reports whether the task is still pending past its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status == TaskStatusPending && t.DueDate.Before(now)
}

// Complete marks the task completed and records the coins earned. The reward
// is computed exactly once; CoinsEarned is never recomputed afterwards.
func (t *Task) Complete(now time.Time) error {
	if !t.CanBeCompleted() {
		return ErrTaskAlreadyCompleted
	}

	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.CoinsEarned = Reward(t.Priority, t.Effort)
	return nil
}

// Verify transitions a completed task to verified. Verification is done by a
// non-owner group member and has no coin effect.
func (t *Task) Verify(verifierID uuid.UUID, now time.Time) error {
	if !t.CanBeVerified() {
		return ErrTaskNotCompleted
	}
	if verifierID == t.UserID {
		return ErrCannotVerifyOwnTask
	}

	t.Status = TaskStatusVerified
	t.VerifiedBy = &verifierID
	t.VerifiedAt = &now
	return nil
}

// Business logic methods for Group

func (g *Group) IsAdmin(userID uuid.UUID) bool {
	return g.AdminID == userID
}

// ResetDue reports whether the group's reset boundary has passed. A group with
// no computed boundary is never due; the sweep initializes it instead.
func (g *Group) ResetDue(now time.Time) bool {
	return g.NextResetDate != nil && !g.NextResetDate.After(now)
}

// Utility methods

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusPending, TaskStatusCompleted, TaskStatusVerified:
		return true
	default:
		return false
	}
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

func (rf ResetFrequency) IsValid() bool {
	switch rf {
	case ResetWeekly, ResetBiweekly, ResetMonthly:
		return true
	default:
		return false
	}
}
