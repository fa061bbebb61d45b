package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/taskmate/server/internal/domain/entities"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
	ListTopByLifetimeCoins(ctx context.Context, limit int) ([]*entities.User, error)
	GetAchievements(ctx context.Context, userID uuid.UUID) ([]entities.Achievement, error)
	AddAchievement(ctx context.Context, achievement *entities.Achievement) error
}

// GroupRepository defines the interface for group data operations
type GroupRepository interface {
	Create(ctx context.Context, group *entities.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Group, error)
	GetByInviteCode(ctx context.Context, code string) (*entities.Group, error)
	ListAll(ctx context.Context) ([]*entities.Group, error)
	UpdateSettings(ctx context.Context, id uuid.UUID, frequency entities.ResetFrequency, coinMultiplier int) error
	AddMember(ctx context.Context, groupID, userID uuid.UUID) error
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]*entities.User, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	SetNextResetDate(ctx context.Context, id uuid.UUID, next time.Time) error
	RecordReset(ctx context.Context, id uuid.UUID, leader, loser *entities.PeriodStanding, resetAt, next time.Time) error
}

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	ListOverduePending(ctx context.Context, now time.Time) ([]*entities.Task, error)
	MarkCompleted(ctx context.Context, task *entities.Task) (bool, error)
	CountInWindow(ctx context.Context, groupID, userID uuid.UUID, from, to time.Time) (total, completed, coins int, err error)
}

// LedgerRepository maintains coin balances. ApplyDelta must move the per-group
// entry and the user's top-level counters by the identical delta in a single
// transaction, creating a zero-initialized group entry first when absent.
// ApplyPenalty claims the task's penalized flag and applies the debit inside
// the same transaction; false means another run already claimed the task and
// nothing was debited.
type LedgerRepository interface {
	ApplyDelta(ctx context.Context, userID, groupID uuid.UUID, delta int) error
	ApplyPenalty(ctx context.Context, taskID, userID, groupID uuid.UUID, penalty int) (bool, error)
	GetGroupBalance(ctx context.Context, userID, groupID uuid.UUID) (*entities.GroupCoin, error)
	ListGroupBalances(ctx context.Context, groupID uuid.UUID) ([]entities.GroupCoin, error)
	ZeroWeekly(ctx context.Context, groupID uuid.UUID, memberIDs []uuid.UUID) error
}

// EventPublisher broadcasts balance and task events to real-time subscribers.
// Publishing is best-effort; callers must not fail their operation when a
// publish fails.
type EventPublisher interface {
	PublishTaskCompleted(ctx context.Context, task *entities.Task, coinsEarned int) error
	PublishCoinsUpdated(ctx context.Context, userID uuid.UUID, weeklyCoins, lifetimeCoins int) error
}

// TaskFilter narrows task listings
type TaskFilter struct {
	GroupID  *uuid.UUID
	UserID   *uuid.UUID
	Status   *entities.TaskStatus
	DueAfter *time.Time
	DueOn    *time.Time
	Limit    int
	Offset   int
}
