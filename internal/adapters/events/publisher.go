package events

import (
	"context"

	"github.com/google/uuid"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/infrastructure/logger"
	"github.com/taskmate/server/internal/ports"
)

// LogPublisher is the default EventPublisher. The real-time transport lives
// in a separate gateway service; this publisher records the events it would
// have forwarded so the completion path stays observable without it.
type LogPublisher struct {
	logger *logger.Logger
}

// NewLogPublisher creates a log-backed event publisher
func NewLogPublisher(appLogger *logger.Logger) ports.EventPublisher {
	return &LogPublisher{logger: appLogger.WithComponent("events")}
}

func (p *LogPublisher) PublishTaskCompleted(ctx context.Context, task *entities.Task, coinsEarned int) error {
	p.logger.Infow("task-completed",
		"task_id", task.ID,
		"group_id", task.GroupID,
		"user_id", task.UserID,
		"coins_earned", coinsEarned,
	)
	return nil
}

func (p *LogPublisher) PublishCoinsUpdated(ctx context.Context, userID uuid.UUID, weeklyCoins, lifetimeCoins int) error {
	p.logger.Infow("coins-updated",
		"user_id", userID,
		"weekly_coins", weeklyCoins,
		"lifetime_coins", lifetimeCoins,
	)
	return nil
}
