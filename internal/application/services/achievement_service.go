package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/infrastructure/logger"
	"github.com/taskmate/server/internal/ports"
)

// AchievementService awards milestone badges from lifetime coin totals
type AchievementService struct {
	userRepo ports.UserRepository
	clock    Clock
	logger   *logger.Logger
}

// NewAchievementService creates a new achievement service
func NewAchievementService(userRepo ports.UserRepository, clock Clock, logger *logger.Logger) *AchievementService {
	return &AchievementService{
		userRepo: userRepo,
		clock:    clock,
		logger:   logger,
	}
}

// Evaluate awards every milestone badge whose lifetime-coin threshold the
// user has crossed and does not already hold. Multiple badges can be awarded
// in one pass. Safe to call repeatedly; held badges are never duplicated.
func (s *AchievementService) Evaluate(ctx context.Context, userID uuid.UUID) ([]entities.Achievement, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	existing, err := s.userRepo.GetAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	held := make(map[string]bool, len(existing))
	for _, a := range existing {
		held[a.Name] = true
	}

	var awarded []entities.Achievement
	now := s.clock.Now()

	for _, m := range entities.Milestones {
		if user.LifetimeCoins < m.Threshold || held[m.Name] {
			continue
		}

		achievement := entities.Achievement{
			UserID:      userID,
			Name:        m.Name,
			Icon:        m.Icon,
			Description: m.Description,
			EarnedAt:    now,
		}

		if err := s.userRepo.AddAchievement(ctx, &achievement); err != nil {
			return awarded, fmt.Errorf("failed to award %q: %w", m.Name, err)
		}

		s.logger.Info("Achievement awarded", "user_id", userID, "achievement", m.Name)
		awarded = append(awarded, achievement)
	}

	return awarded, nil
}

// List returns the user's earned badges in award order.
func (s *AchievementService) List(ctx context.Context, userID uuid.UUID) ([]entities.Achievement, error) {
	achievements, err := s.userRepo.GetAchievements(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}

	return achievements, nil
}
