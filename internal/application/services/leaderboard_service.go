package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/infrastructure/logger"
	"github.com/taskmate/server/internal/ports"
)

const (
	groupLifetimeLimit = 10
	globalTopLimit     = 50
)

// LeaderboardService projects coin balances into ranked views. Projections
// are computed per request and never persisted.
type LeaderboardService struct {
	groupRepo ports.GroupRepository
	taskRepo  ports.TaskRepository
	userRepo  ports.UserRepository
	ledger    ports.LedgerRepository
	clock     Clock
	logger    *logger.Logger
}

// NewLeaderboardService creates a new leaderboard service
func NewLeaderboardService(
	groupRepo ports.GroupRepository,
	taskRepo ports.TaskRepository,
	userRepo ports.UserRepository,
	ledger ports.LedgerRepository,
	clock Clock,
	logger *logger.Logger,
) *LeaderboardService {
	return &LeaderboardService{
		groupRepo: groupRepo,
		taskRepo:  taskRepo,
		userRepo:  userRepo,
		ledger:    ledger,
		clock:     clock,
		logger:    logger,
	}
}

// GroupLeaderboard ranks a group's members by their per-group weekly and
// lifetime coins. Members are loaded in join order and the sorts are stable,
// so ties keep insertion order deterministically.
func (s *LeaderboardService) GroupLeaderboard(ctx context.Context, groupID uuid.UUID) (*ports.GroupLeaderboard, error) {
	members, err := s.groupRepo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	balances, err := s.ledger.ListGroupBalances(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}

	byUser := make(map[uuid.UUID]entities.GroupCoin, len(balances))
	for _, b := range balances {
		byUser[b.UserID] = b
	}

	entries := make([]ports.LeaderboardEntry, 0, len(members))
	for _, member := range members {
		balance := byUser[member.ID] // zero value reads as 0 coins
		entries = append(entries, ports.LeaderboardEntry{
			UserID:        member.ID,
			Name:          member.Name,
			Username:      member.Username,
			WeeklyCoins:   balance.WeeklyCoins,
			LifetimeCoins: balance.LifetimeCoins,
		})
	}

	weekly := rankBy(entries, func(e ports.LeaderboardEntry) int { return e.WeeklyCoins })

	lifetime := rankBy(entries, func(e ports.LeaderboardEntry) int { return e.LifetimeCoins })
	if len(lifetime) > groupLifetimeLimit {
		lifetime = lifetime[:groupLifetimeLimit]
	}

	stats, err := s.memberStats(ctx, groupID, members, byUser)
	if err != nil {
		return nil, err
	}

	var lowest *ports.LowestPerformer
	if len(weekly) > 0 {
		last := weekly[len(weekly)-1]
		lowest = &ports.LowestPerformer{
			UserID:   last.UserID,
			Name:     last.Name,
			Username: last.Username,
			Coins:    last.WeeklyCoins,
		}
	}

	return &ports.GroupLeaderboard{
		Weekly:          weekly,
		Lifetime:        lifetime,
		MemberStats:     stats,
		LowestPerformer: lowest,
	}, nil
}

// GlobalLeaderboard ranks all users by top-level lifetime coins, truncated to
// the top 50, with points derived as lifetimeCoins/10 rounded down.
func (s *LeaderboardService) GlobalLeaderboard(ctx context.Context) ([]ports.GlobalLeaderboardEntry, error) {
	users, err := s.userRepo.ListTopByLifetimeCoins(ctx, globalTopLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top users: %w", err)
	}

	entries := make([]ports.GlobalLeaderboardEntry, 0, len(users))
	for i, user := range users {
		entries = append(entries, ports.GlobalLeaderboardEntry{
			Rank:          i + 1,
			UserID:        user.ID,
			Name:          user.Name,
			Username:      user.Username,
			LifetimeCoins: user.LifetimeCoins,
			Points:        points(user.LifetimeCoins),
		})
	}

	return entries, nil
}

// memberStats builds this week's completion figures per member, sorted by
// completion rate descending.
func (s *LeaderboardService) memberStats(ctx context.Context, groupID uuid.UUID, members []*entities.User, balances map[uuid.UUID]entities.GroupCoin) ([]ports.MemberStats, error) {
	now := s.clock.Now()
	weekStart := entities.WeekStart(now)

	stats := make([]ports.MemberStats, 0, len(members))
	for _, member := range members {
		total, completed, _, err := s.taskRepo.CountInWindow(ctx, groupID, member.ID, weekStart, now)
		if err != nil {
			return nil, fmt.Errorf("failed to get member stats: %w", err)
		}

		stats = append(stats, ports.MemberStats{
			UserID:         member.ID,
			Name:           member.Name,
			Username:       member.Username,
			TasksCompleted: completed,
			TotalTasks:     total,
			CompletionRate: completionRate(completed, total),
			WeeklyCoins:    balances[member.ID].WeeklyCoins,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		return stats[i].CompletionRate > stats[j].CompletionRate
	})

	return stats, nil
}

// points derives leaderboard points as lifetime coins divided by 10, rounded
// toward negative infinity. Integer division truncates toward zero, which
// would round penalized-negative totals the wrong way.
func points(lifetimeCoins int) int {
	p := lifetimeCoins / 10
	if lifetimeCoins < 0 && lifetimeCoins%10 != 0 {
		p--
	}
	return p
}

// rankBy stable-sorts a copy of the entries descending by the given key and
// assigns 1-based ranks.
func rankBy(entries []ports.LeaderboardEntry, key func(ports.LeaderboardEntry) int) []ports.LeaderboardEntry {
	ranked := make([]ports.LeaderboardEntry, len(entries))
	copy(ranked, entries)

	sort.SliceStable(ranked, func(i, j int) bool {
		return key(ranked[i]) > key(ranked[j])
	})

	for i := range ranked {
		ranked[i].Rank = i + 1
	}

	return ranked
}
