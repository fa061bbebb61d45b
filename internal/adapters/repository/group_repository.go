package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/ports"
)

// GroupRepositoryImpl implements the GroupRepository interface
type GroupRepositoryImpl struct {
	db *sqlx.DB
}

// NewGroupRepository creates a new group repository
func NewGroupRepository(db *sqlx.DB) ports.GroupRepository {
	return &GroupRepositoryImpl{db: db}
}

// groupRow flattens the leader/loser snapshot columns for scanning.
type groupRow struct {
	ID               uuid.UUID               `db:"id"`
	Name             string                  `db:"name"`
	Description      string                  `db:"description"`
	AdminID          uuid.UUID               `db:"admin_id"`
	InviteCode       string                  `db:"invite_code"`
	ResetFrequency   entities.ResetFrequency `db:"reset_frequency"`
	CoinMultiplier   int                     `db:"coin_multiplier"`
	LastResetDate    *time.Time              `db:"last_reset_date"`
	NextResetDate    *time.Time              `db:"next_reset_date"`
	LeaderUserID     *uuid.UUID              `db:"leader_user_id"`
	LeaderCoins      *int                    `db:"leader_coins"`
	LeaderWeekEnding *time.Time              `db:"leader_week_ending"`
	LoserUserID      *uuid.UUID              `db:"loser_user_id"`
	LoserCoins       *int                    `db:"loser_coins"`
	LoserWeekEnding  *time.Time              `db:"loser_week_ending"`
	CreatedAt        time.Time               `db:"created_at"`
	UpdatedAt        time.Time               `db:"updated_at"`
}

func (row *groupRow) toEntity() *entities.Group {
	group := &entities.Group{
		ID:             row.ID,
		Name:           row.Name,
		Description:    row.Description,
		AdminID:        row.AdminID,
		InviteCode:     row.InviteCode,
		ResetFrequency: row.ResetFrequency,
		CoinMultiplier: row.CoinMultiplier,
		LastResetDate:  row.LastResetDate,
		NextResetDate:  row.NextResetDate,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
	}

	if row.LeaderUserID != nil && row.LeaderCoins != nil && row.LeaderWeekEnding != nil {
		group.WeeklyLeader = &entities.PeriodStanding{
			UserID:     *row.LeaderUserID,
			Coins:      *row.LeaderCoins,
			WeekEnding: *row.LeaderWeekEnding,
		}
	}
	if row.LoserUserID != nil && row.LoserCoins != nil && row.LoserWeekEnding != nil {
		group.WeeklyLoser = &entities.PeriodStanding{
			UserID:     *row.LoserUserID,
			Coins:      *row.LoserCoins,
			WeekEnding: *row.LoserWeekEnding,
		}
	}

	return group
}

const groupColumns = `id, name, description, admin_id, invite_code, reset_frequency,
	coin_multiplier, last_reset_date, next_reset_date,
	leader_user_id, leader_coins, leader_week_ending,
	loser_user_id, loser_coins, loser_week_ending,
	created_at, updated_at`

func (r *GroupRepositoryImpl) Create(ctx context.Context, group *entities.Group) error {
	query := `
		INSERT INTO groups (id, name, description, admin_id, invite_code, reset_frequency, coin_multiplier)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		group.ID, group.Name, group.Description, group.AdminID,
		group.InviteCode, group.ResetFrequency, group.CoinMultiplier,
	).Scan(&group.CreatedAt, &group.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}

	return nil
}

func (r *GroupRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Group, error) {
	query := fmt.Sprintf(`SELECT %s FROM groups WHERE id = $1`, groupColumns)

	var row groupRow
	err := r.db.GetContext(ctx, &row, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group by id: %w", err)
	}

	return row.toEntity(), nil
}

func (r *GroupRepositoryImpl) GetByInviteCode(ctx context.Context, code string) (*entities.Group, error) {
	query := fmt.Sprintf(`SELECT %s FROM groups WHERE invite_code = $1`, groupColumns)

	var row groupRow
	err := r.db.GetContext(ctx, &row, query, code)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group by invite code: %w", err)
	}

	return row.toEntity(), nil
}

func (r *GroupRepositoryImpl) ListAll(ctx context.Context) ([]*entities.Group, error) {
	query := fmt.Sprintf(`SELECT %s FROM groups ORDER BY created_at ASC`, groupColumns)

	var rows []groupRow
	err := r.db.SelectContext(ctx, &rows, query)
	if err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}

	groups := make([]*entities.Group, 0, len(rows))
	for i := range rows {
		groups = append(groups, rows[i].toEntity())
	}

	return groups, nil
}

func (r *GroupRepositoryImpl) UpdateSettings(ctx context.Context, id uuid.UUID, frequency entities.ResetFrequency, coinMultiplier int) error {
	query := `
		UPDATE groups
		SET reset_frequency = $2, coin_multiplier = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, frequency, coinMultiplier)
	if err != nil {
		return fmt.Errorf("update group settings: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrGroupNotFound
	}

	return nil
}

func (r *GroupRepositoryImpl) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	query := `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, user_id) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query, groupID, userID)
	if err != nil {
		return fmt.Errorf("add group member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrAlreadyMember
	}

	return nil
}

// ListMembers returns members in join order; the reset sweep and leaderboard
// rely on this order for deterministic tie-breaks.
func (r *GroupRepositoryImpl) ListMembers(ctx context.Context, groupID uuid.UUID) ([]*entities.User, error) {
	query := `
		SELECT u.id, u.name, u.username, u.email, u.password_hash,
			u.weekly_coins, u.lifetime_coins, u.is_admin, u.created_at, u.updated_at
		FROM users u
		JOIN group_members gm ON gm.user_id = u.id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at ASC`

	var users []*entities.User
	err := r.db.SelectContext(ctx, &users, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}

	return users, nil
}

func (r *GroupRepositoryImpl) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`

	var exists bool
	err := r.db.GetContext(ctx, &exists, query, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}

	return exists, nil
}

func (r *GroupRepositoryImpl) SetNextResetDate(ctx context.Context, id uuid.UUID, next time.Time) error {
	query := `
		UPDATE groups
		SET next_reset_date = $2, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`

	_, err := r.db.ExecContext(ctx, query, id, next)
	if err != nil {
		return fmt.Errorf("set next reset date: %w", err)
	}

	return nil
}

func (r *GroupRepositoryImpl) RecordReset(ctx context.Context, id uuid.UUID, leader, loser *entities.PeriodStanding, resetAt, next time.Time) error {
	query := `
		UPDATE groups
		SET last_reset_date = $2,
			next_reset_date = $3,
			leader_user_id = $4, leader_coins = $5, leader_week_ending = $6,
			loser_user_id = $7, loser_coins = $8, loser_week_ending = $9,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`

	var (
		leaderID, loserID       *uuid.UUID
		leaderCoins, loserCoins *int
		leaderEnd, loserEnd     *time.Time
	)
	if leader != nil {
		leaderID, leaderCoins, leaderEnd = &leader.UserID, &leader.Coins, &leader.WeekEnding
	}
	if loser != nil {
		loserID, loserCoins, loserEnd = &loser.UserID, &loser.Coins, &loser.WeekEnding
	}

	_, err := r.db.ExecContext(ctx, query, id, resetAt, next,
		leaderID, leaderCoins, leaderEnd,
		loserID, loserCoins, loserEnd,
	)
	if err != nil {
		return fmt.Errorf("record group reset: %w", err)
	}

	return nil
}
