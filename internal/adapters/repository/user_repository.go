package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/ports"
)

// UserRepositoryImpl implements the UserRepository interface
type UserRepositoryImpl struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) ports.UserRepository {
	return &UserRepositoryImpl{db: db}
}

func (r *UserRepositoryImpl) Create(ctx context.Context, user *entities.User) error {
	query := `
		INSERT INTO users (id, name, username, email, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Name, user.Username, user.Email, user.PasswordHash, user.IsAdmin,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	return nil
}

func (r *UserRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	query := `
		SELECT id, name, username, email, password_hash, weekly_coins, lifetime_coins,
			is_admin, created_at, updated_at
		FROM users
		WHERE id = $1`

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by id: %w", err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	query := `
		SELECT id, name, username, email, password_hash, weekly_coins, lifetime_coins,
			is_admin, created_at, updated_at
		FROM users
		WHERE username = $1`

	var user entities.User
	err := r.db.GetContext(ctx, &user, query, username)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user by username: %w", err)
	}

	return &user, nil
}

func (r *UserRepositoryImpl) ListTopByLifetimeCoins(ctx context.Context, limit int) ([]*entities.User, error) {
	// created_at as a secondary key keeps ranks deterministic for ties
	query := `
		SELECT id, name, username, email, password_hash, weekly_coins, lifetime_coins,
			is_admin, created_at, updated_at
		FROM users
		ORDER BY lifetime_coins DESC, created_at ASC
		LIMIT $1`

	var users []*entities.User
	err := r.db.SelectContext(ctx, &users, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list top users: %w", err)
	}

	return users, nil
}

func (r *UserRepositoryImpl) GetAchievements(ctx context.Context, userID uuid.UUID) ([]entities.Achievement, error) {
	query := `
		SELECT user_id, name, icon, description, earned_at
		FROM achievements
		WHERE user_id = $1
		ORDER BY earned_at ASC`

	var achievements []entities.Achievement
	err := r.db.SelectContext(ctx, &achievements, query, userID)
	if err != nil {
		return nil, fmt.Errorf("get achievements: %w", err)
	}

	return achievements, nil
}

func (r *UserRepositoryImpl) AddAchievement(ctx context.Context, achievement *entities.Achievement) error {
	// ON CONFLICT keeps badge awards idempotent
	query := `
		INSERT INTO achievements (user_id, name, icon, description, earned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, name) DO NOTHING`

	_, err := r.db.ExecContext(ctx, query,
		achievement.UserID, achievement.Name, achievement.Icon,
		achievement.Description, achievement.EarnedAt,
	)
	if err != nil {
		return fmt.Errorf("add achievement: %w", err)
	}

	return nil
}
