package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/infrastructure/database"
	"github.com/taskmate/server/internal/ports"
)

// LedgerRepositoryImpl implements the LedgerRepository interface over the
// group_coins rows and the users running totals.
type LedgerRepositoryImpl struct {
	db *database.DB
}

// NewLedgerRepository creates a new ledger repository
func NewLedgerRepository(db *database.DB) ports.LedgerRepository {
	return &LedgerRepositoryImpl{db: db}
}

// ApplyDelta moves the per-group entry and the user's top-level counters by
// the identical delta inside one transaction. Both writes are in-database
// increments, never read-modify-write, so concurrent completions cannot lose
// updates. Negative deltas are permitted and balances may go negative.
func (r *LedgerRepositoryImpl) ApplyDelta(ctx context.Context, userID, groupID uuid.UUID, delta int) error {
	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		// Zero-initialized entry is created before the increment is applied.
		upsert := `
			INSERT INTO group_coins (user_id, group_id, weekly_coins, lifetime_coins)
			VALUES ($1, $2, 0, 0)
			ON CONFLICT (user_id, group_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, upsert, userID, groupID); err != nil {
			return fmt.Errorf("ensure group coin entry: %w", err)
		}

		increment := `
			UPDATE group_coins
			SET weekly_coins = weekly_coins + $3, lifetime_coins = lifetime_coins + $3
			WHERE user_id = $1 AND group_id = $2`
		if _, err := tx.ExecContext(ctx, increment, userID, groupID, delta); err != nil {
			return fmt.Errorf("increment group coins: %w", err)
		}

		totals := `
			UPDATE users
			SET weekly_coins = weekly_coins + $2, lifetime_coins = lifetime_coins + $2,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = $1`
		result, err := tx.ExecContext(ctx, totals, userID, delta)
		if err != nil {
			return fmt.Errorf("increment user totals: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return entities.ErrUserNotFound
		}

		return nil
	})
}

// ApplyPenalty debits the overdue penalty at most once per task. The
// conditional flag update and both ledger increments share one transaction,
// so a failure anywhere leaves the task unpenalized and undebited, and a
// re-run of the sweep settles it exactly once.
func (r *LedgerRepositoryImpl) ApplyPenalty(ctx context.Context, taskID, userID, groupID uuid.UUID, penalty int) (bool, error) {
	var claimed bool

	err := r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		claim := `
			UPDATE tasks
			SET penalized = true, updated_at = CURRENT_TIMESTAMP
			WHERE id = $1 AND penalized = false`
		result, err := tx.ExecContext(ctx, claim, taskID)
		if err != nil {
			return fmt.Errorf("claim penalized flag: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			// Another run already claimed this task.
			return nil
		}
		claimed = true

		upsert := `
			INSERT INTO group_coins (user_id, group_id, weekly_coins, lifetime_coins)
			VALUES ($1, $2, 0, 0)
			ON CONFLICT (user_id, group_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, upsert, userID, groupID); err != nil {
			return fmt.Errorf("ensure group coin entry: %w", err)
		}

		increment := `
			UPDATE group_coins
			SET weekly_coins = weekly_coins - $3, lifetime_coins = lifetime_coins - $3
			WHERE user_id = $1 AND group_id = $2`
		if _, err := tx.ExecContext(ctx, increment, userID, groupID, penalty); err != nil {
			return fmt.Errorf("debit group coins: %w", err)
		}

		totals := `
			UPDATE users
			SET weekly_coins = weekly_coins - $2, lifetime_coins = lifetime_coins - $2,
				updated_at = CURRENT_TIMESTAMP
			WHERE id = $1`
		if _, err := tx.ExecContext(ctx, totals, userID, penalty); err != nil {
			return fmt.Errorf("debit user totals: %w", err)
		}

		return nil
	})
	if err != nil {
		return false, err
	}

	return claimed, nil
}

func (r *LedgerRepositoryImpl) GetGroupBalance(ctx context.Context, userID, groupID uuid.UUID) (*entities.GroupCoin, error) {
	query := `
		SELECT user_id, group_id, weekly_coins, lifetime_coins
		FROM group_coins
		WHERE user_id = $1 AND group_id = $2`

	var balance entities.GroupCoin
	err := r.db.DB.GetContext(ctx, &balance, query, userID, groupID)
	if err != nil {
		if err == sql.ErrNoRows {
			// Missing entry reads as zero; it is created lazily on first mutation.
			return &entities.GroupCoin{UserID: userID, GroupID: groupID}, nil
		}
		return nil, fmt.Errorf("get group balance: %w", err)
	}

	return &balance, nil
}

func (r *LedgerRepositoryImpl) ListGroupBalances(ctx context.Context, groupID uuid.UUID) ([]entities.GroupCoin, error) {
	query := `
		SELECT user_id, group_id, weekly_coins, lifetime_coins
		FROM group_coins
		WHERE group_id = $1`

	var balances []entities.GroupCoin
	err := r.db.DB.SelectContext(ctx, &balances, query, groupID)
	if err != nil {
		return nil, fmt.Errorf("list group balances: %w", err)
	}

	return balances, nil
}

// ZeroWeekly zeroes the weekly counter of every listed member's entry for the
// group, creating missing entries first. Only the per-group entries are
// touched; the users table running totals are left as-is.
func (r *LedgerRepositoryImpl) ZeroWeekly(ctx context.Context, groupID uuid.UUID, memberIDs []uuid.UUID) error {
	if len(memberIDs) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx *sqlx.Tx) error {
		upsert := `
			INSERT INTO group_coins (user_id, group_id, weekly_coins, lifetime_coins)
			VALUES ($1, $2, 0, 0)
			ON CONFLICT (user_id, group_id) DO NOTHING`
		for _, userID := range memberIDs {
			if _, err := tx.ExecContext(ctx, upsert, userID, groupID); err != nil {
				return fmt.Errorf("ensure group coin entry: %w", err)
			}
		}

		zero := `
			UPDATE group_coins
			SET weekly_coins = 0
			WHERE group_id = $1 AND user_id = ANY($2::uuid[])`
		memberStrs := make([]string, len(memberIDs))
		for i, id := range memberIDs {
			memberStrs[i] = id.String()
		}
		if _, err := tx.ExecContext(ctx, zero, groupID, pq.Array(memberStrs)); err != nil {
			return fmt.Errorf("zero weekly coins: %w", err)
		}

		return nil
	})
}
