package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/taskmate/server/internal/domain/entities"
	"github.com/taskmate/server/internal/ports"
)

// TaskRepositoryImpl implements the TaskRepository interface
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

const taskColumns = `id, user_id, group_id, title, description, priority, effort, status,
	due_date, completed_at, verified_by, verified_at, coins_earned, penalized,
	created_at, updated_at`

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, group_id, title, description, priority, effort, status, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.UserID, task.GroupID, task.Title, task.Description,
		task.Priority, task.Effort, task.Status, task.DueDate,
	).Scan(&task.CreatedAt, &task.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id uuid.UUID) (*entities.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)

	var task entities.Task
	err := r.db.GetContext(ctx, &task, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	query := `
		UPDATE tasks
		SET title = $2, description = $3, priority = $4, effort = $5, status = $6,
			due_date = $7, completed_at = $8, verified_by = $9, verified_at = $10,
			coins_earned = $11, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query,
		task.ID, task.Title, task.Description, task.Priority, task.Effort,
		task.Status, task.DueDate, task.CompletedAt, task.VerifiedBy,
		task.VerifiedAt, task.CoinsEarned,
	).Scan(&task.UpdatedAt)

	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM tasks WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	var (
		conditions []string
		args       []interface{}
	)

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, strings.Replace(clause, "?", "$"+strconv.Itoa(len(args)), 1))
	}

	if filter.GroupID != nil {
		addCondition("group_id = ?", *filter.GroupID)
	}
	if filter.UserID != nil {
		addCondition("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		addCondition("status = ?", *filter.Status)
	}
	if filter.DueAfter != nil {
		addCondition("due_date >= ?", *filter.DueAfter)
	}
	if filter.DueOn != nil {
		day := entities.Midnight(*filter.DueOn)
		addCondition("due_date >= ?", day)
		addCondition("due_date < ?", day.AddDate(0, 0, 1))
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks`, taskColumns)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY due_date DESC, priority DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	var tasks []*entities.Task
	err := r.db.SelectContext(ctx, &tasks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

func (r *TaskRepositoryImpl) ListOverduePending(ctx context.Context, now time.Time) ([]*entities.Task, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE status = $1 AND due_date < $2 AND penalized = false
		ORDER BY due_date ASC`, taskColumns)

	var tasks []*entities.Task
	err := r.db.SelectContext(ctx, &tasks, query, entities.TaskStatusPending, now)
	if err != nil {
		return nil, fmt.Errorf("list overdue tasks: %w", err)
	}

	return tasks, nil
}

// MarkCompleted transitions a pending task to completed. The conditional
// update makes the transition an at-most-once guard under concurrent
// completion requests; false means the task was no longer pending.
func (r *TaskRepositoryImpl) MarkCompleted(ctx context.Context, task *entities.Task) (bool, error) {
	query := `
		UPDATE tasks
		SET status = $2, completed_at = $3, coins_earned = $4, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND status = $5`

	result, err := r.db.ExecContext(ctx, query,
		task.ID, entities.TaskStatusCompleted, task.CompletedAt, task.CoinsEarned,
		entities.TaskStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark task completed: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *TaskRepositoryImpl) CountInWindow(ctx context.Context, groupID, userID uuid.UUID, from, to time.Time) (int, int, int, error) {
	query := `
		SELECT COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status <> 'pending') AS completed,
			COALESCE(SUM(coins_earned), 0) AS coins
		FROM tasks
		WHERE group_id = $1 AND user_id = $2 AND due_date >= $3 AND due_date <= $4`

	var counts struct {
		Total     int `db:"total"`
		Completed int `db:"completed"`
		Coins     int `db:"coins"`
	}
	err := r.db.GetContext(ctx, &counts, query, groupID, userID, from, to)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("count tasks in window: %w", err)
	}

	return counts.Total, counts.Completed, counts.Coins, nil
}
