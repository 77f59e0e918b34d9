package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskhub/backend/domain"
	"github.com/taskhub/backend/repository"
)

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskRepository.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskRepository {
	return &taskRepository{pool: pool}
}

const taskColumns = `id, owner_id, title, description, status, due_date, shared_with, created_at, updated_at`

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE id = $1`, taskColumns)
	return scanTask(r.pool.QueryRow(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	query := fmt.Sprintf(`
	SELECT %s
	FROM tasks
	WHERE (owner_id = $1 OR $1 = ANY(shared_with))
	  AND ($2 = '' OR status = $2)
	ORDER BY due_date ASC NULLS LAST, created_at DESC
	LIMIT $3 OFFSET $4
	`, taskColumns)
	rows, err := r.pool.Query(ctx, query, filter.ViewerID, string(filter.Status), clampLimit(filter.Limit), filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil || task.OwnerID == "" {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.SharedWith == nil {
		task.SharedWith = []string{}
	}

	const query = `
	INSERT INTO tasks (id, owner_id, title, description, status, due_date, shared_with)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING created_at, updated_at
	`

	var due interface{}
	if task.DueDate != nil {
		due = *task.DueDate
	}

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Description,
		string(task.Status),
		due,
		task.SharedWith,
	).Scan(&task.CreatedAt, &task.UpdatedAt); err != nil {
		return nil, err
	}

	return task, nil
}

// UpdateOne is the findOneAndUpdate-style enforcement point: the statement
// matches on id AND the ownership predicate, so an actor without access
// never matches a row and cannot distinguish that from a missing task.
func (r *taskRepository) UpdateOne(ctx context.Context, id string, actorID string, pred repository.AccessPredicate, patch domain.TaskPatch) (*domain.Task, error) {
	sets := []string{"updated_at = NOW()"}
	args := []interface{}{id, actorID}
	next := 3

	appendSet := func(column string, value interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", column, next))
		args = append(args, value)
		next++
	}

	if patch.Title != nil {
		appendSet("title", *patch.Title)
	}
	if patch.Description != nil {
		appendSet("description", *patch.Description)
	}
	if patch.Status != nil {
		appendSet("status", string(*patch.Status))
	}
	if patch.ClearDueDate {
		sets = append(sets, "due_date = NULL")
	} else if patch.DueDate != nil {
		appendSet("due_date", *patch.DueDate)
	}
	if patch.SetShared {
		shared := patch.SharedWith
		if shared == nil {
			shared = []string{}
		}
		appendSet("shared_with", shared)
	}

	query := fmt.Sprintf(`
	UPDATE tasks
	SET %s
	WHERE id = $1 AND %s
	RETURNING %s
	`, strings.Join(sets, ", "), accessClause(pred), taskColumns)

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

func (r *taskRepository) DeleteOwned(ctx context.Context, id, actorID string) error {
	const query = `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`
	tag, err := r.pool.Exec(ctx, query, id, actorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *taskRepository) AddShares(ctx context.Context, id, ownerID string, userIDs []string) (*domain.Task, error) {
	query := fmt.Sprintf(`
	UPDATE tasks
	SET shared_with = (
		SELECT COALESCE(array_agg(DISTINCT u ORDER BY u), '{}')
		FROM unnest(shared_with || $3::text[]) AS u
	),
	updated_at = NOW()
	WHERE id = $1 AND owner_id = $2
	RETURNING %s
	`, taskColumns)
	return scanTask(r.pool.QueryRow(ctx, query, id, ownerID, userIDs))
}

func (r *taskRepository) RemoveShares(ctx context.Context, id, ownerID string, userIDs []string) (*domain.Task, error) {
	query := fmt.Sprintf(`
	UPDATE tasks
	SET shared_with = (
		SELECT COALESCE(array_agg(u ORDER BY u), '{}')
		FROM unnest(shared_with) AS u
		WHERE u <> ALL($3::text[])
	),
	updated_at = NOW()
	WHERE id = $1 AND owner_id = $2
	RETURNING %s
	`, taskColumns)
	return scanTask(r.pool.QueryRow(ctx, query, id, ownerID, userIDs))
}

func (r *taskRepository) DeleteByOwner(ctx context.Context, ownerID string) (int64, error) {
	const query = `DELETE FROM tasks WHERE owner_id = $1`
	tag, err := r.pool.Exec(ctx, query, ownerID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *taskRepository) PruneSharedWith(ctx context.Context, userID string) (int64, error) {
	const query = `
	UPDATE tasks
	SET shared_with = array_remove(shared_with, $1), updated_at = NOW()
	WHERE $1 = ANY(shared_with)
	`
	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func accessClause(pred repository.AccessPredicate) string {
	if pred == repository.AccessOwnerOrShared {
		return "(owner_id = $2 OR $2 = ANY(shared_with))"
	}
	return "owner_id = $2"
}

func scanTask(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Task, error) {
	var task domain.Task
	var (
		status string
		due    *time.Time
	)

	if err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Description,
		&status,
		&due,
		&task.SharedWith,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.DueDate = due
	if task.SharedWith == nil {
		task.SharedWith = []string{}
	}

	return &task, nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 200 {
		return 200
	}
	return limit
}
