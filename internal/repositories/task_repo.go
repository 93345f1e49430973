package repositories

import (
	"context"
	"fmt"
	"time"

	"taskflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type TaskRepository interface {
	Create(ctx context.Context, task *models.Task) error
	GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error)
	ListActive(ctx context.Context, userID uuid.UUID) ([]*models.Task, error)
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// ArchiveBefore marks every active task bucketed before cutoff as archived and returns
	// the rows it touched.
	ArchiveBefore(ctx context.Context, userID uuid.UUID, cutoff, now time.Time) ([]*models.Task, error)
	// ListUsersWithArchivable returns the owners of active tasks bucketed before cutoff.
	ListUsersWithArchivable(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error)
}

type taskRepo struct {
	db DB
}

func NewTaskRepo(db DB) TaskRepository {
	return &taskRepo{db: db}
}

const taskColumns = `id, user_id, title, description, priority, status, week_start, archived, archived_at, completed_at, created_at, updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	task := &models.Task{}
	err := row.Scan(&task.ID, &task.UserID, &task.Title, &task.Description, &task.Priority, &task.Status,
		&task.WeekStart, &task.Archived, &task.ArchivedAt, &task.CompletedAt, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func collectTasks(rows pgx.Rows) ([]*models.Task, error) {
	defer rows.Close()

	tasks := []*models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *taskRepo) Create(ctx context.Context, task *models.Task) error {
	query := `
		INSERT INTO tasks (id, user_id, title, description, priority, status, week_start, archived, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, task.ID, task.UserID, task.Title, task.Description, task.Priority,
		task.Status, task.WeekStart, task.CompletedAt).Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}
	return nil
}

func (r *taskRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	task, err := scanTask(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		return nil, notFound(err)
	}
	return task, nil
}

func (r *taskRepo) ListActive(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND archived = FALSE
		ORDER BY CASE WHEN status = 'pending' THEN 0 ELSE 1 END, priority DESC, created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return collectTasks(rows)
}

func (r *taskRepo) Update(ctx context.Context, task *models.Task) error {
	query := `
		UPDATE tasks
		SET title = $1, description = $2, priority = $3, status = $4, completed_at = $5, updated_at = NOW()
		WHERE id = $6 AND user_id = $7
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, task.Title, task.Description, task.Priority, task.Status,
		task.CompletedAt, task.ID, task.UserID).Scan(&task.UpdatedAt)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func (r *taskRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepo) ArchiveBefore(ctx context.Context, userID uuid.UUID, cutoff, now time.Time) ([]*models.Task, error) {
	query := `
		UPDATE tasks
		SET archived = TRUE, archived_at = $3, updated_at = $3
		WHERE user_id = $1 AND archived = FALSE AND week_start < $2
		RETURNING ` + taskColumns
	rows, err := r.db.Query(ctx, query, userID, cutoff, now)
	if err != nil {
		return nil, fmt.Errorf("failed to archive tasks: %w", err)
	}
	return collectTasks(rows)
}

func (r *taskRepo) ListUsersWithArchivable(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT user_id
		FROM tasks
		WHERE archived = FALSE AND week_start < $1
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to list archivable users: %w", err)
	}
	defer rows.Close()

	var users []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
