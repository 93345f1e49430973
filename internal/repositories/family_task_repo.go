package repositories

import (
	"context"
	"fmt"

	"taskflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type FamilyTaskRepository interface {
	Create(ctx context.Context, task *models.FamilyTask) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.FamilyTask, error)
	ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*models.FamilyTask, error)
	Update(ctx context.Context, task *models.FamilyTask) error
	// DeleteAsLeader removes the task only when leaderID created the task's family.
	DeleteAsLeader(ctx context.Context, id, leaderID uuid.UUID) error
}

type familyTaskRepo struct {
	db DB
}

func NewFamilyTaskRepo(db DB) FamilyTaskRepository {
	return &familyTaskRepo{db: db}
}

const familyTaskSelect = `
	SELECT t.id, t.family_id, t.title, t.description, t.priority, t.status, t.assigned_to,
		COALESCE(u.username, ''), t.created_by, t.week_start, t.completed_at, t.created_at, t.updated_at
	FROM family_tasks t
	LEFT JOIN users u ON u.id = t.assigned_to
`

func scanFamilyTask(row pgx.Row) (*models.FamilyTask, error) {
	task := &models.FamilyTask{}
	err := row.Scan(&task.ID, &task.FamilyID, &task.Title, &task.Description, &task.Priority, &task.Status,
		&task.AssignedTo, &task.AssignedToName, &task.CreatedBy, &task.WeekStart, &task.CompletedAt,
		&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *familyTaskRepo) Create(ctx context.Context, task *models.FamilyTask) error {
	query := `
		INSERT INTO family_tasks (id, family_id, title, description, priority, status, assigned_to, created_by, week_start, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, task.ID, task.FamilyID, task.Title, task.Description, task.Priority,
		task.Status, task.AssignedTo, task.CreatedBy, task.WeekStart, task.CompletedAt).
		Scan(&task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert family task: %w", err)
	}
	return nil
}

func (r *familyTaskRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.FamilyTask, error) {
	task, err := scanFamilyTask(r.db.QueryRow(ctx, familyTaskSelect+`WHERE t.id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return task, nil
}

func (r *familyTaskRepo) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*models.FamilyTask, error) {
	query := familyTaskSelect + `
		WHERE t.family_id = $1
		ORDER BY CASE WHEN t.status = 'pending' THEN 0 ELSE 1 END, t.priority DESC, t.created_at DESC
	`
	rows, err := r.db.Query(ctx, query, familyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list family tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.FamilyTask{}
	for rows.Next() {
		task, err := scanFamilyTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

func (r *familyTaskRepo) Update(ctx context.Context, task *models.FamilyTask) error {
	query := `
		UPDATE family_tasks
		SET title = $1, description = $2, priority = $3, status = $4, assigned_to = $5, completed_at = $6, updated_at = NOW()
		WHERE id = $7 AND family_id = $8
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, task.Title, task.Description, task.Priority, task.Status,
		task.AssignedTo, task.CompletedAt, task.ID, task.FamilyID).Scan(&task.UpdatedAt)
	if err != nil {
		return notFound(err)
	}
	return nil
}

func (r *familyTaskRepo) DeleteAsLeader(ctx context.Context, id, leaderID uuid.UUID) error {
	query := `
		DELETE FROM family_tasks t
		USING families f
		WHERE t.id = $1 AND t.family_id = f.id AND f.created_by = $2
	`
	tag, err := r.db.Exec(ctx, query, id, leaderID)
	if err != nil {
		return fmt.Errorf("failed to delete family task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
