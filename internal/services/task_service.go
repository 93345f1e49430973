package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"taskflow/internal/common"
	"taskflow/internal/models"
	"taskflow/internal/repositories"

	"github.com/google/uuid"
)

const taskNotFoundMessage = "task not found"

// DashboardInvalidator drops cached dashboard data after a user's tasks change.
type DashboardInvalidator interface {
	InvalidateUser(ctx context.Context, userID uuid.UUID)
}

type CreateTaskInput struct {
	Title       string
	Description *string
	Priority    *int
	Status      *string
}

type TaskService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*models.Task, error)
	Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*models.Task, error)
	Update(ctx context.Context, userID, id uuid.UUID, in models.TaskUpdate) (*models.Task, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	// Archive moves tasks older than the previous week bucket out of the active list.
	Archive(ctx context.Context, userID uuid.UUID) (int, error)
}

type taskService struct {
	repo        repositories.TaskRepository
	invalidator DashboardInvalidator
	archive     ArchiveStore
	now         func() time.Time
}

// NewTaskService wires the personal task ledger. invalidator and archive may be nil.
func NewTaskService(repo repositories.TaskRepository, invalidator DashboardInvalidator, archive ArchiveStore) TaskService {
	return &taskService{
		repo:        repo,
		invalidator: invalidator,
		archive:     archive,
		now:         time.Now,
	}
}

func validateStatus(status *string) error {
	if status != nil && !models.IsValidTaskStatus(*status) {
		return common.NewValidationError("status must be one of: pending, in_progress, completed")
	}
	return nil
}

func (s *taskService) invalidate(ctx context.Context, userID uuid.UUID) {
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(ctx, userID)
	}
}

func (s *taskService) List(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	tasks, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	return tasks, nil
}

func (s *taskService) Create(ctx context.Context, userID uuid.UUID, in CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.NewValidationError("title is required")
	}
	if err := validateStatus(in.Status); err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       title,
		Description: common.TrimOptional(in.Description),
		Priority:    models.DefaultTaskPriority,
		Status:      models.TaskStatusPending,
		WeekStart:   common.WeekStart(now),
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.Status != nil {
		task.Status = *in.Status
	}
	task.CompletedAt = models.CompletionTime(task.Status, nil, now)

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, common.NewInternalError(err)
	}
	s.invalidate(ctx, userID)
	return task, nil
}

func (s *taskService) Update(ctx context.Context, userID, id uuid.UUID, in models.TaskUpdate) (*models.Task, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, common.NewValidationError("title cannot be empty")
	}
	if err := validateStatus(in.Status); err != nil {
		return nil, err
	}

	task, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError(taskNotFoundMessage)
		}
		return nil, common.NewInternalError(err)
	}

	if in.Title != nil {
		task.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		task.Description = common.TrimOptional(in.Description)
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	if in.Status != nil {
		task.Status = *in.Status
	}
	task.CompletedAt = models.CompletionTime(task.Status, task.CompletedAt, s.now())

	if err := s.repo.Update(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError(taskNotFoundMessage)
		}
		return nil, common.NewInternalError(err)
	}
	s.invalidate(ctx, userID)
	return task, nil
}

func (s *taskService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NewNotFoundError(taskNotFoundMessage)
		}
		return common.NewInternalError(err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *taskService) Archive(ctx context.Context, userID uuid.UUID) (int, error) {
	now := s.now().UTC()
	cutoff := common.ArchiveCutoff(now)

	archived, err := s.repo.ArchiveBefore(ctx, userID, cutoff, now)
	if err != nil {
		return 0, common.NewInternalError(err)
	}
	if len(archived) == 0 {
		return 0, nil
	}

	s.invalidate(ctx, userID)
	if s.archive != nil {
		object, err := s.archive.SaveSnapshot(ctx, userID, cutoff, archived)
		if err != nil {
			slog.WarnContext(ctx, "failed to store archive snapshot", "user_id", userID, "error", err)
		} else {
			slog.InfoContext(ctx, "archive snapshot stored", "user_id", userID, "object", object, "count", len(archived))
		}
	}
	return len(archived), nil
}
