package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskflow/internal/common"
	"taskflow/internal/models"
	"taskflow/internal/repositories"

	"github.com/google/uuid"
)

const familyTaskNoPermissionMessage = "task not found or no permission"

type CreateFamilyTaskInput struct {
	Title       string
	Description *string
	Priority    *int
	AssignedTo  uuid.UUID
}

type FamilyTaskService interface {
	List(ctx context.Context, userID uuid.UUID) ([]*models.FamilyTask, error)
	Create(ctx context.Context, userID uuid.UUID, in CreateFamilyTaskInput) (*models.FamilyTask, error)
	Update(ctx context.Context, userID, id uuid.UUID, in models.FamilyTaskUpdate) (*models.FamilyTask, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
}

type familyTaskService struct {
	families repositories.FamilyRepository
	tasks    repositories.FamilyTaskRepository
	now      func() time.Time
}

func NewFamilyTaskService(families repositories.FamilyRepository, tasks repositories.FamilyTaskRepository) FamilyTaskService {
	return &familyTaskService{families: families, tasks: tasks, now: time.Now}
}

// familyOf returns the requester's family or nil when the user has none.
func (s *familyTaskService) familyOf(ctx context.Context, userID uuid.UUID) (*models.Family, error) {
	family, err := s.families.GetByMember(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, common.NewInternalError(err)
	}
	return family, nil
}

func (s *familyTaskService) requireMember(ctx context.Context, familyID, userID uuid.UUID) error {
	member, err := s.families.IsMember(ctx, familyID, userID)
	if err != nil {
		return common.NewInternalError(err)
	}
	if !member {
		return common.NewValidationError("assignee must be a member of your family")
	}
	return nil
}

func (s *familyTaskService) List(ctx context.Context, userID uuid.UUID) ([]*models.FamilyTask, error) {
	family, err := s.familyOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return []*models.FamilyTask{}, nil
	}

	tasks, err := s.tasks.ListByFamily(ctx, family.ID)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	return tasks, nil
}

func (s *familyTaskService) Create(ctx context.Context, userID uuid.UUID, in CreateFamilyTaskInput) (*models.FamilyTask, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, common.NewValidationError("title is required")
	}
	if in.AssignedTo == uuid.Nil {
		return nil, common.NewValidationError("assigned_to is required")
	}

	family, err := s.familyOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, common.NewNotFoundError(notInFamilyMessage)
	}
	if family.CreatedBy != userID {
		return nil, common.NewForbiddenError("only the family leader can create family tasks")
	}
	if err := s.requireMember(ctx, family.ID, in.AssignedTo); err != nil {
		return nil, err
	}

	now := s.now()
	task := &models.FamilyTask{
		ID:          uuid.New(),
		FamilyID:    family.ID,
		Title:       title,
		Description: common.TrimOptional(in.Description),
		Priority:    models.DefaultTaskPriority,
		Status:      models.TaskStatusPending,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   userID,
		WeekStart:   common.WeekStart(now),
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, common.NewInternalError(err)
	}
	return s.reload(ctx, task)
}

func (s *familyTaskService) Update(ctx context.Context, userID, id uuid.UUID, in models.FamilyTaskUpdate) (*models.FamilyTask, error) {
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, common.NewValidationError("title cannot be empty")
	}
	if err := validateStatus(in.Status); err != nil {
		return nil, err
	}

	family, err := s.familyOf(ctx, userID)
	if err != nil {
		return nil, err
	}
	if family == nil {
		return nil, common.NewNotFoundError(taskNotFoundMessage)
	}

	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError(taskNotFoundMessage)
		}
		return nil, common.NewInternalError(err)
	}
	if task.FamilyID != family.ID {
		return nil, common.NewNotFoundError(taskNotFoundMessage)
	}

	isLeader := family.CreatedBy == userID
	if !isLeader && task.AssignedTo != userID {
		return nil, common.NewForbiddenError("only the family leader or the assignee can update this task")
	}

	if in.AssignedTo != nil && *in.AssignedTo != task.AssignedTo {
		if !isLeader {
			return nil, common.NewForbiddenError("only the family leader can reassign tasks")
		}
		if err := s.requireMember(ctx, family.ID, *in.AssignedTo); err != nil {
			return nil, err
		}
		task.AssignedTo = *in.AssignedTo
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

	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError(taskNotFoundMessage)
		}
		return nil, common.NewInternalError(err)
	}
	return s.reload(ctx, task)
}

func (s *familyTaskService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.tasks.DeleteAsLeader(ctx, id, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NewNotFoundError(familyTaskNoPermissionMessage)
		}
		return common.NewInternalError(err)
	}
	return nil
}

// reload fetches the stored row so the response carries the assignee's username.
func (s *familyTaskService) reload(ctx context.Context, task *models.FamilyTask) (*models.FamilyTask, error) {
	stored, err := s.tasks.GetByID(ctx, task.ID)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	return stored, nil
}
