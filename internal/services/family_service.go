package services

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"taskflow/internal/common"
	"taskflow/internal/models"
	"taskflow/internal/repositories"

	"github.com/google/uuid"
	"github.com/labstack/gommon/random"
)

const (
	InvitationCodeLength = 8

	notInFamilyMessage = "you are not a member of any family"
)

type FamilyService interface {
	GetInfo(ctx context.Context, userID uuid.UUID) (*models.FamilyInfo, error)
	Create(ctx context.Context, userID uuid.UUID, name string) (*models.Family, error)
	Join(ctx context.Context, userID uuid.UUID, code string) (*models.Family, error)
	ListMembers(ctx context.Context, userID uuid.UUID) ([]*models.FamilyMember, error)
	Leave(ctx context.Context, userID uuid.UUID) error
}

type familyService struct {
	repo    repositories.FamilyRepository
	newCode func() string
}

func NewFamilyService(repo repositories.FamilyRepository) FamilyService {
	return &familyService{repo: repo, newCode: GenerateInvitationCode}
}

// GenerateInvitationCode returns a random upper-case alphanumeric code.
func GenerateInvitationCode() string {
	return random.String(InvitationCodeLength, random.Uppercase, random.Numeric)
}

// NormalizeInvitationCode makes user-typed codes comparable with stored ones.
func NormalizeInvitationCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *familyService) GetInfo(ctx context.Context, userID uuid.UUID) (*models.FamilyInfo, error) {
	family, err := s.repo.GetByMember(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError(notInFamilyMessage)
		}
		return nil, common.NewInternalError(err)
	}
	return &models.FamilyInfo{Family: *family, IsLeader: family.CreatedBy == userID}, nil
}

func (s *familyService) Create(ctx context.Context, userID uuid.UUID, name string) (*models.Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.NewValidationError("family name is required")
	}

	family := &models.Family{ID: uuid.New(), Name: name, CreatedBy: userID}
	if err := s.repo.CreateWithLeader(ctx, family, s.newCode); err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyMember):
			return nil, common.NewConflictError("you are already a member of a family")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, common.NewNotFoundError("user not found")
		default:
			return nil, common.NewInternalError(err)
		}
	}

	slog.InfoContext(ctx, "family created", "family_id", family.ID, "leader_id", userID)
	return family, nil
}

func (s *familyService) Join(ctx context.Context, userID uuid.UUID, code string) (*models.Family, error) {
	code = NormalizeInvitationCode(code)
	if code == "" {
		return nil, common.NewValidationError("invitation code is required")
	}

	family, err := s.repo.JoinByCode(ctx, userID, code)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrAlreadyMember):
			return nil, common.NewConflictError("you are already a member of a family").WithStatus(http.StatusConflict)
		case errors.Is(err, repositories.ErrNotFound):
			return nil, common.NewNotFoundError("invalid invitation code")
		default:
			return nil, common.NewInternalError(err)
		}
	}

	slog.InfoContext(ctx, "family joined", "family_id", family.ID, "user_id", userID)
	return family, nil
}

func (s *familyService) ListMembers(ctx context.Context, userID uuid.UUID) ([]*models.FamilyMember, error) {
	members, err := s.repo.ListMembers(ctx, userID)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	return members, nil
}

func (s *familyService) Leave(ctx context.Context, userID uuid.UUID) error {
	family, err := s.repo.GetByMember(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NewNotFoundError(notInFamilyMessage)
		}
		return common.NewInternalError(err)
	}
	if family.CreatedBy == userID {
		return common.NewForbiddenError("the family leader cannot leave the family")
	}

	if err := s.repo.RemoveMember(ctx, family.ID, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NewNotFoundError(notInFamilyMessage)
		}
		return common.NewInternalError(err)
	}
	return nil
}
