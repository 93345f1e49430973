package services

import (
	"context"
	"time"

	"taskflow/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	args := m.Called(ctx, email, username)
	return args.Bool(0), args.Error(1)
}

type MockPasswordResetRepository struct {
	mock.Mock
}

func (m *MockPasswordResetRepository) Upsert(ctx context.Context, token *models.PasswordResetToken) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockPasswordResetRepository) ConsumeAndSetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (uuid.UUID, error) {
	args := m.Called(ctx, tokenHash, passwordHash, now)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) GetByID(ctx context.Context, userID, id uuid.UUID) (*models.Task, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Task), args.Error(1)
}

func (m *MockTaskRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]*models.Task, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *models.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, userID, id uuid.UUID) error {
	args := m.Called(ctx, userID, id)
	return args.Error(0)
}

func (m *MockTaskRepository) ArchiveBefore(ctx context.Context, userID uuid.UUID, cutoff, now time.Time) ([]*models.Task, error) {
	args := m.Called(ctx, userID, cutoff, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Task), args.Error(1)
}

func (m *MockTaskRepository) ListUsersWithArchivable(ctx context.Context, cutoff time.Time) ([]uuid.UUID, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

type MockFamilyRepository struct {
	mock.Mock
}

func (m *MockFamilyRepository) CreateWithLeader(ctx context.Context, family *models.Family, nextCode func() string) error {
	args := m.Called(ctx, family, nextCode)
	return args.Error(0)
}

func (m *MockFamilyRepository) JoinByCode(ctx context.Context, userID uuid.UUID, code string) (*models.Family, error) {
	args := m.Called(ctx, userID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Family), args.Error(1)
}

func (m *MockFamilyRepository) GetByMember(ctx context.Context, userID uuid.UUID) (*models.Family, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Family), args.Error(1)
}

func (m *MockFamilyRepository) IsMember(ctx context.Context, familyID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, familyID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFamilyRepository) ListMembers(ctx context.Context, userID uuid.UUID) ([]*models.FamilyMember, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FamilyMember), args.Error(1)
}

func (m *MockFamilyRepository) RemoveMember(ctx context.Context, familyID, userID uuid.UUID) error {
	args := m.Called(ctx, familyID, userID)
	return args.Error(0)
}

type MockFamilyTaskRepository struct {
	mock.Mock
}

func (m *MockFamilyTaskRepository) Create(ctx context.Context, task *models.FamilyTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockFamilyTaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.FamilyTask, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FamilyTask), args.Error(1)
}

func (m *MockFamilyTaskRepository) ListByFamily(ctx context.Context, familyID uuid.UUID) ([]*models.FamilyTask, error) {
	args := m.Called(ctx, familyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.FamilyTask), args.Error(1)
}

func (m *MockFamilyTaskRepository) Update(ctx context.Context, task *models.FamilyTask) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockFamilyTaskRepository) DeleteAsLeader(ctx context.Context, id, leaderID uuid.UUID) error {
	args := m.Called(ctx, id, leaderID)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, event models.NotificationEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockInvalidator struct {
	mock.Mock
}

func (m *MockInvalidator) InvalidateUser(ctx context.Context, userID uuid.UUID) {
	m.Called(ctx, userID)
}

type MockArchiveStore struct {
	mock.Mock
}

func (m *MockArchiveStore) SaveSnapshot(ctx context.Context, userID uuid.UUID, cutoff time.Time, tasks []*models.Task) (string, error) {
	args := m.Called(ctx, userID, cutoff, tasks)
	return args.String(0), args.Error(1)
}
