package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskflow/internal/common"
	"taskflow/internal/models"
	"taskflow/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

type AuthServiceTestSuite struct {
	suite.Suite
	users     *MockUserRepository
	resets    *MockPasswordResetRepository
	publisher *MockPublisher
	service   *authService
	ctx       context.Context
	now       time.Time
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.users = &MockUserRepository{}
	suite.resets = &MockPasswordResetRepository{}
	suite.publisher = &MockPublisher{}
	suite.ctx = context.Background()
	suite.now = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

	svc := NewAuthService(suite.users, suite.resets, suite.publisher, AuthConfig{
		JWTSecret:  testSecret,
		TokenTTL:   time.Hour,
		BcryptCost: bcrypt.MinCost,
	}).(*authService)
	svc.now = func() time.Time { return suite.now }
	suite.service = svc
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	suite.users.AssertExpectations(suite.T())
	suite.resets.AssertExpectations(suite.T())
	suite.publisher.AssertExpectations(suite.T())
}

func TestAuthServiceTestSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}

func (suite *AuthServiceTestSuite) existingUser(password string) *models.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	suite.Require().NoError(err)
	return &models.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com", PasswordHash: string(hash)}
}

func (suite *AuthServiceTestSuite) TestRegister_Success() {
	suite.users.On("ExistsByEmailOrUsername", suite.ctx, "alice@example.com", "alice").Return(false, nil)
	suite.users.On("Create", suite.ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "alice@example.com" && bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret1")) == nil
	})).Return(nil)
	suite.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(e models.NotificationEvent) bool {
		return e.Type == models.NotificationTypeWelcome && e.Email == "alice@example.com"
	})).Return(nil)

	resp, err := suite.service.Register(suite.ctx, " alice ", "Alice@Example.com ", "secret1")
	suite.Require().NoError(err)
	suite.Equal("alice", resp.User.Username)
	suite.Equal(suite.now.Add(time.Hour), resp.ExpiresAt)

	claims := &models.TokenClaims{}
	_, err = jwt.ParseWithClaims(resp.Token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	}, jwt.WithTimeFunc(func() time.Time { return suite.now }))
	suite.Require().NoError(err)
	id, err := claims.UserID()
	suite.Require().NoError(err)
	suite.Equal(resp.User.ID, id)
}

func (suite *AuthServiceTestSuite) TestRegister_PublishFailureDoesNotFail() {
	suite.users.On("ExistsByEmailOrUsername", suite.ctx, "alice@example.com", "alice").Return(false, nil)
	suite.users.On("Create", suite.ctx, mock.Anything).Return(nil)
	suite.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	resp, err := suite.service.Register(suite.ctx, "alice", "alice@example.com", "secret1")
	suite.NoError(err)
	suite.NotEmpty(resp.Token)
}

func (suite *AuthServiceTestSuite) TestRegister_Conflict() {
	suite.users.On("ExistsByEmailOrUsername", suite.ctx, "alice@example.com", "alice").Return(true, nil)

	_, err := suite.service.Register(suite.ctx, "alice", "alice@example.com", "secret1")
	suite.True(common.IsKind(err, common.KindConflict))
}

func (suite *AuthServiceTestSuite) TestRegister_RaceOnInsertIsConflict() {
	suite.users.On("ExistsByEmailOrUsername", suite.ctx, "alice@example.com", "alice").Return(false, nil)
	suite.users.On("Create", suite.ctx, mock.Anything).Return(repositories.ErrDuplicate)

	_, err := suite.service.Register(suite.ctx, "alice", "alice@example.com", "secret1")
	suite.True(common.IsKind(err, common.KindConflict))
}

func (suite *AuthServiceTestSuite) TestRegister_MissingFields() {
	_, err := suite.service.Register(suite.ctx, "", "alice@example.com", "secret1")
	suite.True(common.IsKind(err, common.KindValidation))

	_, err = suite.service.Register(suite.ctx, "alice", "alice@example.com", "123")
	suite.True(common.IsKind(err, common.KindValidation))
}

func (suite *AuthServiceTestSuite) TestLogin_Success() {
	user := suite.existingUser("secret1")
	suite.users.On("GetByEmail", suite.ctx, "alice@example.com").Return(user, nil)

	resp, err := suite.service.Login(suite.ctx, "ALICE@example.com", "secret1")
	suite.Require().NoError(err)
	suite.Equal(user.ID, resp.User.ID)
}

func (suite *AuthServiceTestSuite) TestLogin_SameMessageForUnknownEmailAndWrongPassword() {
	user := suite.existingUser("secret1")
	suite.users.On("GetByEmail", suite.ctx, "alice@example.com").Return(user, nil)
	suite.users.On("GetByEmail", suite.ctx, "ghost@example.com").Return(nil, repositories.ErrNotFound)

	_, wrongPassword := suite.service.Login(suite.ctx, "alice@example.com", "nope!!")
	_, unknownEmail := suite.service.Login(suite.ctx, "ghost@example.com", "secret1")

	suite.True(common.IsKind(wrongPassword, common.KindUnauthorized))
	suite.True(common.IsKind(unknownEmail, common.KindUnauthorized))
	suite.Equal(wrongPassword.Error(), unknownEmail.Error())
}

func (suite *AuthServiceTestSuite) TestRequestPasswordReset_UnknownEmailIsSilent() {
	suite.users.On("GetByEmail", suite.ctx, "ghost@example.com").Return(nil, repositories.ErrNotFound)

	suite.NoError(suite.service.RequestPasswordReset(suite.ctx, "ghost@example.com"))
}

func (suite *AuthServiceTestSuite) TestRequestPasswordReset_StoresHashAndPublishesRawToken() {
	user := suite.existingUser("secret1")
	suite.users.On("GetByEmail", suite.ctx, "alice@example.com").Return(user, nil)

	var stored *models.PasswordResetToken
	suite.resets.On("Upsert", suite.ctx, mock.Anything).Run(func(args mock.Arguments) {
		stored = args.Get(1).(*models.PasswordResetToken)
	}).Return(nil)

	var published models.NotificationEvent
	suite.publisher.On("Publish", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		published = args.Get(1).(models.NotificationEvent)
	}).Return(nil)

	suite.Require().NoError(suite.service.RequestPasswordReset(suite.ctx, "alice@example.com"))

	suite.Equal(models.NotificationTypePasswordReset, published.Type)
	suite.Len(published.Token, 64)
	suite.Equal(HashResetToken(published.Token), stored.TokenHash)
	suite.NotEqual(published.Token, stored.TokenHash)
	suite.Equal(suite.now.Add(time.Hour), stored.ExpiresAt)
	suite.Equal(user.ID, stored.UserID)
}

func (suite *AuthServiceTestSuite) TestResetPassword() {
	userID := uuid.New()
	suite.resets.On("ConsumeAndSetPassword", suite.ctx, HashResetToken("raw-token"), mock.Anything, suite.now).
		Return(userID, nil)

	suite.NoError(suite.service.ResetPassword(suite.ctx, "raw-token", "new-secret"))
}

func (suite *AuthServiceTestSuite) TestResetPassword_InvalidToken() {
	suite.resets.On("ConsumeAndSetPassword", suite.ctx, HashResetToken("stale"), mock.Anything, suite.now).
		Return(uuid.Nil, repositories.ErrNotFound)

	err := suite.service.ResetPassword(suite.ctx, "stale", "new-secret")
	suite.True(common.IsKind(err, common.KindUnauthorized))
}

func (suite *AuthServiceTestSuite) TestMe() {
	user := suite.existingUser("secret1")
	suite.users.On("GetByID", suite.ctx, user.ID).Return(user, nil)

	me, err := suite.service.Me(suite.ctx, user.ID)
	suite.Require().NoError(err)
	suite.Equal(user.Email, me.Email)
}

func TestHashResetToken(t *testing.T) {
	h := HashResetToken("abc")
	require.Len(t, h, 64)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h)
}
