package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"taskflow/internal/common"
	"taskflow/internal/models"
	"taskflow/internal/repositories"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// ResetRequestMessage is returned for every reset request, matched or not.
	ResetRequestMessage = "If an account with that email exists, a password reset link has been sent."

	invalidCredentialsMessage = "invalid email or password"
	invalidResetTokenMessage  = "invalid or expired reset token"

	MinPasswordLength = 6
	resetTokenBytes   = 32
	resetTokenTTL     = time.Hour
)

type AuthService interface {
	Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error)
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Me(ctx context.Context, userID uuid.UUID) (*models.UserSummary, error)
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

type authService struct {
	userRepo  repositories.UserRepository
	resetRepo repositories.PasswordResetRepository
	notifier  NotificationPublisher
	cfg       AuthConfig
	now       func() time.Time
}

func NewAuthService(userRepo repositories.UserRepository, resetRepo repositories.PasswordResetRepository,
	notifier NotificationPublisher, cfg AuthConfig) AuthService {
	return &authService{
		userRepo:  userRepo,
		resetRepo: resetRepo,
		notifier:  notifier,
		cfg:       cfg,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashResetToken is the stored form of a raw reset token.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (s *authService) Register(ctx context.Context, username, email, password string) (*models.AuthResponse, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" || password == "" {
		return nil, common.NewValidationError("username, email and password are required")
	}
	if len(password) < MinPasswordLength {
		return nil, common.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	exists, err := s.userRepo.ExistsByEmailOrUsername(ctx, email, username)
	if err != nil {
		return nil, common.NewInternalError(err)
	}
	if exists {
		return nil, common.NewConflictError("user with this email or username already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, common.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, common.NewConflictError("user with this email or username already exists")
		}
		return nil, common.NewInternalError(err)
	}

	resp, err := s.authResponse(user)
	if err != nil {
		return nil, err
	}

	publishBestEffort(ctx, s.notifier, models.NotificationEvent{
		Type:      models.NotificationTypeWelcome,
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: s.now().UTC(),
	})
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return resp, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, common.NewValidationError("email and password are required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewUnauthorizedError(invalidCredentialsMessage)
		}
		return nil, common.NewInternalError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, common.NewUnauthorizedError(invalidCredentialsMessage)
	}

	return s.authResponse(user)
}

func (s *authService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return common.NewValidationError("email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil
		}
		return common.NewInternalError(err)
	}

	raw, err := newResetToken()
	if err != nil {
		return common.NewInternalError(fmt.Errorf("generate reset token: %w", err))
	}
	token := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: HashResetToken(raw),
		ExpiresAt: s.now().UTC().Add(resetTokenTTL),
	}
	if err := s.resetRepo.Upsert(ctx, token); err != nil {
		return common.NewInternalError(err)
	}

	publishBestEffort(ctx, s.notifier, models.NotificationEvent{
		Type:      models.NotificationTypePasswordReset,
		UserID:    user.ID,
		Email:     user.Email,
		Username:  user.Username,
		Token:     raw,
		CreatedAt: s.now().UTC(),
	})
	return nil
}

func (s *authService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return common.NewValidationError("token is required")
	}
	if len(newPassword) < MinPasswordLength {
		return common.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return common.NewInternalError(fmt.Errorf("hash password: %w", err))
	}

	userID, err := s.resetRepo.ConsumeAndSetPassword(ctx, HashResetToken(token), string(hash), s.now().UTC())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return common.NewUnauthorizedError(invalidResetTokenMessage)
		}
		return common.NewInternalError(err)
	}

	slog.InfoContext(ctx, "password reset", "user_id", userID)
	return nil
}

func (s *authService) Me(ctx context.Context, userID uuid.UUID) (*models.UserSummary, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, common.NewNotFoundError("user not found")
		}
		return nil, common.NewInternalError(err)
	}
	summary := user.Summary()
	return &summary, nil
}

func (s *authService) authResponse(user *models.User) (*models.AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, common.NewInternalError(fmt.Errorf("sign token: %w", err))
	}
	return &models.AuthResponse{User: user.Summary(), Token: token, ExpiresAt: expiresAt}, nil
}

func (s *authService) generateToken(user *models.User) (string, time.Time, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.cfg.TokenTTL)
	claims := models.TokenClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}
