package repositories

import (
	"context"
	"fmt"
	"time"

	"taskflow/internal/models"

	"github.com/google/uuid"
)

type PasswordResetRepository interface {
	// Upsert replaces any outstanding token for the user.
	Upsert(ctx context.Context, token *models.PasswordResetToken) error
	// ConsumeAndSetPassword checks the token, stores the new password hash and deletes the
	// token in one transaction. Unknown and expired tokens return ErrNotFound.
	ConsumeAndSetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (uuid.UUID, error)
}

type passwordResetRepo struct {
	db DB
}

func NewPasswordResetRepo(db DB) PasswordResetRepository {
	return &passwordResetRepo{db: db}
}

func (r *passwordResetRepo) Upsert(ctx context.Context, token *models.PasswordResetToken) error {
	query := `
		INSERT INTO password_reset_tokens (user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET token_hash = EXCLUDED.token_hash, expires_at = EXCLUDED.expires_at, created_at = NOW()
	`
	if _, err := r.db.Exec(ctx, query, token.UserID, token.TokenHash, token.ExpiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	return nil
}

func (r *passwordResetRepo) ConsumeAndSetPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) (userID uuid.UUID, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx, &err)

	token := &models.PasswordResetToken{TokenHash: tokenHash}
	err = tx.QueryRow(ctx, `
		SELECT user_id, expires_at
		FROM password_reset_tokens
		WHERE token_hash = $1
		FOR UPDATE
	`, tokenHash).Scan(&token.UserID, &token.ExpiresAt)
	if err != nil {
		return uuid.Nil, notFound(err)
	}
	if token.Expired(now) {
		return uuid.Nil, ErrNotFound
	}

	if _, err = tx.Exec(ctx, `UPDATE users SET password_hash = $1, updated_at = NOW() WHERE id = $2`, passwordHash, token.UserID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update password: %w", err)
	}
	if _, err = tx.Exec(ctx, `DELETE FROM password_reset_tokens WHERE user_id = $1`, token.UserID); err != nil {
		return uuid.Nil, fmt.Errorf("failed to delete reset token: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return uuid.Nil, fmt.Errorf("failed to commit password reset: %w", err)
	}
	return token.UserID, nil
}
