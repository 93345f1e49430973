package repositories

import (
	"context"
	"fmt"

	"taskflow/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MaxCodeAttempts bounds the invitation code collision retries inside CreateWithLeader.
const MaxCodeAttempts = 5

type FamilyRepository interface {
	// CreateWithLeader inserts the family and the creator's membership atomically. The
	// creator's user row is locked for the duration so concurrent create/join calls by the
	// same user serialize. nextCode supplies candidate invitation codes.
	CreateWithLeader(ctx context.Context, family *models.Family, nextCode func() string) error
	// JoinByCode adds the user to the family owning code, under the same lock.
	JoinByCode(ctx context.Context, userID uuid.UUID, code string) (*models.Family, error)
	GetByMember(ctx context.Context, userID uuid.UUID) (*models.Family, error)
	IsMember(ctx context.Context, familyID, userID uuid.UUID) (bool, error)
	ListMembers(ctx context.Context, userID uuid.UUID) ([]*models.FamilyMember, error)
	RemoveMember(ctx context.Context, familyID, userID uuid.UUID) error
}

type familyRepo struct {
	db DB
}

func NewFamilyRepo(db DB) FamilyRepository {
	return &familyRepo{db: db}
}

// lockMembership locks the user's row and reports whether the user already has a family.
func lockMembership(ctx context.Context, tx pgx.Tx, userID uuid.UUID) error {
	var locked uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked); err != nil {
		return notFound(err)
	}

	var member bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM family_members WHERE user_id = $1)`, userID).Scan(&member); err != nil {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	if member {
		return ErrAlreadyMember
	}
	return nil
}

func insertMembership(ctx context.Context, tx pgx.Tx, familyID, userID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO family_members (family_id, user_id, joined_at)
		VALUES ($1, $2, NOW())
	`, familyID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyMember
		}
		return fmt.Errorf("failed to insert membership: %w", err)
	}
	return nil
}

func (r *familyRepo) CreateWithLeader(ctx context.Context, family *models.Family, nextCode func() string) (err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx, &err)

	if err = lockMembership(ctx, tx, family.CreatedBy); err != nil {
		return err
	}

	family.InvitationCode = ""
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		candidate := nextCode()
		var taken bool
		if err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM families WHERE invitation_code = $1)`, candidate).Scan(&taken); err != nil {
			return fmt.Errorf("failed to check invitation code: %w", err)
		}
		if !taken {
			family.InvitationCode = candidate
			break
		}
	}
	if family.InvitationCode == "" {
		return ErrCodeExhausted
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO families (id, name, created_by, invitation_code, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING created_at
	`, family.ID, family.Name, family.CreatedBy, family.InvitationCode).Scan(&family.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert family: %w", err)
	}

	if err = insertMembership(ctx, tx, family.ID, family.CreatedBy); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit family creation: %w", err)
	}
	return nil
}

func (r *familyRepo) JoinByCode(ctx context.Context, userID uuid.UUID, code string) (family *models.Family, err error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx, &err)

	if err = lockMembership(ctx, tx, userID); err != nil {
		return nil, err
	}

	family = &models.Family{}
	err = tx.QueryRow(ctx, `
		SELECT id, name, created_by, invitation_code, created_at
		FROM families
		WHERE invitation_code = $1
	`, code).Scan(&family.ID, &family.Name, &family.CreatedBy, &family.InvitationCode, &family.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}

	if err = insertMembership(ctx, tx, family.ID, userID); err != nil {
		return nil, err
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit family join: %w", err)
	}
	return family, nil
}

func (r *familyRepo) GetByMember(ctx context.Context, userID uuid.UUID) (*models.Family, error) {
	family := &models.Family{}
	query := `
		SELECT f.id, f.name, f.created_by, f.invitation_code, f.created_at
		FROM families f
		JOIN family_members fm ON fm.family_id = f.id
		WHERE fm.user_id = $1
	`
	err := r.db.QueryRow(ctx, query, userID).
		Scan(&family.ID, &family.Name, &family.CreatedBy, &family.InvitationCode, &family.CreatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return family, nil
}

func (r *familyRepo) IsMember(ctx context.Context, familyID, userID uuid.UUID) (bool, error) {
	var member bool
	query := `SELECT EXISTS(SELECT 1 FROM family_members WHERE family_id = $1 AND user_id = $2)`
	if err := r.db.QueryRow(ctx, query, familyID, userID).Scan(&member); err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return member, nil
}

func (r *familyRepo) ListMembers(ctx context.Context, userID uuid.UUID) ([]*models.FamilyMember, error) {
	query := `
		SELECT u.id, u.username, u.email, fm.joined_at, (f.created_by = u.id) AS is_leader
		FROM family_members fm
		JOIN users u ON u.id = fm.user_id
		JOIN families f ON f.id = fm.family_id
		WHERE fm.family_id IN (SELECT family_id FROM family_members WHERE user_id = $1)
		ORDER BY fm.joined_at ASC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list family members: %w", err)
	}
	defer rows.Close()

	members := []*models.FamilyMember{}
	for rows.Next() {
		m := &models.FamilyMember{}
		if err := rows.Scan(&m.UserID, &m.Username, &m.Email, &m.JoinedAt, &m.IsLeader); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *familyRepo) RemoveMember(ctx context.Context, familyID, userID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM family_members WHERE family_id = $1 AND user_id = $2`, familyID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove family member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
