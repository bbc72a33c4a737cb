package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error
	DeleteSession(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL. It also serves as
// the identity store for principal resolution.
type PGRepository struct {
	db *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool}
}

// FindByEmail fetches an account by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := r.db.QueryRow(ctx, `
		SELECT id, email, password_hash, display_name, tenant_key, is_superuser, is_staff, is_active, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)`, email,
	).Scan(&user.ID, &user.Email, &user.PasswordHash, &user.DisplayName, &user.TenantKey,
		&user.IsRoot, &user.IsStaff, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// FindIdentity loads the account view used for principal resolution,
// joining the role binding when one exists.
func (r *PGRepository) FindIdentity(ctx context.Context, userID int64) (*rbac.Identity, error) {
	var (
		identity rbac.Identity
		role     *string
		active   bool
	)
	err := r.db.QueryRow(ctx, `
		SELECT u.id, u.email, u.display_name, u.tenant_key, u.is_superuser, u.is_staff, u.is_active, ur.role
		FROM users u
		LEFT JOIN user_role ur ON ur.user_id = u.id
		WHERE u.id = $1`, userID,
	).Scan(&identity.ID, &identity.Email, &identity.DisplayName, &identity.TenantKey,
		&identity.IsRoot, &identity.IsStaff, &active, &role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if !active {
		return nil, nil
	}
	if role != nil {
		if parsed, err := rbac.ParseRole(*role); err == nil {
			identity.Role = parsed
		}
	}
	return &identity, nil
}

// CreateSession persists a new login session for auditing.
func (r *PGRepository) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at, ip, ua)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))`,
		id, userID, time.Now().UTC(), expiresAt.UTC(), ip, ua)
	return err
}

// DeleteSession removes a session record.
func (r *PGRepository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

var _ Repository = (*PGRepository)(nil)
var _ rbac.IdentityStore = (*PGRepository)(nil)
