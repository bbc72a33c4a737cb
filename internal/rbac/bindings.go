package rbac

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/platform/db"
)

// roleAdminLockClass namespaces the per-user advisory locks taken during
// role mutations.
const roleAdminLockClass = 0x524f4c45 // "ROLE"

// PGBindingStore implements BindingStore on PostgreSQL. Serialization uses
// a transaction-scoped advisory lock keyed by user ID.
type PGBindingStore struct {
	pool *pgxpool.Pool
}

// NewBindingStore constructs a PostgreSQL-backed binding store.
func NewBindingStore(pool *pgxpool.Pool) *PGBindingStore {
	return &PGBindingStore{pool: pool}
}

// Mutate runs fn inside a transaction holding the target user's lock.
func (s *PGBindingStore) Mutate(ctx context.Context, userID int64, fn func(tx BindingTx) error) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1, $2)`, roleAdminLockClass, userID); err != nil {
			return fmt.Errorf("rbac: acquire user lock: %w", err)
		}
		return fn(pgBindingTx{tx: tx})
	})
}

type pgBindingTx struct {
	tx pgx.Tx
}

// CurrentRole loads the target's effective role under the lock.
func (t pgBindingTx) CurrentRole(ctx context.Context, userID int64) (Role, error) {
	var (
		isRoot  bool
		isStaff bool
		bound   string
	)
	err := t.tx.QueryRow(ctx, `
		SELECT u.is_superuser, u.is_staff, COALESCE(ur.role, '')
		FROM users u
		LEFT JOIN user_role ur ON ur.user_id = u.id
		WHERE u.id = $1`, userID).Scan(&isRoot, &isStaff, &bound)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return effectiveRole(Role(bound), isRoot, isStaff), nil
}

// SetRole upserts the binding and resyncs the account flags.
func (t pgBindingTx) SetRole(ctx context.Context, userID int64, role Role, isRoot, isStaff bool) error {
	if _, err := t.tx.Exec(ctx, `
		INSERT INTO user_role (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`, userID, role); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE users SET is_superuser = $2, is_staff = $3, updated_at = NOW() WHERE id = $1`, userID, isRoot, isStaff)
	return err
}

var _ BindingStore = (*PGBindingStore)(nil)
