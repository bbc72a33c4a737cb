package rbac

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
)

// Override is a persisted adjustment applied on top of the static matrix.
// Deleting an override reverts to the static table.
type Override struct {
	Role    Role
	Module  Module
	Action  Action
	Allowed bool
}

// ErrSuperadminOverride rejects overrides targeting the superadmin row,
// which is total-allow by construction.
var ErrSuperadminOverride = errors.New("rbac: superadmin permissions cannot be overridden")

// OverrideStore persists matrix overrides.
type OverrideStore interface {
	ListOverrides(ctx context.Context) ([]Override, error)
	UpsertOverride(ctx context.Context, o Override) error
	DeleteOverride(ctx context.Context, role Role, module Module, action Action) error
}

// PGOverrideStore implements OverrideStore on PostgreSQL.
type PGOverrideStore struct {
	pool *pgxpool.Pool
}

// NewOverrideStore constructs a PostgreSQL-backed override store.
func NewOverrideStore(pool *pgxpool.Pool) *PGOverrideStore {
	return &PGOverrideStore{pool: pool}
}

// ListOverrides returns all persisted overrides.
func (s *PGOverrideStore) ListOverrides(ctx context.Context) ([]Override, error) {
	rows, err := s.pool.Query(ctx, `SELECT role, module, action, allowed FROM permission_override ORDER BY role, module, action`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var overrides []Override
	for rows.Next() {
		var o Override
		if err := rows.Scan(&o.Role, &o.Module, &o.Action, &o.Allowed); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// UpsertOverride inserts or updates an override after validating its keys.
func (s *PGOverrideStore) UpsertOverride(ctx context.Context, o Override) error {
	if err := validateOverride(o.Role, o.Module, o.Action); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO permission_override (role, module, action, allowed)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (role, module, action) DO UPDATE SET allowed = EXCLUDED.allowed`,
		o.Role, o.Module, o.Action, o.Allowed)
	return err
}

// DeleteOverride removes an override, reverting to the static matrix.
func (s *PGOverrideStore) DeleteOverride(ctx context.Context, role Role, module Module, action Action) error {
	if err := validateOverride(role, module, action); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `DELETE FROM permission_override WHERE role=$1 AND module=$2 AND action=$3`, role, module, action)
	return err
}

func validateOverride(role Role, module Module, action Action) error {
	if !role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	if role == RoleSuperadmin {
		return ErrSuperadminOverride
	}
	if _, ok := knownModules[module]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidModule, module)
	}
	if _, ok := knownActions[action]; !ok {
		return fmt.Errorf("%w: %q", ErrInvalidAction, action)
	}
	return nil
}

// Snapshot holds the effective matrix behind an atomic pointer. Readers get
// a consistent matrix without locks; Reload swaps in a fresh copy with the
// persisted overrides applied.
type Snapshot struct {
	base    *Matrix
	store   OverrideStore
	logger  *slog.Logger
	current atomic.Pointer[Matrix]
	group   singleflight.Group
}

// NewSnapshot constructs a Snapshot serving the static matrix until the
// first Reload.
func NewSnapshot(base *Matrix, store OverrideStore, logger *slog.Logger) *Snapshot {
	s := &Snapshot{base: base, store: store, logger: logger}
	s.current.Store(base)
	return s
}

// Matrix returns the current effective matrix.
func (s *Snapshot) Matrix() *Matrix {
	return s.current.Load()
}

// Reload rebuilds the effective matrix from the static table plus persisted
// overrides and atomically swaps it in. Concurrent reloads coalesce.
func (s *Snapshot) Reload(ctx context.Context) error {
	_, err, _ := s.group.Do("reload", func() (any, error) {
		next := s.base
		if s.store != nil {
			overrides, err := s.store.ListOverrides(ctx)
			if err != nil {
				return nil, err
			}
			if len(overrides) > 0 {
				clone := s.base.Clone()
				for _, o := range overrides {
					if err := validateOverride(o.Role, o.Module, o.Action); err != nil {
						if s.logger != nil {
							s.logger.Warn("skip invalid permission override",
								slog.String("role", string(o.Role)),
								slog.String("module", string(o.Module)),
								slog.String("action", string(o.Action)),
								slog.Any("error", err))
						}
						continue
					}
					clone.set(o.Role, o.Module, o.Action, o.Allowed)
				}
				next = clone
			}
		}
		s.current.Store(next)
		return nil, nil
	})
	return err
}
