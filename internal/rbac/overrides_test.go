package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOverrideStore struct {
	overrides []Override
	err       error
}

func (s *stubOverrideStore) ListOverrides(_ context.Context) ([]Override, error) {
	return s.overrides, s.err
}

func (s *stubOverrideStore) UpsertOverride(_ context.Context, o Override) error {
	s.overrides = append(s.overrides, o)
	return nil
}

func (s *stubOverrideStore) DeleteOverride(_ context.Context, _ Role, _ Module, _ Action) error {
	return nil
}

func TestSnapshotServesBaseBeforeReload(t *testing.T) {
	base, err := NewMatrix()
	require.NoError(t, err)
	snap := NewSnapshot(base, &stubOverrideStore{}, nil)

	assert.True(t, snap.Matrix().Allowed(RoleStaff, ModuleStock, ActionAdjust))
}

func TestReloadAppliesOverrides(t *testing.T) {
	base, err := NewMatrix()
	require.NoError(t, err)
	store := &stubOverrideStore{overrides: []Override{
		{Role: RoleStaff, Module: ModuleStock, Action: ActionAdjust, Allowed: false},
		{Role: RoleStaff, Module: ModuleProducts, Action: ActionCreate, Allowed: true},
	}}
	snap := NewSnapshot(base, store, nil)

	require.NoError(t, snap.Reload(context.Background()))
	m := snap.Matrix()
	assert.False(t, m.Allowed(RoleStaff, ModuleStock, ActionAdjust))
	assert.True(t, m.Allowed(RoleStaff, ModuleProducts, ActionCreate))
	// Base matrix is untouched.
	assert.True(t, base.Allowed(RoleStaff, ModuleStock, ActionAdjust))
}

func TestReloadRevertsWhenOverridesRemoved(t *testing.T) {
	base, err := NewMatrix()
	require.NoError(t, err)
	store := &stubOverrideStore{overrides: []Override{
		{Role: RoleStaff, Module: ModuleStock, Action: ActionAdjust, Allowed: false},
	}}
	snap := NewSnapshot(base, store, nil)
	require.NoError(t, snap.Reload(context.Background()))
	require.False(t, snap.Matrix().Allowed(RoleStaff, ModuleStock, ActionAdjust))

	store.overrides = nil
	require.NoError(t, snap.Reload(context.Background()))
	assert.True(t, snap.Matrix().Allowed(RoleStaff, ModuleStock, ActionAdjust))
}

func TestReloadSkipsInvalidOverrides(t *testing.T) {
	base, err := NewMatrix()
	require.NoError(t, err)
	store := &stubOverrideStore{overrides: []Override{
		{Role: RoleSuperadmin, Module: ModuleStock, Action: ActionAdjust, Allowed: false},
		{Role: Role("bogus"), Module: ModuleStock, Action: ActionAdjust, Allowed: true},
		{Role: RoleStaff, Module: ModuleStock, Action: ActionTransfer, Allowed: true},
	}}
	snap := NewSnapshot(base, store, nil)

	require.NoError(t, snap.Reload(context.Background()))
	m := snap.Matrix()
	assert.True(t, m.Allowed(RoleSuperadmin, ModuleStock, ActionAdjust))
	assert.True(t, m.Allowed(RoleStaff, ModuleStock, ActionTransfer))
}

func TestReloadKeepsServingOnStoreFailure(t *testing.T) {
	base, err := NewMatrix()
	require.NoError(t, err)
	snap := NewSnapshot(base, &stubOverrideStore{err: errors.New("db down")}, nil)

	assert.Error(t, snap.Reload(context.Background()))
	assert.True(t, snap.Matrix().Allowed(RoleStaff, ModuleStock, ActionAdjust))
}

func TestValidateOverrideRejectsSuperadmin(t *testing.T) {
	err := validateOverride(RoleSuperadmin, ModuleStock, ActionAdjust)
	assert.ErrorIs(t, err, ErrSuperadminOverride)

	err = validateOverride(RoleStaff, Module("bogus"), ActionAdjust)
	assert.ErrorIs(t, err, ErrInvalidModule)

	err = validateOverride(RoleStaff, ModuleStock, Action("bogus"))
	assert.ErrorIs(t, err, ErrInvalidAction)
}
