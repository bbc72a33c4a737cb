package rbac

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuardRoleChangeRules(t *testing.T) {
	cases := []struct {
		name       string
		actorID    int64
		actorRole  Role
		targetID   int64
		targetRole Role
		newRole    Role
		allowed    bool
		reason     string
	}{
		{"superadmin promotes to admin", 1, RoleSuperadmin, 2, RoleStaff, RoleAdmin, true, ""},
		{"superadmin demotes admin", 1, RoleSuperadmin, 2, RoleAdmin, RoleStaff, true, ""},
		{"admin promotes staff to supervisor", 2, RoleAdmin, 3, RoleStaff, RoleSupervisor, true, ""},
		{"admin cannot grant superadmin", 2, RoleAdmin, 3, RoleStaff, RoleSuperadmin, false, ReasonHierarchy},
		{"admin cannot touch another admin", 2, RoleAdmin, 3, RoleAdmin, RoleStaff, false, ReasonHierarchy},
		{"admin cannot promote to admin", 2, RoleAdmin, 3, RoleStaff, RoleAdmin, false, ReasonHierarchy},
		{"subadmin promotes staff to supervisor", 3, RoleSubadmin, 4, RoleStaff, RoleSupervisor, true, ""},
		{"subadmin cannot grant subadmin", 3, RoleSubadmin, 4, RoleStaff, RoleSubadmin, false, ReasonHierarchy},
		{"supervisor promotes customer to staff", 4, RoleSupervisor, 5, RoleCustomer, RoleStaff, true, ""},
		{"supervisor cannot grant supervisor", 4, RoleSupervisor, 5, RoleCustomer, RoleSupervisor, false, ReasonHierarchy},
		{"staff administers nobody", 5, RoleStaff, 6, RoleCustomer, RoleCustomer, false, ReasonHierarchy},
		{"customer administers nobody", 6, RoleCustomer, 7, RoleCustomer, RoleCustomer, false, ReasonHierarchy},
		{"self change denied", 1, RoleSuperadmin, 1, RoleSuperadmin, RoleAdmin, false, ReasonSelfChange},
		{"self no-op allowed", 1, RoleSuperadmin, 1, RoleSuperadmin, RoleSuperadmin, true, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			decision := GuardRoleChange(tc.actorID, tc.actorRole, tc.targetID, tc.targetRole, tc.newRole)
			assert.Equal(t, tc.allowed, decision.Allowed)
			if !tc.allowed {
				assert.Equal(t, tc.reason, decision.Reason)
			}
		})
	}
}

type memBindingStore struct {
	roles   map[int64]Role
	isRoot  map[int64]bool
	isStaff map[int64]bool
}

func newMemBindingStore() *memBindingStore {
	return &memBindingStore{
		roles:   make(map[int64]Role),
		isRoot:  make(map[int64]bool),
		isStaff: make(map[int64]bool),
	}
}

func (s *memBindingStore) Mutate(_ context.Context, _ int64, fn func(tx BindingTx) error) error {
	return fn(s)
}

func (s *memBindingStore) CurrentRole(_ context.Context, userID int64) (Role, error) {
	role, ok := s.roles[userID]
	if !ok {
		return "", ErrUserNotFound
	}
	return role, nil
}

func (s *memBindingStore) SetRole(_ context.Context, userID int64, role Role, isRoot, isStaff bool) error {
	s.roles[userID] = role
	s.isRoot[userID] = isRoot
	s.isStaff[userID] = isStaff
	return nil
}

type recordingEmitter struct {
	records []AuditRecord
}

func (e *recordingEmitter) Emit(rec AuditRecord) {
	e.records = append(e.records, rec)
}

func TestAdministerAppliesAndAudits(t *testing.T) {
	store := newMemBindingStore()
	store.roles[3] = RoleCustomer
	emitter := &recordingEmitter{}
	svc := NewAdminService(store, emitter, nil)
	admin := Principal{ID: 2, Role: RoleAdmin, TenantKey: "acme"}

	err := svc.Administer(context.Background(), admin, 3, RoleStaff, RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, RoleStaff, store.roles[3])
	assert.True(t, store.isStaff[3])
	assert.False(t, store.isRoot[3])

	require.Len(t, emitter.records, 1)
	assert.Equal(t, DecisionAllow, emitter.records[0].Decision)
	assert.Equal(t, ModuleUsers, emitter.records[0].Module)
	assert.Equal(t, "3", emitter.records[0].TargetID)
}

func TestAdministerDetectsConcurrentEdit(t *testing.T) {
	store := newMemBindingStore()
	store.roles[3] = RoleSupervisor // someone else already promoted
	emitter := &recordingEmitter{}
	svc := NewAdminService(store, emitter, nil)
	admin := Principal{ID: 2, Role: RoleAdmin, TenantKey: "acme"}

	err := svc.Administer(context.Background(), admin, 3, RoleStaff, RoleCustomer)
	assert.ErrorIs(t, err, ErrRoleConflict)
	assert.Equal(t, RoleSupervisor, store.roles[3])

	require.Len(t, emitter.records, 1)
	assert.Equal(t, DecisionDeny, emitter.records[0].Decision)
	assert.Equal(t, ReasonConflict, emitter.records[0].Reason)
}

func TestAdministerRejectsSelfChange(t *testing.T) {
	store := newMemBindingStore()
	store.roles[1] = RoleSuperadmin
	svc := NewAdminService(store, nil, nil)
	root := Principal{ID: 1, Role: RoleSuperadmin, TenantKey: TenantWildcard, IsRoot: true}

	err := svc.Administer(context.Background(), root, 1, RoleAdmin, RoleSuperadmin)
	assert.ErrorIs(t, err, ErrSelfRoleChange)
	assert.Equal(t, RoleSuperadmin, store.roles[1])
}

func TestAdministerRejectsHierarchyViolation(t *testing.T) {
	store := newMemBindingStore()
	store.roles[3] = RoleAdmin
	svc := NewAdminService(store, nil, nil)
	admin := Principal{ID: 2, Role: RoleAdmin, TenantKey: "acme"}

	err := svc.Administer(context.Background(), admin, 3, RoleStaff, RoleAdmin)
	assert.ErrorIs(t, err, ErrRoleHierarchy)
}

func TestAdministerValidatesRoleAndTarget(t *testing.T) {
	store := newMemBindingStore()
	svc := NewAdminService(store, nil, nil)
	admin := Principal{ID: 2, Role: RoleAdmin, TenantKey: "acme"}

	err := svc.Administer(context.Background(), admin, 3, Role("bogus"), RoleCustomer)
	assert.ErrorIs(t, err, ErrInvalidRole)

	err = svc.Administer(context.Background(), admin, 99, RoleStaff, RoleCustomer)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestEffectiveRoleResolution(t *testing.T) {
	assert.Equal(t, RoleSuperadmin, effectiveRole(RoleStaff, true, true))
	assert.Equal(t, RoleSupervisor, effectiveRole(RoleSupervisor, false, true))
	assert.Equal(t, RoleStaff, effectiveRole("", false, true))
	assert.Equal(t, RoleCustomer, effectiveRole("", false, false))
}
