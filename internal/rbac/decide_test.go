package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDecider(t *testing.T) *Decider {
	t.Helper()
	base, err := NewMatrix()
	require.NoError(t, err)
	return NewDecider(NewSnapshot(base, nil, nil))
}

func TestDecideSuperadminBypassesMatrix(t *testing.T) {
	d := newTestDecider(t)
	root := Principal{ID: 1, Role: RoleSuperadmin, IsRoot: true}

	// Even a permission no other role holds.
	decision := d.Decide(root, ModuleSettings, ActionDelete, nil)
	assert.True(t, decision.Allowed)
}

func TestDecideMatrixDenies(t *testing.T) {
	d := newTestDecider(t)
	customer := Principal{ID: 9, Role: RoleCustomer, TenantKey: "acme"}

	decision := d.Decide(customer, ModulePermissions, ActionView, nil)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonMatrix, decision.Reason)
}

func TestDecideCustomerOwnership(t *testing.T) {
	d := newTestDecider(t)
	customer := Principal{ID: 9, Role: RoleCustomer, TenantKey: "acme", Email: "c@acme.test"}

	owned := &ResourceRef{ID: "5", OwnerID: 9, TenantKey: "acme"}
	assert.True(t, d.Decide(customer, ModuleOrders, ActionView, owned).Allowed)

	// Email match is accepted case-insensitively when the owner id differs.
	byEmail := &ResourceRef{ID: "6", OwnerID: 77, CustomerEmail: "C@ACME.TEST", TenantKey: "acme"}
	assert.True(t, d.Decide(customer, ModuleOrders, ActionView, byEmail).Allowed)

	// Ownership wins even when the row sits in another tenant.
	crossTenantOwned := &ResourceRef{ID: "8", OwnerID: 9, TenantKey: "globex"}
	assert.True(t, d.Decide(customer, ModuleOrders, ActionView, crossTenantOwned).Allowed)

	foreign := &ResourceRef{ID: "7", OwnerID: 77, CustomerEmail: "other@acme.test", TenantKey: "acme"}
	decision := d.Decide(customer, ModuleOrders, ActionView, foreign)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonNotOwner, decision.Reason)
}

func TestDecideTeamCrossTenant(t *testing.T) {
	d := newTestDecider(t)
	staff := Principal{ID: 4, Role: RoleStaff, TenantKey: "acme"}

	sameTenant := &ResourceRef{ID: "5", TenantKey: "acme"}
	assert.True(t, d.Decide(staff, ModuleOrders, ActionView, sameTenant).Allowed)

	otherTenant := &ResourceRef{ID: "6", TenantKey: "globex"}
	decision := d.Decide(staff, ModuleOrders, ActionView, otherTenant)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonCrossTenant, decision.Reason)
}

func TestDecideMatrixCheckedBeforeOwnership(t *testing.T) {
	d := newTestDecider(t)
	customer := Principal{ID: 9, Role: RoleCustomer, TenantKey: "acme"}

	// Customer owns the target but the matrix does not grant the action.
	owned := &ResourceRef{ID: "5", OwnerID: 9, TenantKey: "acme"}
	decision := d.Decide(customer, ModuleOrders, ActionDelete, owned)
	assert.False(t, decision.Allowed)
	assert.Equal(t, ReasonMatrix, decision.Reason)
}

func TestDecideWithoutTargetSkipsSecondStage(t *testing.T) {
	d := newTestDecider(t)
	customer := Principal{ID: 9, Role: RoleCustomer, TenantKey: "acme"}

	assert.True(t, d.Decide(customer, ModuleOrders, ActionView, nil).Allowed)
}
