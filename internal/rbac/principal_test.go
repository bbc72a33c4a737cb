package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromIdentityRootWinsOverBinding(t *testing.T) {
	p := FromIdentity(Identity{ID: 1, Email: "root@msl.local", IsRoot: true, Role: RoleStaff, TenantKey: "acme"})
	assert.Equal(t, RoleSuperadmin, p.Role)
	assert.Equal(t, TenantWildcard, p.TenantKey)
	assert.True(t, p.IsRoot)
}

func TestFromIdentityKeepsBoundRole(t *testing.T) {
	p := FromIdentity(Identity{ID: 2, Email: "a@acme.test", Role: RoleSupervisor, IsStaff: true, TenantKey: "acme"})
	assert.Equal(t, RoleSupervisor, p.Role)
	assert.Equal(t, "acme", p.TenantKey)
	assert.False(t, p.IsRoot)
}

func TestFromIdentityFlagFallbacks(t *testing.T) {
	staff := FromIdentity(Identity{ID: 3, Email: "s@acme.test", IsStaff: true, TenantKey: "acme"})
	assert.Equal(t, RoleStaff, staff.Role)

	customer := FromIdentity(Identity{ID: 4, Email: "c@shop.test"})
	assert.Equal(t, RoleCustomer, customer.Role)
	// Customers without a tenant are isolated under their own email.
	assert.Equal(t, "c@shop.test", customer.TenantKey)
}

type stubIdentityStore struct {
	identity *Identity
	err      error
}

func (s *stubIdentityStore) FindIdentity(_ context.Context, _ int64) (*Identity, error) {
	return s.identity, s.err
}

func TestResolveFallsBackToGuest(t *testing.T) {
	r := NewResolver(&stubIdentityStore{err: errors.New("db down")}, nil)
	assert.True(t, r.Resolve(context.Background(), 7).IsGuest())

	r = NewResolver(&stubIdentityStore{}, nil)
	assert.True(t, r.Resolve(context.Background(), 7).IsGuest())

	r = NewResolver(&stubIdentityStore{identity: &Identity{ID: 7, IsStaff: true, TenantKey: "acme"}}, nil)
	assert.True(t, r.Resolve(context.Background(), 0).IsGuest())
	assert.Equal(t, RoleStaff, r.Resolve(context.Background(), 7).Role)
}

func TestPrincipalContextRoundTrip(t *testing.T) {
	p := Principal{ID: 9, Role: RoleAdmin, TenantKey: "acme"}
	ctx := ContextWithPrincipal(context.Background(), p)

	got, ok := PrincipalFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, p, got)

	guest, ok := PrincipalFromContext(context.Background())
	assert.False(t, ok)
	assert.True(t, guest.IsGuest())
}
