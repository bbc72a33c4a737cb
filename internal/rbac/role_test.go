package rbac

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoleNormalizes(t *testing.T) {
	role, err := ParseRole("  Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	role, err = ParseRole("SUPERADMIN")
	require.NoError(t, err)
	assert.Equal(t, RoleSuperadmin, role)
}

func TestParseRoleRejectsLegacyAliases(t *testing.T) {
	for _, alias := range []string{"manager", "senior_staff", "sub-admin", "root", ""} {
		_, err := ParseRole(alias)
		assert.ErrorIs(t, err, ErrInvalidRole, "alias %q", alias)
	}
}

func TestRankOrdersByPrivilege(t *testing.T) {
	ordered := Roles()
	for i := 1; i < len(ordered); i++ {
		assert.Less(t, ordered[i-1].Rank(), ordered[i].Rank())
	}
	assert.Equal(t, 0, RoleSuperadmin.Rank())
	assert.Greater(t, Role("bogus").Rank(), RoleGuest.Rank())
}

func TestRoleTiers(t *testing.T) {
	assert.True(t, RoleStaff.IsTeam())
	assert.True(t, RoleSuperadmin.IsTeam())
	assert.False(t, RoleCustomer.IsTeam())
	assert.True(t, RoleCustomer.IsCustomerLike())
	assert.True(t, RoleGuest.IsCustomerLike())
	assert.False(t, RoleAdmin.IsCustomerLike())
}
