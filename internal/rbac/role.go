package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// Role is one of the closed set of platform roles, ordered by privilege.
type Role string

const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleSubadmin   Role = "subadmin"
	RoleSupervisor Role = "supervisor"
	RoleStaff      Role = "staff"
	RoleCustomer   Role = "customer"
	RoleGuest      Role = "guest"
)

// ErrInvalidRole indicates a role string outside the closed set.
var ErrInvalidRole = errors.New("rbac: invalid role")

// roleRanks orders roles from most privileged (0) to least.
var roleRanks = map[Role]int{
	RoleSuperadmin: 0,
	RoleAdmin:      1,
	RoleSubadmin:   2,
	RoleSupervisor: 3,
	RoleStaff:      4,
	RoleCustomer:   5,
	RoleGuest:      6,
}

// ParseRole normalizes case and rejects any name outside the closed set.
// Legacy aliases such as "manager", "senior_staff" or "sub-admin" are not
// accepted; callers must migrate bindings to the canonical names.
func ParseRole(s string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := roleRanks[role]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return role, nil
}

// Valid reports whether the role belongs to the closed set.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the privilege rank of the role. Smaller means more
// privileged; superadmin is 0. Unknown roles rank below guest.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return len(roleRanks)
}

// IsTeam reports whether the role belongs to the internal team tier.
func (r Role) IsTeam() bool {
	switch r {
	case RoleSuperadmin, RoleAdmin, RoleSubadmin, RoleSupervisor, RoleStaff:
		return true
	}
	return false
}

// IsCustomerLike reports whether the role is customer-facing.
func (r Role) IsCustomerLike() bool {
	return r == RoleCustomer || r == RoleGuest
}

// Roles returns all roles ordered from most to least privileged.
func Roles() []Role {
	return []Role{RoleSuperadmin, RoleAdmin, RoleSubadmin, RoleSupervisor, RoleStaff, RoleCustomer, RoleGuest}
}
