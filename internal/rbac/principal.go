package rbac

import (
	"context"
	"log/slog"
)

const (
	// TenantWildcard marks a principal that sees every tenant.
	TenantWildcard = "*"
	// TenantGuest is the sentinel tenant key for unauthenticated principals.
	TenantGuest = "guest"
)

// Identity is the host account view consulted during principal resolution.
type Identity struct {
	ID          int64
	Email       string
	DisplayName string
	IsRoot      bool
	IsStaff     bool
	Role        Role // bound role from user_role; empty when none
	TenantKey   string
}

// IdentityStore looks up stored identities. Implemented by the auth module.
type IdentityStore interface {
	FindIdentity(ctx context.Context, userID int64) (*Identity, error)
}

// Principal is the authenticated actor for one request. Built once at
// request entry, immutable afterwards.
type Principal struct {
	ID        int64
	Role      Role
	TenantKey string
	IsRoot    bool
	Email     string
	Name      string
}

// GuestPrincipal returns the principal used for unauthenticated requests.
func GuestPrincipal() Principal {
	return Principal{Role: RoleGuest, TenantKey: TenantGuest}
}

// IsGuest reports whether the principal is unauthenticated.
func (p Principal) IsGuest() bool {
	return p.Role == RoleGuest
}

// Resolver derives a Principal from a stored identity.
type Resolver struct {
	store  IdentityStore
	logger *slog.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(store IdentityStore, logger *slog.Logger) *Resolver {
	return &Resolver{store: store, logger: logger}
}

// Resolve builds the principal for the given user ID. A zero ID, a missing
// identity or a lookup failure all resolve to guest; the root flag forces
// superadmin over any stored binding.
func (r *Resolver) Resolve(ctx context.Context, userID int64) Principal {
	if userID == 0 || r.store == nil {
		return GuestPrincipal()
	}
	identity, err := r.store.FindIdentity(ctx, userID)
	if err != nil || identity == nil {
		if err != nil && r.logger != nil {
			r.logger.Warn("resolve identity", slog.Int64("user_id", userID), slog.Any("error", err))
		}
		return GuestPrincipal()
	}
	return FromIdentity(*identity)
}

// FromIdentity applies the resolution rules to a loaded identity.
func FromIdentity(id Identity) Principal {
	role := id.Role
	switch {
	case id.IsRoot:
		role = RoleSuperadmin
	case role.Valid():
		// keep the stored binding
	case id.IsStaff:
		role = RoleStaff
	default:
		role = RoleCustomer
	}

	tenant := id.TenantKey
	if role == RoleSuperadmin {
		tenant = TenantWildcard
	} else if tenant == "" {
		tenant = id.Email
	}

	return Principal{
		ID:        id.ID,
		Role:      role,
		TenantKey: tenant,
		IsRoot:    role == RoleSuperadmin,
		Email:     id.Email,
		Name:      id.DisplayName,
	}
}

type principalContextKey struct{}

// ContextWithPrincipal caches the resolved principal for the request.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the cached principal, or guest when absent.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	if !ok {
		return GuestPrincipal(), false
	}
	return p, true
}
