package rbac

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrRoleHierarchy indicates an attempt to modify a role at or above
	// the caller's own tier.
	ErrRoleHierarchy = errors.New("rbac: role at or above caller's level")
	// ErrSelfRoleChange indicates an attempted self-role-change.
	ErrSelfRoleChange = errors.New("rbac: cannot change own role")
	// ErrRoleConflict indicates a concurrent edit changed the target's
	// role since the caller last read it.
	ErrRoleConflict = errors.New("rbac: role changed concurrently")
	// ErrUserNotFound indicates the target user does not exist.
	ErrUserNotFound = errors.New("rbac: user not found")
)

// GuardRoleChange applies the ordered role-administration rules for
// "actor assigns newRole to target". First match decides; the rule order
// is the single authority for who may administer whom.
func GuardRoleChange(actorID int64, actorRole Role, targetID int64, targetRole Role, newRole Role) Decision {
	if actorRole != RoleSuperadmin && (newRole == RoleSuperadmin || targetRole == RoleSuperadmin) {
		return Deny(ReasonHierarchy)
	}
	if actorRole == RoleAdmin && (atOrAbove(newRole, RoleAdmin) || atOrAbove(targetRole, RoleAdmin)) {
		return Deny(ReasonHierarchy)
	}
	if actorRole == RoleSubadmin && (atOrAbove(newRole, RoleSubadmin) || atOrAbove(targetRole, RoleSubadmin)) {
		return Deny(ReasonHierarchy)
	}
	if actorRole == RoleSupervisor && (atOrAbove(newRole, RoleSupervisor) || atOrAbove(targetRole, RoleSupervisor)) {
		return Deny(ReasonHierarchy)
	}
	if actorRole == RoleStaff || actorRole == RoleCustomer || actorRole == RoleGuest {
		return Deny(ReasonHierarchy)
	}
	if actorID == targetID && newRole != targetRole {
		return Deny(ReasonSelfChange)
	}
	return Allow()
}

func atOrAbove(r Role, tier Role) bool {
	return r.Valid() && r.Rank() <= tier.Rank()
}

// BindingTx exposes the role-binding operations available inside one
// serialized mutation.
type BindingTx interface {
	CurrentRole(ctx context.Context, userID int64) (Role, error)
	SetRole(ctx context.Context, userID int64, role Role, isRoot, isStaff bool) error
}

// BindingStore persists role bindings. Mutate serializes all role
// mutations for one user, so two concurrent edits of the same user never
// interleave.
type BindingStore interface {
	Mutate(ctx context.Context, userID int64, fn func(tx BindingTx) error) error
}

// AdminService is the only supported mutation path for role bindings.
type AdminService struct {
	store   BindingStore
	emitter AuditEmitter
	logger  *slog.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(store BindingStore, emitter AuditEmitter, logger *slog.Logger) *AdminService {
	return &AdminService{store: store, emitter: emitter, logger: logger}
}

// Administer assigns newRole to the target user on behalf of actor.
// expected is the role the caller last observed on the target; a mismatch
// under the lock means a concurrent edit won and the call fails with
// ErrRoleConflict. On success the target's root and staff flags are
// resynced with the new role. Every outcome is audited.
func (s *AdminService) Administer(ctx context.Context, actor Principal, targetID int64, newRole Role, expected Role) error {
	if !newRole.Valid() {
		return ErrInvalidRole
	}
	return s.store.Mutate(ctx, targetID, func(tx BindingTx) error {
		current, err := tx.CurrentRole(ctx, targetID)
		if err != nil {
			return err
		}
		if expected.Valid() && current != expected {
			s.audit(actor, targetID, DecisionDeny, ReasonConflict)
			return ErrRoleConflict
		}
		decision := GuardRoleChange(actor.ID, actor.Role, targetID, current, newRole)
		if !decision.Allowed {
			s.audit(actor, targetID, DecisionDeny, decision.Reason)
			if decision.Reason == ReasonSelfChange {
				return ErrSelfRoleChange
			}
			return ErrRoleHierarchy
		}
		if err := tx.SetRole(ctx, targetID, newRole, newRole == RoleSuperadmin, newRole.IsTeam()); err != nil {
			return err
		}
		s.audit(actor, targetID, DecisionAllow, "")
		return nil
	})
}

func (s *AdminService) audit(actor Principal, targetID int64, decision, reason string) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(AuditRecord{
		ID:       uuid.NewString(),
		At:       time.Now().UTC(),
		ActorID:  actor.ID,
		Module:   ModuleUsers,
		Action:   ActionEdit,
		TargetID: strconv.FormatInt(targetID, 10),
		Decision: decision,
		Reason:   reason,
	})
}

// effectiveRole derives the role in force for a stored account, mirroring
// principal resolution: the root flag wins, then the binding, then the
// staff flag, then customer.
func effectiveRole(bound Role, isRoot, isStaff bool) Role {
	switch {
	case isRoot:
		return RoleSuperadmin
	case bound.Valid():
		return bound
	case isStaff:
		return RoleStaff
	default:
		return RoleCustomer
	}
}
