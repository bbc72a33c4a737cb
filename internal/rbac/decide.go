package rbac

import "strings"

// Decision deny reasons surfaced in responses and audit records.
const (
	ReasonMatrix      = "matrix"
	ReasonNotOwner    = "not-owner"
	ReasonCrossTenant = "cross-tenant"
	ReasonHierarchy   = "role-hierarchy"
	ReasonSelfChange  = "self-role-change"
	ReasonConflict    = "conflict"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow returns an allowing decision.
func Allow() Decision { return Decision{Allowed: true} }

// Deny returns a denying decision with the given reason.
func Deny(reason string) Decision { return Decision{Reason: reason} }

// ResourceRef identifies a loaded target for second-stage checks.
type ResourceRef struct {
	ID            string
	OwnerID       int64
	CustomerEmail string
	TenantKey     string
}

// Decider evaluates authorization decisions against the effective matrix.
// Decide is pure: identical inputs yield identical decisions and nothing is
// written.
type Decider struct {
	snapshot *Snapshot
}

// NewDecider constructs a Decider reading from the given matrix snapshot.
func NewDecider(snapshot *Snapshot) *Decider {
	return &Decider{snapshot: snapshot}
}

// ownershipActions are the verbs a customer may perform on resources they
// own, checked against the loaded target.
func ownershipAction(a Action) bool {
	return a == ActionView || a == ActionPDF || a == ActionExport
}

// Decide applies the decision rules in order:
//
//  1. superadmin always allowed
//  2. the matrix must grant (role, module, action)
//  3. customers reach only resources they own (by owner id or email)
//  4. team members reach only their own tenant's resources
func (d *Decider) Decide(p Principal, module Module, action Action, target *ResourceRef) Decision {
	if p.Role == RoleSuperadmin {
		return Allow()
	}
	if !d.snapshot.Matrix().Allowed(p.Role, module, action) {
		return Deny(ReasonMatrix)
	}
	if p.Role == RoleCustomer && target != nil && ownershipAction(action) {
		if target.OwnerID != 0 && target.OwnerID == p.ID {
			return Allow()
		}
		if p.Email != "" && strings.EqualFold(target.CustomerEmail, p.Email) {
			return Allow()
		}
		return Deny(ReasonNotOwner)
	}
	if target != nil && target.TenantKey != "" && p.Role.IsTeam() {
		if target.TenantKey != p.TenantKey {
			return Deny(ReasonCrossTenant)
		}
	}
	return Allow()
}
