package rbac

import (
	"fmt"
	"strings"
)

// Predicate is one equality filter added to a query.
type Predicate struct {
	Column string
	Value  any
}

// Query describes a filtered read against one resource kind. Repositories
// never build tenant filters themselves: services call Scope before a query
// is executed, and an unscoped query reaching a repository is a bug.
type Query struct {
	Kind       string
	Predicates []Predicate
}

// NewQuery starts an empty query for the given resource kind.
func NewQuery(kind string) Query {
	return Query{Kind: kind}
}

// Where appends an equality predicate.
func (q Query) Where(column string, value any) Query {
	q.Predicates = append(append([]Predicate(nil), q.Predicates...), Predicate{Column: column, Value: value})
	return q
}

// Clause renders the predicates as a SQL fragment with positional
// arguments starting at startIdx. An empty query renders "TRUE" so callers
// can always interpolate it after WHERE.
func (q Query) Clause(startIdx int) (string, []any) {
	if len(q.Predicates) == 0 {
		return "TRUE", nil
	}
	parts := make([]string, 0, len(q.Predicates))
	args := make([]any, 0, len(q.Predicates))
	for i, p := range q.Predicates {
		parts = append(parts, fmt.Sprintf("%s = $%d", p.Column, startIdx+i))
		args = append(args, p.Value)
	}
	return strings.Join(parts, " AND "), args
}

// customerOwnedKinds lists resource kinds that additionally filter by the
// owning customer.
var customerOwnedKinds = map[string]struct{}{
	"orders":       {},
	"invoices":     {},
	"receipts":     {},
	"cart":         {},
	"wishlist":     {},
	"own_bookings": {},
}

// Scope narrows the query to the principal's visible data. Superadmin
// passes through untouched; everyone else is pinned to their tenant, and
// customer-owned kinds are additionally pinned to the owner. Scope is
// idempotent and only ever narrows.
func Scope(p Principal, q Query) Query {
	if p.IsRoot {
		return q
	}
	q = addPredicate(q, "tenant_key", p.TenantKey)
	if _, owned := customerOwnedKinds[q.Kind]; owned && p.Role == RoleCustomer {
		q = addPredicate(q, "owner_id", p.ID)
	}
	return q
}

func addPredicate(q Query, column string, value any) Query {
	for _, p := range q.Predicates {
		if p.Column == column && p.Value == value {
			return q
		}
	}
	return q.Where(column, value)
}
