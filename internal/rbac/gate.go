package rbac

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
)

// Audit decision values.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// AuditRecord notes one authorization decision or role mutation.
type AuditRecord struct {
	ID       string
	At       time.Time
	ActorID  int64
	Module   Module
	Action   Action
	TargetID string
	Decision string
	Reason   string
}

// AuditEmitter receives audit records. Implementations must not block the
// request path; the sink buffers and drops on overflow.
type AuditEmitter interface {
	Emit(rec AuditRecord)
}

// DecisionObserver counts decisions for metrics.
type DecisionObserver interface {
	ObserveDecision(module, decision, reason string)
}

// LoginPath is where unauthenticated browser requests are sent.
const LoginPath = "/auth/login"

// DashboardPath is where denied browser requests are sent.
const DashboardPath = "/"

// Route declares a gated handler registration: the (method, pattern)
// pair plus the permission the handler requires. Handlers are only ever
// mounted through Gate.Mount, so an undeclared handler cannot exist.
type Route struct {
	Method  string
	Pattern string
	Module  Module
	Action  Action
	Handler http.HandlerFunc
}

// Gate is the single enforcement point wrapping every gated handler.
type Gate struct {
	resolver *Resolver
	decider  *Decider
	emitter  AuditEmitter
	observer DecisionObserver
	logger   *slog.Logger
}

// NewGate constructs a Gate. emitter and observer may be nil in tests.
func NewGate(resolver *Resolver, decider *Decider, emitter AuditEmitter, observer DecisionObserver, logger *slog.Logger) *Gate {
	return &Gate{resolver: resolver, decider: decider, emitter: emitter, observer: observer, logger: logger}
}

// Mount registers a route table on the router, wrapping every handler with
// the gate check for its declared (module, action).
func (g *Gate) Mount(r chi.Router, routes []Route) {
	for _, route := range routes {
		r.Method(route.Method, route.Pattern, g.wrap(route.Module, route.Action, route.Handler))
	}
}

// Require adapts the gate into chi middleware for group-style mounting.
func (g *Gate) Require(module Module, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.wrap(module, action, next.ServeHTTP)
	}
}

func (g *Gate) wrap(module Module, action Action, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal := g.Principal(r)
		ctx := ContextWithPrincipal(r.Context(), principal)
		r = r.WithContext(ctx)

		decision := g.decider.Decide(principal, module, action, nil)
		g.record(principal, module, action, "", decision)

		if !decision.Allowed {
			if principal.IsGuest() {
				g.denyUnauthenticated(w, r)
				return
			}
			g.deny(w, r, module, action, decision)
			return
		}
		next(w, r)
	})
}

// Principal resolves the request's principal, reusing the per-request
// cache when the gate already ran.
func (g *Gate) Principal(r *http.Request) Principal {
	if p, ok := PrincipalFromContext(r.Context()); ok {
		return p
	}
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return GuestPrincipal()
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return GuestPrincipal()
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if g.logger != nil {
			g.logger.Warn("gate parse session user id", slog.String("value", raw))
		}
		return GuestPrincipal()
	}
	return g.resolver.Resolve(r.Context(), userID)
}

// Authorize runs the target-bearing second stage inside a handler that has
// loaded its resource. On deny it writes the response and audit record and
// returns false; the handler must stop.
func (g *Gate) Authorize(w http.ResponseWriter, r *http.Request, module Module, action Action, target *ResourceRef) bool {
	principal, _ := PrincipalFromContext(r.Context())
	decision := g.decider.Decide(principal, module, action, target)
	targetID := ""
	if target != nil {
		targetID = target.ID
	}
	g.record(principal, module, action, targetID, decision)
	if decision.Allowed {
		return true
	}
	if principal.IsGuest() {
		g.denyUnauthenticated(w, r)
		return false
	}
	g.deny(w, r, module, action, decision)
	return false
}

func (g *Gate) record(p Principal, module Module, action Action, targetID string, decision Decision) {
	outcome := DecisionAllow
	if !decision.Allowed {
		outcome = DecisionDeny
	}
	if g.observer != nil {
		g.observer.ObserveDecision(string(module), outcome, decision.Reason)
	}
	if g.emitter == nil {
		return
	}
	g.emitter.Emit(AuditRecord{
		ID:       uuid.NewString(),
		At:       time.Now().UTC(),
		ActorID:  p.ID,
		Module:   module,
		Action:   action,
		TargetID: targetID,
		Decision: outcome,
		Reason:   decision.Reason,
	})
}

func (g *Gate) denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	// Unauthenticated requests redirect to login unless the client asked
	// for JSON explicitly; method alone does not make them API-style.
	if apiHint(r) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Authentication required"}`)
		return
	}
	http.Redirect(w, r, LoginPath, http.StatusFound)
}

func (g *Gate) deny(w http.ResponseWriter, r *http.Request, module Module, action Action, decision Decision) {
	message := denyMessage(module, action, decision.Reason)
	if apiRequest(r) {
		writeJSON(w, http.StatusForbidden, fmt.Sprintf(`{"success":false,"message":%q,"reason":%q}`, message, decision.Reason))
		return
	}
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: "error", Message: message})
	}
	http.Redirect(w, r, DashboardPath, http.StatusFound)
}

func denyMessage(module Module, action Action, reason string) string {
	switch reason {
	case ReasonNotOwner:
		return "Permission denied: you do not own this resource"
	case ReasonCrossTenant:
		return "Permission denied: resource belongs to another tenant"
	default:
		return fmt.Sprintf("Permission denied: %s access to %s required", action, module)
	}
}

// apiRequest decides the deny response shape. Mutating methods are always
// API-style; otherwise the client hints via Accept or X-Requested-With.
func apiRequest(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return apiHint(r)
}

func apiHint(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
