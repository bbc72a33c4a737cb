package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/view"
)

// RoleAdministrator mutates role bindings on behalf of an actor.
type RoleAdministrator interface {
	Administer(ctx context.Context, actor rbac.Principal, targetID int64, newRole rbac.Role, expected rbac.Role) error
}

// Handler manages user management endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	admin     RoleAdministrator
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, admin RoleAdministrator, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, admin: admin, templates: templates, csrf: csrf}
}

// Routes declares the gated user management endpoints.
func (h *Handler) Routes() []rbac.Route {
	return []rbac.Route{
		{Method: http.MethodGet, Pattern: "/users", Module: rbac.ModuleUsers, Action: rbac.ActionView, Handler: h.listUsers},
		{Method: http.MethodPost, Pattern: "/users/{id}/role", Module: rbac.ModuleUsers, Action: rbac.ActionEdit, Handler: h.changeRole},
	}
}

type formErrors map[string]string

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	users, err := h.service.VisibleUsers(r.Context(), principal)
	if err != nil {
		h.logger.Error("list users failed", slog.Any("error", err))
		h.render(w, r, "pages/users_list.html", map[string]any{"Errors": formErrors{"general": shared.UserSafeMessage(err)}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/users_list.html", map[string]any{
		"Users": users,
		"Roles": rbac.Roles(),
	}, http.StatusOK)
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	targetID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/users", "error", "Unknown user")
		return
	}
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/users", "error", "Invalid form submission")
		return
	}
	newRole, err := rbac.ParseRole(r.PostFormValue("role"))
	if err != nil {
		h.redirectWithFlash(w, r, "/users", "error", "Unknown role")
		return
	}
	var expected rbac.Role
	if raw := r.PostFormValue("expected_role"); raw != "" {
		if parsed, err := rbac.ParseRole(raw); err == nil {
			expected = parsed
		}
	}

	principal, _ := rbac.PrincipalFromContext(r.Context())
	err = h.admin.Administer(r.Context(), principal, targetID, newRole, expected)
	switch {
	case err == nil:
		h.redirectWithFlash(w, r, "/users", "success", "Role updated")
	case errors.Is(err, rbac.ErrRoleConflict):
		h.redirectWithFlash(w, r, "/users", "error", "Role changed by someone else, review and retry")
	case errors.Is(err, rbac.ErrSelfRoleChange):
		h.redirectWithFlash(w, r, "/users", "error", "You cannot change your own role")
	case errors.Is(err, rbac.ErrRoleHierarchy):
		h.redirectWithFlash(w, r, "/users", "error", "You cannot administer that role")
	case errors.Is(err, rbac.ErrUserNotFound):
		h.redirectWithFlash(w, r, "/users", "error", "Unknown user")
	default:
		h.logger.Error("change role failed", slog.Int64("target_id", targetID), slog.Any("error", err))
		h.redirectWithFlash(w, r, "/users", "error", "Could not update role")
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, template string, data map[string]any, status int) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	viewData := view.TemplateData{Title: "Users", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Principal: principal, Data: data}
	w.WriteHeader(status)
	if err := h.templates.Render(w, template, viewData); err != nil {
		h.logger.Error("render template", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}
