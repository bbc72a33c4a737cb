// Package rbachttp exposes the permission matrix and its override
// administration over HTTP.
package rbachttp

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/platform/httpx"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/view"
)

// Handler manages permission matrix endpoints.
type Handler struct {
	logger    *slog.Logger
	snapshot  *rbac.Snapshot
	store     rbac.OverrideStore
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, snapshot *rbac.Snapshot, store rbac.OverrideStore, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, snapshot: snapshot, store: store, templates: templates, csrf: csrf}
}

// Routes declares the gated permission endpoints.
func (h *Handler) Routes() []rbac.Route {
	return []rbac.Route{
		{Method: http.MethodGet, Pattern: "/permissions", Module: rbac.ModulePermissions, Action: rbac.ActionView, Handler: h.showMatrix},
		{Method: http.MethodGet, Pattern: "/permissions/overrides", Module: rbac.ModulePermissions, Action: rbac.ActionManage, Handler: h.listOverrides},
		{Method: http.MethodPost, Pattern: "/permissions/overrides", Module: rbac.ModulePermissions, Action: rbac.ActionManage, Handler: h.upsertOverride},
		{Method: http.MethodDelete, Pattern: "/permissions/overrides", Module: rbac.ModulePermissions, Action: rbac.ActionManage, Handler: h.deleteOverride},
	}
}

// matrixRow is one role's grants for the template.
type matrixRow struct {
	Role   rbac.Role
	Grants map[rbac.Module]map[rbac.Action]bool
}

func (h *Handler) showMatrix(w http.ResponseWriter, r *http.Request) {
	matrix := h.snapshot.Matrix()
	modules := rbac.Modules()
	actions := rbac.Actions()

	rows := make([]matrixRow, 0, len(rbac.Roles()))
	for _, role := range rbac.Roles() {
		grants := make(map[rbac.Module]map[rbac.Action]bool, len(modules))
		for _, module := range modules {
			cells := make(map[rbac.Action]bool, len(actions))
			for _, action := range actions {
				cells[action] = matrix.Allowed(role, module, action)
			}
			grants[module] = cells
		}
		rows = append(rows, matrixRow{Role: role, Grants: grants})
	}

	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	data := view.TemplateData{
		Title:       "Permissions",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Principal:   principal,
		Data: map[string]any{
			"Modules": modules,
			"Actions": actions,
			"Rows":    rows,
		},
	}
	if err := h.templates.Render(w, "pages/permissions_matrix.html", data); err != nil {
		h.logger.Error("render permission matrix", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) listOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := h.store.ListOverrides(r.Context())
	if err != nil {
		h.logger.Error("list overrides", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Could not load overrides")
		return
	}
	payload := make([]map[string]any, 0, len(overrides))
	for _, o := range overrides {
		payload = append(payload, map[string]any{
			"role":    o.Role,
			"module":  o.Module,
			"action":  o.Action,
			"allowed": o.Allowed,
		})
	}
	httpx.OK(w, payload)
}

type overrideRequest struct {
	Role    string `json:"role"`
	Module  string `json:"module"`
	Action  string `json:"action"`
	Allowed bool   `json:"allowed"`
}

func (h *Handler) upsertOverride(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeOverride(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid override payload")
		return
	}
	override, err := parseOverride(req)
	if err != nil {
		h.respondOverrideError(w, err)
		return
	}
	if err := h.store.UpsertOverride(r.Context(), override); err != nil {
		h.respondOverrideError(w, err)
		return
	}
	h.reload(r, w, "override saved")
}

func (h *Handler) deleteOverride(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeOverride(r)
	if err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid override payload")
		return
	}
	override, err := parseOverride(req)
	if err != nil {
		h.respondOverrideError(w, err)
		return
	}
	if err := h.store.DeleteOverride(r.Context(), override.Role, override.Module, override.Action); err != nil {
		h.respondOverrideError(w, err)
		return
	}
	h.reload(r, w, "override removed")
}

func (h *Handler) decodeOverride(r *http.Request) (overrideRequest, error) {
	var req overrideRequest
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		if err := httpx.DecodeJSON(r, &req); err != nil {
			return req, err
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req.Role = r.PostFormValue("role")
	req.Module = r.PostFormValue("module")
	req.Action = r.PostFormValue("action")
	req.Allowed = r.PostFormValue("allowed") == "true" || r.PostFormValue("allowed") == "1"
	return req, nil
}

func parseOverride(req overrideRequest) (rbac.Override, error) {
	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		return rbac.Override{}, err
	}
	module, err := rbac.ParseModule(req.Module)
	if err != nil {
		return rbac.Override{}, err
	}
	action, err := rbac.ParseAction(req.Action)
	if err != nil {
		return rbac.Override{}, err
	}
	return rbac.Override{Role: role, Module: module, Action: action, Allowed: req.Allowed}, nil
}

func (h *Handler) respondOverrideError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rbac.ErrSuperadminOverride):
		httpx.Fail(w, http.StatusUnprocessableEntity, "Superadmin permissions cannot be overridden")
	case errors.Is(err, rbac.ErrInvalidRole), errors.Is(err, rbac.ErrInvalidModule), errors.Is(err, rbac.ErrInvalidAction):
		httpx.Fail(w, http.StatusUnprocessableEntity, "Unknown role, module or action")
	default:
		h.logger.Error("persist override", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Could not persist override")
	}
}

func (h *Handler) reload(r *http.Request, w http.ResponseWriter, message string) {
	if err := h.snapshot.Reload(r.Context()); err != nil {
		h.logger.Error("reload permission snapshot", slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Override saved but reload failed")
		return
	}
	httpx.OK(w, map[string]string{"status": message})
}
