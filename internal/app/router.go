package app

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	audithttp "github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/audit/http"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/auth"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/catalog"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/inventory"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/messaging"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/observability"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/orders"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
	rbachttp "github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac/http"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/users"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/view"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/jobs"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/web"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Templates      *view.Engine
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Gate           *rbac.Gate

	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	PermissionsHandler *rbachttp.Handler
	AuditHandler       *audithttp.Handler
	CatalogHandler     *catalog.Handler
	InventoryHandler   *inventory.Handler
	OrdersHandler      *orders.Handler
	MessagingHandler   *messaging.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router. Every domain handler is registered
// through the gate's route table, so a handler without a declared
// permission cannot be reached.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Landing page for unauthenticated users
	r.Get("/welcome", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:     "Multi-Stock Logistics",
			CSRFToken: csrfToken,
			Flash:     flash,
		}
		if err := params.Templates.Render(w, "pages/landing.html", data); err != nil {
			params.Logger.Error("render landing", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if sess == nil || sess.User() == "" {
			http.Redirect(w, r, "/welcome", http.StatusSeeOther)
			return
		}
		principal := params.Gate.Principal(r)

		csrfToken, _ := params.CSRFManager.EnsureToken(r.Context(), sess)
		var flash *shared.FlashMessage
		if sess != nil {
			flash = sess.PopFlash()
		}
		data := view.TemplateData{
			Title:     "Dashboard",
			CSRFToken: csrfToken,
			Flash:     flash,
			Principal: principal,
			Data: map[string]any{
				"AppEnv": params.Config.AppEnv,
			},
		}
		if err := params.Templates.Render(w, "pages/home.html", data); err != nil {
			params.Logger.Error("render home", slog.Any("error", err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	if params.CatalogHandler != nil {
		params.Gate.Mount(r, params.CatalogHandler.Routes())
	}
	if params.InventoryHandler != nil {
		params.Gate.Mount(r, params.InventoryHandler.Routes())
	}
	if params.OrdersHandler != nil {
		params.Gate.Mount(r, params.OrdersHandler.Routes())
	}
	if params.MessagingHandler != nil {
		params.Gate.Mount(r, params.MessagingHandler.Routes())
	}
	if params.UsersHandler != nil {
		params.Gate.Mount(r, params.UsersHandler.Routes())
	}
	if params.PermissionsHandler != nil {
		params.Gate.Mount(r, params.PermissionsHandler.Routes())
	}
	if params.AuditHandler != nil {
		r.Route("/audit", func(ar chi.Router) {
			ar.Use(params.Gate.Require(rbac.ModuleAudit, rbac.ActionView))
			params.AuditHandler.MountRoutes(ar)
		})
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	staticFS, err := fs.Sub(web.Static, "static")
	if err != nil {
		params.Logger.Error("create static sub filesystem", slog.Any("error", err))
	} else {
		fileServer := http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
		r.Handle("/static/*", staticCacheHandler(fileServer))
	}

	return r
}

// staticCacheHandler wraps a file server with Cache-Control headers.
func staticCacheHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600")
		next.ServeHTTP(w, r)
	})
}
