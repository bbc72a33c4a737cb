package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/view"
)

// Handler manages product catalogue endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// Routes declares the gated catalogue endpoints.
func (h *Handler) Routes() []rbac.Route {
	return []rbac.Route{
		{Method: http.MethodGet, Pattern: "/products", Module: rbac.ModuleProducts, Action: rbac.ActionView, Handler: h.listProducts},
		{Method: http.MethodGet, Pattern: "/products/{id}", Module: rbac.ModuleProducts, Action: rbac.ActionView, Handler: h.showProduct},
		{Method: http.MethodPost, Pattern: "/products", Module: rbac.ModuleProducts, Action: rbac.ActionCreate, Handler: h.createProduct},
		{Method: http.MethodPost, Pattern: "/products/{id}", Module: rbac.ModuleProducts, Action: rbac.ActionEdit, Handler: h.updateProduct},
		{Method: http.MethodPost, Pattern: "/products/{id}/delete", Module: rbac.ModuleProducts, Action: rbac.ActionDelete, Handler: h.deleteProduct},
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	products, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		h.render(w, r, "pages/products_list.html", map[string]any{"Errors": map[string]string{"general": "Could not load products"}}, http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/products_list.html", map[string]any{"Products": products}, http.StatusOK)
}

func (h *Handler) showProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	product, err := h.service.Get(r.Context(), principal, id)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			http.NotFound(w, r)
			return
		}
		h.logger.Error("get product", slog.Int64("id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/product_detail.html", map[string]any{"Product": product}, http.StatusOK)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	input, err := parseProductForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, "/products", "error", "Invalid product form")
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	if _, err := h.service.Create(r.Context(), principal, input); err != nil {
		h.handleMutationError(w, r, err, "create product")
		return
	}
	h.redirectWithFlash(w, r, "/products", "success", "Product created")
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	input, err := parseProductForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, "/products", "error", "Invalid product form")
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.Update(r.Context(), principal, id, input); err != nil {
		h.handleMutationError(w, r, err, "update product")
		return
	}
	h.redirectWithFlash(w, r, "/products", "success", "Product updated")
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	if err := h.service.Delete(r.Context(), principal, id); err != nil {
		h.handleMutationError(w, r, err, "delete product")
		return
	}
	h.redirectWithFlash(w, r, "/products", "success", "Product deleted")
}

func parseProductForm(r *http.Request) (ProductInput, error) {
	if err := r.ParseForm(); err != nil {
		return ProductInput{}, err
	}
	priceCents := int64(0)
	if raw := strings.TrimSpace(r.PostFormValue("price_cents")); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return ProductInput{}, err
		}
		priceCents = parsed
	}
	return ProductInput{
		SKU:         strings.TrimSpace(r.PostFormValue("sku")),
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
		PriceCents:  priceCents,
		TenantKey:   strings.TrimSpace(r.PostFormValue("tenant_key")),
	}, nil
}

func (h *Handler) handleMutationError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var vErrs validator.ValidationErrors
	switch {
	case errors.Is(err, ErrProductNotFound):
		h.redirectWithFlash(w, r, "/products", "error", "Product not found")
	case errors.Is(err, ErrDuplicateSKU):
		h.redirectWithFlash(w, r, "/products", "error", "A product with that SKU already exists")
	case errors.As(err, &vErrs):
		h.redirectWithFlash(w, r, "/products", "error", "Invalid product form")
	default:
		h.logger.Error(op, slog.Any("error", err))
		h.redirectWithFlash(w, r, "/products", "error", "Something went wrong")
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
	viewData := view.TemplateData{Title: "Products", CSRFToken: csrfToken, Flash: flash, CurrentPath: r.URL.Path, Principal: principal, Data: data}
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
