package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/view"
)

// IdempotencyHeader carries the client-chosen key for retried mutations.
const IdempotencyHeader = "X-Idempotency-Key"

// Handler manages stock endpoints.
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

// Routes declares the gated stock endpoints.
func (h *Handler) Routes() []rbac.Route {
	return []rbac.Route{
		{Method: http.MethodGet, Pattern: "/inventory", Module: rbac.ModuleInventory, Action: rbac.ActionView, Handler: h.listStock},
		{Method: http.MethodPost, Pattern: "/inventory/adjust", Module: rbac.ModuleInventory, Action: rbac.ActionAdjust, Handler: h.adjust},
		{Method: http.MethodPost, Pattern: "/inventory/transfer", Module: rbac.ModuleInventory, Action: rbac.ActionTransfer, Handler: h.transfer},
	}
}

func (h *Handler) listStock(w http.ResponseWriter, r *http.Request) {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	levels, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.logger.Error("list stock", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	data := view.TemplateData{
		Title:       "Inventory",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Principal:   principal,
		Data:        map[string]any{"Levels": levels},
	}
	if err := h.templates.Render(w, "pages/inventory_list.html", data); err != nil {
		h.logger.Error("render inventory", slog.Any("error", err))
	}
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/inventory", "error", "Invalid form submission")
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	input := AdjustInput{
		ProductID:      formInt64(r, "product_id"),
		WarehouseID:    formInt64(r, "warehouse_id"),
		Delta:          formInt64(r, "delta"),
		Note:           strings.TrimSpace(r.PostFormValue("note")),
		ActorID:        principal.ID,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyHeader)),
	}
	if err := h.service.Adjust(r.Context(), principal, input); err != nil {
		h.handleStockError(w, r, err, "adjust stock")
		return
	}
	h.redirectWithFlash(w, r, "/inventory", "success", "Stock adjusted")
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/inventory", "error", "Invalid form submission")
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	input := TransferInput{
		ProductID:      formInt64(r, "product_id"),
		SrcWarehouse:   formInt64(r, "src_warehouse"),
		DstWarehouse:   formInt64(r, "dst_warehouse"),
		Qty:            formInt64(r, "qty"),
		Note:           strings.TrimSpace(r.PostFormValue("note")),
		ActorID:        principal.ID,
		IdempotencyKey: strings.TrimSpace(r.Header.Get(IdempotencyHeader)),
	}
	if err := h.service.Transfer(r.Context(), principal, input); err != nil {
		h.handleStockError(w, r, err, "transfer stock")
		return
	}
	h.redirectWithFlash(w, r, "/inventory", "success", "Stock transferred")
}

func (h *Handler) handleStockError(w http.ResponseWriter, r *http.Request, err error, op string) {
	switch {
	case errors.Is(err, ErrNegativeStock):
		h.redirectWithFlash(w, r, "/inventory", "error", "Not enough stock for that movement")
	case errors.Is(err, ErrInvalidQuantity):
		h.redirectWithFlash(w, r, "/inventory", "error", "Quantity must not be zero")
	case errors.Is(err, ErrSameWarehouse):
		h.redirectWithFlash(w, r, "/inventory", "error", "Pick two different warehouses")
	case errors.Is(err, ErrStockNotFound):
		h.redirectWithFlash(w, r, "/inventory", "error", "No stock record for that product and warehouse")
	case errors.Is(err, shared.ErrIdempotencyConflict):
		h.redirectWithFlash(w, r, "/inventory", "error", "That request was already processed")
	default:
		h.logger.Error(op, slog.Any("error", err))
		h.redirectWithFlash(w, r, "/inventory", "error", "Something went wrong")
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

func formInt64(r *http.Request, field string) int64 {
	v, _ := strconv.ParseInt(strings.TrimSpace(r.PostFormValue(field)), 10, 64)
	return v
}
