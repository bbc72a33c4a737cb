package orders

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/view"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/report"
)

// Handler manages order endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	gate      *rbac.Gate
	templates *view.Engine
	csrf      *shared.CSRFManager
	reports   *report.Client
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, gate *rbac.Gate, templates *view.Engine, csrf *shared.CSRFManager, reports *report.Client) *Handler {
	return &Handler{logger: logger, service: service, gate: gate, templates: templates, csrf: csrf, reports: reports}
}

// Routes declares the gated order endpoints. Detail and PDF run a second
// stage against the loaded order so customers only reach their own.
func (h *Handler) Routes() []rbac.Route {
	return []rbac.Route{
		{Method: http.MethodGet, Pattern: "/orders", Module: rbac.ModuleOrders, Action: rbac.ActionView, Handler: h.listOrders},
		{Method: http.MethodGet, Pattern: "/orders/{id}", Module: rbac.ModuleOrders, Action: rbac.ActionView, Handler: h.showOrder},
		{Method: http.MethodGet, Pattern: "/orders/{id}/pdf", Module: rbac.ModuleOrders, Action: rbac.ActionPDF, Handler: h.orderPDF},
		{Method: http.MethodPost, Pattern: "/orders", Module: rbac.ModuleOrders, Action: rbac.ActionCreate, Handler: h.placeOrder},
		{Method: http.MethodPost, Pattern: "/orders/{id}/status", Module: rbac.ModuleOrders, Action: rbac.ActionEdit, Handler: h.updateStatus},
	}
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	list, err := h.service.List(r.Context(), principal)
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/orders_list.html", "Orders", map[string]any{"Orders": list})
}

func (h *Handler) showOrder(w http.ResponseWriter, r *http.Request) {
	order, lines, ok := h.loadAuthorized(w, r, rbac.ActionView)
	if !ok {
		return
	}
	h.render(w, r, "pages/order_detail.html", order.Number, map[string]any{
		"Order": order,
		"Lines": lines,
	})
}

func (h *Handler) orderPDF(w http.ResponseWriter, r *http.Request) {
	order, lines, ok := h.loadAuthorized(w, r, rbac.ActionPDF)
	if !ok {
		return
	}
	pdf, err := h.reports.RenderHTML(r.Context(), invoiceHTML(order, lines), report.InvoiceLayout())
	if err != nil {
		h.logger.Error("render order pdf", slog.Any("error", err), slog.Int64("order_id", order.ID))
		h.redirectWithFlash(w, r, fmt.Sprintf("/orders/%d", order.ID), "error", "Could not generate the PDF, try again later")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", order.Number))
	_, _ = w.Write(pdf)
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/orders", "error", "Invalid form submission")
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	input, err := parseOrderForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, "/orders", "error", "Invalid order submission")
		return
	}
	id, err := h.service.Place(r.Context(), principal, input)
	if err != nil {
		h.handleOrderError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, fmt.Sprintf("/orders/%d", id), "success", "Order placed")
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "/orders", "error", "Invalid form submission")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		h.redirectWithFlash(w, r, "/orders", "error", "Unknown order")
		return
	}
	principal, _ := rbac.PrincipalFromContext(r.Context())
	status := Status(strings.TrimSpace(r.PostFormValue("status")))
	if err := h.service.UpdateStatus(r.Context(), principal, id, status); err != nil {
		h.handleOrderError(w, r, err)
		return
	}
	h.redirectWithFlash(w, r, fmt.Sprintf("/orders/%d", id), "success", "Order updated")
}

// loadAuthorized fetches the order and runs the target check. On deny the
// gate already wrote the response.
func (h *Handler) loadAuthorized(w http.ResponseWriter, r *http.Request, action rbac.Action) (*Order, []Line, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, nil, false
	}
	order, lines, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			http.NotFound(w, r)
			return nil, nil, false
		}
		h.logger.Error("load order", slog.Any("error", err), slog.Int64("order_id", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, nil, false
	}
	ref := &rbac.ResourceRef{
		ID:            strconv.FormatInt(order.ID, 10),
		OwnerID:       order.OwnerID,
		CustomerEmail: order.CustomerEmail,
		TenantKey:     order.TenantKey,
	}
	if !h.gate.Authorize(w, r, rbac.ModuleOrders, action, ref) {
		return nil, nil, false
	}
	return order, lines, true
}

func (h *Handler) handleOrderError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrEmptyOrder):
		h.redirectWithFlash(w, r, "/orders", "error", "Add at least one line to the order")
	case errors.Is(err, ErrInvalidLine):
		h.redirectWithFlash(w, r, "/orders", "error", "One of the order lines is invalid")
	case errors.Is(err, ErrInvalidStatus):
		h.redirectWithFlash(w, r, "/orders", "error", "Unknown order status")
	case errors.Is(err, ErrOrderNotFound):
		h.redirectWithFlash(w, r, "/orders", "error", "Unknown order")
	default:
		h.logger.Error("order mutation", slog.Any("error", err))
		h.redirectWithFlash(w, r, "/orders", "error", "Something went wrong")
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, page, title string, data map[string]any) {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	payload := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Principal:   principal,
		Data:        data,
	}
	if err := h.templates.Render(w, page, payload); err != nil {
		h.logger.Error("render orders page", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// parseOrderForm reads parallel line_product/line_qty/line_price fields.
func parseOrderForm(r *http.Request) (CreateInput, error) {
	input := CreateInput{
		CustomerEmail: strings.TrimSpace(r.PostFormValue("customer_email")),
		TenantKey:     strings.TrimSpace(r.PostFormValue("tenant_key")),
	}
	products := r.PostForm["line_product"]
	qtys := r.PostForm["line_qty"]
	prices := r.PostForm["line_price"]
	if len(products) != len(qtys) || len(products) != len(prices) {
		return CreateInput{}, ErrInvalidLine
	}
	for i := range products {
		productID, err := strconv.ParseInt(strings.TrimSpace(products[i]), 10, 64)
		if err != nil {
			return CreateInput{}, ErrInvalidLine
		}
		qty, err := strconv.ParseInt(strings.TrimSpace(qtys[i]), 10, 64)
		if err != nil {
			return CreateInput{}, ErrInvalidLine
		}
		price, err := strconv.ParseInt(strings.TrimSpace(prices[i]), 10, 64)
		if err != nil {
			return CreateInput{}, ErrInvalidLine
		}
		input.Lines = append(input.Lines, LineInput{ProductID: productID, Qty: qty, PriceCents: price})
	}
	return input, nil
}

func invoiceHTML(order *Order, lines []Line) string {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:2rem}table{width:100%;border-collapse:collapse}")
	b.WriteString("th,td{border-bottom:1px solid #ddd;padding:.4rem;text-align:left}")
	b.WriteString("</style></head><body>")
	fmt.Fprintf(&b, "<h1>Order %s</h1>", order.Number)
	fmt.Fprintf(&b, "<p>Status: %s<br>Customer: %s<br>Placed: %s</p>",
		order.Status, order.CustomerEmail, order.CreatedAt.Format("02 Jan 2006 15:04"))
	b.WriteString("<table><tr><th>Product</th><th>Qty</th><th>Price</th><th>Subtotal</th></tr>")
	for _, line := range lines {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td></tr>",
			line.Product, line.Qty, formatCents(line.PriceCents), formatCents(line.Qty*line.PriceCents))
	}
	b.WriteString("</table>")
	fmt.Fprintf(&b, "<h3>Total: %s</h3>", formatCents(order.TotalCents))
	b.WriteString("</body></html>")
	return b.String()
}

func formatCents(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}
