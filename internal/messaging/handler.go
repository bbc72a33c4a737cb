// Package messaging lets the team send transactional emails through the
// background queue.
package messaging

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/view"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/jobs"
)

// Enqueuer abstracts the job queue for tests.
type Enqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) error
}

// queueAdapter narrows *jobs.Client to the Enqueuer shape.
type queueAdapter struct {
	client *jobs.Client
}

func (q queueAdapter) EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) error {
	_, err := q.client.EnqueueSendEmail(ctx, payload)
	return err
}

// NewEnqueuer wraps a jobs client for the handler.
func NewEnqueuer(client *jobs.Client) Enqueuer {
	return queueAdapter{client: client}
}

type composeForm struct {
	To      string `validate:"required,email"`
	Subject string `validate:"required,max=255"`
	Body    string `validate:"required,max=10000"`
}

// Handler manages messaging endpoints.
type Handler struct {
	logger    *slog.Logger
	queue     Enqueuer
	templates *view.Engine
	csrf      *shared.CSRFManager
	validate  *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, queue Enqueuer, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		queue:     queue,
		templates: templates,
		csrf:      csrf,
		validate:  validator.New(),
	}
}

// Routes declares the gated messaging endpoints.
func (h *Handler) Routes() []rbac.Route {
	return []rbac.Route{
		{Method: http.MethodGet, Pattern: "/messages", Module: rbac.ModuleMessaging, Action: rbac.ActionView, Handler: h.showCompose},
		{Method: http.MethodPost, Pattern: "/messages", Module: rbac.ModuleMessaging, Action: rbac.ActionSend, Handler: h.send},
	}
}

func (h *Handler) showCompose(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, nil)
}

func (h *Handler) send(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectWithFlash(w, r, "error", "Invalid form submission")
		return
	}
	form := composeForm{
		To:      strings.TrimSpace(r.PostFormValue("to")),
		Subject: strings.TrimSpace(r.PostFormValue("subject")),
		Body:    r.PostFormValue("body"),
	}
	if err := h.validate.Struct(form); err != nil {
		h.render(w, r, map[string]any{"Error": "Check the recipient, subject and body", "Form": form})
		return
	}
	if err := h.queue.EnqueueSendEmail(r.Context(), jobs.SendEmailPayload{
		To:      form.To,
		Subject: form.Subject,
		Body:    form.Body,
	}); err != nil {
		h.logger.Error("enqueue email", slog.Any("error", err))
		h.redirectWithFlash(w, r, "error", "Could not queue the message")
		return
	}
	h.redirectWithFlash(w, r, "success", "Message queued")
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, data map[string]any) {
	principal, _ := rbac.PrincipalFromContext(r.Context())
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)
	var flash *shared.FlashMessage
	if sess != nil {
		flash = sess.PopFlash()
	}
	payload := view.TemplateData{
		Title:       "Messages",
		CSRFToken:   csrfToken,
		Flash:       flash,
		CurrentPath: r.URL.Path,
		Principal:   principal,
		Data:        data,
	}
	if err := h.templates.Render(w, "pages/messaging_compose.html", payload); err != nil {
		h.logger.Error("render compose", slog.Any("error", err))
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	if sess := shared.SessionFromContext(r.Context()); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: kind, Message: message})
	}
	http.Redirect(w, r, "/messages", http.StatusSeeOther)
}
