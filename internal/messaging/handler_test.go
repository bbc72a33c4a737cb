package messaging

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/shared"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/view"
	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/jobs"
	_ "github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/testing"
)

type stubQueue struct {
	sent []jobs.SendEmailPayload
	err  error
}

func (s *stubQueue) EnqueueSendEmail(_ context.Context, payload jobs.SendEmailPayload) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, payload)
	return nil
}

func newTestHandler(t *testing.T, queue *stubQueue) (*Handler, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessions := shared.NewSessionManager(client, "test_session", time.Hour, false)
	csrf := shared.NewCSRFManager("csrfsecret")
	templates, err := view.NewEngine()
	require.NoError(t, err)
	return NewHandler(slog.Default(), queue, templates, csrf), sessions
}

func postForm(t *testing.T, h *Handler, sessions *shared.SessionManager, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	sess, err := sessions.Load(req.Context(), req)
	require.NoError(t, err)
	req = req.WithContext(shared.ContextWithSession(req.Context(), sess))
	rec := httptest.NewRecorder()
	h.send(rec, req)
	return rec
}

func TestSendQueuesValidMessage(t *testing.T) {
	queue := &stubQueue{}
	h, sessions := newTestHandler(t, queue)

	rec := postForm(t, h, sessions, url.Values{
		"to":      {"ops@acme.test"},
		"subject": {"Stock alert"},
		"body":    {"Warehouse 2 is running low."},
	})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	require.Len(t, queue.sent, 1)
	assert.Equal(t, "ops@acme.test", queue.sent[0].To)
}

func TestSendRejectsInvalidRecipient(t *testing.T) {
	queue := &stubQueue{}
	h, sessions := newTestHandler(t, queue)

	rec := postForm(t, h, sessions, url.Values{
		"to":      {"not-an-email"},
		"subject": {"Stock alert"},
		"body":    {"body"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Check the recipient")
	assert.Empty(t, queue.sent)
}
