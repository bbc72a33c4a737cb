package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuditStore struct {
	cutoff   time.Time
	deleted  int64
	from, to time.Time
	allowed  int64
	denied   int64
}

func (s *stubAuditStore) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	s.cutoff = cutoff
	return s.deleted, nil
}

func (s *stubAuditStore) CountBetween(_ context.Context, from, to time.Time) (int64, int64, error) {
	s.from, s.to = from, to
	return s.allowed, s.denied, nil
}

func TestCleanupUsesRetentionCutoff(t *testing.T) {
	store := &stubAuditStore{deleted: 7}
	m := NewAuditMaintenance(store, slog.Default())
	fixed := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	task, err := NewAuditCleanupTask(90 * 24 * time.Hour)
	require.NoError(t, err)
	require.NoError(t, m.HandleCleanup(context.Background(), task))
	assert.Equal(t, fixed.Add(-90*24*time.Hour), store.cutoff)
}

func TestCleanupSkipsRetryOnBadPayload(t *testing.T) {
	m := NewAuditMaintenance(&stubAuditStore{}, slog.Default())

	err := m.HandleCleanup(context.Background(), asynq.NewTask(TaskAuditCleanup, []byte("not json")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, err := NewAuditCleanupTask(0)
	require.NoError(t, err)
	err = m.HandleCleanup(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestVerifyCoversPreviousDay(t *testing.T) {
	store := &stubAuditStore{allowed: 10, denied: 2}
	m := NewAuditMaintenance(store, slog.Default())
	fixed := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }

	require.NoError(t, m.HandleVerify(context.Background(), NewAuditVerifyTask()))
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), store.from)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), store.to)
}
