package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// TaskAuditCleanup prunes access log rows older than the retention window.
	TaskAuditCleanup = "audit:cleanup"
	// TaskAuditVerify summarizes the previous day's decisions for review.
	TaskAuditVerify = "audit:verify"
)

// AuditStore is the slice of the audit persistence layer the maintenance
// tasks need.
type AuditStore interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountBetween(ctx context.Context, from, to time.Time) (allowed, denied int64, err error)
}

// AuditCleanupPayload configures one cleanup run.
type AuditCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditCleanupTask constructs a cleanup task with the given retention.
func NewAuditCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(AuditCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditCleanup, data), nil
}

// NewAuditVerifyTask constructs a verify task.
func NewAuditVerifyTask() *asynq.Task {
	return asynq.NewTask(TaskAuditVerify, nil)
}

// AuditMaintenance bundles the handlers for periodic audit housekeeping.
type AuditMaintenance struct {
	store  AuditStore
	logger *slog.Logger
	now    func() time.Time
}

// NewAuditMaintenance builds AuditMaintenance instance.
func NewAuditMaintenance(store AuditStore, logger *slog.Logger) *AuditMaintenance {
	return &AuditMaintenance{store: store, logger: logger, now: time.Now}
}

// HandleCleanup processes TaskAuditCleanup tasks.
func (a *AuditMaintenance) HandleCleanup(ctx context.Context, t *asynq.Task) error {
	var payload AuditCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		return asynq.SkipRetry
	}
	cutoff := a.now().UTC().Add(-payload.Retention)
	deleted, err := a.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return err
	}
	a.logger.Info("audit cleanup",
		slog.Time("cutoff", cutoff),
		slog.Int64("deleted", deleted))
	return nil
}

// HandleVerify processes TaskAuditVerify tasks. It only reports; alerting
// on deny spikes stays with whatever reads the logs.
func (a *AuditMaintenance) HandleVerify(ctx context.Context, _ *asynq.Task) error {
	to := a.now().UTC().Truncate(24 * time.Hour)
	from := to.Add(-24 * time.Hour)
	allowed, denied, err := a.store.CountBetween(ctx, from, to)
	if err != nil {
		return err
	}
	a.logger.Info("audit daily summary",
		slog.Time("from", from),
		slog.Time("to", to),
		slog.Int64("allowed", allowed),
		slog.Int64("denied", denied))
	return nil
}
