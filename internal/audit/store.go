package audit

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
)

// PGStore provides PostgreSQL backed persistence for the access log.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore constructs a store.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

const insertLogSQL = `
	INSERT INTO access_log (id, at, actor_id, module, action, target_id, decision, reason)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO NOTHING`

// InsertBatch writes a batch of records in one round trip.
func (s *PGStore) InsertBatch(ctx context.Context, records []rbac.AuditRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, rec := range records {
		batch.Queue(insertLogSQL,
			rec.ID, rec.At, rec.ActorID,
			string(rec.Module), string(rec.Action),
			rec.TargetID, rec.Decision, rec.Reason,
		)
	}
	results := s.db.SendBatch(ctx, batch)
	defer results.Close()
	for range records {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("audit: insert batch: %w", err)
		}
	}
	return nil
}

// TimelineWindow returns a filtered page of the access log, newest first.
func (s *PGStore) TimelineWindow(ctx context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	where, args := buildFilterClause(filters)
	args = append(args, limit, offset)
	query := fmt.Sprintf(`
		SELECT id, at, actor_id, module, action, target_id, decision, reason
		FROM access_log
		%s
		ORDER BY at DESC, id DESC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))
	return s.queryRows(ctx, query, args)
}

// TimelineAll returns every matching row without paging, newest first.
func (s *PGStore) TimelineAll(ctx context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	where, args := buildFilterClause(filters)
	query := fmt.Sprintf(`
		SELECT id, at, actor_id, module, action, target_id, decision, reason
		FROM access_log
		%s
		ORDER BY at DESC, id DESC`, where)
	return s.queryRows(ctx, query, args)
}

// DeleteBefore removes entries older than the cutoff and reports the count.
func (s *PGStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM access_log WHERE at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("audit: delete before: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountBetween reports how many entries exist in the window, split by
// decision.
func (s *PGStore) CountBetween(ctx context.Context, from, to time.Time) (allowed, denied int64, err error) {
	row := s.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE decision = 'allow'),
			COUNT(*) FILTER (WHERE decision = 'deny')
		FROM access_log
		WHERE at >= $1 AND at < $2`, from, to)
	if err := row.Scan(&allowed, &denied); err != nil {
		return 0, 0, fmt.Errorf("audit: count between: %w", err)
	}
	return allowed, denied, nil
}

func (s *PGStore) queryRows(ctx context.Context, query string, args []any) ([]TimelineRow, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query timeline: %w", err)
	}
	defer rows.Close()

	var result []TimelineRow
	for rows.Next() {
		var row TimelineRow
		if err := rows.Scan(&row.ID, &row.At, &row.ActorID, &row.Module, &row.Action, &row.TargetID, &row.Decision, &row.Reason); err != nil {
			return nil, fmt.Errorf("audit: scan timeline row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate timeline rows: %w", err)
	}
	return result, nil
}

func buildFilterClause(filters TimelineFilters) (string, []any) {
	var clauses []string
	var args []any
	add := func(expr string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(expr, len(args)))
	}
	if !filters.From.IsZero() {
		add("at >= $%d", filters.From)
	}
	if !filters.To.IsZero() {
		add("at < $%d", filters.To)
	}
	if actor := strings.TrimSpace(filters.Actor); actor != "" {
		if id, err := strconv.ParseInt(actor, 10, 64); err == nil {
			add("actor_id = $%d", id)
		}
	}
	if module := strings.TrimSpace(filters.Module); module != "" {
		add("module = $%d", module)
	}
	if decision := strings.TrimSpace(filters.Decision); decision != "" {
		add("decision = $%d", decision)
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}
