package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	rows        []TimelineRow
	lastLimit   int
	lastOffset  int
	lastFilters TimelineFilters
}

func (s *stubRepo) TimelineWindow(_ context.Context, filters TimelineFilters, limit, offset int) ([]TimelineRow, error) {
	s.lastFilters = filters
	s.lastLimit = limit
	s.lastOffset = offset
	if offset >= len(s.rows) {
		return nil, nil
	}
	end := offset + limit
	if end > len(s.rows) {
		end = len(s.rows)
	}
	return s.rows[offset:end], nil
}

func (s *stubRepo) TimelineAll(_ context.Context, filters TimelineFilters) ([]TimelineRow, error) {
	s.lastFilters = filters
	return s.rows, nil
}

func makeRows(n int) []TimelineRow {
	rows := make([]TimelineRow, n)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range rows {
		rows[i] = TimelineRow{
			At:       base.Add(-time.Duration(i) * time.Minute),
			ActorID:  int64(i + 1),
			Module:   "products",
			Action:   "view",
			Decision: "allow",
		}
	}
	return rows
}

func TestTimelinePaging(t *testing.T) {
	repo := &stubRepo{rows: makeRows(25)}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 10)
	assert.True(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.NextPage)
	assert.Zero(t, result.Paging.PrevPage)
	assert.Equal(t, 11, repo.lastLimit)

	result, err = svc.Timeline(context.Background(), TimelineFilters{Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, result.Rows, 5)
	assert.False(t, result.Paging.HasNext)
	assert.Equal(t, 2, result.Paging.PrevPage)
}

func TestTimelineClampsPageSize(t *testing.T) {
	repo := &stubRepo{rows: makeRows(5)}
	svc := NewService(repo)

	_, err := svc.Timeline(context.Background(), TimelineFilters{Page: 1, PageSize: 500})
	require.NoError(t, err)
	assert.Equal(t, 51, repo.lastLimit)

	_, err = svc.Timeline(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Equal(t, 21, repo.lastLimit)
	assert.Zero(t, repo.lastOffset)
}

func TestTimelineWidensToDate(t *testing.T) {
	repo := &stubRepo{rows: makeRows(1)}
	svc := NewService(repo)

	to := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Timeline(context.Background(), TimelineFilters{To: to})
	require.NoError(t, err)
	assert.Equal(t, to.Add(24*time.Hour), repo.lastFilters.To)
}

func TestExportSkipsPaging(t *testing.T) {
	repo := &stubRepo{rows: makeRows(120)}
	svc := NewService(repo)

	rows, err := svc.Export(context.Background(), TimelineFilters{})
	require.NoError(t, err)
	assert.Len(t, rows, 120)
}

func TestServiceWithoutRepo(t *testing.T) {
	svc := NewService(nil)
	_, err := svc.Timeline(context.Background(), TimelineFilters{})
	assert.Error(t, err)
	_, err = svc.Export(context.Background(), TimelineFilters{})
	assert.Error(t, err)
}
