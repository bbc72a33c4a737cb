package audit

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AshishCherian15/Multi-Stock-Logistics-Platform-sub000/internal/rbac"
)

// Store persists access log batches.
type Store interface {
	InsertBatch(ctx context.Context, records []rbac.AuditRecord) error
}

// SinkOptions tune the buffered writer.
type SinkOptions struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
	OnDrop        func()
}

// Sink decouples audit writes from the request path. Emit never blocks:
// records land in a bounded buffer drained by a single writer goroutine,
// and overflow drops the record rather than stalling the caller.
type Sink struct {
	store   Store
	logger  *slog.Logger
	records chan rbac.AuditRecord
	quit    chan struct{}
	done    chan struct{}
	once    sync.Once
	closed  atomic.Bool

	batchSize     int
	flushInterval time.Duration
	onDrop        func()
	dropped       atomic.Int64
}

// NewSink starts the writer goroutine and returns the sink.
func NewSink(store Store, logger *slog.Logger, opts SinkOptions) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = 1024
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = time.Second
	}
	s := &Sink{
		store:         store,
		logger:        logger,
		records:       make(chan rbac.AuditRecord, opts.BufferSize),
		quit:          make(chan struct{}),
		done:          make(chan struct{}),
		batchSize:     opts.BatchSize,
		flushInterval: opts.FlushInterval,
		onDrop:        opts.OnDrop,
	}
	go s.run()
	return s
}

// Emit queues one record. When the buffer is full, or the sink is already
// closed, the record is dropped and the drop counter incremented. The
// records channel is never closed, so an Emit racing Close cannot panic.
func (s *Sink) Emit(rec rbac.AuditRecord) {
	if s.closed.Load() {
		s.countDrop()
		return
	}
	select {
	case s.records <- rec:
	default:
		s.countDrop()
	}
}

func (s *Sink) countDrop() {
	total := s.dropped.Add(1)
	if s.onDrop != nil {
		s.onDrop()
	}
	if total == 1 || total%100 == 0 {
		s.logger.Warn("audit buffer full, dropping record", slog.Int64("dropped_total", total))
	}
}

// Dropped reports how many records were discarded due to a full buffer.
func (s *Sink) Dropped() int64 {
	return s.dropped.Load()
}

// Close stops accepting records and drains the buffer. It returns early
// with the context error if draining outlasts the deadline.
func (s *Sink) Close(ctx context.Context) error {
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.quit)
	})
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]rbac.AuditRecord, 0, s.batchSize)
	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := s.store.InsertBatch(ctx, batch); err != nil {
			s.logger.Error("flush audit batch", slog.Int("size", len(batch)), slog.Any("error", err))
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case rec := <-s.records:
			batch = append(batch, rec)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.quit:
			// Drain whatever landed in the buffer before shutdown.
			for {
				select {
				case rec := <-s.records:
					batch = append(batch, rec)
					if len(batch) >= s.batchSize {
						flush()
					}
				default:
					flush()
					return
				}
			}
		}
	}
}
