package router

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickgao/questrade-data/internal/model"
)

// DefaultWriteTimeout bounds a single sink write.
const DefaultWriteTimeout = 5 * time.Second

// Sink consumes quote batches.
type Sink interface {
	WriteBatch(ctx context.Context, batch model.QuoteBatch) error
}

// SinkFunc is a function adapter for Sink.
type SinkFunc func(ctx context.Context, batch model.QuoteBatch) error

func (f SinkFunc) WriteBatch(ctx context.Context, batch model.QuoteBatch) error {
	return f(ctx, batch)
}

type namedSink struct {
	name     string
	sink     Sink
	written  atomic.Int64
	failures atomic.Int64
}

// Dispatcher drains a batch buffer and hands every batch to each sink in
// registration order. A failing sink is logged and skipped for that batch.
type Dispatcher struct {
	input        *Buffer[model.QuoteBatch]
	logger       *slog.Logger
	writeTimeout time.Duration

	mu    sync.Mutex
	sinks []*namedSink

	batches atomic.Int64
	quotes  atomic.Int64
}

// NewDispatcher creates a dispatcher reading from input.
func NewDispatcher(input *Buffer[model.QuoteBatch], logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		input:        input,
		logger:       logger,
		writeTimeout: DefaultWriteTimeout,
	}
}

// SetWriteTimeout overrides the per-write timeout. Must be called before Run.
func (d *Dispatcher) SetWriteTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.writeTimeout = timeout
	}
}

// Add registers a sink. Must be called before Run.
func (d *Dispatcher) Add(name string, s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, &namedSink{name: name, sink: s})
}

// Run delivers batches until ctx is cancelled. On cancellation the buffer is
// closed and what remains in it is still delivered before Run returns.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.mu.Lock()
	sinks := d.sinks
	d.mu.Unlock()

	stop := context.AfterFunc(ctx, d.input.Close)
	defer stop()

	d.logger.Info("dispatcher started", "sinks", len(sinks))

	// Writes outlive ctx so the drain after cancellation can finish.
	writeCtx := context.WithoutCancel(ctx)
	for {
		batch, ok := d.input.Receive()
		if !ok {
			d.logger.Info("dispatcher stopped",
				"batches", d.batches.Load(),
				"quotes", d.quotes.Load(),
			)
			return nil
		}
		d.deliver(writeCtx, sinks, batch)
	}
}

func (d *Dispatcher) deliver(ctx context.Context, sinks []*namedSink, batch model.QuoteBatch) {
	d.batches.Add(1)
	d.quotes.Add(int64(len(batch.Quotes)))

	for _, s := range sinks {
		wctx, cancel := context.WithTimeout(ctx, d.writeTimeout)
		err := s.sink.WriteBatch(wctx, batch)
		cancel()

		if err != nil {
			s.failures.Add(1)
			d.logger.Warn("sink write failed",
				"sink", s.name,
				"batch_id", batch.ID,
				"error", err,
			)
			continue
		}
		s.written.Add(1)
	}
}

// SinkStats counts deliveries for one sink.
type SinkStats struct {
	Written  int64 `json:"written"`
	Failures int64 `json:"failures"`
}

// DispatcherStats contains dispatcher statistics.
type DispatcherStats struct {
	Batches int64                `json:"batches"`
	Quotes  int64                `json:"quotes"`
	Sinks   map[string]SinkStats `json:"sinks"`
}

// Stats returns dispatcher statistics.
func (d *Dispatcher) Stats() DispatcherStats {
	d.mu.Lock()
	defer d.mu.Unlock()

	stats := DispatcherStats{
		Batches: d.batches.Load(),
		Quotes:  d.quotes.Load(),
		Sinks:   make(map[string]SinkStats, len(d.sinks)),
	}
	for _, s := range d.sinks {
		stats.Sinks[s.name] = SinkStats{
			Written:  s.written.Load(),
			Failures: s.failures.Load(),
		}
	}
	return stats
}
