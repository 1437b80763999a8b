package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/questrade-data/internal/model"
)

// flushTimeout bounds a single flush, including the final one on Stop.
const flushTimeout = 30 * time.Second

// DB is the subset of *pgxpool.Pool used by the writer.
type DB interface {
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const insertQuote = `
	INSERT INTO quotes (polled_at, batch_id, subscription, symbol, symbol_id,
		bid_price, bid_size, ask_price, ask_size,
		last_trade_price, last_trade_size, last_trade_tick, last_trade_time,
		volume, open_price, high_price, low_price, vwap, delay, is_halted)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	ON CONFLICT (symbol_id, batch_id, polled_at) DO NOTHING
`

// QuoteWriter accumulates quote batches and writes them to the quotes table.
type QuoteWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	// Database
	db DB

	// Batching
	batch       []quoteRow
	batchMu     sync.Mutex
	flushTicker *time.Ticker

	// Serializes flushes so rows reach the database in order.
	flushMu sync.Mutex

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewQuoteWriter creates a new QuoteWriter.
func NewQuoteWriter(cfg WriterConfig, db DB, logger *slog.Logger) *QuoteWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultWriterConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultWriterConfig().FlushInterval
	}
	return &QuoteWriter{
		cfg:    cfg,
		db:     db,
		logger: logger,
		batch:  make([]quoteRow, 0, cfg.BatchSize),
	}
}

// Start begins the periodic flush loop.
func (w *QuoteWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("quote writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop stops the flush loop and writes any pending rows.
func (w *QuoteWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping quote writer")

	if w.cancel != nil {
		w.cancel()
	}

	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("quote writer stop timed out")
	}

	// Final flush
	err := w.flush(ctx)
	w.logger.Info("quote writer stopped")
	return err
}

// Stats returns current metrics.
func (w *QuoteWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

// WriteBatch queues the batch's quotes and flushes when the batch size is
// reached.
func (w *QuoteWriter) WriteBatch(ctx context.Context, batch model.QuoteBatch) error {
	w.batchMu.Lock()
	for _, q := range batch.Quotes {
		w.batch = append(w.batch, transform(batch, q))
	}
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		return w.flush(ctx)
	}
	return nil
}

// flushLoop periodically flushes the batch.
func (w *QuoteWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.ctx)
		}
	}
}

// transform converts a quote to a quoteRow.
func transform(batch model.QuoteBatch, q model.Quote) quoteRow {
	return quoteRow{
		PolledAt:       batch.PolledAt,
		BatchID:        batch.ID,
		Subscription:   batch.Subscription,
		Symbol:         q.Symbol,
		SymbolID:       q.SymbolID,
		BidPrice:       q.BidPrice,
		BidSize:        q.BidSize,
		AskPrice:       q.AskPrice,
		AskSize:        q.AskSize,
		LastTradePrice: q.LastTradePrice,
		LastTradeSize:  q.LastTradeSize,
		LastTradeTick:  q.LastTradeTick,
		LastTradeTime:  q.LastTradeTime,
		Volume:         q.Volume,
		OpenPrice:      q.OpenPrice,
		HighPrice:      q.HighPrice,
		LowPrice:       q.LowPrice,
		VWAP:           q.VWAP,
		Delay:          q.Delay,
		IsHalted:       q.IsHalted,
	}
}

// flush writes the current batch to the database. Rows from a failed flush
// are dropped and counted as errors.
func (w *QuoteWriter) flush(ctx context.Context) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return nil
	}

	// Take ownership of current batch
	batch := w.batch
	w.batch = make([]quoteRow, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	// Rows must still land during shutdown, after ctx is cancelled.
	fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), flushTimeout)
	defer cancel()

	start := time.Now()

	conflicts, err := w.batchInsert(fctx, batch)
	if err != nil {
		w.logger.Error("batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.metrics.Errors++
		w.batchMu.Unlock()
		return err
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(batch) - conflicts)
	w.metrics.Conflicts += int64(conflicts)
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed quotes",
		"count", len(batch),
		"conflicts", conflicts,
		"duration", time.Since(start),
	)
	return nil
}

// batchInsert inserts rows using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *QuoteWriter) batchInsert(ctx context.Context, rows []quoteRow) (conflicts int, err error) {
	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(insertQuote,
			r.PolledAt, r.BatchID, r.Subscription, r.Symbol, r.SymbolID,
			r.BidPrice, r.BidSize, r.AskPrice, r.AskSize,
			r.LastTradePrice, r.LastTradeSize, r.LastTradeTick, r.LastTradeTime,
			r.Volume, r.OpenPrice, r.HighPrice, r.LowPrice, r.VWAP, r.Delay, r.IsHalted,
		)
	}

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for range rows {
		ct, err := results.Exec()
		if err != nil {
			return 0, err
		}
		if ct.RowsAffected() == 0 {
			conflicts++
		}
	}

	return conflicts, nil
}
