package writer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rickgao/questrade-data/internal/model"
)

// fakeDB records queued statements. conflictEvery marks every nth row as a
// conflict.
type fakeDB struct {
	mu            sync.Mutex
	batches       [][]*pgx.QueuedQuery
	execs         []string
	sendErr       error
	execErr       map[string]error
	conflictEvery int
	ctxErrs       []error
}

func (f *fakeDB) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, b.QueuedQueries)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return &fakeResults{db: f, n: len(b.QueuedQueries)}
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.execs = append(f.execs, sql)
	for frag, err := range f.execErr {
		if strings.Contains(sql, frag) {
			return pgconn.CommandTag{}, err
		}
	}
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) rows() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, b := range f.batches {
		n += len(b)
	}
	return n
}

type fakeResults struct {
	db   *fakeDB
	n    int
	read int
}

func (r *fakeResults) Exec() (pgconn.CommandTag, error) {
	if r.db.sendErr != nil {
		return pgconn.CommandTag{}, r.db.sendErr
	}
	r.read++
	if r.db.conflictEvery > 0 && r.read%r.db.conflictEvery == 0 {
		return pgconn.NewCommandTag("INSERT 0 0"), nil
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *fakeResults) Query() (pgx.Rows, error) { return nil, errors.New("not implemented") }
func (r *fakeResults) QueryRow() pgx.Row         { return nil }
func (r *fakeResults) Close() error              { return nil }

func testBatch(symbols ...string) model.QuoteBatch {
	quotes := make([]model.Quote, len(symbols))
	for i, s := range symbols {
		quotes[i] = model.Quote{Symbol: s, SymbolID: int64(i + 1), LastTradePrice: 100 + float64(i)}
	}
	return model.NewQuoteBatch("tech", time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC), quotes)
}

func TestTransform(t *testing.T) {
	b := testBatch("AAPL")
	b.Quotes[0].BidPrice = 101.1
	b.Quotes[0].AskSize = 300
	b.Quotes[0].Delay = 15
	b.Quotes[0].IsHalted = true

	row := transform(b, b.Quotes[0])

	if row.BatchID != b.ID {
		t.Errorf("BatchID = %v, want %v", row.BatchID, b.ID)
	}
	if !row.PolledAt.Equal(b.PolledAt) {
		t.Errorf("PolledAt = %v, want %v", row.PolledAt, b.PolledAt)
	}
	if row.Subscription != "tech" {
		t.Errorf("Subscription = %q, want tech", row.Subscription)
	}
	if row.Symbol != "AAPL" || row.SymbolID != 1 {
		t.Errorf("Symbol = %q/%d", row.Symbol, row.SymbolID)
	}
	if row.BidPrice != 101.1 || row.AskSize != 300 {
		t.Errorf("book = %v/%d", row.BidPrice, row.AskSize)
	}
	if row.Delay != 15 || !row.IsHalted {
		t.Errorf("Delay/IsHalted = %d/%v", row.Delay, row.IsHalted)
	}
}

func TestQuoteWriter_BuffersUntilBatchSize(t *testing.T) {
	db := &fakeDB{}
	w := NewQuoteWriter(WriterConfig{BatchSize: 3, FlushInterval: time.Hour}, db, nil)

	if err := w.WriteBatch(context.Background(), testBatch("AAPL", "MSFT")); err != nil {
		t.Fatalf("WriteBatch() = %v", err)
	}
	if db.rows() != 0 {
		t.Errorf("rows written = %d before batch size, want 0", db.rows())
	}

	if err := w.WriteBatch(context.Background(), testBatch("TD.TO")); err != nil {
		t.Fatalf("WriteBatch() = %v", err)
	}
	if db.rows() != 3 {
		t.Errorf("rows written = %d, want 3", db.rows())
	}

	stats := w.Stats()
	if stats.Inserts != 3 || stats.Flushes != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestQuoteWriter_CountsConflicts(t *testing.T) {
	db := &fakeDB{conflictEvery: 2}
	w := NewQuoteWriter(WriterConfig{BatchSize: 4, FlushInterval: time.Hour}, db, nil)

	if err := w.WriteBatch(context.Background(), testBatch("A", "B", "C", "D")); err != nil {
		t.Fatalf("WriteBatch() = %v", err)
	}

	stats := w.Stats()
	if stats.Inserts != 2 || stats.Conflicts != 2 {
		t.Errorf("stats = %+v, want 2 inserts 2 conflicts", stats)
	}
}

func TestQuoteWriter_FlushError(t *testing.T) {
	db := &fakeDB{sendErr: errors.New("connection reset")}
	w := NewQuoteWriter(WriterConfig{BatchSize: 1, FlushInterval: time.Hour}, db, nil)

	err := w.WriteBatch(context.Background(), testBatch("AAPL"))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if w.Stats().Errors != 1 {
		t.Errorf("Errors = %d, want 1", w.Stats().Errors)
	}

	// Failed rows are not retried on the next flush.
	db.sendErr = nil
	if err := w.flush(context.Background()); err != nil {
		t.Fatalf("flush() = %v", err)
	}
	if w.Stats().Inserts != 0 {
		t.Errorf("Inserts = %d, want 0", w.Stats().Inserts)
	}
}

func TestQuoteWriter_StopFlushesPending(t *testing.T) {
	db := &fakeDB{}
	w := NewQuoteWriter(WriterConfig{BatchSize: 100, FlushInterval: time.Hour}, db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	if err := w.WriteBatch(ctx, testBatch("AAPL", "MSFT")); err != nil {
		t.Fatalf("WriteBatch() = %v", err)
	}
	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := w.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() = %v", err)
	}

	if db.rows() != 2 {
		t.Errorf("rows written = %d, want 2", db.rows())
	}
	for _, err := range db.ctxErrs {
		if err != nil {
			t.Errorf("flush ctx err = %v, want nil", err)
		}
	}
}

func TestQuoteWriter_IntervalFlush(t *testing.T) {
	db := &fakeDB{}
	w := NewQuoteWriter(WriterConfig{BatchSize: 100, FlushInterval: 20 * time.Millisecond}, db, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start() = %v", err)
	}
	defer w.Stop(context.Background())

	if err := w.WriteBatch(ctx, testBatch("AAPL")); err != nil {
		t.Fatalf("WriteBatch() = %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for db.rows() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("interval flush did not happen")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewQuoteWriter_Defaults(t *testing.T) {
	w := NewQuoteWriter(WriterConfig{}, &fakeDB{}, nil)
	if w.cfg != DefaultWriterConfig() {
		t.Errorf("cfg = %+v, want %+v", w.cfg, DefaultWriterConfig())
	}
}

func TestEnsureSchema(t *testing.T) {
	t.Run("plain postgres", func(t *testing.T) {
		db := &fakeDB{execErr: map[string]error{"create_hypertable": errors.New("function does not exist")}}
		if err := EnsureSchema(context.Background(), db, nil); err != nil {
			t.Fatalf("EnsureSchema() = %v", err)
		}
		if len(db.execs) != 3 {
			t.Errorf("execs = %d, want 3", len(db.execs))
		}
	})

	t.Run("table creation fails", func(t *testing.T) {
		db := &fakeDB{execErr: map[string]error{"CREATE TABLE": errors.New("permission denied")}}
		err := EnsureSchema(context.Background(), db, nil)
		if err == nil || !strings.Contains(err.Error(), "create quotes table") {
			t.Errorf("EnsureSchema() = %v, want create quotes table error", err)
		}
	})
}

func TestDefaultWriterConfig(t *testing.T) {
	cfg := DefaultWriterConfig()

	if cfg.BatchSize != 1000 {
		t.Errorf("BatchSize = %d, want 1000", cfg.BatchSize)
	}
	if cfg.FlushInterval != 5*time.Second {
		t.Errorf("FlushInterval = %v, want 5s", cfg.FlushInterval)
	}
}
