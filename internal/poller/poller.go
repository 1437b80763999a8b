package poller

import (
	"context"
	"log/slog"
	"time"

	"github.com/rickgao/questrade-data/internal/api"
	"github.com/rickgao/questrade-data/internal/model"
)

// DefaultRate is the default number of polls per second.
const DefaultRate = 5.0

// QuoteSource is the part of the API client the poller needs.
type QuoteSource interface {
	SymbolResolver
	Quotes(ctx context.Context, ids []int64) (*api.QuotesResponse, error)
}

// Output receives quote batches. Send must not block; it reports false when
// the batch was dropped.
type Output interface {
	Send(batch model.QuoteBatch) bool
}

// Config holds per-subscription configuration.
type Config struct {
	Name    string   // Subscription name, stamped on every batch
	Symbols []string // Tickers to poll
	Rate    float64  // Polls per second (default: 5)
	Diff    bool     // Deliver only changed quotes (default: true)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Rate: DefaultRate,
		Diff: true,
	}
}

// Period returns the target cycle length.
func (c Config) Period() time.Duration {
	rate := c.Rate
	if rate <= 0 {
		rate = DefaultRate
	}
	return time.Duration(float64(time.Second) / rate)
}

// Poller streams changed quotes for one subscription.
type Poller struct {
	cfg    Config
	source QuoteSource
	out    Output
	logger *slog.Logger
	now    func() time.Time

	index *SymbolIndex
	cache *DeltaCache
}

// New creates a new Poller.
func New(cfg Config, source QuoteSource, out Output, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		cfg:    cfg,
		source: source,
		out:    out,
		logger: logger.With("subscription", cfg.Name),
		now:    time.Now,
	}
}

// Run resolves the subscription's symbols and polls until ctx is cancelled.
// It returns an error only when no symbol resolves; otherwise it returns
// ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	if err := p.prepare(ctx); err != nil {
		return err
	}

	p.logger.Info("quote poller started",
		"symbols", p.index.Len(),
		"period", p.cfg.Period(),
		"diff", p.cfg.Diff,
	)
	defer p.logger.Info("quote poller stopped")

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := p.cycle(ctx)
		if wait <= 0 {
			continue
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

// prepare builds the symbol index and an empty cache.
func (p *Poller) prepare(ctx context.Context) error {
	idx, err := ResolveSymbols(ctx, p.source, p.cfg.Symbols, p.logger)
	if err != nil {
		return err
	}
	p.index = idx
	p.cache = NewDeltaCache()
	return nil
}

// cycle runs one fetch/diff/send iteration and returns how long to sleep
// before the next one.
func (p *Poller) cycle(ctx context.Context) time.Duration {
	start := p.now()

	if batch, ok := p.fetch(ctx, start); ok && len(batch.Quotes) > 0 {
		if !p.out.Send(batch) {
			p.logger.Warn("quote batch dropped", "batch_id", batch.ID, "quotes", len(batch.Quotes))
		}
	}

	period := p.cfg.Period()
	elapsed := p.now().Sub(start)
	wait := period - elapsed
	if wait <= 0 {
		if ctx.Err() == nil {
			p.logger.Warn("poll cycle overran period",
				"elapsed", elapsed,
				"period", period,
			)
		}
		return 0
	}
	return wait
}

// fetch pulls quotes and returns the batch to deliver. ok is false when the
// request failed.
func (p *Poller) fetch(ctx context.Context, start time.Time) (model.QuoteBatch, bool) {
	resp, err := p.source.Quotes(ctx, p.index.IDs())
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("failed to fetch quotes", "error", err)
		}
		return model.QuoteBatch{}, false
	}

	changed := make([]model.Quote, 0, len(resp.Quotes))
	for i := range resp.Quotes {
		q := resp.Quotes[i].ToModel()
		if q.Delayed() {
			p.logger.Warn("quote is delayed", "symbol", q.Symbol, "delay", q.Delay)
		}
		if p.cfg.Diff && !p.cache.Update(q) {
			continue
		}
		changed = append(changed, q)
	}

	if len(changed) == 0 {
		return model.QuoteBatch{}, true
	}
	return model.NewQuoteBatch(p.cfg.Name, start, changed), true
}
