package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/rickgao/questrade-data/internal/api"
)

// ErrNoSymbols is returned when none of a subscription's tickers resolve.
var ErrNoSymbols = errors.New("no symbols resolved")

// SymbolResolver looks up broker ids for tickers.
type SymbolResolver interface {
	SymbolsByName(ctx context.Context, names []string) (*api.SymbolsResponse, error)
}

// SymbolIndex maps tickers to broker ids. Built once per subscription.
type SymbolIndex struct {
	ids      []int64
	byTicker map[string]int64
}

// ResolveSymbols builds a SymbolIndex for tickers. Tickers the broker does not
// know are logged and skipped.
func ResolveSymbols(ctx context.Context, r SymbolResolver, tickers []string, logger *slog.Logger) (*SymbolIndex, error) {
	if logger == nil {
		logger = slog.Default()
	}

	resp, err := r.SymbolsByName(ctx, tickers)
	if err != nil {
		return nil, fmt.Errorf("resolve symbols: %w", err)
	}

	found := make(map[string]int64, len(resp.Symbols))
	for _, s := range resp.Symbols {
		found[strings.ToUpper(s.Symbol)] = s.SymbolID
	}

	idx := &SymbolIndex{byTicker: make(map[string]int64, len(tickers))}
	for _, t := range tickers {
		key := strings.ToUpper(t)
		id, ok := found[key]
		if !ok {
			logger.Warn("symbol not found", "symbol", t)
			continue
		}
		if _, dup := idx.byTicker[key]; dup {
			continue
		}
		idx.byTicker[key] = id
		idx.ids = append(idx.ids, id)
	}

	if len(idx.ids) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSymbols, strings.Join(tickers, ","))
	}
	return idx, nil
}

// IDs returns the resolved ids in subscription order.
func (x *SymbolIndex) IDs() []int64 {
	return x.ids
}

// Lookup returns the id for a ticker.
func (x *SymbolIndex) Lookup(ticker string) (int64, bool) {
	id, ok := x.byTicker[strings.ToUpper(ticker)]
	return id, ok
}

// Len returns the number of resolved symbols.
func (x *SymbolIndex) Len() int {
	return len(x.ids)
}
