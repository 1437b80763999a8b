package poller

import "github.com/rickgao/questrade-data/internal/model"

// DeltaCache holds the last quote delivered per symbol. It is owned by a
// single poller and is not safe for concurrent use.
type DeltaCache struct {
	last map[string]model.Quote
}

// NewDeltaCache creates an empty cache.
func NewDeltaCache() *DeltaCache {
	return &DeltaCache{last: make(map[string]model.Quote)}
}

// Update stores q and reports whether it differs from the previous quote for
// the same symbol. A symbol seen for the first time counts as changed.
func (c *DeltaCache) Update(q model.Quote) bool {
	prev, ok := c.last[q.Symbol]
	if ok && prev == q {
		return false
	}
	c.last[q.Symbol] = q
	return true
}

// Get returns the cached quote for symbol.
func (c *DeltaCache) Get(symbol string) (model.Quote, bool) {
	q, ok := c.last[symbol]
	return q, ok
}

// Len returns the number of cached symbols.
func (c *DeltaCache) Len() int {
	return len(c.last)
}
