package model

import (
	"time"

	"github.com/google/uuid"
)

// -----------------------------------------------------------------------------
// Reference Types
// -----------------------------------------------------------------------------

// Symbol is a resolved security.
type Symbol struct {
	Symbol          string // Ticker (e.g., "AAPL", "WEED.TO")
	SymbolID        int64  // Questrade numeric id
	Description     string // Company / instrument name
	SecurityType    string // "Stock", "Option", "Index", ...
	ListingExchange string // "NASDAQ", "TSX", ...
	Currency        string // "USD", "CAD"
}

// Candle is one OHLCV bar.
type Candle struct {
	Start  time.Time
	End    time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// -----------------------------------------------------------------------------
// Streaming Types
// -----------------------------------------------------------------------------

// Quote is a level 1 quote. All fields are comparable, so two quotes are
// equal for delivery purposes iff q1 == q2.
type Quote struct {
	Symbol   string `json:"symbol"`    // Identity
	SymbolID int64  `json:"symbol_id"`
	Tier     string `json:"tier"`

	// Book
	BidPrice float64 `json:"bid_price"`
	BidSize  int64   `json:"bid_size"`
	AskPrice float64 `json:"ask_price"`
	AskSize  int64   `json:"ask_size"`

	// Last trade
	LastTradePriceTrHrs float64 `json:"last_trade_price_tr_hrs"` // Regular trading hours only
	LastTradePrice      float64 `json:"last_trade_price"`
	LastTradeSize       int64   `json:"last_trade_size"`
	LastTradeTick       string  `json:"last_trade_tick"`         // "Up", "Down", "Equal"
	LastTradeTime       string  `json:"last_trade_time"`         // ISO 8601 as reported

	// Session
	Volume    int64   `json:"volume"`
	OpenPrice float64 `json:"open_price"`
	HighPrice float64 `json:"high_price"`
	LowPrice  float64 `json:"low_price"`
	High52w   float64 `json:"high_52w"`
	Low52w    float64 `json:"low_52w"`
	VWAP      float64 `json:"vwap"`

	Delay    int  `json:"delay"`     // 0 = realtime, >0 = delayed (minutes)
	IsHalted bool `json:"is_halted"`
}

// Delayed reports whether the broker flagged the quote as not realtime.
func (q Quote) Delayed() bool {
	return q.Delay > 0
}

// QuoteBatch is the set of changed quotes produced by one poll cycle.
// Order within Quotes is the order they were diffed.
type QuoteBatch struct {
	ID           uuid.UUID `json:"batch_id"`     // Unique per batch
	Subscription string    `json:"subscription"` // Poller that produced it
	PolledAt     time.Time `json:"polled_at"`    // Start of the poll cycle
	Quotes       []Quote   `json:"quotes"`
}

// NewQuoteBatch stamps a batch with a fresh ID.
func NewQuoteBatch(subscription string, polledAt time.Time, quotes []Quote) QuoteBatch {
	return QuoteBatch{
		ID:           uuid.New(),
		Subscription: subscription,
		PolledAt:     polledAt,
		Quotes:       quotes,
	}
}

// Symbols returns the symbols in the batch, in order.
func (b QuoteBatch) Symbols() []string {
	out := make([]string, len(b.Quotes))
	for i, q := range b.Quotes {
		out[i] = q.Symbol
	}
	return out
}
