package writer

import (
	"time"

	"github.com/google/uuid"
)

// WriterConfig contains configuration for batch writers.
type WriterConfig struct {
	// BatchSize is the number of rows to accumulate before flushing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     1000,
		FlushInterval: 5 * time.Second,
	}
}

// WriterMetrics counts writer activity.
type WriterMetrics struct {
	Inserts   int64 `json:"inserts"`
	Conflicts int64 `json:"conflicts"`
	Errors    int64 `json:"errors"`
	Flushes   int64 `json:"flushes"`
}

// quoteRow represents a row to be inserted into the quotes table.
type quoteRow struct {
	PolledAt       time.Time
	BatchID        uuid.UUID
	Subscription   string
	Symbol         string
	SymbolID       int64
	BidPrice       float64
	BidSize        int64
	AskPrice       float64
	AskSize        int64
	LastTradePrice float64
	LastTradeSize  int64
	LastTradeTick  string
	LastTradeTime  string
	Volume         int64
	OpenPrice      float64
	HighPrice      float64
	LowPrice       float64
	VWAP           float64
	Delay          int
	IsHalted       bool
}
