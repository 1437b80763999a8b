package writer

import (
	"context"
	"fmt"
	"log/slog"
)

const createQuotesTable = `
CREATE TABLE IF NOT EXISTS quotes (
	polled_at        TIMESTAMPTZ      NOT NULL,
	batch_id         UUID             NOT NULL,
	subscription     TEXT             NOT NULL,
	symbol           TEXT             NOT NULL,
	symbol_id        BIGINT           NOT NULL,
	bid_price        DOUBLE PRECISION NOT NULL,
	bid_size         BIGINT           NOT NULL,
	ask_price        DOUBLE PRECISION NOT NULL,
	ask_size         BIGINT           NOT NULL,
	last_trade_price DOUBLE PRECISION NOT NULL,
	last_trade_size  BIGINT           NOT NULL,
	last_trade_tick  TEXT             NOT NULL,
	last_trade_time  TEXT             NOT NULL,
	volume           BIGINT           NOT NULL,
	open_price       DOUBLE PRECISION NOT NULL,
	high_price       DOUBLE PRECISION NOT NULL,
	low_price        DOUBLE PRECISION NOT NULL,
	vwap             DOUBLE PRECISION NOT NULL,
	delay            INTEGER          NOT NULL,
	is_halted        BOOLEAN          NOT NULL,
	PRIMARY KEY (symbol_id, batch_id, polled_at)
)`

const createQuotesHypertable = `SELECT create_hypertable('quotes', 'polled_at', if_not_exists => TRUE)`

const createQuotesSymbolIndex = `CREATE INDEX IF NOT EXISTS quotes_symbol_polled_at_idx ON quotes (symbol, polled_at DESC)`

// EnsureSchema creates the quotes table if it does not exist and converts it
// to a hypertable when the timescaledb extension is available.
func EnsureSchema(ctx context.Context, db DB, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := db.Exec(ctx, createQuotesTable); err != nil {
		return fmt.Errorf("create quotes table: %w", err)
	}

	if _, err := db.Exec(ctx, createQuotesHypertable); err != nil {
		logger.Warn("quotes table is not a hypertable", "error", err)
	}

	if _, err := db.Exec(ctx, createQuotesSymbolIndex); err != nil {
		return fmt.Errorf("create quotes index: %w", err)
	}

	return nil
}
