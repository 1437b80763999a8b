// Package writer implements the TimescaleDB quote writer.
//
// QuoteWriter is a router sink. Rows accumulate in memory and are flushed
// when the batch is full or on a fixed interval, whichever comes first.
// Inserts are append-only with ON CONFLICT DO NOTHING keyed on
// (symbol_id, batch_id, polled_at), so a replayed batch is a no-op.
package writer
