// Package poller implements the quote poller.
//
// One Poller runs per subscription:
//   - Resolves its tickers to broker ids once (SymbolIndex)
//   - Fetches quotes for all ids at a fixed rate
//   - Drops quotes equal to the last one delivered for the symbol (DeltaCache)
//   - Sends each non-empty batch to its Output without blocking
//
// A failed fetch is logged and the next cycle runs as scheduled. A cycle that
// takes longer than its period logs an overrun warning and the next cycle
// starts immediately.
package poller
