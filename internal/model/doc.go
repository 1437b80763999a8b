// Package model defines the domain types shared by the poller and the sinks.
//
// Conventions:
//   - Prices: float64 in the listing currency, as reported by Questrade
//   - Identity: a quote is identified by its Symbol; SymbolID is the broker-assigned numeric id
//   - Batches: one QuoteBatch per poll cycle that produced at least one change
package model
