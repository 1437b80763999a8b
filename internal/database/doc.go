// Package database provides connection pool management for TimescaleDB.
//
// The streamer keeps one optional pool for quote history. It is only opened
// when database.timescale is configured.
package database
