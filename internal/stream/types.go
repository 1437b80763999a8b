package stream

import (
	"errors"
	"time"
)

// Errors
var (
	ErrStaleConnection = errors.New("connection stale (no ping)")
	ErrAlreadyClosed   = errors.New("already closed")
)

// HubConfig configures a Hub.
type HubConfig struct {
	SendBuffer   int           // Batches queued per client before dropping
	WriteTimeout time.Duration // Write deadline per frame
	PingInterval time.Duration // Server ping period; clients must pong within 2x
}

// DefaultHubConfig returns sensible defaults.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		SendBuffer:   32,
		WriteTimeout: 10 * time.Second,
		PingInterval: 30 * time.Second,
	}
}

// HubStats is a point-in-time view of the hub.
type HubStats struct {
	Clients int   `json:"clients"`
	Sent    int64 `json:"sent"`
	Dropped int64 `json:"dropped"`
}

// SubscriberConfig configures a Subscriber.
type SubscriberConfig struct {
	URL          string        // ws://host:port/stream
	PingTimeout  time.Duration // Max time without a server ping before the connection is stale
	WriteTimeout time.Duration // Write deadline for control frames
	BufferSize   int           // Batch channel buffer size
}

// DefaultSubscriberConfig returns sensible defaults.
func DefaultSubscriberConfig() SubscriberConfig {
	return SubscriberConfig{
		PingTimeout:  90 * time.Second,
		WriteTimeout: 5 * time.Second,
		BufferSize:   256,
	}
}
