package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rickgao/questrade-data/internal/model"
)

// RedisClient is the subset of redis.UniversalClient the publisher uses.
type RedisClient interface {
	Pipeline() redis.Pipeliner
	Ping(ctx context.Context) *redis.StatusCmd
}

// RedisConfig holds key naming and expiry.
type RedisConfig struct {
	KeyPrefix     string        // Default: "quote:"
	ChannelPrefix string        // Default: "quotes."
	TTL           time.Duration // 0 = no expiry
}

// RedisPublisher stores the latest quote per symbol and publishes every change.
type RedisPublisher struct {
	cfg    RedisConfig
	rdb    RedisClient
	logger *slog.Logger
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(cfg RedisConfig, rdb RedisClient, logger *slog.Logger) *RedisPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "quote:"
	}
	if cfg.ChannelPrefix == "" {
		cfg.ChannelPrefix = "quotes."
	}
	return &RedisPublisher{cfg: cfg, rdb: rdb, logger: logger}
}

// Key returns the latest-quote key for symbol.
func (p *RedisPublisher) Key(symbol string) string {
	return p.cfg.KeyPrefix + symbol
}

// Channel returns the pub/sub channel for symbol.
func (p *RedisPublisher) Channel(symbol string) string {
	return p.cfg.ChannelPrefix + symbol
}

// WriteBatch sets and publishes every quote of the batch in one round trip.
func (p *RedisPublisher) WriteBatch(ctx context.Context, batch model.QuoteBatch) error {
	if len(batch.Quotes) == 0 {
		return nil
	}

	payloads, err := encodeQuotes(batch)
	if err != nil {
		return err
	}

	pipe := p.rdb.Pipeline()
	for i, q := range batch.Quotes {
		pipe.Set(ctx, p.Key(q.Symbol), payloads[i], p.cfg.TTL)
		pipe.Publish(ctx, p.Channel(q.Symbol), payloads[i])
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}

	p.logger.Debug("published quotes to redis", "count", len(batch.Quotes), "batch_id", batch.ID)
	return nil
}

// Ping checks the connection.
func (p *RedisPublisher) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}
