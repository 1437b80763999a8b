package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/rickgao/questrade-data/internal/config"
	"github.com/rickgao/questrade-data/internal/database"
	"github.com/rickgao/questrade-data/internal/model"
	"github.com/rickgao/questrade-data/internal/publish"
	"github.com/rickgao/questrade-data/internal/router"
	"github.com/rickgao/questrade-data/internal/stream"
	"github.com/rickgao/questrade-data/internal/writer"
)

type namedSink struct {
	name string
	sink router.Sink
}

// sinkSet holds every configured sink and the clients behind them.
type sinkSet struct {
	named  []namedSink
	logger *slog.Logger

	pool   *pgxpool.Pool
	writer *writer.QuoteWriter
	rdb    *redis.Client
	redis  *publish.RedisPublisher
	kafka  *publish.KafkaPublisher
	hub    *stream.Hub
}

// openSinks connects every sink enabled in cfg. On error, sinks opened so
// far are closed.
func openSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *sinkSet, err error) {
	s := &sinkSet{logger: logger}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	if cfg.Database.Timescale.Enabled() {
		db := cfg.Database.Timescale
		logger.Info("connecting to database",
			"host", db.Host,
			"port", db.Port,
			"database", db.Name,
		)

		s.pool, err = database.Connect(ctx, db)
		if err != nil {
			return nil, fmt.Errorf("connect timescale: %w", err)
		}
		if err := writer.EnsureSchema(ctx, s.pool, logger); err != nil {
			return nil, err
		}

		s.writer = writer.NewQuoteWriter(writer.WriterConfig{
			BatchSize:     cfg.Writers.BatchSize,
			FlushInterval: cfg.Writers.FlushInterval,
		}, s.pool, logger)
		if err := s.writer.Start(ctx); err != nil {
			return nil, fmt.Errorf("start quote writer: %w", err)
		}
		s.add("timescale", s.writer)
	}

	if cfg.Redis.Enabled() {
		s.rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		s.redis = publish.NewRedisPublisher(publish.RedisConfig{
			KeyPrefix:     cfg.Redis.KeyPrefix,
			ChannelPrefix: cfg.Redis.ChannelPrefix,
			TTL:           cfg.Redis.TTL,
		}, s.rdb, logger)
		if err := s.redis.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("redis connected", "addr", cfg.Redis.Addr)
		s.add("redis", s.redis)
	}

	if cfg.Kafka.Enabled() {
		w := publish.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.BatchTimeout)
		s.kafka = publish.NewKafkaPublisher(w, logger)
		logger.Info("kafka producer ready", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
		s.add("kafka", s.kafka)
	}

	if cfg.Stream.Enabled {
		s.hub = stream.NewHub(stream.HubConfig{
			SendBuffer:   cfg.Stream.SendBuffer,
			WriteTimeout: cfg.Stream.WriteTimeout,
			PingInterval: cfg.Stream.PingInterval,
		}, logger)
		s.add("stream", s.hub)
	}

	return s, nil
}

func (s *sinkSet) add(name string, sink router.Sink) {
	s.named = append(s.named, namedSink{name: name, sink: sink})
}

// Close stops every sink. The writer's final flush runs before the pool closes.
func (s *sinkSet) Close() {
	if s.hub != nil {
		s.hub.Close()
	}
	if s.writer != nil {
		if err := s.writer.Stop(context.Background()); err != nil {
			s.logger.Error("failed to stop quote writer", "error", err)
		}
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.kafka != nil {
		if err := s.kafka.Close(); err != nil {
			s.logger.Error("failed to close kafka writer", "error", err)
		}
	}
	if s.rdb != nil {
		s.rdb.Close()
	}
}

// printBatch writes the batch as one JSON line.
func printBatch(_ context.Context, batch model.QuoteBatch) error {
	data, err := json.Marshal(batch)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = os.Stdout.Write(data)
	return err
}
