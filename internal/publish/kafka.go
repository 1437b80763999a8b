package publish

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rickgao/questrade-data/internal/model"
)

// MessageWriter is the subset of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter creates a writer that hashes keys to partitions.
func NewKafkaWriter(brokers []string, topic string, batchTimeout time.Duration) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           batchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

// KafkaPublisher writes one message per quote keyed by symbol.
type KafkaPublisher struct {
	w      MessageWriter
	logger *slog.Logger
}

// NewKafkaPublisher creates a new KafkaPublisher.
func NewKafkaPublisher(w MessageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{w: w, logger: logger}
}

// WriteBatch writes all quotes of the batch in one call.
func (p *KafkaPublisher) WriteBatch(ctx context.Context, batch model.QuoteBatch) error {
	if len(batch.Quotes) == 0 {
		return nil
	}

	payloads, err := encodeQuotes(batch)
	if err != nil {
		return err
	}

	msgs := make([]kafka.Message, len(batch.Quotes))
	for i, q := range batch.Quotes {
		msgs[i] = kafka.Message{
			Key:   []byte(q.Symbol),
			Value: payloads[i],
			Time:  batch.PolledAt,
			Headers: []kafka.Header{
				{Key: "batch_id", Value: []byte(batch.ID.String())},
				{Key: "subscription", Value: []byte(batch.Subscription)},
			},
		}
	}

	if err := p.w.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}

	p.logger.Debug("published quotes to kafka", "count", len(msgs), "batch_id", batch.ID)
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.w.Close()
}
