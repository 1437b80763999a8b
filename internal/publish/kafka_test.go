package publish

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rickgao/questrade-data/internal/model"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublisher_OneMessagePerQuote(t *testing.T) {
	// Arrange
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, nil)
	batch := testBatch()

	// Act
	err := p.WriteBatch(context.Background(), batch)

	// Assert
	require.NoError(t, err)
	require.Len(t, w.msgs, 2)

	assert.Equal(t, "AAPL", string(w.msgs[0].Key))
	assert.Equal(t, "MSFT", string(w.msgs[1].Key))
	assert.True(t, w.msgs[0].Time.Equal(batch.PolledAt))

	headers := map[string]string{}
	for _, h := range w.msgs[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, batch.ID.String(), headers["batch_id"])
	assert.Equal(t, "tech", headers["subscription"])

	var decoded QuoteMessage
	require.NoError(t, json.Unmarshal(w.msgs[1].Value, &decoded))
	assert.Equal(t, batch.Quotes[1], decoded.Quote)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := NewKafkaPublisher(w, nil)

	err := p.WriteBatch(context.Background(), testBatch())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestKafkaPublisher_EmptyBatchSkipsWrite(t *testing.T) {
	w := &fakeWriter{err: errors.New("should not be called")}
	p := NewKafkaPublisher(w, nil)

	require.NoError(t, p.WriteBatch(context.Background(), model.QuoteBatch{}))
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &fakeWriter{}
	p := NewKafkaPublisher(w, nil)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"}, "quotes", 0)
	defer w.Close()

	assert.Equal(t, "quotes", w.Topic)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
}
