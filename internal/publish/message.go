package publish

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/questrade-data/internal/model"
)

// QuoteMessage is the wire form of one quote, tagged with its batch.
type QuoteMessage struct {
	BatchID      uuid.UUID `json:"batch_id"`
	Subscription string    `json:"subscription"`
	PolledAt     time.Time `json:"polled_at"`
	model.Quote
}

// encodeQuotes marshals each quote of the batch into a QuoteMessage.
func encodeQuotes(batch model.QuoteBatch) ([][]byte, error) {
	out := make([][]byte, len(batch.Quotes))
	for i, q := range batch.Quotes {
		payload, err := json.Marshal(QuoteMessage{
			BatchID:      batch.ID,
			Subscription: batch.Subscription,
			PolledAt:     batch.PolledAt,
			Quote:        q,
		})
		if err != nil {
			return nil, fmt.Errorf("encode quote %s: %w", q.Symbol, err)
		}
		out[i] = payload
	}
	return out, nil
}
