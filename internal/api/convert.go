package api

import (
	"time"

	"github.com/rickgao/questrade-data/internal/model"
)

// ToModel converts an APIQuote to model.Quote.
func (q *APIQuote) ToModel() model.Quote {
	return model.Quote{
		Symbol:              q.Symbol,
		SymbolID:            q.SymbolID,
		Tier:                q.Tier,
		BidPrice:            q.BidPrice,
		BidSize:             q.BidSize,
		AskPrice:            q.AskPrice,
		AskSize:             q.AskSize,
		LastTradePriceTrHrs: q.LastTradePriceTrHrs,
		LastTradePrice:      q.LastTradePrice,
		LastTradeSize:       q.LastTradeSize,
		LastTradeTick:       q.LastTradeTick,
		LastTradeTime:       q.LastTradeTime,
		Volume:              q.Volume,
		OpenPrice:           q.OpenPrice,
		HighPrice:           q.HighPrice,
		LowPrice:            q.LowPrice,
		High52w:             q.High52w,
		Low52w:              q.Low52w,
		VWAP:                q.VWAP,
		Delay:               q.Delay,
		IsHalted:            q.IsHalted,
	}
}

// ToModel converts an APISymbol to model.Symbol.
func (s *APISymbol) ToModel() model.Symbol {
	return model.Symbol{
		Symbol:          s.Symbol,
		SymbolID:        s.SymbolID,
		Description:     s.Description,
		SecurityType:    s.SecurityType,
		ListingExchange: s.ListingExchange,
		Currency:        s.Currency,
	}
}

// ToModel converts an APICandle to model.Candle. Unparseable timestamps
// become the zero time.
func (c *APICandle) ToModel() model.Candle {
	return model.Candle{
		Start:  ParseTimestamp(c.Start),
		End:    ParseTimestamp(c.End),
		Open:   c.Open,
		High:   c.High,
		Low:    c.Low,
		Close:  c.Close,
		Volume: c.Volume,
	}
}

// ParseTimestamp parses an ISO 8601 timestamp. Returns the zero time for
// empty or invalid input.
func ParseTimestamp(iso string) time.Time {
	if iso == "" {
		return time.Time{}
	}

	t, err := time.Parse(time.RFC3339Nano, iso)
	if err != nil {
		// Try without timezone
		t, err = time.Parse("2006-01-02T15:04:05", iso)
		if err != nil {
			return time.Time{}
		}
	}

	return t
}
