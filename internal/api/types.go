package api

import (
	"errors"
	"fmt"
	"time"
)

// AccountsResponse from GET /accounts
type AccountsResponse struct {
	Accounts []APIAccount `json:"accounts"`
	UserID   int64        `json:"userId"`
}

// APIAccount represents a brokerage account.
type APIAccount struct {
	Type              string `json:"type"`
	Number            string `json:"number"`
	Status            string `json:"status"`
	IsPrimary         bool   `json:"isPrimary"`
	IsBilling         bool   `json:"isBilling"`
	ClientAccountType string `json:"clientAccountType"`
}

func (r *AccountsResponse) validate() error {
	if r.Accounts == nil {
		return errors.New("accounts is required")
	}
	for i, a := range r.Accounts {
		if a.Number == "" {
			return fmt.Errorf("accounts[%d].number is required", i)
		}
	}
	return nil
}

// TimeResponse from GET /time
type TimeResponse struct {
	Time string `json:"time"` // ISO 8601 with offset
}

func (r *TimeResponse) validate() error {
	if r.Time == "" {
		return errors.New("time is required")
	}
	return nil
}

// Parsed returns the server time.
func (r *TimeResponse) Parsed() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, r.Time)
}

// MarketsResponse from GET /markets
type MarketsResponse struct {
	Markets []APIMarket `json:"markets"`
}

// APIMarket represents a market venue and its session hours.
type APIMarket struct {
	Name                string   `json:"name"`
	TradingVenues       []string `json:"tradingVenues"`
	DefaultTradingVenue string   `json:"defaultTradingVenue"`
	PrimaryOrderRoutes  []string `json:"primaryOrderRoutes"`
	Level1Feeds         []string `json:"level1Feeds"`
	Level2Feeds         []string `json:"level2Feeds"`

	// Session times (ISO 8601)
	ExtendedStartTime string `json:"extendedStartTime"`
	StartTime         string `json:"startTime"`
	EndTime           string `json:"endTime"`
	ExtendedEndTime   string `json:"extendedEndTime"`

	Currency        string `json:"currency"`
	SnapQuotesLimit int    `json:"snapQuotesLimit"`
}

func (r *MarketsResponse) validate() error {
	if r.Markets == nil {
		return errors.New("markets is required")
	}
	for i, m := range r.Markets {
		if m.Name == "" {
			return fmt.Errorf("markets[%d].name is required", i)
		}
	}
	return nil
}

// SymbolsResponse from GET /symbols and GET /symbols/search
type SymbolsResponse struct {
	Symbols []APISymbol `json:"symbols"`
}

// APISymbol represents a security. Search results fill only the identifying
// fields.
type APISymbol struct {
	Symbol          string `json:"symbol"`
	SymbolID        int64  `json:"symbolId"`
	Description     string `json:"description"`
	SecurityType    string `json:"securityType"`
	ListingExchange string `json:"listingExchange"`
	Currency        string `json:"currency"`
	IsTradable      bool   `json:"isTradable"`
	IsQuotable      bool   `json:"isQuotable"`

	// Detail fields (GET /symbols only)
	PrevDayClosePrice float64 `json:"prevDayClosePrice"`
	HighPrice52       float64 `json:"highPrice52"`
	LowPrice52        float64 `json:"lowPrice52"`
	AverageVol3Months int64   `json:"averageVol3Months"`
	AverageVol20Days  int64   `json:"averageVol20Days"`
	OutstandingShares int64   `json:"outstandingShares"`
	EPS               float64 `json:"eps"`
	PE                float64 `json:"pe"`
	Dividend          float64 `json:"dividend"`
	Yield             float64 `json:"yield"`
	MarketCap         float64 `json:"marketCap"`
	HasOptions        bool    `json:"hasOptions"`
	IndustrySector    string  `json:"industrySector"`
}

func (r *SymbolsResponse) validate() error {
	if r.Symbols == nil {
		return errors.New("symbols is required")
	}
	for i, s := range r.Symbols {
		if s.Symbol == "" {
			return fmt.Errorf("symbols[%d].symbol is required", i)
		}
		if s.SymbolID == 0 {
			return fmt.Errorf("symbols[%d].symbolId is required", i)
		}
	}
	return nil
}

// QuotesResponse from GET /markets/quotes
type QuotesResponse struct {
	Quotes []APIQuote `json:"quotes"`
}

// APIQuote represents a level 1 quote. Nullable prices decode to zero.
type APIQuote struct {
	Symbol   string `json:"symbol"`
	SymbolID int64  `json:"symbolId"`
	Tier     string `json:"tier"`

	BidPrice float64 `json:"bidPrice"`
	BidSize  int64   `json:"bidSize"`
	AskPrice float64 `json:"askPrice"`
	AskSize  int64   `json:"askSize"`

	LastTradePriceTrHrs float64 `json:"lastTradePriceTrHrs"`
	LastTradePrice      float64 `json:"lastTradePrice"`
	LastTradeSize       int64   `json:"lastTradeSize"`
	LastTradeTick       string  `json:"lastTradeTick"`
	LastTradeTime       string  `json:"lastTradeTime"`

	Volume    int64   `json:"volume"`
	OpenPrice float64 `json:"openPrice"`
	HighPrice float64 `json:"highPrice"`
	LowPrice  float64 `json:"lowPrice"`
	High52w   float64 `json:"high52w"`
	Low52w    float64 `json:"low52w"`
	VWAP      float64 `json:"VWAP"`

	Delay    int  `json:"delay"`
	IsHalted bool `json:"isHalted"`
}

func (r *QuotesResponse) validate() error {
	if r.Quotes == nil {
		return errors.New("quotes is required")
	}
	for i, q := range r.Quotes {
		if q.Symbol == "" {
			return fmt.Errorf("quotes[%d].symbol is required", i)
		}
	}
	return nil
}

// CandlesResponse from GET /markets/candles/{id}
type CandlesResponse struct {
	Candles []APICandle `json:"candles"`
}

// APICandle represents one OHLCV bar.
type APICandle struct {
	Start  string  `json:"start"`
	End    string  `json:"end"`
	Low    float64 `json:"low"`
	High   float64 `json:"high"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

func (r *CandlesResponse) validate() error {
	if r.Candles == nil {
		return errors.New("candles is required")
	}
	for i, c := range r.Candles {
		if c.Start == "" {
			return fmt.Errorf("candles[%d].start is required", i)
		}
	}
	return nil
}

// BalancesResponse from GET /accounts/{id}/balances
type BalancesResponse struct {
	PerCurrencyBalances    []APIBalance `json:"perCurrencyBalances"`
	CombinedBalances       []APIBalance `json:"combinedBalances"`
	SODPerCurrencyBalances []APIBalance `json:"sodPerCurrencyBalances"`
	SODCombinedBalances    []APIBalance `json:"sodCombinedBalances"`
}

// APIBalance is an account balance in one currency.
type APIBalance struct {
	Currency          string  `json:"currency"`
	Cash              float64 `json:"cash"`
	MarketValue       float64 `json:"marketValue"`
	TotalEquity       float64 `json:"totalEquity"`
	BuyingPower       float64 `json:"buyingPower"`
	MaintenanceExcess float64 `json:"maintenanceExcess"`
	IsRealTime        bool    `json:"isRealTime"`
}

func (r *BalancesResponse) validate() error {
	if r.PerCurrencyBalances == nil && r.CombinedBalances == nil {
		return errors.New("perCurrencyBalances or combinedBalances is required")
	}
	return nil
}

// PositionsResponse from GET /accounts/{id}/positions
type PositionsResponse struct {
	Positions []APIPosition `json:"positions"`
}

// APIPosition is an open or recently closed position.
type APIPosition struct {
	Symbol             string  `json:"symbol"`
	SymbolID           int64   `json:"symbolId"`
	OpenQuantity       float64 `json:"openQuantity"`
	ClosedQuantity     float64 `json:"closedQuantity"`
	CurrentMarketValue float64 `json:"currentMarketValue"`
	CurrentPrice       float64 `json:"currentPrice"`
	AverageEntryPrice  float64 `json:"averageEntryPrice"`
	ClosedPnL          float64 `json:"closedPnl"`
	OpenPnL            float64 `json:"openPnl"`
	TotalCost          float64 `json:"totalCost"`
	IsRealTime         bool    `json:"isRealTime"`
	IsUnderReorg       bool    `json:"isUnderReorg"`
}

func (r *PositionsResponse) validate() error {
	if r.Positions == nil {
		return errors.New("positions is required")
	}
	for i, p := range r.Positions {
		if p.Symbol == "" {
			return fmt.Errorf("positions[%d].symbol is required", i)
		}
	}
	return nil
}

// CandlesOptions configures a Candles request.
type CandlesOptions struct {
	Start    time.Time
	End      time.Time
	Interval string // e.g. "OneMinute", "FiveMinutes", "OneDay"
}
