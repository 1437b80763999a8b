package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Markets lists market venues.
func (c *Client) Markets(ctx context.Context) (*MarketsResponse, error) {
	var resp MarketsResponse
	if err := c.get(ctx, "/markets", nil, &resp); err != nil {
		return nil, fmt.Errorf("get markets: %w", err)
	}
	return &resp, nil
}

// Quotes fetches level 1 quotes for symbol ids.
func (c *Client) Quotes(ctx context.Context, ids []int64) (*QuotesResponse, error) {
	query := url.Values{}
	query.Set("ids", joinIDs(ids))

	var resp QuotesResponse
	if err := c.get(ctx, "/markets/quotes", query, &resp); err != nil {
		return nil, fmt.Errorf("get quotes: %w", err)
	}
	return &resp, nil
}

// Candles fetches historical bars for one symbol id.
func (c *Client) Candles(ctx context.Context, id int64, opts CandlesOptions) (*CandlesResponse, error) {
	query := url.Values{}
	if !opts.Start.IsZero() {
		query.Set("startTime", opts.Start.Format(time.RFC3339))
	}
	if !opts.End.IsZero() {
		query.Set("endTime", opts.End.Format(time.RFC3339))
	}
	if opts.Interval != "" {
		query.Set("interval", opts.Interval)
	}

	var resp CandlesResponse
	if err := c.get(ctx, "/markets/candles/"+strconv.FormatInt(id, 10), query, &resp); err != nil {
		return nil, fmt.Errorf("get candles %d: %w", id, err)
	}
	return &resp, nil
}
