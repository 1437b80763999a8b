package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// SearchSymbols finds symbols by prefix.
func (c *Client) SearchSymbols(ctx context.Context, prefix string) (*SymbolsResponse, error) {
	query := url.Values{}
	query.Set("prefix", prefix)

	var resp SymbolsResponse
	if err := c.get(ctx, "/symbols/search", query, &resp); err != nil {
		return nil, fmt.Errorf("search symbols %q: %w", prefix, err)
	}
	return &resp, nil
}

// SymbolsByID fetches symbol details by id.
func (c *Client) SymbolsByID(ctx context.Context, ids []int64) (*SymbolsResponse, error) {
	query := url.Values{}
	query.Set("ids", joinIDs(ids))

	var resp SymbolsResponse
	if err := c.get(ctx, "/symbols", query, &resp); err != nil {
		return nil, fmt.Errorf("get symbols by id: %w", err)
	}
	return &resp, nil
}

// SymbolsByName fetches symbol details by ticker.
func (c *Client) SymbolsByName(ctx context.Context, names []string) (*SymbolsResponse, error) {
	query := url.Values{}
	query.Set("names", strings.Join(names, ","))

	var resp SymbolsResponse
	if err := c.get(ctx, "/symbols", query, &resp); err != nil {
		return nil, fmt.Errorf("get symbols by name: %w", err)
	}
	return &resp, nil
}

// QuoteTickers resolves tickers and fetches their quotes in one go.
func (c *Client) QuoteTickers(ctx context.Context, tickers []string) ([]APIQuote, error) {
	syms, err := c.SymbolsByName(ctx, tickers)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(syms.Symbols))
	for i, s := range syms.Symbols {
		ids[i] = s.SymbolID
	}
	if len(ids) == 0 {
		return []APIQuote{}, nil
	}

	quotes, err := c.Quotes(ctx, ids)
	if err != nil {
		return nil, err
	}
	return quotes.Quotes, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, ",")
}
