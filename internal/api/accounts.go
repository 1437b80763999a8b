package api

import (
	"context"
	"fmt"
	"net/url"
)

// Accounts lists the accounts the token can see.
func (c *Client) Accounts(ctx context.Context) (*AccountsResponse, error) {
	var resp AccountsResponse
	if err := c.get(ctx, "/accounts", nil, &resp); err != nil {
		return nil, fmt.Errorf("get accounts: %w", err)
	}
	return &resp, nil
}

// Time fetches the server time. It is cheap and serves as the liveness probe.
func (c *Client) Time(ctx context.Context) (*TimeResponse, error) {
	var resp TimeResponse
	if err := c.get(ctx, "/time", nil, &resp); err != nil {
		return nil, fmt.Errorf("get time: %w", err)
	}
	return &resp, nil
}

// Balances fetches balances for an account.
func (c *Client) Balances(ctx context.Context, accountID string) (*BalancesResponse, error) {
	var resp BalancesResponse
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/balances", nil, &resp); err != nil {
		return nil, fmt.Errorf("get balances %s: %w", accountID, err)
	}
	return &resp, nil
}

// Positions fetches positions for an account.
func (c *Client) Positions(ctx context.Context, accountID string) (*PositionsResponse, error) {
	var resp PositionsResponse
	if err := c.get(ctx, "/accounts/"+url.PathEscape(accountID)+"/positions", nil, &resp); err != nil {
		return nil, fmt.Errorf("get positions %s: %w", accountID, err)
	}
	return &resp, nil
}
