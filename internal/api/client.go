package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/rickgao/questrade-data/internal/auth"
)

// apiVersion is appended to the credential's api_server.
const apiVersion = "v1"

// CredentialSource supplies the credential to use for each request.
type CredentialSource interface {
	Current() auth.Credential
}

// Client provides access to the Questrade REST API.
type Client struct {
	creds      CredentialSource
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client. Requests are not retried unless
// WithRetries is given.
func NewClient(creds CredentialSource, opts ...ClientOption) *Client {
	c := &Client{
		creds: creds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger:       slog.Default(),
		retryBackoff: time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry configuration for 5xx and 429 responses.
// A non-positive backoff keeps the default.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		if backoff > 0 {
			c.retryBackoff = backoff
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}
