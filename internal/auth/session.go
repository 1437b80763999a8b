package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultAuthURL is the Questrade login host.
const DefaultAuthURL = "https://login.questrade.com"

// Session owns the live Credential and renews it on demand.
type Session struct {
	authURL    string
	httpClient *http.Client
	store      CredentialStore
	logger     *slog.Logger
	now        func() time.Time

	cred atomic.Pointer[Credential]

	// renewMu serializes renewals. Reads never take it.
	renewMu sync.Mutex
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithAuthURL overrides the login host.
func WithAuthURL(u string) SessionOption {
	return func(s *Session) {
		s.authURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets the HTTP client used for token requests.
func WithHTTPClient(hc *http.Client) SessionOption {
	return func(s *Session) {
		s.httpClient = hc
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		s.now = now
	}
}

// NewSession creates a session seeded with initial. store may be nil, in
// which case renewed credentials are not persisted.
func NewSession(initial Credential, store CredentialStore, opts ...SessionOption) *Session {
	s := &Session{
		authURL: DefaultAuthURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.cred.Store(&initial)
	return s
}

// Current returns a snapshot of the credential.
func (s *Session) Current() Credential {
	return *s.cred.Load()
}

// ExpiresAt returns the absolute expiry of the current access token.
func (s *Session) ExpiresAt() time.Time {
	return s.Current().Expiry()
}

// SetRefreshToken replaces the refresh token, e.g. after the user supplied a
// new one. The access token is cleared so the next EnsureAccess renews.
func (s *Session) SetRefreshToken(token string) {
	s.renewMu.Lock()
	defer s.renewMu.Unlock()

	next := s.Current()
	next.RefreshToken = token
	next.AccessToken = ""
	next.ExpiresAt = 0
	s.cred.Store(&next)
}

// EnsureAccess returns a valid credential, renewing it first when the access
// token is missing or expired, or when force is set. A valid credential with
// force unset costs no network call.
func (s *Session) EnsureAccess(ctx context.Context, force bool) (Credential, error) {
	cur := s.Current()
	if !force && cur.Valid(s.now()) {
		return cur, nil
	}

	s.renewMu.Lock()
	defer s.renewMu.Unlock()

	// Another caller may have renewed while we waited for the lock.
	cur = s.Current()
	if !force && cur.Valid(s.now()) {
		return cur, nil
	}

	s.logger.Info("refreshing access token",
		"expired_at", cur.Expiry().Format(time.DateTime),
		"forced", force,
	)

	next, err := s.renew(ctx, cur)
	if err != nil {
		return Credential{}, err
	}

	s.logger.Info("access token refreshed",
		"expires_at", next.Expiry().Format(time.DateTime),
		"api_server", next.APIServer,
	)

	s.persist(next)
	return next, nil
}

// tokenResponse is the body of a successful POST /oauth2/token.
type tokenResponse struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	APIServer    string  `json:"api_server"`
	ExpiresIn    float64 `json:"expires_in"`
}

func (r *tokenResponse) validate() error {
	switch {
	case r.AccessToken == "":
		return errors.New("access_token is required")
	case r.APIServer == "":
		return errors.New("api_server is required")
	case r.ExpiresIn <= 0:
		return errors.New("expires_in must be positive")
	}
	return nil
}

// renew exchanges the refresh token for a new access token and swaps the
// result in. Must be called with renewMu held.
func (s *Session) renew(ctx context.Context, cur Credential) (Credential, error) {
	if cur.RefreshToken == "" {
		return Credential{}, fmt.Errorf("%w: no refresh token configured", ErrInvalidRefreshToken)
	}

	query := url.Values{}
	query.Set("grant_type", "refresh_token")
	query.Set("refresh_token", cur.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL+"/oauth2/token?"+query.Encode(), nil)
	if err != nil {
		return Credential{}, fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Credential{}, fmt.Errorf("do token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Credential{}, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return Credential{}, classifyRenewalFailure(resp.StatusCode, body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		// The maintenance page is sometimes served with a 200.
		if failure := classifyRenewalFailure(resp.StatusCode, body); errors.Unwrap(failure) != nil {
			return Credential{}, failure
		}
		return Credential{}, fmt.Errorf("decode token response: %w", err)
	}
	if err := tr.validate(); err != nil {
		return Credential{}, fmt.Errorf("decode token response: %w", err)
	}

	next := cur
	next.AccessToken = tr.AccessToken
	if tr.RefreshToken != "" {
		next.RefreshToken = tr.RefreshToken
	}
	if tr.TokenType != "" {
		next.TokenType = tr.TokenType
	}
	next.APIServer = tr.APIServer
	next.ExpiresAt = epochSeconds(s.now()) + tr.ExpiresIn

	s.cred.Store(&next)
	return next, nil
}

// Persist writes the current credential to the store. A session without a
// store persists nothing and returns nil.
func (s *Session) Persist() error {
	return s.persist(s.Current())
}

// persist saves c and logs a failure. Callers on the renewal path ignore the
// error; a failed save must not undo a good renewal.
func (s *Session) persist(c Credential) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.Save(c); err != nil {
		s.logger.Error("failed to persist credential", "error", err)
		return fmt.Errorf("persist credential: %w", err)
	}
	return nil
}

// Revoke asks the server to invalidate the current refresh token. Failure is
// logged and otherwise ignored.
func (s *Session) Revoke(ctx context.Context) {
	token := s.Current().RefreshToken
	if token == "" {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.authURL+"/oauth2/revoke", nil)
	if err != nil {
		s.logger.Warn("failed to build revoke request", "error", err)
		return
	}
	req.Header.Set("token", token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		s.logger.Warn("token revoke failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		s.logger.Warn("token revoke rejected",
			"status", resp.StatusCode,
			"body", strings.TrimSpace(string(body)),
		)
		return
	}

	s.logger.Info("refresh token revoked")
}
