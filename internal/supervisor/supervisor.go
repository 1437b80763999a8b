package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/questrade-data/internal/api"
	"github.com/rickgao/questrade-data/internal/auth"
	"github.com/rickgao/questrade-data/internal/poller"
)

// ErrLivenessProbe means the API rejected the session twice at startup.
var ErrLivenessProbe = errors.New("liveness probe failed")

// errNotOpen is returned by Run before a successful Open.
var errNotOpen = errors.New("supervisor: Run called before Open")

// Config holds the supervisor's settings.
type Config struct {
	SessionOptions []auth.SessionOption
	ClientOptions  []api.ClientOption
	Subscriptions  []poller.Config
}

// Task is an extra unit of work run inside the supervisor's scope, such as a
// dispatcher. Returning a non-nil error other than the scope's own
// cancellation stops every other task.
type Task func(ctx context.Context) error

// Supervisor acquires a session and runs the background tasks that use it.
type Supervisor struct {
	cfg    Config
	store  auth.CredentialStore
	prompt auth.Prompter
	logger *slog.Logger

	session *auth.Session
	client  *api.Client
}

// New creates a Supervisor. prompt may be nil, in which case a missing or
// rejected refresh token is fatal.
func New(cfg Config, store auth.CredentialStore, prompt auth.Prompter, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		cfg:    cfg,
		store:  store,
		prompt: prompt,
		logger: logger,
	}
}

// Session returns the live session. Nil before Open.
func (s *Supervisor) Session() *auth.Session {
	return s.session
}

// Client returns the API client bound to the session. Nil before Open.
func (s *Supervisor) Client() *api.Client {
	return s.client
}

// Open loads the credential, ensures a valid access token and probes the API.
func (s *Supervisor) Open(ctx context.Context) error {
	cred, err := s.store.Load()
	if err != nil {
		return fmt.Errorf("load credential from %s: %w", s.store.Location(), err)
	}

	if cred.RefreshToken == "" {
		s.logger.Info("no refresh token stored", "location", s.store.Location())

		token, err := s.promptToken(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", auth.ErrNoCredential, err)
		}
		cred = auth.Credential{RefreshToken: token}
	}

	sessionOpts := append([]auth.SessionOption{auth.WithLogger(s.logger)}, s.cfg.SessionOptions...)
	s.session = auth.NewSession(cred, s.store, sessionOpts...)

	clientOpts := append([]api.ClientOption{api.WithLogger(s.logger)}, s.cfg.ClientOptions...)
	s.client = api.NewClient(s.session, clientOpts...)

	if err := s.renew(ctx, false); err != nil {
		return fmt.Errorf("acquire access token: %w", err)
	}

	if err := s.probe(ctx); err != nil {
		return err
	}

	s.listAccounts(ctx)
	return nil
}

// Run starts the refresher, one poller per subscription and every task under
// one scope, and blocks until the scope ends. The credential is persisted on
// every exit path. Cancellation of ctx is a clean shutdown and returns nil.
func (s *Supervisor) Run(ctx context.Context, out poller.Output, tasks ...Task) (err error) {
	if s.session == nil {
		return errNotOpen
	}
	if out == nil && len(s.cfg.Subscriptions) > 0 {
		return errors.New("supervisor: subscriptions need an output")
	}

	defer func() {
		if s.session.Persist() == nil {
			s.logger.Info("credential persisted", "location", s.store.Location())
		}
	}()

	g, gctx := errgroup.WithContext(ctx)

	refresher := auth.NewRefresher(s.session, func(ctx context.Context) error {
		return s.renew(ctx, true)
	}, s.logger)
	g.Go(func() error {
		return refresher.Run(gctx)
	})

	for _, sub := range s.cfg.Subscriptions {
		p := poller.New(sub, s.client, out, s.logger)
		g.Go(func() error {
			if err := p.Run(gctx); err != nil {
				return fmt.Errorf("subscription %s: %w", sub.Name, err)
			}
			return nil
		})
	}

	for _, task := range tasks {
		g.Go(func() error {
			return task(gctx)
		})
	}

	s.logger.Info("supervisor running",
		"subscriptions", len(s.cfg.Subscriptions),
		"tasks", len(tasks),
		"expires_at", s.session.ExpiresAt().Format(time.DateTime),
	)

	err = g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
		s.logger.Info("supervisor stopped")
		return nil
	}
	if err != nil {
		s.logger.Error("supervisor stopped", "error", err)
	}
	return err
}

// renew ensures a valid access token. A rejected refresh token is replaced
// from the prompt and renewal is retried exactly once.
func (s *Supervisor) renew(ctx context.Context, force bool) error {
	_, err := s.session.EnsureAccess(ctx, force)
	if !errors.Is(err, auth.ErrInvalidRefreshToken) {
		return err
	}

	s.logger.Warn("refresh token rejected, requesting a replacement", "error", err)

	token, perr := s.promptToken(ctx)
	if perr != nil {
		return fmt.Errorf("%w (replacement: %w)", err, perr)
	}

	s.session.SetRefreshToken(token)
	if _, err := s.session.EnsureAccess(ctx, false); err != nil {
		return fmt.Errorf("renew with replacement token: %w", err)
	}
	return nil
}

func (s *Supervisor) promptToken(ctx context.Context) (string, error) {
	if s.prompt == nil {
		return "", errors.New("no credential prompt configured")
	}
	token, err := s.prompt.PromptRefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("prompt refresh token: %w", err)
	}
	if token == "" {
		return "", auth.ErrEmptyToken
	}
	return token, nil
}

// probe calls GET /time. On failure it forces one renewal and probes once
// more; a second failure is ErrLivenessProbe.
func (s *Supervisor) probe(ctx context.Context) error {
	t, err := s.client.Time(ctx)
	if err == nil {
		s.logger.Info("liveness probe ok", "server_time", t.Time)
		return nil
	}

	s.logger.Warn("liveness probe failed, forcing token renewal", "error", err)

	if err := s.renew(ctx, true); err != nil {
		return fmt.Errorf("%w: renew: %w", ErrLivenessProbe, err)
	}

	t, err = s.client.Time(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLivenessProbe, err)
	}

	s.logger.Info("liveness probe ok", "server_time", t.Time, "attempt", 2)
	return nil
}

func (s *Supervisor) listAccounts(ctx context.Context) {
	resp, err := s.client.Accounts(ctx)
	if err != nil {
		s.logger.Warn("failed to list accounts", "error", err)
		return
	}

	for _, a := range resp.Accounts {
		s.logger.Debug("account", "number", a.Number, "type", a.Type, "status", a.Status)
	}
	s.logger.Info("accounts available", "count", len(resp.Accounts), "user_id", resp.UserID)
}
