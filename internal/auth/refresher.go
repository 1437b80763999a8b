package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRefreshMargin is how long before expiry the Refresher renews.
const DefaultRefreshMargin = 100 * time.Millisecond

// ExpirySource reports when the current access token expires.
type ExpirySource interface {
	ExpiresAt() time.Time
}

// RenewFunc forces a renewal.
type RenewFunc func(ctx context.Context) error

// Refresher renews the access token just before it expires, forever.
type Refresher struct {
	expiry ExpirySource
	renew  RenewFunc
	margin time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewRefresher creates a Refresher for session. If renew is nil, renewals
// call session.EnsureAccess with force set.
func NewRefresher(session *Session, renew RenewFunc, logger *slog.Logger) *Refresher {
	if renew == nil {
		renew = func(ctx context.Context) error {
			_, err := session.EnsureAccess(ctx, true)
			return err
		}
	}
	return newRefresher(session, renew, logger)
}

func newRefresher(expiry ExpirySource, renew RenewFunc, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{
		expiry: expiry,
		renew:  renew,
		margin: DefaultRefreshMargin,
		logger: logger,
		now:    time.Now,
	}
}

// Run sleeps until margin before expiry, renews, and repeats against the new
// expiry. It returns only on cancellation or a renewal failure.
func (r *Refresher) Run(ctx context.Context) error {
	r.logger.Info("token refresher started", "expires_at", r.expiry.ExpiresAt().Format(time.DateTime))

	for {
		wait := r.nextWait()
		r.logger.Debug("next token refresh", "in", wait)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}

		if err := r.renew(ctx); err != nil {
			return fmt.Errorf("refresh access token: %w", err)
		}
	}
}

// nextWait is expires_at - now - margin, floored at zero.
func (r *Refresher) nextWait() time.Duration {
	wait := r.expiry.ExpiresAt().Sub(r.now()) - r.margin
	if wait < 0 {
		return 0
	}
	return wait
}
