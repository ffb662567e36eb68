package jobs

import (
	"context"
	"log/slog"
	"time"
)

// TokenCleaner deletes refresh tokens past their expiry
type TokenCleaner interface {
	CleanupExpired(ctx context.Context) (int, error)
}

// TokenCleanup periodically removes expired refresh tokens
type TokenCleanup struct {
	*loop
	tokens TokenCleaner
}

// NewTokenCleanup creates a token cleanup job. A zero interval defaults to
// six hours.
func NewTokenCleanup(tokens TokenCleaner, interval time.Duration) *TokenCleanup {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	j := &TokenCleanup{tokens: tokens}
	j.loop = newLoop("token_cleanup", interval, 5*time.Second, j.RunOnce)
	return j
}

// RunOnce deletes expired tokens once
func (j *TokenCleanup) RunOnce(ctx context.Context) error {
	n, err := j.tokens.CleanupExpired(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Info("expired refresh tokens removed", slog.Int("count", n))
	}
	return nil
}
