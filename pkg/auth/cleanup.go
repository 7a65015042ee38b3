package auth

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner periodically deletes dead sessions and stale reset tokens. Expiry
// is always enforced on read; the cleaner only keeps the tables small.
type Cleaner struct {
	sessions  *SessionService
	resets    *PasswordResetService
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
}

// NewCleaner creates a cleaner. Sessions are kept for retention after they
// expire or are revoked.
func NewCleaner(sessions *SessionService, resets *PasswordResetService, interval, retention time.Duration, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		sessions:  sessions,
		resets:    resets,
		interval:  interval,
		retention: retention,
		logger:    logger,
	}
}

// Run cleans once per interval until ctx is done.
func (c *Cleaner) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single cleanup pass. Failures are logged and retried
// on the next pass.
func (c *Cleaner) RunOnce(ctx context.Context) {
	sessions, err := c.sessions.CleanupExpired(ctx, c.retention)
	if err != nil {
		c.logger.ErrorContext(ctx, "session cleanup failed", "error", err)
	}
	resets, err := c.resets.CleanupExpired(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "password reset cleanup failed", "error", err)
	}
	if sessions > 0 || resets > 0 {
		c.logger.InfoContext(ctx, "cleanup completed", "sessions_deleted", sessions, "resets_deleted", resets)
	}
}
