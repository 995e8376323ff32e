// SPDX-License-Identifier: Apache-2.0

package workers

import (
	"context"
	"time"

	"github.com/ItsRqtl/TeachCraft/internal/logger"
)

// TokenDeleter removes expired single-use tokens and reports how many rows
// were removed. *store.UsersDAO satisfies it.
type TokenDeleter interface {
	DeleteExpiredTokens(ctx context.Context) (int64, error)
}

// TokenCleanup periodically purges expired verification and recovery tokens.
// Expired tokens are already rejected at consumption time; the worker only
// keeps the table from accumulating dead rows.
type TokenCleanup struct {
	tokens   TokenDeleter
	interval time.Duration
	logger   *logger.Logger
}

func NewTokenCleanup(tokens TokenDeleter, interval time.Duration, logger *logger.Logger) *TokenCleanup {
	if interval <= 0 {
		interval = time.Hour
	}
	return &TokenCleanup{
		tokens:   tokens,
		interval: interval,
		logger:   logger,
	}
}

// Run implements [Worker]. It sweeps once per interval until ctx is
// cancelled; a failed sweep is logged and retried on the next tick.
func (t *TokenCleanup) Run(ctx context.Context) {
	t.logger.Info().Dur("interval", t.interval).Msg("token cleanup worker started")

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info().Msg("token cleanup worker stopped")
			return
		case <-ticker.C:
			t.sweep(ctx)
		}
	}
}

func (t *TokenCleanup) sweep(ctx context.Context) {
	deleted, err := t.tokens.DeleteExpiredTokens(ctx)
	if err != nil {
		t.logger.Err(err).Msg("expired token sweep failed")
		return
	}
	if deleted > 0 {
		t.logger.Info().Int64("deleted", deleted).Msg("expired tokens purged")
	}
}
