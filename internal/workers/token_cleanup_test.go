// SPDX-License-Identifier: Apache-2.0

package workers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ItsRqtl/TeachCraft/internal/logger"
)

type mockTokenDeleter struct {
	sweeps  atomic.Int64
	deleted int64
	err     error
}

func (m *mockTokenDeleter) DeleteExpiredTokens(ctx context.Context) (int64, error) {
	m.sweeps.Add(1)
	return m.deleted, m.err
}

func TestTokenCleanup_SweepsPeriodically(t *testing.T) {
	tokens := &mockTokenDeleter{deleted: 2}
	w := NewTokenCleanup(tokens, 10*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	deadline := time.After(2 * time.Second)
	for tokens.sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("expected at least two sweeps")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
}

func TestTokenCleanup_SweepErrorIsRetried(t *testing.T) {
	tokens := &mockTokenDeleter{err: errors.New("database gone")}
	w := NewTokenCleanup(tokens, 10*time.Millisecond, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	deadline := time.After(2 * time.Second)
	for tokens.sweeps.Load() < 2 {
		select {
		case <-deadline:
			t.Fatal("expected sweeps to continue after an error")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
}

func TestNewTokenCleanup_DefaultInterval(t *testing.T) {
	w := NewTokenCleanup(&mockTokenDeleter{}, 0, logger.Nop())

	if w.interval != time.Hour {
		t.Errorf("expected default interval of 1h, got %v", w.interval)
	}
}
