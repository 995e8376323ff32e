// SPDX-License-Identifier: Apache-2.0

package workers

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

// mockWorker is a test implementation of the Worker interface
// that tracks how many times Run was called.
type mockWorker struct {
	runCount atomic.Int64
}

func (m *mockWorker) Run(ctx context.Context) {
	m.runCount.Add(1)
	<-ctx.Done()
}

func TestWorkers_Run_AllWorkersAreStarted(t *testing.T) {
	w1 := &mockWorker{}
	w2 := &mockWorker{}
	w3 := &mockWorker{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ws := NewWorkers(w1, w2, w3)
	ws.Run(ctx)

	deadline := time.After(2 * time.Second)
	for _, w := range []*mockWorker{w1, w2, w3} {
		for w.runCount.Load() == 0 {
			select {
			case <-deadline:
				t.Fatal("worker was not started")
			case <-time.After(time.Millisecond):
			}
		}
	}
}

func TestWorkers_Run_Empty(t *testing.T) {
	ws := NewWorkers()

	// Should not panic on empty workers list
	ws.Run(context.Background())
}

func TestNewWorkers_SkipsNil(t *testing.T) {
	w := &mockWorker{}
	ws := NewWorkers(nil, w, nil)

	if len(ws.workers) != 1 {
		t.Errorf("expected 1 worker, got %d", len(ws.workers))
	}
}
