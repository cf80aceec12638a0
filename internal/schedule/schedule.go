// Package schedule runs named tasks after a delay. Timers backs the running
// service; Manual gives tests a virtual clock.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/stager/pkg/lifecycle"
)

// Scheduler runs fn once after delay. After reports false when the
// scheduler no longer accepts work.
type Scheduler interface {
	After(name string, delay time.Duration, fn func(ctx context.Context)) bool
}

// Timers schedules tasks on time.AfterFunc. Tasks receive a context that is
// cancelled when the scheduler stops.
type Timers struct {
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	mu      sync.Mutex
	next    uint64
	pending map[uint64]*time.Timer
	running sync.WaitGroup
	closed  bool
}

// New creates a running Timers scheduler.
func New(logger *slog.Logger) *Timers {
	ctx, cancel := context.WithCancel(context.Background())
	return &Timers{
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger.With("system", "schedule"),
		pending: make(map[uint64]*time.Timer),
	}
}

// Start stops the scheduler when the coordinator shuts down.
func (t *Timers) Start(lc *lifecycle.Coordinator) {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		t.Stop()
	})
}

func (t *Timers) After(name string, delay time.Duration, fn func(ctx context.Context)) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		t.logger.Warn("task rejected, scheduler stopped", "task", name)
		return false
	}

	id := t.next
	t.next++

	t.running.Add(1)
	t.pending[id] = time.AfterFunc(max(delay, 0), func() {
		defer t.running.Done()

		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()

		if t.ctx.Err() != nil {
			return
		}

		t.logger.Debug("task running", "task", name)
		fn(t.ctx)
	})

	return true
}

// Pending returns the number of tasks whose timers have not fired.
func (t *Timers) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Stop rejects new tasks, drops pending ones, cancels running ones, and
// waits for them to return.
func (t *Timers) Stop() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true

	dropped := 0
	for id, timer := range t.pending {
		if timer.Stop() {
			t.running.Done()
			dropped++
		}
		delete(t.pending, id)
	}
	t.mu.Unlock()

	t.cancel()
	t.running.Wait()

	t.logger.Info("scheduler stopped", "dropped", dropped)
}
