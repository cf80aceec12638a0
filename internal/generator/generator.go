// Package generator is the consumer side of the handoff. A Generator accepts
// one single-item generation at a time; a request that arrives while it is
// busy is deferred and re-checked after a delay until the Generator is free
// or the retry ceiling is reached.
package generator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/handoff"
	"github.com/JaimeStill/stager/internal/history"
	"github.com/JaimeStill/stager/internal/schedule"
	"github.com/JaimeStill/stager/pkg/lifecycle"
)

var (
	ErrRetriesExhausted = errors.New("generation retries exhausted")
	ErrStopped          = errors.New("generator stopped")
	ErrBusy             = errors.New("generation in progress")
	ErrNoTarget         = errors.New("no target item")
	ErrCycleMismatch    = errors.New("cycle is not the current generation")
)

const (
	statusWaiting = "waiting"
	statusError   = "error occurred"
)

// Status is a point-in-time view of a Generator.
type Status struct {
	Generating bool                  `json:"generating"`
	Text       string                `json:"status"`
	Current    *AssetRequest         `json:"current,omitempty"`
	Deferred   int                   `json:"deferred"`
	Completed  int                   `json:"completed"`
	Failed     int                   `json:"failed"`
	Dropped    int                   `json:"dropped"`
	History    []history.Fingerprint `json:"history"`
	LastError  string                `json:"lastError,omitempty"`
}

// Generator is a handoff consumer that submits asset requests to a sink.
type Generator struct {
	cfg    *Config
	sink   AssetSink
	sched  schedule.Scheduler
	logger *slog.Logger
	eps    *handoff.Endpoints

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu         sync.Mutex
	closed     bool
	generating bool
	token      uint64
	epoch      uint64
	deferred   int
	current    *AssetRequest
	history    []history.Fingerprint
	text       string
	completed  int
	failed     int
	dropped    int
	lastErr    string
}

// New creates a Generator exposing the primary handoff method.
func New(cfg *Config, sink AssetSink, sched schedule.Scheduler, logger *slog.Logger) *Generator {
	g := newGenerator(cfg, sink, sched, logger.With("system", "generator"))
	g.eps.Expose(handoff.TriggerSingleItemGeneration, g.Receive)
	return g
}

func newGenerator(cfg *Config, sink AssetSink, sched schedule.Scheduler, logger *slog.Logger) *Generator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Generator{
		cfg:    cfg,
		sink:   sink,
		sched:  sched,
		logger: logger,
		eps:    handoff.NewEndpoints(),
		ctx:    ctx,
		cancel: cancel,
		text:   statusWaiting,
	}
}

// Start closes the Generator when the coordinator shuts down.
func (g *Generator) Start(lc *lifecycle.Coordinator) {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		g.Close()
	})
}

// Close rejects new work, cancels in-flight submissions, and waits for them.
func (g *Generator) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()

	g.cancel()
	g.wg.Wait()
}

func (g *Generator) Endpoints() *handoff.Endpoints {
	return g.eps
}

func (g *Generator) IsGenerating() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generating
}

// Receive accepts p, or defers it when a generation is in flight. The
// payload is cloned before anything is retained.
func (g *Generator) Receive(_ context.Context, p handoff.Payload) error {
	g.mu.Lock()
	epoch := g.epoch
	g.mu.Unlock()

	return g.attempt(p.Clone(), 0, epoch)
}

func (g *Generator) attempt(p handoff.Payload, retries int, epoch uint64) error {
	g.mu.Lock()

	if g.closed {
		g.mu.Unlock()
		return ErrStopped
	}

	if epoch != g.epoch {
		g.mu.Unlock()
		g.logger.Info("deferred request dropped after reset", "cycle", p.Cycle, "retries", retries)
		return nil
	}

	if g.generating {
		if g.cfg.MaxRetries > 0 && retries >= g.cfg.MaxRetries {
			g.dropped++
			g.mu.Unlock()
			g.logger.Warn("generation request dropped", "cycle", p.Cycle, "retries", retries)
			return ErrRetriesExhausted
		}
		g.deferred++
		g.mu.Unlock()

		return g.deferRetry(p, retries, epoch)
	}

	req := newAssetRequest(p, g.cfg.Enhance(), retries)
	g.history = slices.Clone(p.History)
	g.launch(req)
	return nil
}

// Regenerate resubmits the retained request under a new id. A non-nil
// cycle must match the retained request.
func (g *Generator) Regenerate(cycle uuid.UUID) (AssetRequest, error) {
	g.mu.Lock()

	var err error
	switch {
	case g.closed:
		err = ErrStopped
	case g.current == nil:
		err = ErrNoTarget
	case cycle != uuid.Nil && cycle != g.current.Cycle:
		err = ErrCycleMismatch
	case g.generating:
		err = ErrBusy
	}
	if err != nil {
		g.mu.Unlock()
		return AssetRequest{}, err
	}

	req := *g.current
	req.ID = uuid.New()
	req.History = slices.Clone(req.History)
	req.Retries = 0
	req.RequestedAt = time.Now().UTC()

	g.launch(req)
	return req, nil
}

// launch marks req in flight and submits it. It is called with mu held and
// releases it.
func (g *Generator) launch(req AssetRequest) {
	g.generating = true
	g.token++
	token := g.token
	g.current = &req
	g.text = fmt.Sprintf("Generating %s...", req.ItemType)
	g.wg.Add(1)
	g.mu.Unlock()

	g.logger.Info(
		"generation started",
		"id", req.ID,
		"cycle", req.Cycle,
		"item_type", req.ItemType,
		"retries", req.Retries,
	)

	go func() {
		defer g.wg.Done()
		err := g.sink.Submit(g.ctx, req)
		g.hold(token, req, err)
	}()
}

// hold keeps a successful generation busy for the settle delay before
// settling it.
func (g *Generator) hold(token uint64, req AssetRequest, err error) {
	delay := g.cfg.SettleDelayDuration()
	if err != nil || delay <= 0 {
		g.settle(token, req, err)
		return
	}

	ok := g.sched.After("generator.settle", delay, func(context.Context) {
		g.settle(token, req, nil)
	})
	if !ok {
		g.settle(token, req, nil)
	}
}

func (g *Generator) deferRetry(p handoff.Payload, retries int, epoch uint64) error {
	ok := g.sched.After("generator.retry", g.cfg.RetryDelayDuration(), func(context.Context) {
		g.mu.Lock()
		g.deferred--
		g.mu.Unlock()

		if err := g.attempt(p, retries+1, epoch); err != nil {
			g.logger.Warn("deferred generation not accepted", "cycle", p.Cycle, "error", err)
		}
	})
	if !ok {
		g.mu.Lock()
		g.deferred--
		g.mu.Unlock()
		return ErrStopped
	}

	g.logger.Info(
		"consumer busy, retry scheduled",
		"cycle", p.Cycle,
		"retry", retries+1,
		"delay", g.cfg.RetryDelay,
	)
	return nil
}

// settle ends the generation identified by token. Completions from a
// generation that was reset or superseded are ignored.
func (g *Generator) settle(token uint64, req AssetRequest, err error) {
	g.mu.Lock()
	if token != g.token || !g.generating {
		g.mu.Unlock()
		g.logger.Info("stale generation completion ignored", "id", req.ID)
		return
	}

	g.generating = false
	if err != nil {
		g.failed++
		g.lastErr = err.Error()
		g.text = statusError
	} else {
		g.completed++
		g.lastErr = ""
		g.text = fmt.Sprintf("Generated %s", req.ItemType)
	}
	g.mu.Unlock()

	if err != nil {
		g.logger.Error("generation failed", "id", req.ID, "cycle", req.Cycle, "error", err)
		return
	}
	g.logger.Info("generation complete", "id", req.ID, "cycle", req.Cycle)
}

// Reset clears the in-flight flag and current request. Deferred requests
// and completions from before the reset are discarded.
func (g *Generator) Reset() {
	g.mu.Lock()
	g.generating = false
	g.token++
	g.epoch++
	g.current = nil
	g.text = statusWaiting
	g.lastErr = ""
	g.mu.Unlock()

	g.logger.Info("generator reset")
}

// ClearHistory forgets the consumer's copy of the recommendation history.
func (g *Generator) ClearHistory() {
	g.mu.Lock()
	g.history = nil
	g.mu.Unlock()
}

// Status returns a snapshot of the Generator.
func (g *Generator) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := Status{
		Generating: g.generating,
		Text:       g.text,
		Deferred:   g.deferred,
		Completed:  g.completed,
		Failed:     g.failed,
		Dropped:    g.dropped,
		History:    slices.Clone(g.history),
		LastError:  g.lastErr,
	}
	if g.current != nil {
		current := *g.current
		current.History = slices.Clone(current.History)
		s.Current = &current
	}
	return s
}

// Factory is the secondary consumer. It exposes the factory handoff methods
// and runs its own Generator.
type Factory struct {
	*Generator
}

// NewFactory creates a Factory with its own busy state.
func NewFactory(cfg *Config, sink AssetSink, sched schedule.Scheduler, logger *slog.Logger) *Factory {
	g := newGenerator(cfg, sink, sched, logger.With("system", "factory"))
	g.eps.Expose(handoff.ReceiveSingleItemRequest, g.Receive)
	g.eps.Expose(handoff.GenerateItem, g.Receive)
	return &Factory{Generator: g}
}
