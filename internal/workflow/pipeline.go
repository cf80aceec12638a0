package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	gaoconfig "github.com/JaimeStill/go-agents-orchestration/pkg/config"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/stager/internal/codec"
	"github.com/JaimeStill/stager/internal/history"
	"github.com/JaimeStill/stager/internal/scene"
	"github.com/JaimeStill/stager/pkg/lifecycle"
)

// Pipeline drives analysis cycles through the state graph.
type Pipeline struct {
	cfg     *Config
	rt      *Runtime
	session *Session
	logger  *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates a Pipeline with a fresh Session.
func New(cfg *Config, rt *Runtime) *Pipeline {
	ctx, cancel := context.WithCancel(context.Background())
	return &Pipeline{
		cfg:     cfg,
		rt:      rt,
		session: NewSession(cfg.HistoryCapacity),
		logger:  rt.Logger.With("workflow", "analysis"),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start closes the pipeline when the coordinator shuts down.
func (p *Pipeline) Start(lc *lifecycle.Coordinator) {
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		p.Close()
	})
}

// Close rejects new cycles, cancels running ones, and waits for them.
func (p *Pipeline) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// Wait blocks until running cycles have returned to Idle. Fan-out tasks
// scheduled by those cycles may still be pending.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Session returns the pipeline session.
func (p *Pipeline) Session() *Session {
	return p.session
}

// Trigger admits a cycle and runs it in the background. The returned cycle
// is the admitted record in the Analyzing state.
func (p *Pipeline) Trigger(ctx context.Context, capture Capture) (Cycle, error) {
	c, prepared, coords, err := p.admit(ctx, capture)
	if err != nil {
		return Cycle{}, err
	}

	go func() {
		defer p.wg.Done()
		p.execute(c, prepared, coords)
	}()

	return c, nil
}

// Run admits a cycle and blocks until it returns to Idle. Fan-out tasks
// are scheduled but not awaited.
func (p *Pipeline) Run(ctx context.Context, capture Capture) (Cycle, error) {
	c, prepared, coords, err := p.admit(ctx, capture)
	if err != nil {
		return Cycle{}, err
	}
	defer p.wg.Done()

	return p.execute(c, prepared, coords), nil
}

// admit validates input and claims the session. On success the caller owns
// one wait group slot.
func (p *Pipeline) admit(ctx context.Context, capture Capture) (Cycle, *codec.Capture, *Coordinates, error) {
	prompt := strings.TrimSpace(capture.Prompt)
	if len(capture.Image) == 0 || prompt == "" {
		return Cycle{}, nil, nil, ErrMissingInput
	}

	prepared, err := codec.Prepare(capture.Image, p.cfg.MaxImageDimension)
	if err != nil {
		return Cycle{}, nil, nil, fmt.Errorf("%w: %w", ErrMissingInput, err)
	}

	var coords *Coordinates
	if capture.Latitude != nil && capture.Longitude != nil {
		coords = &Coordinates{Latitude: *capture.Latitude, Longitude: *capture.Longitude}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return Cycle{}, nil, nil, ErrClosed
	}

	c, err := p.session.begin(prompt)
	if err != nil {
		p.logger.WarnContext(ctx, "trigger rejected", "error", err)
		return Cycle{}, nil, nil, err
	}
	p.wg.Add(1)

	p.logger.InfoContext(
		ctx, "cycle started",
		"cycle", c.ID,
		"width", prepared.Width,
		"height", prepared.Height,
	)
	return c, prepared, coords, nil
}

func (p *Pipeline) execute(c Cycle, capture *codec.Capture, coords *Coordinates) Cycle {
	s := state.New(nil)
	s = s.Set(KeyCycle, c.ID)
	s = s.Set(KeyPrompt, c.Prompt)
	s = s.Set(KeyCapture, *capture)
	if coords != nil {
		s = s.Set(KeyCoordinates, *coords)
	}

	err := p.runGraph(s)
	if err != nil {
		p.logger.Error("cycle failed", "cycle", c.ID, "error", err)
		p.session.update(c.ID, func(c *Cycle) { c.fail(TaskGraph, err) })
	}

	final, ok := p.session.release(c.ID, err != nil)
	if !ok {
		return c
	}
	p.save(p.ctx, final)

	p.logger.Info("cycle released", "cycle", c.ID, "status", final.Status)
	return final
}

func (p *Pipeline) runGraph(s state.State) error {
	graph, err := p.buildGraph()
	if err != nil {
		return fmt.Errorf("build graph: %w", err)
	}
	if _, err := graph.Execute(p.ctx, s); err != nil {
		return fmt.Errorf("execute graph: %w", err)
	}
	return nil
}

func (p *Pipeline) buildGraph() (state.StateGraph, error) {
	cfg := gaoconfig.DefaultGraphConfig("stager-analysis")
	cfg.Observer = "noop"

	graph, err := state.NewGraph(cfg)
	if err != nil {
		return nil, err
	}

	if err := graph.AddNode("analyze", p.analyzeNode()); err != nil {
		return nil, err
	}
	if err := graph.AddNode("recommend", p.recommendNode()); err != nil {
		return nil, err
	}
	if err := graph.AddNode("fanout", p.fanoutNode()); err != nil {
		return nil, err
	}

	if err := graph.AddEdge("analyze", "recommend", nil); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("recommend", "fanout", nil); err != nil {
		return nil, err
	}

	if err := graph.SetEntryPoint("analyze"); err != nil {
		return nil, err
	}
	if err := graph.SetExitPoint("fanout"); err != nil {
		return nil, err
	}

	return graph, nil
}

func (p *Pipeline) save(ctx context.Context, c Cycle) {
	if p.rt.Archive == nil {
		return
	}
	if err := p.rt.Archive.Save(ctx, c); err != nil {
		p.logger.WarnContext(ctx, "archive cycle failed", "cycle", c.ID, "error", err)
	}
}

// Recommendation returns the most recent recommendation.
func (p *Pipeline) Recommendation() (scene.Recommendation, error) {
	rec, ok := p.session.Recommendation()
	if !ok {
		return scene.Recommendation{}, ErrNoRecommendation
	}
	return rec, nil
}

// History returns a snapshot of the recommendation history.
func (p *Pipeline) History() []history.Fingerprint {
	return p.session.History().Snapshot()
}

// ClearHistory forgets every prior recommendation.
func (p *Pipeline) ClearHistory() {
	p.session.History().Clear()
	p.logger.Info("recommendation history cleared")
}

// Busy reports whether a cycle is in flight.
func (p *Pipeline) Busy() bool {
	return p.session.Busy()
}

// Status returns the driver-facing status.
func (p *Pipeline) Status() Status {
	st, text, c := p.session.Snapshot()
	return Status{
		State:    st,
		Text:     text,
		Busy:     st != Idle,
		Location: p.rt.Location.Current(),
		Cycle:    c,
	}
}

// Cycle returns the latest cycle when its id matches.
func (p *Pipeline) Cycle(id uuid.UUID) (Cycle, bool) {
	return p.session.cycle(id)
}

func get[T any](s state.State, key string) (T, error) {
	var zero T
	v, ok := s.Get(key)
	if !ok {
		return zero, fmt.Errorf("missing %s in state", key)
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%s is %T, not %T", key, v, zero)
	}
	return t, nil
}
