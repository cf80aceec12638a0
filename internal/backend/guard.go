package backend

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Guard applies a shared rate limit and an optional timeout to backend calls.
type Guard struct {
	limiter *rate.Limiter
	timeout time.Duration
}

// NewGuard builds a Guard from cfg. A zero request rate disables limiting.
func NewGuard(cfg *Config) *Guard {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	return &Guard{
		limiter: rate.NewLimiter(limit, max(cfg.Burst, 1)),
		timeout: cfg.TimeoutDuration(),
	}
}

// Do waits for a rate token, then runs fn under the configured timeout.
func (g *Guard) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limit: %w", ErrBackend, err)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	return fn(ctx)
}

type guardedCompleter struct {
	next  Completer
	guard *Guard
}

// GuardCompleter wraps c with g.
func GuardCompleter(c Completer, g *Guard) Completer {
	return &guardedCompleter{next: c, guard: g}
}

func (c *guardedCompleter) Complete(ctx context.Context, req Request) (string, error) {
	var out string
	err := c.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = c.next.Complete(ctx, req)
		return err
	})
	return out, err
}

type guardedImages struct {
	next  ImageSynth
	guard *Guard
}

// GuardImages wraps s with g.
func GuardImages(s ImageSynth, g *Guard) ImageSynth {
	return &guardedImages{next: s, guard: g}
}

func (s *guardedImages) Generate(ctx context.Context, prompt, size string) (Image, error) {
	var out Image
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.next.Generate(ctx, prompt, size)
		return err
	})
	return out, err
}

type guardedSpeech struct {
	next  SpeechSynth
	guard *Guard
}

// GuardSpeech wraps s with g.
func GuardSpeech(s SpeechSynth, g *Guard) SpeechSynth {
	return &guardedSpeech{next: s, guard: g}
}

func (s *guardedSpeech) Synthesize(ctx context.Context, text string, voice Voice) (Audio, error) {
	var out Audio
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.next.Synthesize(ctx, text, voice)
		return err
	})
	return out, err
}
