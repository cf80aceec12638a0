package workflow

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/stager/internal/backend"
	"github.com/JaimeStill/stager/internal/codec"
	"github.com/JaimeStill/stager/internal/fallback"
	"github.com/JaimeStill/stager/internal/location"
	"github.com/JaimeStill/stager/internal/prompts"
	"github.com/JaimeStill/stager/internal/scene"
	"github.com/JaimeStill/stager/pkg/formatting"
)

// analyzeNode joins room analysis, critique, location, and capture upload.
// None of the branches fail the node: each degrades to a fallback value.
func (p *Pipeline) analyzeNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		id, err := get[uuid.UUID](s, KeyCycle)
		if err != nil {
			return s, err
		}
		prompt, err := get[string](s, KeyPrompt)
		if err != nil {
			return s, err
		}
		capture, err := get[codec.Capture](s, KeyCapture)
		if err != nil {
			return s, err
		}

		var (
			room       scene.RoomContext
			critique   string
			loc        location.UserLocation
			captureKey string
		)

		g, gctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			room = p.analyzeRoom(gctx, id, prompt, capture)
			return nil
		})

		g.Go(func() error {
			critique = p.critique(gctx, id, prompt, capture)
			return nil
		})

		g.Go(func() error {
			if v, ok := s.Get(KeyCoordinates); ok {
				c := v.(Coordinates)
				loc = p.rt.Location.Update(gctx, c.Latitude, c.Longitude)
				return nil
			}
			loc = p.rt.Location.Current()
			return nil
		})

		g.Go(func() error {
			captureKey = p.storeCapture(gctx, id, capture)
			return nil
		})

		_ = g.Wait()

		c, ok := p.session.update(id, func(c *Cycle) {
			c.Room = &room
			c.Critique = critique
			c.Location = loc
			c.CaptureKey = captureKey
		})
		if ok {
			p.save(ctx, c)
		}

		p.logger.InfoContext(
			ctx, "analysis complete",
			"cycle", id,
			"room_type", room.RoomType,
			"environment", room.Environment,
			"city", loc.City,
		)

		s = s.Set(KeyRoom, room)
		s = s.Set(KeyCritique, critique)
		s = s.Set(KeyLocation, loc)
		return s, nil
	})
}

func (p *Pipeline) analyzeRoom(ctx context.Context, id uuid.UUID, prompt string, capture codec.Capture) scene.RoomContext {
	text, err := p.ask(ctx, prompts.StageRoom, "User request: "+prompt, capture.DataURI)
	if err != nil {
		p.stageFailed(ctx, id, TaskRoom, err)
		return fallback.Room(text)
	}

	room, err := ParseRoom(text)
	if err != nil {
		p.stageFailed(ctx, id, TaskRoom, err)
		return fallback.Room(text)
	}
	return room
}

// ParseRoom parses a room analysis response, filling missing fields from
// the fallback room for the same text.
func ParseRoom(text string) (scene.RoomContext, error) {
	room, err := formatting.Parse[scene.RoomContext](text)
	if err != nil {
		return scene.RoomContext{}, err
	}
	room = fallback.Complete(room, text)
	room.Environment = scene.ParseEnvironment(string(room.Environment))
	return room, nil
}

func (p *Pipeline) critique(ctx context.Context, id uuid.UUID, prompt string, capture codec.Capture) string {
	text, err := p.ask(ctx, prompts.StageCritique, "User request: "+prompt, capture.DataURI)
	if err != nil {
		p.stageFailed(ctx, id, TaskCritique, err)
		return ""
	}
	return strings.TrimSpace(text)
}

func (p *Pipeline) storeCapture(ctx context.Context, id uuid.UUID, capture codec.Capture) string {
	key := fmt.Sprintf("captures/%s.png", id)
	if err := p.rt.Storage.Upload(ctx, key, bytes.NewReader(capture.PNG), "image/png"); err != nil {
		p.stageFailed(ctx, id, TaskCapture, err)
		return ""
	}
	return key
}

// ask composes the stage instructions and sends one completion request.
func (p *Pipeline) ask(ctx context.Context, stage prompts.Stage, text string, images ...string) (string, error) {
	system, err := prompts.Compose(ctx, p.rt.Prompts, stage)
	if err != nil {
		return "", fmt.Errorf("compose %s prompt: %w", stage, err)
	}
	return p.rt.Completer.Complete(ctx, backend.Request{
		System: system,
		Text:   text,
		Images: images,
	})
}

// stageFailed logs a recovered stage failure and records it on the cycle.
func (p *Pipeline) stageFailed(ctx context.Context, id uuid.UUID, stage string, err error) {
	p.logger.WarnContext(ctx, "stage degraded", "cycle", id, "stage", stage, "error", err)
	p.session.update(id, func(c *Cycle) { c.fail(stage, err) })
}
