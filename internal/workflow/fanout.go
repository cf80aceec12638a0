package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/stager/internal/location"
	"github.com/JaimeStill/stager/internal/scene"
)

// fanoutInput is the cycle context captured by every fan-out task.
type fanoutInput struct {
	id       uuid.UUID
	room     scene.RoomContext
	critique string
	location location.UserLocation
	rec      scene.Recommendation
}

// commit applies a task result to the cycle record.
type commit func(c *Cycle)

type task struct {
	name  string
	delay time.Duration
	run   func(ctx context.Context, in fanoutInput) (commit, error)
}

// fanoutNode schedules the presentation tasks and returns without waiting
// for them. Handoff is scheduled last.
func (p *Pipeline) fanoutNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		in, err := p.fanoutInput(s)
		if err != nil {
			return s, err
		}

		if !p.session.transition(in.id, FanningOut, StatusInProgress) {
			return s, fmt.Errorf("cycle %s superseded", in.id)
		}

		d := p.cfg.Delays()
		tasks := []task{
			{TaskPreview, d.Preview, p.preview},
			{TaskNarration, d.Narration, p.narration},
			{TaskShopping, d.Shopping, p.shop},
			{TaskHandoff, d.Handoff, p.handoff},
		}

		names := make([]string, len(tasks))
		for i, t := range tasks {
			names[i] = t.name
		}
		p.session.update(in.id, func(c *Cycle) { c.Pending = names })

		for _, t := range tasks {
			if !p.schedule(in, t) {
				p.session.taskDone(in.id, t.name)
			}
		}

		p.logger.InfoContext(ctx, "fan-out scheduled", "cycle", in.id, "tasks", len(tasks))
		return s, nil
	})
}

func (p *Pipeline) fanoutInput(s state.State) (fanoutInput, error) {
	var in fanoutInput
	var err error

	if in.id, err = get[uuid.UUID](s, KeyCycle); err != nil {
		return in, err
	}
	if in.room, err = get[scene.RoomContext](s, KeyRoom); err != nil {
		return in, err
	}
	if in.critique, err = get[string](s, KeyCritique); err != nil {
		return in, err
	}
	if in.location, err = get[location.UserLocation](s, KeyLocation); err != nil {
		return in, err
	}
	if in.rec, err = get[scene.Recommendation](s, KeyRecommendation); err != nil {
		return in, err
	}
	return in, nil
}

// schedule registers t with the scheduler. The task checks that its cycle
// is still current before running and again before committing; results for
// a superseded cycle are dropped.
func (p *Pipeline) schedule(in fanoutInput, t task) bool {
	return p.rt.Scheduler.After(t.name, t.delay, func(ctx context.Context) {
		if !p.session.IsCurrent(in.id) {
			p.logger.InfoContext(ctx, "task skipped for superseded cycle", "cycle", in.id, "task", t.name)
			return
		}

		apply, err := t.run(ctx, in)
		if err != nil {
			p.logger.WarnContext(ctx, "task failed", "cycle", in.id, "task", t.name, "error", err)
		}

		_, ok := p.session.update(in.id, func(c *Cycle) {
			if err != nil {
				c.fail(t.name, err)
			}
			if apply != nil {
				apply(c)
			}
		})
		if !ok {
			p.logger.InfoContext(ctx, "late result dropped", "cycle", in.id, "task", t.name)
			return
		}

		c, ok := p.session.taskDone(in.id, t.name)
		if !ok {
			return
		}
		p.save(ctx, c)

		p.logger.InfoContext(ctx, "task complete", "cycle", in.id, "task", t.name, "pending", len(c.Pending))
	})
}
