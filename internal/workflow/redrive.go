package workflow

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/handoff"
)

// Reshop resolves a product again for the latest recommendation. With
// coordinates the location is refreshed first; otherwise the current
// location is used. A non-nil id must name the latest cycle.
func (p *Pipeline) Reshop(ctx context.Context, id uuid.UUID, coords *Coordinates) (Cycle, error) {
	in, err := p.redriveInput(id)
	if err != nil {
		return Cycle{}, err
	}

	if coords != nil {
		in.location = p.rt.Location.Update(ctx, coords.Latitude, coords.Longitude)
	} else {
		in.location = p.rt.Location.Current()
	}

	apply, _ := p.shop(ctx, in)

	c, ok := p.session.update(in.id, func(c *Cycle) {
		c.Location = in.location
		delete(c.Errors, TaskShopping)
		apply(c)
	})
	if !ok {
		return Cycle{}, ErrStaleCycle
	}
	p.save(ctx, c)

	p.logger.InfoContext(ctx, "shopping re-resolved", "cycle", in.id, "city", in.location.City)
	return c, nil
}

// Resend hands the latest recommendation to a generation consumer again.
// A consumer failure is recorded on the cycle; only a missing consumer is
// returned as an error.
func (p *Pipeline) Resend(ctx context.Context, id uuid.UUID) (Cycle, error) {
	in, err := p.redriveInput(id)
	if err != nil {
		return Cycle{}, err
	}

	apply, sendErr := p.handoff(ctx, in)

	c, ok := p.session.update(in.id, func(c *Cycle) {
		delete(c.Errors, TaskHandoff)
		if sendErr != nil {
			c.fail(TaskHandoff, sendErr)
		}
		apply(c)
	})
	if !ok {
		return Cycle{}, ErrStaleCycle
	}
	p.save(ctx, c)

	if errors.Is(sendErr, handoff.ErrNoConsumer) {
		return c, sendErr
	}

	p.logger.InfoContext(ctx, "recommendation resent", "cycle", in.id, "outcome", c.Handoff.Outcome)
	return c, nil
}

// redriveInput rebuilds the fan-out input of the latest cycle. Re-drives
// are refused while a cycle is analysing or recommending.
func (p *Pipeline) redriveInput(id uuid.UUID) (fanoutInput, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fanoutInput{}, ErrClosed
	}

	st, _, c := p.session.Snapshot()
	if st == Analyzing || st == Recommending {
		return fanoutInput{}, ErrBusy
	}
	if c == nil || c.Recommendation == nil {
		return fanoutInput{}, ErrNoRecommendation
	}
	if id != uuid.Nil && id != c.ID {
		return fanoutInput{}, ErrStaleCycle
	}

	in := fanoutInput{
		id:       c.ID,
		critique: c.Critique,
		location: c.Location,
		rec:      *c.Recommendation,
	}
	if c.Room != nil {
		in.room = *c.Room
	}
	return in, nil
}
