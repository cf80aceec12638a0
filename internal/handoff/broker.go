// Package handoff delivers finished recommendations to a downstream
// generation consumer. Consumers advertise entry points in an Endpoints
// registry; the Broker probes a primary consumer and then a factory
// consumer in fixed method order and invokes the first match exactly once.
package handoff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrNoConsumer is returned when neither consumer exposes a known method.
var ErrNoConsumer = errors.New("no generation consumer available")

// Consumer receives handoffs.
type Consumer interface {
	Endpoints() *Endpoints
	IsGenerating() bool
}

// Outcome is the terminal status of one send.
type Outcome string

const (
	Accepted   Outcome = "accepted"
	NoConsumer Outcome = "no_consumer"
	Failed     Outcome = "failed"
)

// Target identifies which consumer received a send.
type Target string

const (
	TargetPrimary Target = "primary"
	TargetFactory Target = "factory"
)

// Result reports how a send was delivered.
type Result struct {
	Outcome Outcome `json:"outcome"`
	Target  Target  `json:"target,omitempty"`
	Method  Method  `json:"method,omitempty"`
}

// Broker sends payloads to the first consumer exposing a known method.
type Broker struct {
	primary Consumer
	factory Consumer
	logger  *slog.Logger
}

// NewBroker creates a Broker. Either consumer may be nil.
func NewBroker(primary, factory Consumer, logger *slog.Logger) *Broker {
	return &Broker{
		primary: primary,
		factory: factory,
		logger:  logger.With("system", "handoff"),
	}
}

// Send delivers p once. NoConsumer is terminal and is not retried; busy
// consumers defer the work themselves.
func (b *Broker) Send(ctx context.Context, p Payload) (Result, error) {
	target, method, fn, ok := b.resolve()
	if !ok {
		b.logger.WarnContext(ctx, "handoff found no consumer", "cycle", p.Cycle)
		return Result{Outcome: NoConsumer}, ErrNoConsumer
	}

	res := Result{Outcome: Accepted, Target: target, Method: method}

	if err := fn(ctx, p.Clone()); err != nil {
		res.Outcome = Failed
		b.logger.ErrorContext(
			ctx, "handoff failed",
			"cycle", p.Cycle,
			"target", target,
			"method", method,
			"error", err,
		)
		return res, fmt.Errorf("%s %s: %w", target, method, err)
	}

	b.logger.InfoContext(
		ctx, "handoff delivered",
		"cycle", p.Cycle,
		"target", target,
		"method", method,
	)
	return res, nil
}

func (b *Broker) resolve() (Target, Method, Func, bool) {
	if fn, m, ok := probe(b.primary, primaryMethods); ok {
		return TargetPrimary, m, fn, true
	}
	if fn, m, ok := probe(b.factory, factoryMethods); ok {
		return TargetFactory, m, fn, true
	}
	return "", "", nil, false
}

func probe(c Consumer, methods []Method) (Func, Method, bool) {
	if c == nil {
		return nil, "", false
	}
	eps := c.Endpoints()
	if eps == nil {
		return nil, "", false
	}
	for _, m := range methods {
		if fn, ok := eps.Lookup(m); ok {
			return fn, m, true
		}
	}
	return nil, "", false
}
