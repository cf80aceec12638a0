package handoff_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/handoff"
	"github.com/JaimeStill/stager/internal/history"
	"github.com/JaimeStill/stager/internal/scene"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type consumer struct {
	eps   *handoff.Endpoints
	calls map[handoff.Method]int
	err   error
}

func newConsumer(methods ...handoff.Method) *consumer {
	c := &consumer{eps: handoff.NewEndpoints(), calls: make(map[handoff.Method]int)}
	for _, m := range methods {
		c.eps.Expose(m, func(context.Context, handoff.Payload) error {
			c.calls[m]++
			return c.err
		})
	}
	return c
}

func (c *consumer) Endpoints() *handoff.Endpoints { return c.eps }
func (c *consumer) IsGenerating() bool            { return false }

func (c *consumer) total() int {
	n := 0
	for _, v := range c.calls {
		n += v
	}
	return n
}

func payload() handoff.Payload {
	return handoff.Payload{
		Cycle:          uuid.New(),
		Recommendation: scene.Recommendation{TargetItem: "A walnut bookshelf with five shelves"},
		History:        []history.Fingerprint{"fallback_0"},
	}
}

func TestSendPrimaryPriority(t *testing.T) {
	primary := newConsumer(handoff.AutoGenerateSingleItem, handoff.GenerateSingleItem)
	factory := newConsumer(handoff.GenerateItem)
	b := handoff.NewBroker(primary, factory, discard())

	res, err := b.Send(t.Context(), payload())
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	want := handoff.Result{Outcome: handoff.Accepted, Target: handoff.TargetPrimary, Method: handoff.GenerateSingleItem}
	if res != want {
		t.Errorf("Send = %+v, want %+v", res, want)
	}
	if primary.total() != 1 || primary.calls[handoff.GenerateSingleItem] != 1 {
		t.Errorf("primary calls = %v, want one generateSingleItem", primary.calls)
	}
	if factory.total() != 0 {
		t.Errorf("factory calls = %v, want none", factory.calls)
	}
}

func TestSendFactoryFallback(t *testing.T) {
	tests := []struct {
		name    string
		primary handoff.Consumer
	}{
		{"nil primary", nil},
		{"primary exposes nothing", newConsumer()},
		{"primary exposes unknown", newConsumer(handoff.StartGeneration)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory := newConsumer(handoff.TriggerGeneration, handoff.StartGeneration)
			b := handoff.NewBroker(tt.primary, factory, discard())

			res, err := b.Send(t.Context(), payload())
			if err != nil {
				t.Fatalf("Send: %v", err)
			}
			if res.Target != handoff.TargetFactory || res.Method != handoff.StartGeneration {
				t.Errorf("Send = %+v, want factory startGeneration", res)
			}
			if factory.total() != 1 {
				t.Errorf("factory calls = %d, want 1", factory.total())
			}
		})
	}
}

func TestSendNoConsumer(t *testing.T) {
	b := handoff.NewBroker(newConsumer(), nil, discard())

	res, err := b.Send(t.Context(), payload())
	if !errors.Is(err, handoff.ErrNoConsumer) {
		t.Errorf("err = %v, want ErrNoConsumer", err)
	}
	if res.Outcome != handoff.NoConsumer {
		t.Errorf("Outcome = %q, want no_consumer", res.Outcome)
	}
}

func TestSendFailure(t *testing.T) {
	primary := newConsumer(handoff.TriggerSingleItemGeneration)
	primary.err = errors.New("sink offline")
	b := handoff.NewBroker(primary, newConsumer(handoff.GenerateItem), discard())

	res, err := b.Send(t.Context(), payload())
	if !errors.Is(err, primary.err) {
		t.Errorf("err = %v, want %v", err, primary.err)
	}
	if res.Outcome != handoff.Failed {
		t.Errorf("Outcome = %q, want failed", res.Outcome)
	}
	if primary.total() != 1 {
		t.Errorf("primary calls = %d, want exactly 1", primary.total())
	}
}

func TestSendClonesPayload(t *testing.T) {
	var got handoff.Payload
	c := &consumer{eps: handoff.NewEndpoints()}
	c.eps.Expose(handoff.TriggerSingleItemGeneration, func(_ context.Context, p handoff.Payload) error {
		got = p
		return nil
	})

	p := payload()
	p.Product = &scene.Product{Name: "BILLY"}

	if _, err := handoff.NewBroker(c, nil, discard()).Send(t.Context(), p); err != nil {
		t.Fatalf("Send: %v", err)
	}

	p.History[0] = "changed"
	p.Product.Name = "changed"

	if got.History[0] != "fallback_0" || got.Product.Name != "BILLY" {
		t.Errorf("received payload shares memory with sender: %+v", got)
	}
}

func TestEndpoints(t *testing.T) {
	eps := handoff.NewEndpoints()
	noop := func(context.Context, handoff.Payload) error { return nil }

	eps.Expose(handoff.GenerateItem, noop)
	eps.Expose(handoff.StartGeneration, noop)
	eps.Expose(handoff.GenerateItem, noop)

	want := []handoff.Method{handoff.GenerateItem, handoff.StartGeneration}
	if got := eps.Methods(); !slices.Equal(got, want) {
		t.Errorf("Methods = %v, want %v", got, want)
	}

	eps.Expose(handoff.GenerateItem, nil)
	if _, ok := eps.Lookup(handoff.GenerateItem); ok {
		t.Error("Lookup after removal = true, want false")
	}
	if _, ok := eps.Lookup(handoff.StartGeneration); !ok {
		t.Error("Lookup(startGeneration) = false, want true")
	}
}

func TestProbeOrders(t *testing.T) {
	if got := handoff.PrimaryMethods(); got[0] != handoff.TriggerSingleItemGeneration || len(got) != 3 {
		t.Errorf("PrimaryMethods = %v", got)
	}
	if got := handoff.FactoryMethods(); got[0] != handoff.ReceiveSingleItemRequest || len(got) != 4 {
		t.Errorf("FactoryMethods = %v", got)
	}
}
