package handoff

import (
	"context"
	"slices"
	"sync"
)

// Method names an entry point a consumer may expose.
type Method string

// Entry points probed on the primary consumer, in priority order.
const (
	TriggerSingleItemGeneration Method = "triggerSingleItemGeneration"
	GenerateSingleItem          Method = "generateSingleItem"
	AutoGenerateSingleItem      Method = "autoGenerateSingleItem"
)

// Entry points probed on the factory consumer, in priority order.
const (
	ReceiveSingleItemRequest Method = "receiveSingleItemRequest"
	GenerateItem             Method = "generateItem"
	StartGeneration          Method = "startGeneration"
	TriggerGeneration        Method = "triggerGeneration"
)

var (
	primaryMethods = []Method{
		TriggerSingleItemGeneration,
		GenerateSingleItem,
		AutoGenerateSingleItem,
	}
	factoryMethods = []Method{
		ReceiveSingleItemRequest,
		GenerateItem,
		StartGeneration,
		TriggerGeneration,
	}
)

// PrimaryMethods returns the primary probe order.
func PrimaryMethods() []Method {
	return slices.Clone(primaryMethods)
}

// FactoryMethods returns the factory probe order.
func FactoryMethods() []Method {
	return slices.Clone(factoryMethods)
}

// Func handles a payload delivered through an entry point.
type Func func(ctx context.Context, p Payload) error

type slot struct {
	method Method
	fn     Func
}

// Endpoints is an ordered registry of named entry points.
type Endpoints struct {
	mu    sync.RWMutex
	slots []slot
}

// NewEndpoints creates an empty registry.
func NewEndpoints() *Endpoints {
	return &Endpoints{}
}

// Expose registers fn under method, replacing any earlier registration.
// A nil fn removes the method.
func (e *Endpoints) Expose(method Method, fn Func) {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.IndexFunc(e.slots, func(s slot) bool { return s.method == method })
	switch {
	case fn == nil && i >= 0:
		e.slots = slices.Delete(e.slots, i, i+1)
	case fn == nil:
	case i >= 0:
		e.slots[i].fn = fn
	default:
		e.slots = append(e.slots, slot{method: method, fn: fn})
	}
}

// Lookup returns the function registered for method.
func (e *Endpoints) Lookup(method Method) (Func, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, s := range e.slots {
		if s.method == method {
			return s.fn, true
		}
	}
	return nil, false
}

// Methods lists registered methods in registration order.
func (e *Endpoints) Methods() []Method {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]Method, len(e.slots))
	for i, s := range e.slots {
		out[i] = s.method
	}
	return out
}
