// Package history keeps a bounded record of recently recommended items so
// the next recommendation can steer away from them.
package history

import (
	"slices"
	"sync"
)

// DefaultCapacity is the number of fingerprints retained.
const DefaultCapacity = 6

// Fingerprint identifies a past recommendation. Generated recommendations use
// "category:placement:priority-prefix"; fallback ones use "fallback_<index>".
type Fingerprint string

// History is a FIFO of fingerprints bounded by its capacity. Recording into a
// full history evicts the oldest entry. Safe for concurrent use.
type History struct {
	mu       sync.Mutex
	capacity int
	entries  []Fingerprint
}

// New creates a History holding at most capacity entries. Values below one
// fall back to DefaultCapacity.
func New(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &History{
		capacity: capacity,
		entries:  make([]Fingerprint, 0, capacity),
	}
}

// Record appends fp, evicting the oldest entry when full.
func (h *History) Record(fp Fingerprint) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == h.capacity {
		h.entries = slices.Delete(h.entries, 0, 1)
	}
	h.entries = append(h.entries, fp)
}

// Snapshot returns a copy of the entries, oldest first.
func (h *History) Snapshot() []Fingerprint {
	h.mu.Lock()
	defer h.mu.Unlock()
	return slices.Clone(h.entries)
}

// Clear removes every entry.
func (h *History) Clear() {
	h.mu.Lock()
	h.entries = h.entries[:0]
	h.mu.Unlock()
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Cap returns the capacity.
func (h *History) Cap() int {
	return h.capacity
}

// Strings converts fingerprints for prompts and JSON bodies.
func Strings(fps []Fingerprint) []string {
	out := make([]string, len(fps))
	for i, fp := range fps {
		out[i] = string(fp)
	}
	return out
}
