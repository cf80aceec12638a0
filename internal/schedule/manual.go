package schedule

import (
	"context"
	"slices"
	"sync"
	"time"
)

type manualTask struct {
	at   time.Duration
	seq  int
	name string
	fn   func(ctx context.Context)
}

// Manual is a Scheduler driven by a virtual clock. Tasks run synchronously
// inside Advance, and tasks they schedule run in the same call when due.
type Manual struct {
	mu     sync.Mutex
	now    time.Duration
	seq    int
	tasks  []manualTask
	closed bool
}

// NewManual creates a Manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{}
}

func (m *Manual) After(name string, delay time.Duration, fn func(ctx context.Context)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}

	m.tasks = append(m.tasks, manualTask{
		at:   m.now + max(delay, 0),
		seq:  m.seq,
		name: name,
		fn:   fn,
	})
	m.seq++
	return true
}

// Advance moves the clock forward by d, running every task that falls due
// in order of due time. It returns the number of tasks run.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	ran := 0
	for {
		m.mu.Lock()
		i := m.earliest(target)
		if i < 0 {
			m.now = target
			m.mu.Unlock()
			return ran
		}
		task := m.tasks[i]
		m.tasks = slices.Delete(m.tasks, i, i+1)
		m.now = task.at
		m.mu.Unlock()

		task.fn(context.Background())
		ran++
	}
}

// Pending returns the names of unrun tasks in due order.
func (m *Manual) Pending() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := slices.Clone(m.tasks)
	slices.SortFunc(sorted, compareTasks)

	names := make([]string, len(sorted))
	for i, t := range sorted {
		names[i] = t.name
	}
	return names
}

// Now returns the virtual time elapsed since creation.
func (m *Manual) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Stop rejects new tasks and drops pending ones.
func (m *Manual) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.tasks = nil
}

func (m *Manual) earliest(target time.Duration) int {
	best := -1
	for i, t := range m.tasks {
		if t.at > target {
			continue
		}
		if best < 0 || compareTasks(t, m.tasks[best]) < 0 {
			best = i
		}
	}
	return best
}

func compareTasks(a, b manualTask) int {
	if a.at != b.at {
		if a.at < b.at {
			return -1
		}
		return 1
	}
	return a.seq - b.seq
}
