package workflow

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/history"
	"github.com/JaimeStill/stager/internal/scene"
)

// Session holds the pipeline state and the latest cycle. Every mutation is
// a check-and-set under one mutex, and updates addressed to a superseded
// cycle are refused.
type Session struct {
	history *history.History

	mu      sync.Mutex
	state   State
	text    string
	current *Cycle
	latest  *scene.Recommendation
}

// NewSession creates an idle session with a history of the given capacity.
func NewSession(capacity int) *Session {
	return &Session{
		history: history.New(capacity),
		state:   Idle,
		text:    StatusWaiting,
	}
}

// History returns the recommendation history.
func (s *Session) History() *history.History {
	return s.history
}

// begin admits a new cycle when the session is idle.
func (s *Session) begin(prompt string) (Cycle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Idle {
		return Cycle{}, ErrBusy
	}

	now := time.Now().UTC()
	s.current = &Cycle{
		ID:        uuid.New(),
		Prompt:    prompt,
		Status:    StatusAnalyzing,
		StartedAt: now,
		UpdatedAt: now,
	}
	s.state = Analyzing
	s.text = StatusAnalyzing

	return s.current.clone(), nil
}

// transition moves the session to state for cycle id.
func (s *Session) transition(id uuid.UUID, state State, text string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(id) {
		return false
	}
	s.state = state
	s.text = text
	s.current.Status = text
	s.current.UpdatedAt = time.Now().UTC()
	return true
}

// update applies fn to cycle id and returns the updated copy. It returns
// false when id is no longer the current cycle.
func (s *Session) update(id uuid.UUID, fn func(c *Cycle)) (Cycle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(id) {
		return Cycle{}, false
	}
	fn(s.current)
	s.current.UpdatedAt = time.Now().UTC()
	return s.current.clone(), true
}

// recommend stores rec on cycle id and as the latest recommendation.
func (s *Session) recommend(id uuid.UUID, rec scene.Recommendation, cause error) (Cycle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(id) {
		return Cycle{}, false
	}
	s.current.Recommendation = &rec
	if cause != nil {
		s.current.fail(TaskRecommend, cause)
	}
	s.current.UpdatedAt = time.Now().UTC()
	s.latest = &rec
	return s.current.clone(), true
}

// Recommendation returns the most recent recommendation from any cycle.
func (s *Session) Recommendation() (scene.Recommendation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latest == nil {
		return scene.Recommendation{}, false
	}
	return *s.latest, true
}

// cycle returns a copy of cycle id while it is current.
func (s *Session) cycle(id uuid.UUID) (Cycle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(id) {
		return Cycle{}, false
	}
	return s.current.clone(), true
}

// release returns the session to Idle after the graph finishes. Pending
// fan-out tasks keep the status text at in progress.
func (s *Session) release(id uuid.UUID, failed bool) (Cycle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(id) {
		return Cycle{}, false
	}

	s.state = Idle
	switch {
	case failed:
		s.text = StatusError
	case len(s.current.Pending) > 0:
		s.text = StatusInProgress
	default:
		s.text = StatusReady
	}
	s.current.Status = s.text
	s.current.UpdatedAt = time.Now().UTC()
	return s.current.clone(), true
}

// taskDone removes a finished fan-out task and marks the cycle ready once
// none remain.
func (s *Session) taskDone(id uuid.UUID, task string) (Cycle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isCurrent(id) {
		return Cycle{}, false
	}

	if i := slices.Index(s.current.Pending, task); i >= 0 {
		s.current.Pending = slices.Delete(s.current.Pending, i, i+1)
	}
	if len(s.current.Pending) == 0 && s.state == Idle && s.text == StatusInProgress {
		s.text = StatusReady
		s.current.Status = StatusReady
	}
	s.current.UpdatedAt = time.Now().UTC()
	return s.current.clone(), true
}

// IsCurrent reports whether id is the latest cycle.
func (s *Session) IsCurrent(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isCurrent(id)
}

func (s *Session) isCurrent(id uuid.UUID) bool {
	return s.current != nil && s.current.ID == id
}

// Busy reports whether a cycle is analysing, recommending, or fanning out.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != Idle
}

// Snapshot returns the state, status text, and a copy of the latest cycle.
func (s *Session) Snapshot() (State, string, *Cycle) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return s.state, s.text, nil
	}
	c := s.current.clone()
	return s.state, s.text, &c
}
