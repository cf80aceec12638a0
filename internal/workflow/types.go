package workflow

import (
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/handoff"
	"github.com/JaimeStill/stager/internal/location"
	"github.com/JaimeStill/stager/internal/scene"
)

// State keys carried through the analysis graph.
const (
	KeyCycle          = "cycle_id"
	KeyPrompt         = "prompt"
	KeyCapture        = "capture"
	KeyCoordinates    = "coordinates"
	KeyRoom           = "room"
	KeyCritique       = "critique"
	KeyLocation       = "location"
	KeyRecommendation = "recommendation"
)

// State is the pipeline phase.
type State string

const (
	Idle         State = "idle"
	Analyzing    State = "analyzing"
	Recommending State = "recommending"
	FanningOut   State = "fanning_out"
)

// Status text reported to drivers.
const (
	StatusWaiting      = "waiting"
	StatusAnalyzing    = "analyzing"
	StatusRecommending = "recommending"
	StatusInProgress   = "in progress"
	StatusReady        = "ready"
	StatusError        = "error occurred"
)

// Stage and fan-out task names, used as cycle error keys.
const (
	TaskRoom      = "room"
	TaskCritique  = "critique"
	TaskLocate    = "locate"
	TaskCapture   = "capture"
	TaskRecommend = "recommend"
	TaskGraph     = "graph"
	TaskPreview   = "preview"
	TaskNarration = "narration"
	TaskShopping  = "shopping"
	TaskHandoff   = "handoff"
)

// Capture is the input of one cycle.
type Capture struct {
	Image     []byte
	Prompt    string
	Latitude  *float64
	Longitude *float64
}

// Coordinates are an optional capture position.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Cycle is the record of one analysis cycle. It is copied out of the
// session and never shared.
type Cycle struct {
	ID             uuid.UUID             `json:"id"`
	Prompt         string                `json:"prompt"`
	Status         string                `json:"status"`
	Room           *scene.RoomContext    `json:"room,omitempty"`
	Critique       string                `json:"critique"`
	Recommendation *scene.Recommendation `json:"recommendation,omitempty"`
	Location       location.UserLocation `json:"location"`
	Product        *scene.Product        `json:"product,omitempty"`
	ShoppingQuery  string                `json:"shoppingQuery,omitempty"`
	CaptureKey     string                `json:"captureKey,omitempty"`
	PreviewPrompt  string                `json:"previewPrompt,omitempty"`
	PreviewKey     string                `json:"previewKey,omitempty"`
	PreviewURL     string                `json:"previewUrl,omitempty"`
	NarrationKey   string                `json:"narrationKey,omitempty"`
	Handoff        *handoff.Result       `json:"handoff,omitempty"`
	Pending        []string              `json:"pending,omitempty"`
	Errors         map[string]string     `json:"errors,omitempty"`
	StartedAt      time.Time             `json:"startedAt"`
	UpdatedAt      time.Time             `json:"updatedAt"`
}

func (c *Cycle) clone() Cycle {
	out := *c
	if c.Room != nil {
		room := *c.Room
		out.Room = &room
	}
	if c.Recommendation != nil {
		rec := *c.Recommendation
		out.Recommendation = &rec
	}
	if c.Product != nil {
		product := *c.Product
		out.Product = &product
	}
	if c.Handoff != nil {
		res := *c.Handoff
		out.Handoff = &res
	}
	out.Pending = append([]string(nil), c.Pending...)
	out.Errors = maps.Clone(c.Errors)
	return out
}

func (c *Cycle) fail(stage string, err error) {
	if c.Errors == nil {
		c.Errors = make(map[string]string)
	}
	c.Errors[stage] = err.Error()
}

// Status is the driver-facing view of the session.
type Status struct {
	State    State                 `json:"state"`
	Text     string                `json:"status"`
	Busy     bool                  `json:"busy"`
	Location location.UserLocation `json:"location"`
	Cycle    *Cycle                `json:"cycle,omitempty"`
}
