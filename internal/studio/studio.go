// Package studio is the HTTP driver surface of the analysis pipeline.
// Besides admitting captures it can re-drive shopping and handoff for the
// latest cycle.
package studio

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/history"
	"github.com/JaimeStill/stager/internal/scene"
	"github.com/JaimeStill/stager/internal/workflow"
)

var (
	ErrInvalidCapture = errors.New("invalid capture upload")
	ErrTooLarge       = errors.New("capture exceeds upload limit")
	ErrInvalidCycle   = errors.New("invalid cycle id")
	ErrInvalidCoords  = errors.New("latitude and longitude must be numbers")
)

// Driver is the pipeline surface the studio exposes. *workflow.Pipeline
// satisfies it.
type Driver interface {
	Trigger(ctx context.Context, capture workflow.Capture) (workflow.Cycle, error)
	Run(ctx context.Context, capture workflow.Capture) (workflow.Cycle, error)
	Recommendation() (scene.Recommendation, error)
	Reshop(ctx context.Context, cycle uuid.UUID, coords *workflow.Coordinates) (workflow.Cycle, error)
	Resend(ctx context.Context, cycle uuid.UUID) (workflow.Cycle, error)
	History() []history.Fingerprint
	ClearHistory()
	Status() workflow.Status
}

// HistoryView is the history snapshot response.
type HistoryView struct {
	Capacity     int                   `json:"capacity"`
	Fingerprints []history.Fingerprint `json:"fingerprints"`
}
