// Package workflow runs the analysis cycle: a capture is analysed, one item
// is recommended, and preview, narration, shopping, and handoff tasks are
// fanned out on staggered delays. The cycle is a state graph
// (analyze → recommend → fanout) driven by a Session that admits one cycle
// at a time.
package workflow

import (
	"errors"
	"net/http"

	"github.com/JaimeStill/stager/internal/handoff"
)

var (
	// ErrBusy rejects a trigger while a cycle is analysing or recommending.
	ErrBusy = errors.New("analysis cycle in progress")
	// ErrMissingInput rejects a trigger without a usable image or prompt.
	ErrMissingInput = errors.New("image and prompt are required")
	// ErrValidation marks a parsed recommendation that lacks required fields.
	ErrValidation = errors.New("recommendation failed validation")
	// ErrNoRecommendation is returned before any cycle has recommended.
	ErrNoRecommendation = errors.New("no recommendation available")
	// ErrClosed rejects triggers after shutdown has begun.
	ErrClosed = errors.New("pipeline stopped")
	// ErrStaleCycle rejects a re-drive addressed to a superseded cycle.
	ErrStaleCycle = errors.New("cycle is not the latest")
)

// MapHTTPStatus maps workflow errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrBusy), errors.Is(err, ErrStaleCycle):
		return http.StatusConflict
	case errors.Is(err, ErrMissingInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoRecommendation):
		return http.StatusNotFound
	case errors.Is(err, ErrClosed), errors.Is(err, handoff.ErrNoConsumer):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
