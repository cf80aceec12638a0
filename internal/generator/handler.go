package generator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/handoff"
	"github.com/JaimeStill/stager/pkg/handlers"
	"github.com/JaimeStill/stager/pkg/routes"
)

var (
	// ErrInvalidPayload is returned for a receive body that is not a payload.
	ErrInvalidPayload = errors.New("invalid handoff payload")
	// ErrInvalidCycle is returned for a cycle query value that is not a UUID.
	ErrInvalidCycle = errors.New("invalid cycle id")
)

// Handler exposes a Generator's consumer surface over HTTP.
type Handler struct {
	gen    *Generator
	logger *slog.Logger
}

// NewHandler creates a Handler for gen.
func NewHandler(gen *Generator, logger *slog.Logger) *Handler {
	return &Handler{gen: gen, logger: logger.With("handler", "generator")}
}

// Routes returns the generator route group.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/generator",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/receive", Handler: h.Receive},
			{Method: "GET", Pattern: "/status", Handler: h.Status},
			{Method: "POST", Pattern: "/regenerate", Handler: h.Regenerate},
			{Method: "POST", Pattern: "/reset", Handler: h.Reset},
			{Method: "DELETE", Pattern: "/history", Handler: h.ClearHistory},
		},
	}
}

// Receive accepts a payload. Busy consumers defer it, so a deferred request
// is also reported as accepted.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	var p handoff.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidPayload)
		return
	}
	if p.Recommendation.TargetItem == "" {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidPayload)
		return
	}

	if err := h.gen.Receive(r.Context(), p); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusAccepted, h.gen.Status())
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.gen.Status())
}

// Regenerate resubmits the retained request. An optional ?cycle= must name
// the retained request's cycle.
func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var cycle uuid.UUID
	if v := r.URL.Query().Get("cycle"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidCycle)
			return
		}
		cycle = id
	}

	if _, err := h.gen.Regenerate(cycle); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusAccepted, h.gen.Status())
}

func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	h.gen.Reset()
	handlers.RespondJSON(w, http.StatusOK, h.gen.Status())
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.gen.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

// MapHTTPStatus maps generator errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrInvalidCycle):
		return http.StatusBadRequest
	case errors.Is(err, ErrNoTarget):
		return http.StatusNotFound
	case errors.Is(err, ErrBusy), errors.Is(err, ErrCycleMismatch):
		return http.StatusConflict
	case errors.Is(err, ErrRetriesExhausted):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
