package studio

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/workflow"
	"github.com/JaimeStill/stager/pkg/handlers"
	"github.com/JaimeStill/stager/pkg/routes"
)

// Handler provides HTTP endpoints for driving analysis cycles.
type Handler struct {
	driver        Driver
	capacity      int
	logger        *slog.Logger
	maxUploadSize int64
}

// NewHandler creates a Handler. capacity is reported with history snapshots.
func NewHandler(driver Driver, capacity int, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		driver:        driver,
		capacity:      capacity,
		logger:        logger.With("handler", "studio"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/studio",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/cycles", Handler: h.Trigger},
			{Method: "GET", Pattern: "/recommendation", Handler: h.Recommendation},
			{Method: "POST", Pattern: "/shopping", Handler: h.Shopping},
			{Method: "POST", Pattern: "/handoff", Handler: h.Handoff},
			{Method: "GET", Pattern: "/history", Handler: h.History},
			{Method: "DELETE", Pattern: "/history", Handler: h.ClearHistory},
			{Method: "GET", Pattern: "/status", Handler: h.Status},
		},
	}
}

// Trigger starts an analysis cycle from a multipart capture. With
// ?wait=true the response is sent after the cycle returns to idle.
func (h *Handler) Trigger(w http.ResponseWriter, r *http.Request) {
	capture, err := h.readCapture(w, r)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ErrTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		handlers.RespondError(w, h.logger, status, err)
		return
	}

	run := h.driver.Trigger
	if wait, _ := strconv.ParseBool(r.URL.Query().Get("wait")); wait {
		run = h.driver.Run
	}

	cycle, err := run(r.Context(), capture)
	if err != nil {
		handlers.RespondError(w, h.logger, workflow.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusCreated, cycle)
}

func (h *Handler) Recommendation(w http.ResponseWriter, r *http.Request) {
	rec, err := h.driver.Recommendation()
	if err != nil {
		handlers.RespondError(w, h.logger, workflow.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, rec)
}

// Shopping resolves a product again for the latest recommendation. Query
// coordinates refresh the location first; ?cycle= must name the latest
// cycle when given.
func (h *Handler) Shopping(w http.ResponseWriter, r *http.Request) {
	cycle, ok := h.cycleParam(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	lat, latOK, err := optionalFloat(q.Get("latitude"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidCoords)
		return
	}
	lon, lonOK, err := optionalFloat(q.Get("longitude"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidCoords)
		return
	}

	var coords *workflow.Coordinates
	if latOK && lonOK {
		coords = &workflow.Coordinates{Latitude: lat, Longitude: lon}
	}

	c, err := h.driver.Reshop(r.Context(), cycle, coords)
	if err != nil {
		handlers.RespondError(w, h.logger, workflow.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, c)
}

// Handoff sends the latest recommendation to a generation consumer again.
func (h *Handler) Handoff(w http.ResponseWriter, r *http.Request) {
	cycle, ok := h.cycleParam(w, r)
	if !ok {
		return
	}

	c, err := h.driver.Resend(r.Context(), cycle)
	if err != nil {
		handlers.RespondError(w, h.logger, workflow.MapHTTPStatus(err), err)
		return
	}
	handlers.RespondJSON(w, http.StatusOK, c)
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, HistoryView{
		Capacity:     h.capacity,
		Fingerprints: h.driver.History(),
	})
}

func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.driver.ClearHistory()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	handlers.RespondJSON(w, http.StatusOK, h.driver.Status())
}

// readCapture parses the image, prompt, and optional coordinates. A missing
// image or prompt is left for the pipeline to reject.
func (h *Handler) readCapture(w http.ResponseWriter, r *http.Request) (workflow.Capture, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return workflow.Capture{}, ErrTooLarge
		}
		return workflow.Capture{}, ErrInvalidCapture
	}

	capture := workflow.Capture{Prompt: strings.TrimSpace(r.FormValue("prompt"))}

	if file, _, err := r.FormFile("image"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return workflow.Capture{}, ErrInvalidCapture
		}
		capture.Image = data
	}

	lat, latOK, err := optionalFloat(r.FormValue("latitude"))
	if err != nil {
		return workflow.Capture{}, ErrInvalidCapture
	}
	lon, lonOK, err := optionalFloat(r.FormValue("longitude"))
	if err != nil {
		return workflow.Capture{}, ErrInvalidCapture
	}
	if latOK && lonOK {
		capture.Latitude = &lat
		capture.Longitude = &lon
	}

	return capture, nil
}

func (h *Handler) cycleParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	v := r.URL.Query().Get("cycle")
	if v == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(v)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidCycle)
		return uuid.Nil, false
	}
	return id, true
}

func optionalFloat(s string) (float64, bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	return v, true, nil
}
