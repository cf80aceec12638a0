// Package location tracks the user's best-effort location. The location is
// replaced whole and falls back to a configured default whenever
// coordinates are missing or cannot be resolved.
package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/JaimeStill/stager/internal/backend"
	"github.com/JaimeStill/stager/internal/prompts"
	"github.com/JaimeStill/stager/pkg/formatting"
)

// Source records how a location was obtained.
type Source string

const (
	SourceDefault  Source = "default"
	SourceGeocoded Source = "geocoded"
)

// ErrInvalidCoordinates is returned for latitude or longitude out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// UserLocation is the user's position and resolved place.
type UserLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Region    string  `json:"region"`
	Source    Source  `json:"source"`
}

// Place is the result of reverse geocoding.
type Place struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Region  string `json:"region"`
}

// Geocoder resolves coordinates to a place.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (Place, error)
}

// Tracker holds the current location.
type Tracker struct {
	def      UserLocation
	geocoder Geocoder
	logger   *slog.Logger

	mu      sync.RWMutex
	current UserLocation
}

// NewTracker starts at the configured default location. A nil geocoder
// leaves every update at the default.
func NewTracker(cfg *Config, geocoder Geocoder, logger *slog.Logger) *Tracker {
	def := cfg.Default()
	return &Tracker{
		def:      def,
		geocoder: geocoder,
		logger:   logger.With("system", "location"),
		current:  def,
	}
}

// Current returns the current location.
func (t *Tracker) Current() UserLocation {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

// Reset restores the default location.
func (t *Tracker) Reset() UserLocation {
	t.set(t.def)
	return t.def
}

// Update resolves lat/lon and replaces the current location. Any failure
// replaces it with the default instead.
func (t *Tracker) Update(ctx context.Context, lat, lon float64) UserLocation {
	if err := Validate(lat, lon); err != nil {
		t.logger.Warn("using default location", "error", err)
		return t.Reset()
	}
	if t.geocoder == nil {
		return t.Reset()
	}

	place, err := t.geocoder.Reverse(ctx, lat, lon)
	if err != nil || place.City == "" || place.Country == "" {
		t.logger.Warn(
			"reverse geocode failed, using default location",
			"latitude", lat,
			"longitude", lon,
			"error", err,
		)
		return t.Reset()
	}

	loc := UserLocation{
		Latitude:  lat,
		Longitude: lon,
		City:      place.City,
		Country:   place.Country,
		Region:    place.Region,
		Source:    SourceGeocoded,
	}
	t.set(loc)

	t.logger.Info("location resolved", "city", loc.City, "country", loc.Country)
	return loc
}

func (t *Tracker) set(loc UserLocation) {
	t.mu.Lock()
	t.current = loc
	t.mu.Unlock()
}

// Validate checks coordinate ranges. NaN is never in range.
func Validate(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: %f, %f", ErrInvalidCoordinates, lat, lon)
	}
	return nil
}

// ModelGeocoder reverse geocodes through a chat completion.
type ModelGeocoder struct {
	completer backend.Completer
	prompts   prompts.Source
}

// NewModelGeocoder creates a Geocoder backed by completer.
func NewModelGeocoder(completer backend.Completer, src prompts.Source) *ModelGeocoder {
	return &ModelGeocoder{completer: completer, prompts: src}
}

func (g *ModelGeocoder) Reverse(ctx context.Context, lat, lon float64) (Place, error) {
	system, err := prompts.Compose(ctx, g.prompts, prompts.StageLocate)
	if err != nil {
		return Place{}, err
	}

	text, err := g.completer.Complete(ctx, backend.Request{
		System: system,
		Text:   fmt.Sprintf("Latitude: %.4f\nLongitude: %.4f", lat, lon),
	})
	if err != nil {
		return Place{}, err
	}

	return formatting.Parse[Place](text)
}
