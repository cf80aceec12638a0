// Package scene defines the records produced by one analysis cycle: the
// room context, the recommended item, and the matched product.
package scene

import (
	"strings"

	"github.com/JaimeStill/stager/internal/history"
)

// Environment distinguishes interior from exterior spaces.
type Environment string

const (
	Indoor  Environment = "indoor"
	Outdoor Environment = "outdoor"
)

// ParseEnvironment maps any value other than "outdoor" to Indoor.
func ParseEnvironment(s string) Environment {
	if strings.EqualFold(strings.TrimSpace(s), string(Outdoor)) {
		return Outdoor
	}
	return Indoor
}

// Placement describes where a recommended item sits.
type Placement string

const (
	Horizontal Placement = "horizontal"
	Vertical   Placement = "vertical"
	Flooring   Placement = "flooring"
)

// ParsePlacement defaults unknown values to Horizontal.
func ParsePlacement(s string) Placement {
	switch p := Placement(strings.ToLower(strings.TrimSpace(s))); p {
	case Vertical, Flooring:
		return p
	default:
		return Horizontal
	}
}

// Category classifies a recommended item.
type Category string

const (
	Furniture     Category = "furniture"
	Lighting      Category = "lighting"
	Decor         Category = "decor"
	FlooringCover Category = "flooring"
	Art           Category = "art"
)

// Source records which path produced a recommendation.
type Source string

const (
	Generated Source = "generated"
	Fallback  Source = "fallback"
)

// RoomContext is the structured analysis of a captured space. It is replaced
// wholesale each cycle.
type RoomContext struct {
	Layout      string      `json:"layout"`
	RoomType    string      `json:"roomType"`
	Style       string      `json:"style"`
	Colors      string      `json:"colors"`
	Environment Environment `json:"environment"`
	Suggestions string      `json:"suggestions"`
}

// Recommendation is the single item suggested for a cycle.
type Recommendation struct {
	TargetItem  string              `json:"targetItem"`
	Placement   Placement           `json:"placement"`
	Category    Category            `json:"category"`
	Priority    string              `json:"priority"`
	Source      Source              `json:"source"`
	Fingerprint history.Fingerprint `json:"fingerprint"`
}

// Product is a shopping match for a recommendation. Name, Price, and Store
// are always populated.
type Product struct {
	Name        string `json:"name"`
	Price       string `json:"price"`
	Store       string `json:"store"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Distance    string `json:"distance"`
	ImageKey    string `json:"imageKey,omitempty"`
}
