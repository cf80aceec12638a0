package fallback

import (
	"regexp"

	"github.com/JaimeStill/stager/internal/scene"
)

var outdoorWords = regexp.MustCompile(`(?i)outdoor|garden|patio|deck|sky|trees|grass`)

// Room builds a room context from whatever text the analysis call returned.
// Outdoor vocabulary anywhere in raw marks the space as outdoor.
func Room(raw string) scene.RoomContext {
	room := scene.RoomContext{
		Layout:      "Standard layout",
		RoomType:    "living_room",
		Style:       "contemporary",
		Colors:      "neutral_tones",
		Suggestions: "Add contextual improvements",
		Environment: scene.Indoor,
	}
	if outdoorWords.MatchString(raw) {
		room.RoomType = "outdoor_space"
		room.Environment = scene.Outdoor
	}
	return room
}

// Complete fills empty fields of a parsed room context from the defaults
// Room would produce for raw.
func Complete(room scene.RoomContext, raw string) scene.RoomContext {
	def := Room(raw)
	if room.Layout == "" {
		room.Layout = def.Layout
	}
	if room.RoomType == "" {
		room.RoomType = def.RoomType
	}
	if room.Style == "" {
		room.Style = def.Style
	}
	if room.Colors == "" {
		room.Colors = def.Colors
	}
	if room.Suggestions == "" {
		room.Suggestions = def.Suggestions
	}
	if room.Environment == "" {
		room.Environment = def.Environment
	}
	return room
}
