// Package fallback is the terminal source of deterministic results when the
// generative backend fails or returns unusable output. Every function here is
// total: any input, including empty context, produces a complete value.
package fallback

import (
	"fmt"
	"strings"

	"github.com/JaimeStill/stager/internal/history"
	"github.com/JaimeStill/stager/internal/scene"
)

const (
	defaultStyle    = "contemporary"
	defaultColors   = "neutral"
	defaultRoomType = "living space"
)

type template struct {
	format    string
	placement scene.Placement
	category  scene.Category
}

// Templates take style, colors, and room type in that order.
var indoorItems = []template{
	{"%s accent chair with %s upholstery and wooden legs, perfect for %s reading corner", scene.Horizontal, scene.Furniture},
	{"%s floor lamp with adjustable %s shade, providing ambient lighting for %s", scene.Horizontal, scene.Lighting},
	{"%s wall art canvas with %s abstract design, adding visual interest to %s", scene.Vertical, scene.Art},
	{"%s side table with %s finish and storage drawer, functional addition to %s", scene.Horizontal, scene.Furniture},
	{"%s decorative mirror with %s frame, expanding perceived space in %s", scene.Vertical, scene.Decor},
	{"%s area rug with %s geometric pattern, defining conversation area in %s", scene.Flooring, scene.FlooringCover},
	{"%s bookshelf with %s finish and multiple tiers, adding storage to %s", scene.Horizontal, scene.Furniture},
	{"%s throw pillows with %s textured fabric, enhancing comfort in %s", scene.Horizontal, scene.Decor},
	{"%s table lamp with %s ceramic base, providing task lighting for %s", scene.Horizontal, scene.Lighting},
	{"%s wall shelf with %s finish, displaying decor items in %s", scene.Vertical, scene.Decor},
}

var outdoorItems = []template{
	{"%s outdoor lounge chair with weather-resistant %s cushions for comfortable %s seating", scene.Horizontal, scene.Furniture},
	{"%s garden planter with %s finish and drainage, adding greenery to %s", scene.Horizontal, scene.Decor},
	{"%s outdoor string lights with %s bulbs, creating ambiance in %s", scene.Vertical, scene.Lighting},
	{"%s patio side table with %s weatherproof finish for %s entertaining", scene.Horizontal, scene.Furniture},
	{"%s outdoor rug with %s UV-resistant pattern, defining %s seating area", scene.Flooring, scene.FlooringCover},
	{"%s garden sculpture with %s finish, serving as focal point in %s", scene.Horizontal, scene.Art},
	{"%s outdoor floor lamp with %s weather-resistant shade for %s lighting", scene.Horizontal, scene.Lighting},
	{"%s decorative outdoor cushions with %s water-resistant fabric for %s", scene.Horizontal, scene.Decor},
	{"%s garden bench with %s finish, providing seating in %s", scene.Horizontal, scene.Furniture},
	{"%s outdoor wall art with %s weatherproof coating for %s decoration", scene.Vertical, scene.Art},
}

// OptionCount is the number of templates per environment.
func OptionCount(env scene.Environment) int {
	return len(options(env))
}

func options(env scene.Environment) []template {
	if env == scene.Outdoor {
		return outdoorItems
	}
	return indoorItems
}

// Item returns the catalog recommendation for room, steered by recent history.
//
// The first option whose index has no fallback fingerprint in recent is
// chosen. Once the number of fallback fingerprints reaches the option count,
// selection wraps to count mod options.
func Item(room scene.RoomContext, recent []history.Fingerprint) scene.Recommendation {
	opts := options(room.Environment)
	index := SelectIndex(len(opts), recent)
	t := opts[index]

	style := orDefault(room.Style, defaultStyle)
	colors := orDefault(room.Colors, defaultColors)
	roomType := orDefault(room.RoomType, defaultRoomType)

	return scene.Recommendation{
		TargetItem:  fmt.Sprintf(t.format, style, colors, roomType),
		Placement:   t.placement,
		Category:    t.category,
		Priority:    fmt.Sprintf("Fills a gap in the %s %s", style, roomType),
		Source:      scene.Fallback,
		Fingerprint: history.Fallback(index),
	}
}

// SelectIndex applies the catalog selection rule over n options.
func SelectIndex(n int, recent []history.Fingerprint) int {
	if n <= 0 {
		return 0
	}

	used := make(map[int]bool)
	count := 0
	for _, fp := range recent {
		if idx, ok := history.FallbackIndex(fp); ok {
			used[idx] = true
			count++
		}
	}

	if count >= n {
		return count % n
	}

	for i := range n {
		if !used[i] {
			return i
		}
	}
	return 0
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
