package generator

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/fallback"
	"github.com/JaimeStill/stager/internal/handoff"
	"github.com/JaimeStill/stager/internal/history"
	"github.com/JaimeStill/stager/internal/scene"
)

// AssetRequest is a single-item 3D generation job.
type AssetRequest struct {
	ID             uuid.UUID             `json:"id"`
	Cycle          uuid.UUID             `json:"cycle"`
	Prompt         string                `json:"prompt"`
	TargetItem     string                `json:"targetItem"`
	ItemType       string                `json:"itemType"`
	Placement      scene.Placement       `json:"placement"`
	Category       scene.Category        `json:"category"`
	Room           scene.RoomContext     `json:"room"`
	Product        *scene.Product        `json:"product,omitempty"`
	History        []history.Fingerprint `json:"history"`
	RefineMesh     bool                  `json:"refineMesh"`
	UseVertexColor bool                  `json:"useVertexColor"`
	Retries        int                   `json:"retries"`
	RequestedAt    time.Time             `json:"requestedAt"`
}

// AssetSink accepts generation jobs. Submit returns when the job settles.
type AssetSink interface {
	Submit(ctx context.Context, req AssetRequest) error
}

// EnhancedPrompt appends the room context to the target item so the asset
// matches the analysed space. Empty context fields are left out.
func EnhancedPrompt(target string, room scene.RoomContext) string {
	var parts []string
	if room.Style != "" {
		parts = append(parts, room.Style+" style")
	}
	if room.Colors != "" {
		parts = append(parts, room.Colors+" colors")
	}
	if room.Environment != "" {
		parts = append(parts, string(room.Environment)+" setting")
	}
	if room.RoomType != "" {
		parts = append(parts, "for "+room.RoomType)
	}

	if len(parts) == 0 {
		return target
	}
	return target + ", " + strings.Join(parts, ", ")
}

func newAssetRequest(p handoff.Payload, enhance bool, retries int) AssetRequest {
	prompt := p.Recommendation.TargetItem
	if enhance {
		prompt = EnhancedPrompt(prompt, p.Room)
	}

	return AssetRequest{
		ID:             uuid.New(),
		Cycle:          p.Cycle,
		Prompt:         prompt,
		TargetItem:     p.Recommendation.TargetItem,
		ItemType:       fallback.ItemType(p.Recommendation.TargetItem),
		Placement:      p.Recommendation.Placement,
		Category:       p.Recommendation.Category,
		Room:           p.Room,
		Product:        p.Product,
		History:        p.History,
		RefineMesh:     p.RefineMesh,
		UseVertexColor: p.UseVertexColor,
		Retries:        retries,
		RequestedAt:    time.Now().UTC(),
	}
}
