package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/go-agents-orchestration/pkg/state"

	"github.com/JaimeStill/stager/internal/codec"
	"github.com/JaimeStill/stager/internal/fallback"
	"github.com/JaimeStill/stager/internal/history"
	"github.com/JaimeStill/stager/internal/prompts"
	"github.com/JaimeStill/stager/internal/scene"
	"github.com/JaimeStill/stager/pkg/formatting"
)

const minTargetItem = 10

type recommendResponse struct {
	TargetItem string `json:"targetItem"`
	Placement  string `json:"placement"`
	Priority   string `json:"priority"`
	Category   string `json:"category"`
}

// recommendNode chooses one item for the analysed space. A backend, parse,
// or validation failure is replaced by the fallback catalog, so the node
// always produces a recommendation.
func (p *Pipeline) recommendNode() state.StateNode {
	return state.NewFunctionNode(func(ctx context.Context, s state.State) (state.State, error) {
		id, err := get[uuid.UUID](s, KeyCycle)
		if err != nil {
			return s, err
		}
		capture, err := get[codec.Capture](s, KeyCapture)
		if err != nil {
			return s, err
		}
		room, err := get[scene.RoomContext](s, KeyRoom)
		if err != nil {
			return s, err
		}

		if !p.session.transition(id, Recommending, StatusRecommending) {
			return s, fmt.Errorf("cycle %s superseded", id)
		}

		recent := p.session.History().Snapshot()

		rec, cause := p.recommend(ctx, room, recent, capture)
		if cause != nil {
			p.logger.WarnContext(ctx, "using fallback recommendation", "cycle", id, "error", cause)
			rec = fallback.Item(room, recent)
		}

		p.session.History().Record(rec.Fingerprint)
		if c, ok := p.session.recommend(id, rec, cause); ok {
			p.save(ctx, c)
		}

		p.logger.InfoContext(
			ctx, "recommendation selected",
			"cycle", id,
			"source", rec.Source,
			"category", rec.Category,
			"fingerprint", rec.Fingerprint,
		)

		return s.Set(KeyRecommendation, rec), nil
	})
}

func (p *Pipeline) recommend(ctx context.Context, room scene.RoomContext, recent []history.Fingerprint, capture codec.Capture) (scene.Recommendation, error) {
	text, err := p.ask(ctx, prompts.StageRecommend, recommendContext(room, recent), capture.DataURI)
	if err != nil {
		return scene.Recommendation{}, err
	}
	return ParseRecommendation(text)
}

// ParseRecommendation parses and validates a recommendation response. The
// target item must exceed ten characters and a category must be present,
// otherwise ErrValidation is returned.
func ParseRecommendation(text string) (scene.Recommendation, error) {
	resp, err := formatting.Parse[recommendResponse](text)
	if err != nil {
		return scene.Recommendation{}, err
	}

	target := strings.TrimSpace(resp.TargetItem)
	category := strings.ToLower(strings.TrimSpace(resp.Category))

	if len(target) <= minTargetItem {
		return scene.Recommendation{}, fmt.Errorf("%w: target item %q too short", ErrValidation, target)
	}
	if category == "" {
		return scene.Recommendation{}, fmt.Errorf("%w: category missing", ErrValidation)
	}

	placement := scene.ParsePlacement(resp.Placement)
	priority := strings.TrimSpace(resp.Priority)

	return scene.Recommendation{
		TargetItem:  target,
		Placement:   placement,
		Category:    scene.Category(category),
		Priority:    priority,
		Source:      scene.Generated,
		Fingerprint: history.Generated(category, string(placement), priority),
	}, nil
}

func recommendContext(room scene.RoomContext, recent []history.Fingerprint) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Room type: %s\n", room.RoomType)
	fmt.Fprintf(&sb, "Environment: %s\n", room.Environment)
	fmt.Fprintf(&sb, "Style: %s\n", room.Style)
	fmt.Fprintf(&sb, "Colors: %s\n", room.Colors)
	fmt.Fprintf(&sb, "Layout: %s\n", room.Layout)
	fmt.Fprintf(&sb, "Suggested improvement: %s\n", room.Suggestions)

	if len(recent) == 0 {
		sb.WriteString("Previously recommended: none")
		return sb.String()
	}
	fmt.Fprintf(&sb, "Previously recommended: %s", strings.Join(history.Strings(recent), ", "))
	return sb.String()
}
