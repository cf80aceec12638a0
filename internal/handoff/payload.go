package handoff

import (
	"slices"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/history"
	"github.com/JaimeStill/stager/internal/scene"
)

// Payload carries a finished recommendation and its analysis context to a
// generation consumer. It is passed by value and receivers Clone it before
// keeping any part of it.
type Payload struct {
	Cycle          uuid.UUID             `json:"cycle"`
	Recommendation scene.Recommendation  `json:"recommendation"`
	Room           scene.RoomContext     `json:"room"`
	Critique       string                `json:"critique"`
	History        []history.Fingerprint `json:"history"`
	Product        *scene.Product        `json:"product,omitempty"`
	RefineMesh     bool                  `json:"refineMesh"`
	UseVertexColor bool                  `json:"useVertexColor"`
}

// Clone returns a copy of p that shares no memory with it.
func (p Payload) Clone() Payload {
	p.History = slices.Clone(p.History)
	if p.Product != nil {
		product := *p.Product
		p.Product = &product
	}
	return p
}
