package prompts

import (
	"encoding/json"
	"slices"
)

// Stage identifies a model call in the analysis cycle.
type Stage string

// Stages of the analysis cycle that consume instructions.
const (
	StageRoom      Stage = "room"
	StageCritique  Stage = "critique"
	StageRecommend Stage = "recommend"
	StagePreview   Stage = "preview"
	StageQuery     Stage = "query"
	StageProduct   Stage = "product"
	StageLocate    Stage = "locate"
)

var stages = []Stage{
	StageRoom,
	StageCritique,
	StageRecommend,
	StagePreview,
	StageQuery,
	StageProduct,
	StageLocate,
}

// Stages returns every known stage in cycle order.
func Stages() []Stage {
	return slices.Clone(stages)
}

// UnmarshalJSON rejects unknown stage names.
func (s *Stage) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	v, err := ParseStage(raw)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseStage returns ErrInvalidStage for unknown names.
func ParseStage(s string) (Stage, error) {
	v := Stage(s)
	if !slices.Contains(stages, v) {
		return "", ErrInvalidStage
	}
	return v, nil
}
