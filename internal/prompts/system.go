package prompts

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/pkg/pagination"
)

// Source resolves the effective instructions and spec for a stage.
type Source interface {
	Instructions(ctx context.Context, stage Stage) (string, error)
	Spec(ctx context.Context, stage Stage) (string, error)
}

// System manages stored overrides and acts as the Source for the pipeline.
type System interface {
	Source
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[Prompt], error)
	Find(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Create(ctx context.Context, cmd Command) (*Prompt, error)
	Update(ctx context.Context, id uuid.UUID, cmd Command) (*Prompt, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) (*Prompt, error)
	Deactivate(ctx context.Context, id uuid.UUID) (*Prompt, error)
}

type defaults struct{}

// Defaults returns a Source serving only the built-in instructions.
func Defaults() Source {
	return defaults{}
}

func (defaults) Instructions(_ context.Context, stage Stage) (string, error) {
	return Instructions(stage)
}

func (defaults) Spec(_ context.Context, stage Stage) (string, error) {
	return Spec(stage)
}

// Compose joins the effective instructions and spec for stage, followed by
// any context sections.
func Compose(ctx context.Context, src Source, stage Stage, sections ...string) (string, error) {
	text, err := src.Instructions(ctx, stage)
	if err != nil {
		return "", err
	}
	spec, err := src.Spec(ctx, stage)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(text)
	sb.WriteString("\n\n")
	sb.WriteString(spec)
	for _, s := range sections {
		if s == "" {
			continue
		}
		sb.WriteString("\n\n")
		sb.WriteString(s)
	}
	return sb.String(), nil
}
