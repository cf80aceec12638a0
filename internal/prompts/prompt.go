// Package prompts owns the instructions sent to the model at each stage of
// an analysis cycle. Built-in instructions can be replaced per stage by an
// active override stored in the database; output specs are fixed.
package prompts

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Prompt is a named instruction override for one stage. At most one prompt
// per stage is active.
type Prompt struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Stage        Stage     `json:"stage"`
	Instructions string    `json:"instructions"`
	Description  *string   `json:"description"`
	Active       bool      `json:"active"`
}

// Command carries the writable fields of a prompt for create and update.
type Command struct {
	Name         string  `json:"name"`
	Stage        Stage   `json:"stage"`
	Instructions string  `json:"instructions"`
	Description  *string `json:"description"`
}

// Validate reports ErrInvalid for a missing name or instructions.
func (c Command) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: name required", ErrInvalid)
	}
	if strings.TrimSpace(c.Instructions) == "" {
		return fmt.Errorf("%w: instructions required", ErrInvalid)
	}
	if _, err := ParseStage(string(c.Stage)); err != nil {
		return err
	}
	return nil
}
