package prompts

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/JaimeStill/stager/pkg/repository"
)

const columns = "id, name, stage, instructions, description, active"

// Filters narrows prompt listings. Nil fields are ignored.
type Filters struct {
	Stage  *Stage `json:"stage,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

// FiltersFromQuery reads stage and active from query values. Unknown stages
// are ignored.
func FiltersFromQuery(values url.Values) Filters {
	var f Filters
	if s, err := ParseStage(values.Get("stage")); err == nil {
		f.Stage = &s
	}
	if v, err := strconv.ParseBool(values.Get("active")); err == nil {
		f.Active = &v
	}
	return f
}

// where renders the filter as a SQL WHERE clause with positional args.
func (f Filters) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Stage != nil {
		args = append(args, string(*f.Stage))
		clauses = append(clauses, fmt.Sprintf("stage = $%d", len(args)))
	}
	if f.Active != nil {
		args = append(args, *f.Active)
		clauses = append(clauses, fmt.Sprintf("active = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanPrompt(s repository.Scanner) (Prompt, error) {
	var p Prompt
	err := s.Scan(
		&p.ID,
		&p.Name,
		&p.Stage,
		&p.Instructions,
		&p.Description,
		&p.Active,
	)
	return p, err
}
