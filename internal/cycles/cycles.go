// Package cycles archives analysis cycle snapshots in PostgreSQL. The full
// cycle record is stored as JSON next to a few columns used for listing.
package cycles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/scene"
	"github.com/JaimeStill/stager/internal/workflow"
	"github.com/JaimeStill/stager/pkg/pagination"
)

var (
	ErrNotFound = errors.New("cycle not found")
	ErrInvalid  = errors.New("invalid cycle")
)

// MapHTTPStatus maps cycle errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// System is the cycle archive. It satisfies workflow.Archive.
type System interface {
	workflow.Archive
	Handler() *Handler

	List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[workflow.Cycle], error)
	Find(ctx context.Context, id uuid.UUID) (*workflow.Cycle, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Filters narrows cycle listings. Empty fields are ignored.
type Filters struct {
	Status string       `json:"status,omitempty"`
	Source scene.Source `json:"source,omitempty"`
}

// FiltersFromQuery reads status and source from query values. Unknown
// sources are ignored.
func FiltersFromQuery(values url.Values) Filters {
	f := Filters{Status: strings.TrimSpace(values.Get("status"))}
	switch src := scene.Source(values.Get("source")); src {
	case scene.Generated, scene.Fallback:
		f.Source = src
	}
	return f
}

func (f Filters) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if f.Source != "" {
		args = append(args, string(f.Source))
		clauses = append(clauses, fmt.Sprintf("source = $%d", len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}
