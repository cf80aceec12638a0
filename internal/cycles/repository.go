package cycles

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/workflow"
	"github.com/JaimeStill/stager/pkg/pagination"
	"github.com/JaimeStill/stager/pkg/repository"
)

type repo struct {
	db         *sql.DB
	logger     *slog.Logger
	pagination pagination.Config
}

// New creates the database-backed cycle archive.
func New(db *sql.DB, logger *slog.Logger, pagination pagination.Config) System {
	return &repo{
		db:         db,
		logger:     logger.With("system", "cycles"),
		pagination: pagination,
	}
}

func (r *repo) Handler() *Handler {
	return NewHandler(r, r.logger, r.pagination)
}

// Save upserts the snapshot of c. Later snapshots of the same cycle replace
// earlier ones.
func (r *repo) Save(ctx context.Context, c workflow.Cycle) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal cycle: %w", err)
	}

	var target, category, source string
	if c.Recommendation != nil {
		target = c.Recommendation.TargetItem
		category = string(c.Recommendation.Category)
		source = string(c.Recommendation.Source)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO cycles(id, prompt, status, target_item, category, source, data, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			target_item = EXCLUDED.target_item,
			category = EXCLUDED.category,
			source = EXCLUDED.source,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		c.ID, c.Prompt, c.Status, target, category, source, data, c.StartedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save cycle %s: %w", c.ID, err)
	}
	return nil
}

func (r *repo) List(ctx context.Context, page pagination.PageRequest, filters Filters) (*pagination.PageResult[workflow.Cycle], error) {
	page.Normalize(r.pagination)
	where, args := filters.where()

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM cycles"+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count cycles: %w", err)
	}

	q := fmt.Sprintf(
		"SELECT data FROM cycles%s ORDER BY started_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)+1, len(args)+2,
	)
	args = append(args, page.PageSize, page.Offset())

	items, err := repository.QueryMany(ctx, r.db, q, args, scanCycle)
	if err != nil {
		return nil, fmt.Errorf("query cycles: %w", err)
	}

	result := pagination.NewPageResult(items, total, page.Page, page.PageSize)
	return &result, nil
}

func (r *repo) Find(ctx context.Context, id uuid.UUID) (*workflow.Cycle, error) {
	c, err := repository.QueryOne(ctx, r.db, "SELECT data FROM cycles WHERE id = $1", []any{id}, scanCycle)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrInvalid)
	}
	return &c, nil
}

func (r *repo) Delete(ctx context.Context, id uuid.UUID) error {
	err := repository.ExecExpectOne(ctx, r.db, "DELETE FROM cycles WHERE id = $1", id)
	if err != nil {
		return repository.MapError(err, ErrNotFound, ErrInvalid)
	}

	r.logger.Info("cycle deleted", "id", id)
	return nil
}

func scanCycle(s repository.Scanner) (workflow.Cycle, error) {
	var (
		data []byte
		c    workflow.Cycle
	)
	if err := s.Scan(&data); err != nil {
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode cycle: %w", err)
	}
	return c, nil
}
