package api

import (
	"context"
	"fmt"

	"github.com/JaimeStill/stager/internal/backend"
	"github.com/JaimeStill/stager/internal/config"
	"github.com/JaimeStill/stager/internal/infrastructure"
	"github.com/JaimeStill/stager/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration and the
// guarded model backend.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Backend    *backend.Capabilities
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*Runtime, error) {
	logger := infra.Logger.With("module", "api")

	caps, err := backend.New(ctx, &cfg.Backend, cfg.Agent, logger)
	if err != nil {
		return nil, fmt.Errorf("backend init failed: %w", err)
	}

	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    logger,
			Database:  infra.Database,
			Storage:   infra.Storage,
			Scheduler: infra.Scheduler,
		},
		Pagination: cfg.API.Pagination,
		Backend:    caps,
	}, nil
}
