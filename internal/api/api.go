// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"net/http"

	"github.com/JaimeStill/stager/internal/config"
	"github.com/JaimeStill/stager/internal/infrastructure"
	"github.com/JaimeStill/stager/pkg/middleware"
	"github.com/JaimeStill/stager/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware,
// and registers the domain systems with the lifecycle coordinator.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime, err := NewRuntime(context.Background(), cfg, infra)
	if err != nil {
		return nil, err
	}
	domain := NewDomain(cfg, runtime)

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, err
	}
	domain.Start(runtime.Lifecycle)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
