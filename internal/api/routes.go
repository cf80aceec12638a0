package api

import (
	"net/http"

	"github.com/JaimeStill/stager/internal/config"
	"github.com/JaimeStill/stager/internal/generator"
	"github.com/JaimeStill/stager/internal/studio"
	"github.com/JaimeStill/stager/pkg/routes"
)

func routeGroups(domain *Domain, cfg *config.Config, runtime *Runtime) []routes.Group {
	groups := []routes.Group{
		domain.Prompts.Handler().Routes(),
		domain.Cycles.Handler().Routes(),
		studio.NewHandler(
			domain.Pipeline,
			cfg.Pipeline.HistoryCapacity,
			runtime.Logger,
			cfg.API.MaxUploadSizeBytes(),
		).Routes(),
		newStorageHandler(runtime.Storage, runtime.Logger).routes(),
	}

	if domain.Generator != nil {
		groups = append(groups, generator.NewHandler(domain.Generator, runtime.Logger).Routes())
	}
	if domain.Factory != nil {
		groups = append(groups, routes.Group{
			Prefix:   "/factory",
			Children: []routes.Group{generator.NewHandler(domain.Factory.Generator, runtime.Logger).Routes()},
		})
	}

	return groups
}

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	groups := routeGroups(domain, cfg, runtime)

	spec, err := buildSpec(cfg, groups)
	if err != nil {
		return err
	}

	routes.Register(mux, groups...)
	mux.HandleFunc("GET /openapi.json", spec)
	return nil
}
