package api

import (
	"github.com/JaimeStill/stager/internal/config"
	"github.com/JaimeStill/stager/internal/cycles"
	"github.com/JaimeStill/stager/internal/generator"
	"github.com/JaimeStill/stager/internal/handoff"
	"github.com/JaimeStill/stager/internal/location"
	"github.com/JaimeStill/stager/internal/prompts"
	"github.com/JaimeStill/stager/internal/shopping"
	"github.com/JaimeStill/stager/internal/workflow"
	"github.com/JaimeStill/stager/pkg/lifecycle"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Prompts   prompts.System
	Cycles    cycles.System
	Location  *location.Tracker
	Shopping  *shopping.Resolver
	Generator *generator.Generator
	Factory   *generator.Factory
	Broker    *handoff.Broker
	Pipeline  *workflow.Pipeline
}

// NewDomain creates all domain systems from the API runtime. Consumers are
// registered with the broker only when enabled in cfg.Generator.
func NewDomain(cfg *config.Config, runtime *Runtime) *Domain {
	caps := runtime.Backend

	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	cyclesSystem := cycles.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	tracker := location.NewTracker(
		&cfg.Location,
		location.NewModelGeocoder(caps.Completer, promptsSystem),
		runtime.Logger,
	)

	resolver := shopping.New(shopping.Options{
		Completer:     caps.Completer,
		Images:        caps.Images,
		Storage:       runtime.Storage,
		Prompts:       promptsSystem,
		ImageSize:     caps.ImageSize,
		ProductImages: cfg.Pipeline.ProductImages,
	}, runtime.Logger)

	sink := generator.NewBlobSink(runtime.Storage, &cfg.Generator, runtime.Logger)

	d := &Domain{
		Prompts:  promptsSystem,
		Cycles:   cyclesSystem,
		Location: tracker,
		Shopping: resolver,
	}

	var primary, factory handoff.Consumer
	if cfg.Generator.PrimaryEnabled() {
		d.Generator = generator.New(&cfg.Generator, sink, runtime.Scheduler, runtime.Logger)
		primary = d.Generator
	}
	if cfg.Generator.Factory {
		d.Factory = generator.NewFactory(&cfg.Generator, sink, runtime.Scheduler, runtime.Logger)
		factory = d.Factory
	}
	d.Broker = handoff.NewBroker(primary, factory, runtime.Logger)

	d.Pipeline = workflow.New(&cfg.Pipeline, &workflow.Runtime{
		Completer: caps.Completer,
		Images:    caps.Images,
		Speech:    caps.Speech,
		Voice:     caps.Voice,
		ImageSize: caps.ImageSize,
		Storage:   runtime.Storage,
		Prompts:   promptsSystem,
		Shopping:  resolver,
		Broker:    d.Broker,
		Location:  tracker,
		Scheduler: runtime.Scheduler,
		Archive:   cyclesSystem,
		Logger:    runtime.Logger,
	})

	return d
}

// Start ties the pipeline and enabled consumers to the coordinator.
func (d *Domain) Start(lc *lifecycle.Coordinator) {
	d.Pipeline.Start(lc)
	if d.Generator != nil {
		d.Generator.Start(lc)
	}
	if d.Factory != nil {
		d.Factory.Start(lc)
	}
}
