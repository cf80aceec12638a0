package workflow

import (
	"context"
	"log/slog"

	"github.com/JaimeStill/stager/internal/backend"
	"github.com/JaimeStill/stager/internal/handoff"
	"github.com/JaimeStill/stager/internal/location"
	"github.com/JaimeStill/stager/internal/prompts"
	"github.com/JaimeStill/stager/internal/schedule"
	"github.com/JaimeStill/stager/internal/shopping"
	"github.com/JaimeStill/stager/pkg/storage"
)

// Archive persists cycle snapshots.
type Archive interface {
	Save(ctx context.Context, c Cycle) error
}

// Runtime bundles the dependencies the pipeline nodes and tasks require.
// It is assembled by higher-level composition code from infrastructure and
// domain systems. Archive may be nil.
type Runtime struct {
	Completer backend.Completer
	Images    backend.ImageSynth
	Speech    backend.SpeechSynth
	Voice     backend.Voice
	ImageSize string
	Storage   storage.System
	Prompts   prompts.Source
	Shopping  *shopping.Resolver
	Broker    *handoff.Broker
	Location  *location.Tracker
	Scheduler schedule.Scheduler
	Archive   Archive
	Logger    *slog.Logger
}
