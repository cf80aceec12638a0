// Package backend adapts the generative services used by an analysis cycle:
// chat and vision completion through go-agents, image and speech synthesis
// through the Gemini API. Every capability is wrapped with a shared rate
// limit and an optional per-call timeout.
package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// ErrBackend marks a transport or model failure from any capability.
var ErrBackend = errors.New("backend request failed")

// ErrUnavailable marks a capability that is not configured.
var ErrUnavailable = errors.New("backend capability not configured")

// Request is one completion call. Images are data URIs.
type Request struct {
	System string
	Text   string
	Images []string
}

// Completer returns model text for a request.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Image is a synthesized image, either hosted at URL or returned inline.
type Image struct {
	URL      string
	Data     []byte
	MIMEType string
}

// ImageSynth renders an image from a prompt at a size such as "1024x1024".
type ImageSynth interface {
	Generate(ctx context.Context, prompt, size string) (Image, error)
}

// Voice selects a synthesized voice and its delivery style.
type Voice struct {
	Name         string
	Instructions string
}

// Audio is synthesized speech.
type Audio struct {
	Data     []byte
	MIMEType string
}

// SpeechSynth turns text into speech.
type SpeechSynth interface {
	Synthesize(ctx context.Context, text string, voice Voice) (Audio, error)
}

// Capabilities bundles the backend services.
type Capabilities struct {
	Completer Completer
	Images    ImageSynth
	Speech    SpeechSynth
	Voice     Voice
	ImageSize string
}

// New builds guarded capabilities. Synthesis falls back to Unavailable when
// no API key is configured.
func New(ctx context.Context, cfg *Config, agent gaconfig.AgentConfig, logger *slog.Logger) (*Capabilities, error) {
	logger = logger.With("system", "backend")
	guard := NewGuard(cfg)

	caps := &Capabilities{
		Completer: GuardCompleter(NewAgentCompleter(agent), guard),
		Images:    Unavailable{},
		Speech:    Unavailable{},
		Voice:     Voice{Name: cfg.Voice, Instructions: cfg.VoiceStyle},
		ImageSize: cfg.ImageSize,
	}

	if cfg.APIKey == "" {
		logger.Warn("synthesis api key not set, image and speech synthesis disabled")
		return caps, nil
	}

	synth, err := NewGemini(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create synthesis client: %w", err)
	}
	caps.Images = GuardImages(synth, guard)
	caps.Speech = GuardSpeech(synth, guard)

	logger.Info(
		"backend ready",
		"agent", agent.Name,
		"image_model", cfg.ImageModel,
		"speech_model", cfg.SpeechModel,
		"timeout", cfg.Timeout,
	)
	return caps, nil
}

// Unavailable fails every synthesis call with ErrUnavailable.
type Unavailable struct{}

func (Unavailable) Generate(context.Context, string, string) (Image, error) {
	return Image{}, fmt.Errorf("%w: %w", ErrBackend, ErrUnavailable)
}

func (Unavailable) Synthesize(context.Context, string, Voice) (Audio, error) {
	return Audio{}, fmt.Errorf("%w: %w", ErrBackend, ErrUnavailable)
}
