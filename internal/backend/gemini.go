package backend

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

// Gemini synthesizes images and speech through the Gemini API.
type Gemini struct {
	client      *genai.Client
	imageModel  string
	speechModel string
}

// NewGemini creates a Gemini client from cfg.
func NewGemini(ctx context.Context, cfg *Config) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	return &Gemini{
		client:      client,
		imageModel:  cfg.ImageModel,
		speechModel: cfg.SpeechModel,
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt, size string) (Image, error) {
	resp, err := g.client.Models.GenerateImages(ctx, g.imageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    AspectRatio(size),
	})
	if err != nil {
		return Image{}, fmt.Errorf("%w: generate image: %w", ErrBackend, err)
	}
	if len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return Image{}, fmt.Errorf("%w: generate image: empty response", ErrBackend)
	}

	img := resp.GeneratedImages[0].Image
	out := Image{URL: img.GCSURI, Data: img.ImageBytes, MIMEType: img.MIMEType}
	if out.MIMEType == "" {
		out.MIMEType = "image/png"
	}
	return out, nil
}

func (g *Gemini) Synthesize(ctx context.Context, text string, voice Voice) (Audio, error) {
	if voice.Instructions != "" {
		text = fmt.Sprintf("Say in a %s: %s", strings.ToLower(voice.Instructions), text)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.speechModel, genai.Text(text), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice.Name},
			},
		},
	})
	if err != nil {
		return Audio{}, fmt.Errorf("%w: synthesize speech: %w", ErrBackend, err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return Audio{Data: part.InlineData.Data, MIMEType: part.InlineData.MIMEType}, nil
			}
		}
	}
	return Audio{}, fmt.Errorf("%w: synthesize speech: no audio in response", ErrBackend)
}

var aspectRatios = []struct {
	name  string
	ratio float64
}{
	{"1:1", 1},
	{"3:4", 0.75},
	{"4:3", 4.0 / 3.0},
	{"9:16", 9.0 / 16.0},
	{"16:9", 16.0 / 9.0},
}

// AspectRatio maps a "WIDTHxHEIGHT" size to the nearest supported ratio,
// defaulting to "1:1".
func AspectRatio(size string) string {
	w, h, ok := strings.Cut(strings.ToLower(size), "x")
	if !ok {
		return "1:1"
	}
	width, err1 := strconv.Atoi(strings.TrimSpace(w))
	height, err2 := strconv.Atoi(strings.TrimSpace(h))
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return "1:1"
	}

	target := float64(width) / float64(height)
	best, bestDiff := "1:1", -1.0
	for _, r := range aspectRatios {
		diff := r.ratio - target
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best, bestDiff = r.name, diff
		}
	}
	return best
}
