package workflow

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/JaimeStill/stager/internal/codec"
	"github.com/JaimeStill/stager/internal/handoff"
	"github.com/JaimeStill/stager/internal/prompts"
	"github.com/JaimeStill/stager/internal/shopping"
)

// preview enhances the critique into an image prompt and renders it. The
// merged room description stands in when enhancement fails.
func (p *Pipeline) preview(ctx context.Context, in fanoutInput) (commit, error) {
	prompt := previewFallback(in)

	text, err := p.ask(ctx, prompts.StagePreview, previewContext(in))
	if err != nil {
		p.logger.WarnContext(ctx, "preview prompt enhancement failed", "cycle", in.id, "error", err)
	} else if enhanced := strings.Trim(strings.TrimSpace(text), `"`); enhanced != "" {
		prompt = enhanced
	}

	img, err := p.rt.Images.Generate(ctx, prompt, p.rt.ImageSize)
	if err != nil {
		return func(c *Cycle) { c.PreviewPrompt = prompt }, fmt.Errorf("generate preview: %w", err)
	}

	if len(img.Data) == 0 {
		return func(c *Cycle) {
			c.PreviewPrompt = prompt
			c.PreviewURL = img.URL
		}, nil
	}

	key := fmt.Sprintf("previews/%s.%s", in.id, codec.Extension(img.MIMEType))
	if err := p.rt.Storage.Upload(ctx, key, bytes.NewReader(img.Data), img.MIMEType); err != nil {
		return func(c *Cycle) { c.PreviewPrompt = prompt }, fmt.Errorf("upload preview: %w", err)
	}

	return func(c *Cycle) {
		c.PreviewPrompt = prompt
		c.PreviewKey = key
		c.PreviewURL = img.URL
	}, nil
}

// previewFallback merges the room context and recommendation into an image
// prompt.
func previewFallback(in fanoutInput) string {
	return fmt.Sprintf(
		"Interior design of a %s %s in %s colors, featuring %s. %s",
		in.room.Style, in.room.RoomType, in.room.Colors, in.rec.TargetItem, in.critique,
	)
}

func previewContext(in fanoutInput) string {
	return fmt.Sprintf(
		"Critique: %s\nLayout: %s\nStyle: %s\nColors: %s\nAdd: %s",
		in.critique, in.room.Layout, in.room.Style, in.room.Colors, in.rec.TargetItem,
	)
}

// narration speaks the critique. Raw PCM is wrapped as WAV before storage.
func (p *Pipeline) narration(ctx context.Context, in fanoutInput) (commit, error) {
	text := in.critique
	if text == "" {
		text = fmt.Sprintf("Consider adding %s to complete this space.", in.rec.TargetItem)
	}

	audio, err := p.rt.Speech.Synthesize(ctx, text, p.rt.Voice)
	if err != nil {
		return nil, fmt.Errorf("synthesize narration: %w", err)
	}

	data, mimeType := audio.Data, audio.MIMEType
	if codec.IsPCM(mimeType) {
		data = codec.WAV(data, codec.SampleRate(mimeType))
		mimeType = "audio/wav"
	}

	key := fmt.Sprintf("narrations/%s.%s", in.id, codec.Extension(mimeType))
	if err := p.rt.Storage.Upload(ctx, key, bytes.NewReader(data), mimeType); err != nil {
		return nil, fmt.Errorf("upload narration: %w", err)
	}

	return func(c *Cycle) { c.NarrationKey = key }, nil
}

// shop resolves a product for the recommendation. Resolution never fails.
func (p *Pipeline) shop(ctx context.Context, in fanoutInput) (commit, error) {
	res := p.rt.Shopping.Resolve(ctx, shopping.Request{
		Cycle:          in.id,
		Recommendation: in.rec,
		Location:       in.location,
		Style:          in.room.Style,
	})

	return func(c *Cycle) {
		product := res.Product
		c.Product = &product
		c.ShoppingQuery = res.Query
	}, nil
}

// handoff sends the recommendation to a generation consumer, including the
// shopping match when it finished first.
func (p *Pipeline) handoff(ctx context.Context, in fanoutInput) (commit, error) {
	payload := handoff.Payload{
		Cycle:          in.id,
		Recommendation: in.rec,
		Room:           in.room,
		Critique:       in.critique,
		History:        p.session.History().Snapshot(),
		RefineMesh:     p.cfg.RefineMesh,
		UseVertexColor: p.cfg.UseVertexColor,
	}
	if c, ok := p.session.cycle(in.id); ok {
		payload.Product = c.Product
	}

	res, err := p.rt.Broker.Send(ctx, payload)
	return func(c *Cycle) { c.Handoff = &res }, err
}
