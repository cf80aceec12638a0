// Package shopping turns a recommendation into a priced product match.
// Every resolution yields a product with a name, price, and store: model
// output that cannot be parsed or lacks those fields is replaced from the
// fallback catalog.
package shopping

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/stager/internal/backend"
	"github.com/JaimeStill/stager/internal/fallback"
	"github.com/JaimeStill/stager/internal/location"
	"github.com/JaimeStill/stager/internal/prompts"
	"github.com/JaimeStill/stager/internal/scene"
	"github.com/JaimeStill/stager/pkg/formatting"
	"github.com/JaimeStill/stager/pkg/storage"
)

const maxQueryWords = 8

// Request describes one shopping search.
type Request struct {
	Cycle          uuid.UUID
	Recommendation scene.Recommendation
	Location       location.UserLocation
	Style          string
}

// Result is a resolved product and how it was produced.
type Result struct {
	Query         string        `json:"query"`
	QueryFallback bool          `json:"queryFallback"`
	Product       scene.Product `json:"product"`
	Source        scene.Source  `json:"source"`
}

// Options configures a Resolver.
type Options struct {
	Completer     backend.Completer
	Images        backend.ImageSynth
	Storage       storage.System
	Prompts       prompts.Source
	ImageSize     string
	ProductImages bool
}

// Resolver resolves shopping requests.
type Resolver struct {
	opts   Options
	logger *slog.Logger
}

// New creates a Resolver. Product image generation is skipped when Images
// or Storage is nil.
func New(opts Options, logger *slog.Logger) *Resolver {
	if opts.Prompts == nil {
		opts.Prompts = prompts.Defaults()
	}
	return &Resolver{
		opts:   opts,
		logger: logger.With("system", "shopping"),
	}
}

type productResponse struct {
	Name         string `json:"name"`
	Price        string `json:"price"`
	Store        string `json:"store"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	Location     string `json:"location"`
	Distance     string `json:"distance"`
	Availability string `json:"availability"`
}

// Resolve derives a query and product for req. It does not fail.
func (r *Resolver) Resolve(ctx context.Context, req Request) Result {
	query, queryFallback := r.query(ctx, req.Recommendation)

	product, source := r.product(ctx, query, req)
	product = fallback.Display(product, req.Location.City)

	if r.opts.ProductImages && req.Cycle != uuid.Nil {
		if key, err := r.productImage(ctx, req.Cycle, product, req.Style); err != nil {
			r.logger.WarnContext(ctx, "product image skipped", "cycle", req.Cycle, "error", err)
		} else {
			product.ImageKey = key
		}
	}

	r.logger.InfoContext(
		ctx, "product resolved",
		"cycle", req.Cycle,
		"query", query,
		"product", product.Name,
		"store", product.Store,
		"source", source,
	)

	return Result{
		Query:         query,
		QueryFallback: queryFallback,
		Product:       product,
		Source:        source,
	}
}

// query summarizes the item description. A failed or empty summary falls
// back to keyword matching and reports true.
func (r *Resolver) query(ctx context.Context, rec scene.Recommendation) (string, bool) {
	system, err := prompts.Compose(ctx, r.opts.Prompts, prompts.StageQuery)
	if err == nil {
		var text string
		text, err = r.opts.Completer.Complete(ctx, backend.Request{
			System: system,
			Text:   rec.TargetItem,
		})
		if err == nil {
			if q := CleanQuery(text); q != "" {
				return q, false
			}
		}
	}

	q := fallback.Query(rec.TargetItem)
	r.logger.WarnContext(ctx, "query summary unavailable, using keyword query", "query", q, "error", err)
	return q, true
}

func (r *Resolver) product(ctx context.Context, query string, req Request) (scene.Product, scene.Source) {
	loc := req.Location

	system, err := prompts.Compose(ctx, r.opts.Prompts, prompts.StageProduct)
	if err == nil {
		var text string
		text, err = r.opts.Completer.Complete(ctx, backend.Request{
			System: system,
			Text: fmt.Sprintf(
				"Search query: %s\nUser location: %s, %s, %s\nRoom style: %s",
				query, loc.City, loc.Region, loc.Country, req.Style,
			),
		})
		if err == nil {
			var resp productResponse
			resp, err = formatting.Parse[productResponse](text)
			if err == nil {
				if p, ok := resp.product(); ok {
					return p, scene.Generated
				}
				err = fmt.Errorf("product missing name, price, or store")
			}
		}
	}

	r.logger.WarnContext(ctx, "product lookup failed, using catalog product", "query", query, "error", err)
	return fallback.Product(query, loc.Country, req.Style), scene.Fallback
}

func (p productResponse) product() (scene.Product, bool) {
	name := strings.TrimSpace(p.Name)
	price := strings.TrimSpace(p.Price)
	store := strings.TrimSpace(p.Store)
	if name == "" || price == "" || store == "" {
		return scene.Product{}, false
	}

	distance := p.Distance
	if distance == "" {
		distance = p.Availability
	}

	return scene.Product{
		Name:        name,
		Price:       price,
		Store:       store,
		Description: p.Description,
		Category:    p.Category,
		Location:    p.Location,
		Distance:    distance,
	}, true
}

func (r *Resolver) productImage(ctx context.Context, cycle uuid.UUID, p scene.Product, style string) (string, error) {
	if r.opts.Images == nil || r.opts.Storage == nil {
		return "", fmt.Errorf("product images not configured")
	}

	prompt := fmt.Sprintf(
		"Product catalog photo of %s, %s, %s style, isolated on a plain white background, studio lighting",
		p.Name, p.Category, style,
	)

	img, err := r.opts.Images.Generate(ctx, prompt, r.opts.ImageSize)
	if err != nil {
		return "", err
	}
	if len(img.Data) == 0 {
		return "", fmt.Errorf("image returned by url only")
	}

	key := fmt.Sprintf("products/%s.png", cycle)
	if err := r.opts.Storage.Upload(ctx, key, bytes.NewReader(img.Data), img.MIMEType); err != nil {
		return "", fmt.Errorf("upload product image: %w", err)
	}
	return key, nil
}

// CleanQuery trims quotes and punctuation from a model summary and bounds
// it to a few words. It returns "" when nothing usable remains.
func CleanQuery(text string) string {
	text = strings.TrimSpace(text)
	if line, _, ok := strings.Cut(text, "\n"); ok {
		text = line
	}
	text = strings.Trim(text, " \t\"'`.,;:")

	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if len(words) > maxQueryWords {
		words = words[:maxQueryWords]
	}
	return strings.Join(words, " ")
}
