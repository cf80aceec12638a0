package workflow

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/JaimeStill/stager/internal/codec"
	"github.com/JaimeStill/stager/internal/history"
)

// Config controls the analysis cycle.
type Config struct {
	HistoryCapacity   int    `toml:"history_capacity"`
	MaxImageDimension int    `toml:"max_image_dimension"`
	PreviewDelay      string `toml:"preview_delay"`
	NarrationDelay    string `toml:"narration_delay"`
	ShoppingDelay     string `toml:"shopping_delay"`
	HandoffDelay      string `toml:"handoff_delay"`
	ProductImages     bool   `toml:"product_images"`
	RefineMesh        bool   `toml:"refine_mesh"`
	UseVertexColor    bool   `toml:"use_vertex_color"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	HistoryCapacity string
	HandoffDelay    string
	ProductImages   string
}

// Delays are the fan-out offsets from the end of recommendation.
type Delays struct {
	Preview   time.Duration
	Narration time.Duration
	Shopping  time.Duration
	Handoff   time.Duration
}

// Delays parses the configured fan-out delays.
func (c *Config) Delays() Delays {
	return Delays{
		Preview:   parse(c.PreviewDelay),
		Narration: parse(c.NarrationDelay),
		Shopping:  parse(c.ShoppingDelay),
		Handoff:   parse(c.HandoffDelay),
	}
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge applies non-zero overlay values.
func (c *Config) Merge(overlay *Config) {
	if overlay.HistoryCapacity != 0 {
		c.HistoryCapacity = overlay.HistoryCapacity
	}
	if overlay.MaxImageDimension != 0 {
		c.MaxImageDimension = overlay.MaxImageDimension
	}
	if overlay.PreviewDelay != "" {
		c.PreviewDelay = overlay.PreviewDelay
	}
	if overlay.NarrationDelay != "" {
		c.NarrationDelay = overlay.NarrationDelay
	}
	if overlay.ShoppingDelay != "" {
		c.ShoppingDelay = overlay.ShoppingDelay
	}
	if overlay.HandoffDelay != "" {
		c.HandoffDelay = overlay.HandoffDelay
	}
	if overlay.ProductImages {
		c.ProductImages = true
	}
	if overlay.RefineMesh {
		c.RefineMesh = true
	}
	if overlay.UseVertexColor {
		c.UseVertexColor = true
	}
}

func (c *Config) loadDefaults() {
	if c.HistoryCapacity == 0 {
		c.HistoryCapacity = history.DefaultCapacity
	}
	if c.MaxImageDimension == 0 {
		c.MaxImageDimension = codec.DefaultMaxDimension
	}
	if c.PreviewDelay == "" {
		c.PreviewDelay = "0s"
	}
	if c.NarrationDelay == "" {
		c.NarrationDelay = "1s"
	}
	if c.ShoppingDelay == "" {
		c.ShoppingDelay = "1.5s"
	}
	if c.HandoffDelay == "" {
		c.HandoffDelay = "3s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := getenv(env.HistoryCapacity); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.HistoryCapacity = n
		}
	}
	if v := getenv(env.HandoffDelay); v != "" {
		c.HandoffDelay = v
	}
	if v := getenv(env.ProductImages); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ProductImages = b
		}
	}
}

func (c *Config) validate() error {
	if c.HistoryCapacity < 1 {
		return fmt.Errorf("history_capacity must be at least 1")
	}
	if c.MaxImageDimension < 64 {
		return fmt.Errorf("max_image_dimension must be at least 64")
	}
	delays := map[string]string{
		"preview_delay":   c.PreviewDelay,
		"narration_delay": c.NarrationDelay,
		"shopping_delay":  c.ShoppingDelay,
		"handoff_delay":   c.HandoffDelay,
	}
	for name, v := range delays {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d < 0 {
			return fmt.Errorf("%s must not be negative", name)
		}
	}
	return nil
}

func parse(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
