package backend

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls backend call policy and synthesis models.
type Config struct {
	// Timeout bounds each backend call. "0" disables the bound, letting a
	// stalled call hold its cycle open.
	Timeout           string  `toml:"timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`

	APIKey      string `toml:"api_key"`
	ImageModel  string `toml:"image_model"`
	ImageSize   string `toml:"image_size"`
	SpeechModel string `toml:"speech_model"`
	Voice       string `toml:"voice"`
	VoiceStyle  string `toml:"voice_style"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	Timeout           string
	RequestsPerSecond string
	Burst             string
	APIKey            string
	ImageModel        string
	SpeechModel       string
	Voice             string
}

// TimeoutDuration parses Timeout. Zero means no timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
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
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.RequestsPerSecond != 0 {
		c.RequestsPerSecond = overlay.RequestsPerSecond
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.ImageModel != "" {
		c.ImageModel = overlay.ImageModel
	}
	if overlay.ImageSize != "" {
		c.ImageSize = overlay.ImageSize
	}
	if overlay.SpeechModel != "" {
		c.SpeechModel = overlay.SpeechModel
	}
	if overlay.Voice != "" {
		c.Voice = overlay.Voice
	}
	if overlay.VoiceStyle != "" {
		c.VoiceStyle = overlay.VoiceStyle
	}
}

func (c *Config) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "0"
	}
	if c.Burst == 0 {
		c.Burst = 4
	}
	if c.ImageModel == "" {
		c.ImageModel = "imagen-4.0-generate-001"
	}
	if c.ImageSize == "" {
		c.ImageSize = "1024x1024"
	}
	if c.SpeechModel == "" {
		c.SpeechModel = "gemini-2.5-flash-preview-tts"
	}
	if c.Voice == "" {
		c.Voice = "Kore"
	}
	if c.VoiceStyle == "" {
		c.VoiceStyle = "Neutral, very calm voice, talking like a therapist"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := getenv(env.Timeout); v != "" {
		c.Timeout = v
	}
	if v := getenv(env.RequestsPerSecond); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.RequestsPerSecond = f
		}
	}
	if v := getenv(env.Burst); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Burst = n
		}
	}
	if v := getenv(env.APIKey); v != "" {
		c.APIKey = v
	}
	if v := getenv(env.ImageModel); v != "" {
		c.ImageModel = v
	}
	if v := getenv(env.SpeechModel); v != "" {
		c.SpeechModel = v
	}
	if v := getenv(env.Voice); v != "" {
		c.Voice = v
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if d < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be positive")
	}
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
