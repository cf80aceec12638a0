package generator

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls the generation consumers.
type Config struct {
	// RetryDelay is the wait before a busy consumer re-checks a deferred
	// request.
	RetryDelay string `toml:"retry_delay"`
	// MaxRetries bounds deferrals per request. Zero retries until the
	// consumer is free.
	MaxRetries     int   `toml:"max_retries"`
	EnhancePrompts *bool `toml:"enhance_prompts"`

	Primary *bool `toml:"primary"`
	Factory bool  `toml:"factory"`

	// SettleDelay holds a consumer busy after a successful submission.
	SettleDelay string `toml:"settle_delay"`
	// AwaitTimeout bounds how long a submitted job holds the consumer busy
	// waiting for its result. Zero settles on submission.
	AwaitTimeout string `toml:"await_timeout"`
	PollInterval string `toml:"poll_interval"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	RetryDelay   string
	MaxRetries   string
	Factory      string
	SettleDelay  string
	AwaitTimeout string
}

// RetryDelayDuration parses RetryDelay.
func (c *Config) RetryDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryDelay)
	return d
}

// SettleDelayDuration parses SettleDelay.
func (c *Config) SettleDelayDuration() time.Duration {
	d, _ := time.ParseDuration(c.SettleDelay)
	return d
}

// AwaitTimeoutDuration parses AwaitTimeout.
func (c *Config) AwaitTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.AwaitTimeout)
	return d
}

// PollIntervalDuration parses PollInterval.
func (c *Config) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.PollInterval)
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
	if overlay.RetryDelay != "" {
		c.RetryDelay = overlay.RetryDelay
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.EnhancePrompts != nil {
		c.EnhancePrompts = overlay.EnhancePrompts
	}
	if overlay.Primary != nil {
		c.Primary = overlay.Primary
	}
	if overlay.Factory {
		c.Factory = true
	}
	if overlay.SettleDelay != "" {
		c.SettleDelay = overlay.SettleDelay
	}
	if overlay.AwaitTimeout != "" {
		c.AwaitTimeout = overlay.AwaitTimeout
	}
	if overlay.PollInterval != "" {
		c.PollInterval = overlay.PollInterval
	}
}

// Enhance reports whether prompts carry analysis context.
func (c *Config) Enhance() bool {
	return c.EnhancePrompts == nil || *c.EnhancePrompts
}

// PrimaryEnabled reports whether the primary consumer is registered.
func (c *Config) PrimaryEnabled() bool {
	return c.Primary == nil || *c.Primary
}

func (c *Config) loadDefaults() {
	if c.RetryDelay == "" {
		c.RetryDelay = "2s"
	}
	if c.SettleDelay == "" {
		c.SettleDelay = "1s"
	}
	if c.AwaitTimeout == "" {
		c.AwaitTimeout = "0"
	}
	if c.PollInterval == "" {
		c.PollInterval = "2s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if v := getenv(env.RetryDelay); v != "" {
		c.RetryDelay = v
	}
	if v := getenv(env.MaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := getenv(env.Factory); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Factory = b
		}
	}
	if v := getenv(env.SettleDelay); v != "" {
		c.SettleDelay = v
	}
	if v := getenv(env.AwaitTimeout); v != "" {
		c.AwaitTimeout = v
	}
}

func (c *Config) validate() error {
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil {
		return fmt.Errorf("invalid retry_delay: %w", err)
	}
	if d <= 0 {
		return fmt.Errorf("retry_delay must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	s, err := time.ParseDuration(c.SettleDelay)
	if err != nil {
		return fmt.Errorf("invalid settle_delay: %w", err)
	}
	if s < 0 {
		return fmt.Errorf("settle_delay must not be negative")
	}
	if _, err := time.ParseDuration(c.AwaitTimeout); err != nil {
		return fmt.Errorf("invalid await_timeout: %w", err)
	}
	p, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return fmt.Errorf("invalid poll_interval: %w", err)
	}
	if p <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}
	return nil
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
