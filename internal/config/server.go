package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ServerConfig holds HTTP server parameters. Durations are Go duration
// strings.
type ServerConfig struct {
	Host              string `toml:"host"`
	Port              int    `toml:"port"`
	ReadTimeout       string `toml:"read_timeout"`
	ReadHeaderTimeout string `toml:"read_header_timeout"`
	WriteTimeout      string `toml:"write_timeout"`
	ShutdownTimeout   string `toml:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration {
	return duration(c.ReadTimeout)
}

func (c *ServerConfig) ReadHeaderTimeoutDuration() time.Duration {
	return duration(c.ReadHeaderTimeout)
}

func (c *ServerConfig) WriteTimeoutDuration() time.Duration {
	return duration(c.WriteTimeout)
}

func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration {
	return duration(c.ShutdownTimeout)
}

// Finalize applies defaults, STAGER_SERVER_* overrides, and validation.
func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	for dst, v := range c.strings(overlay) {
		if v != "" {
			*dst = v
		}
	}
}

// strings pairs each string field of c with the same field of other.
func (c *ServerConfig) strings(other *ServerConfig) map[*string]string {
	return map[*string]string{
		&c.Host:              other.Host,
		&c.ReadTimeout:       other.ReadTimeout,
		&c.ReadHeaderTimeout: other.ReadHeaderTimeout,
		&c.WriteTimeout:      other.WriteTimeout,
		&c.ShutdownTimeout:   other.ShutdownTimeout,
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Port == 0 {
		c.Port = 8080
	}
	c.Merge(&ServerConfig{
		Host:              pick(c.Host, "0.0.0.0"),
		ReadTimeout:       pick(c.ReadTimeout, "1m"),
		ReadHeaderTimeout: pick(c.ReadHeaderTimeout, "10s"),
		WriteTimeout:      pick(c.WriteTimeout, "15m"),
		ShutdownTimeout:   pick(c.ShutdownTimeout, "30s"),
	})
}

func (c *ServerConfig) loadEnv() {
	if v := os.Getenv("STAGER_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	for name, dst := range map[string]*string{
		"STAGER_SERVER_HOST":                &c.Host,
		"STAGER_SERVER_READ_TIMEOUT":        &c.ReadTimeout,
		"STAGER_SERVER_READ_HEADER_TIMEOUT": &c.ReadHeaderTimeout,
		"STAGER_SERVER_WRITE_TIMEOUT":       &c.WriteTimeout,
		"STAGER_SERVER_SHUTDOWN_TIMEOUT":    &c.ShutdownTimeout,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}
	for _, d := range []struct{ name, value string }{
		{"read_timeout", c.ReadTimeout},
		{"read_header_timeout", c.ReadHeaderTimeout},
		{"write_timeout", c.WriteTimeout},
		{"shutdown_timeout", c.ShutdownTimeout},
	} {
		if _, err := time.ParseDuration(d.value); err != nil {
			return fmt.Errorf("invalid %s: %w", d.name, err)
		}
	}
	return nil
}

func pick(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func duration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}
