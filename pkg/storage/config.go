package storage

import (
	"fmt"
	"os"
)

// Provider names.
const (
	ProviderAzure  = "azure"
	ProviderMemory = "memory"
)

// Config selects the blob provider and holds Azure connection parameters.
type Config struct {
	Provider         string `toml:"provider"`
	ContainerName    string `toml:"container_name"`
	ConnectionString string `toml:"connection_string"`
}

// Env names the environment variables that override Config fields.
type Env struct {
	Provider         string
	ContainerName    string
	ConnectionString string
}

// Finalize applies defaults, environment overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	if c.Provider == "" {
		c.Provider = ProviderAzure
	}
	if c.ContainerName == "" {
		c.ContainerName = "stager"
	}
	if env != nil {
		if v := getenv(env.Provider); v != "" {
			c.Provider = v
		}
		if v := getenv(env.ContainerName); v != "" {
			c.ContainerName = v
		}
		if v := getenv(env.ConnectionString); v != "" {
			c.ConnectionString = v
		}
	}

	switch c.Provider {
	case ProviderMemory:
		return nil
	case ProviderAzure:
		if c.ConnectionString == "" {
			return fmt.Errorf("connection_string required")
		}
		return nil
	default:
		return fmt.Errorf("unknown provider: %s", c.Provider)
	}
}

// Merge applies non-empty overlay values.
func (c *Config) Merge(overlay *Config) {
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.ContainerName != "" {
		c.ContainerName = overlay.ContainerName
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
}

func getenv(name string) string {
	if name == "" {
		return ""
	}
	return os.Getenv(name)
}
