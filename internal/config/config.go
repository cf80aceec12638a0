// Package config loads the service configuration from config.toml, an
// optional environment overlay, and STAGER_ environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/stager/internal/backend"
	"github.com/JaimeStill/stager/internal/generator"
	"github.com/JaimeStill/stager/internal/location"
	"github.com/JaimeStill/stager/internal/workflow"
	"github.com/JaimeStill/stager/pkg/database"
	"github.com/JaimeStill/stager/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvStagerEnv             = "STAGER_ENV"
	EnvStagerShutdownTimeout = "STAGER_SHUTDOWN_TIMEOUT"
	EnvStagerVersion         = "STAGER_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "STAGER_DB_HOST",
	Port:            "STAGER_DB_PORT",
	Name:            "STAGER_DB_NAME",
	User:            "STAGER_DB_USER",
	Password:        "STAGER_DB_PASSWORD",
	SSLMode:         "STAGER_DB_SSL_MODE",
	MaxOpenConns:    "STAGER_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "STAGER_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "STAGER_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "STAGER_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	Provider:         "STAGER_STORAGE_PROVIDER",
	ContainerName:    "STAGER_STORAGE_CONTAINER_NAME",
	ConnectionString: "STAGER_STORAGE_CONNECTION_STRING",
}

var backendEnv = &backend.Env{
	Timeout:           "STAGER_BACKEND_TIMEOUT",
	RequestsPerSecond: "STAGER_BACKEND_REQUESTS_PER_SECOND",
	Burst:             "STAGER_BACKEND_BURST",
	APIKey:            "STAGER_BACKEND_API_KEY",
	ImageModel:        "STAGER_BACKEND_IMAGE_MODEL",
	SpeechModel:       "STAGER_BACKEND_SPEECH_MODEL",
	Voice:             "STAGER_BACKEND_VOICE",
}

var pipelineEnv = &workflow.Env{
	HistoryCapacity: "STAGER_PIPELINE_HISTORY_CAPACITY",
	HandoffDelay:    "STAGER_PIPELINE_HANDOFF_DELAY",
	ProductImages:   "STAGER_PIPELINE_PRODUCT_IMAGES",
}

var generatorEnv = &generator.Env{
	RetryDelay:   "STAGER_GENERATOR_RETRY_DELAY",
	MaxRetries:   "STAGER_GENERATOR_MAX_RETRIES",
	Factory:      "STAGER_GENERATOR_FACTORY",
	SettleDelay:  "STAGER_GENERATOR_SETTLE_DELAY",
	AwaitTimeout: "STAGER_GENERATOR_AWAIT_TIMEOUT",
}

var locationEnv = &location.Env{
	Latitude:  "STAGER_LOCATION_LATITUDE",
	Longitude: "STAGER_LOCATION_LONGITUDE",
	City:      "STAGER_LOCATION_CITY",
	Country:   "STAGER_LOCATION_COUNTRY",
}

// Config is the root configuration for the stager service.
type Config struct {
	Server          ServerConfig         `toml:"server"`
	Database        database.Config      `toml:"database"`
	Storage         storage.Config       `toml:"storage"`
	API             APIConfig            `toml:"api"`
	Agent           gaconfig.AgentConfig `toml:"agent"`
	Backend         backend.Config       `toml:"backend"`
	Pipeline        workflow.Config      `toml:"pipeline"`
	Generator       generator.Config     `toml:"generator"`
	Location        location.Config      `toml:"location"`
	ShutdownTimeout string               `toml:"shutdown_timeout"`
	Version         string               `toml:"version"`
}

// Env returns the STAGER_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvStagerEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.Finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.API.Merge(&overlay.API)
	c.Agent.Merge(&overlay.Agent)
	c.Backend.Merge(&overlay.Backend)
	c.Pipeline.Merge(&overlay.Pipeline)
	c.Generator.Merge(&overlay.Generator)
	c.Location.Merge(&overlay.Location)
}

// Finalize applies defaults, environment overrides, and validation to the
// root config and every section.
func (c *Config) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := FinalizeAgent(&c.Agent); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	if err := c.Backend.Finalize(backendEnv); err != nil {
		return fmt.Errorf("backend: %w", err)
	}
	if err := c.Pipeline.Finalize(pipelineEnv); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := c.Generator.Finalize(generatorEnv); err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	if err := c.Location.Finalize(locationEnv); err != nil {
		return fmt.Errorf("location: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvStagerShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvStagerVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvStagerEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
