package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/stager/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "stager"
user = "stager"
password = "stager"
ssl_mode = "disable"
max_open_conns = 25
max_idle_conns = 5
conn_max_lifetime = "15m"
conn_timeout = "5s"

[storage]
provider = "memory"
container_name = "captures"

[api]
base_path = "/api"

[api.cors]
enabled = false

[api.pagination]
default_page_size = 25
max_page_size = 50

[agent]
name = "test-agent"

[pipeline]
history_capacity = 6
handoff_delay = "2s"

[generator]
retry_delay = "1s"
max_retries = 3

[location]
city = "Milan"
country = "Italy"
latitude = 45.4642
longitude = 9.19
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"
`

// minimalConfig carries only the fields validation cannot default.
const minimalConfig = `
[database]
name = "stager"
user = "stager"

[storage]
provider = "memory"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func load(t *testing.T, content string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, content)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := load(t, baseConfig)

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host: got %s, want localhost", cfg.Database.Host)
	}
	if cfg.Storage.Provider != "memory" {
		t.Errorf("storage provider: got %s, want memory", cfg.Storage.Provider)
	}
	if cfg.Storage.ContainerName != "captures" {
		t.Errorf("storage container: got %s, want captures", cfg.Storage.ContainerName)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path: got %s, want /api", cfg.API.BasePath)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination max_page_size: got %d, want 50", cfg.API.Pagination.MaxPageSize)
	}
	if cfg.Pipeline.HandoffDelay != "2s" {
		t.Errorf("pipeline handoff_delay: got %s, want 2s", cfg.Pipeline.HandoffDelay)
	}
	if cfg.Generator.MaxRetries != 3 {
		t.Errorf("generator max_retries: got %d, want 3", cfg.Generator.MaxRetries)
	}
	if cfg.Location.City != "Milan" {
		t.Errorf("location city: got %s, want Milan", cfg.Location.City)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("STAGER_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	t.Setenv("STAGER_VERSION", "2.0.0")
	t.Setenv("STAGER_SERVER_PORT", "3000")
	t.Setenv("STAGER_PIPELINE_HISTORY_CAPACITY", "4")
	t.Setenv("STAGER_GENERATOR_FACTORY", "true")
	t.Setenv("STAGER_BACKEND_API_KEY", "key")
	t.Setenv("STAGER_LOCATION_CITY", "Turin")

	cfg := load(t, baseConfig)

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Pipeline.HistoryCapacity != 4 {
		t.Errorf("history capacity: got %d, want 4", cfg.Pipeline.HistoryCapacity)
	}
	if !cfg.Generator.Factory {
		t.Error("generator factory: got false, want true")
	}
	if cfg.Backend.APIKey != "key" {
		t.Errorf("backend api key: got %s, want key", cfg.Backend.APIKey)
	}
	if cfg.Location.City != "Turin" {
		t.Errorf("location city: got %s, want Turin", cfg.Location.City)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("STAGER_DB_NAME", "testdb")
	t.Setenv("STAGER_DB_USER", "testuser")
	t.Setenv("STAGER_STORAGE_CONNECTION_STRING", "conn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.Storage.Provider != "azure" {
		t.Errorf("storage provider default: got %s, want azure", cfg.Storage.Provider)
	}
	if cfg.Storage.ConnectionString != "conn" {
		t.Errorf("storage conn from env: got %s, want conn", cfg.Storage.ConnectionString)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `[server`)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnv(t *testing.T) {
	cfg := load(t, baseConfig)
	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}

	t.Setenv("STAGER_ENV", "production")
	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestDurations(t *testing.T) {
	cfg := load(t, baseConfig)

	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
	if d := cfg.Generator.RetryDelayDuration(); d != time.Second {
		t.Errorf("retry delay: got %v, want 1s", d)
	}
	if d := cfg.Pipeline.Delays().Handoff; d != 2*time.Second {
		t.Errorf("handoff delay: got %v, want 2s", d)
	}
}

func TestDefaults(t *testing.T) {
	cfg := load(t, minimalConfig)

	if cfg.API.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default_page_size: got %d, want 20", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.API.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max_page_size: got %d, want 100", cfg.API.Pagination.MaxPageSize)
	}
	if cfg.Storage.ContainerName != "stager" {
		t.Errorf("storage container: got %s, want stager", cfg.Storage.ContainerName)
	}
	if cfg.Pipeline.HistoryCapacity != 6 {
		t.Errorf("history capacity: got %d, want 6", cfg.Pipeline.HistoryCapacity)
	}

	d := cfg.Pipeline.Delays()
	if d.Preview != 0 || d.Narration != time.Second || d.Shopping != 1500*time.Millisecond || d.Handoff != 3*time.Second {
		t.Errorf("fan-out delays = %+v", d)
	}

	if d := cfg.Generator.SettleDelayDuration(); d != time.Second {
		t.Errorf("generator settle_delay: got %v, want 1s", d)
	}
	if cfg.Generator.MaxRetries != 0 {
		t.Errorf("generator max_retries: got %d, want 0", cfg.Generator.MaxRetries)
	}
	if !cfg.Generator.PrimaryEnabled() {
		t.Error("primary consumer should be enabled by default")
	}
	if cfg.Generator.Factory {
		t.Error("factory should be disabled by default")
	}

	if cfg.Backend.APIKey != "" {
		t.Errorf("backend api key: got %q, want empty", cfg.Backend.APIKey)
	}
	if cfg.Backend.TimeoutDuration() != 0 {
		t.Errorf("backend timeout: got %v, want 0", cfg.Backend.TimeoutDuration())
	}

	loc := cfg.Location.Default()
	if loc.City != "Rome" || loc.Country != "Italy" {
		t.Errorf("default location: got %s, %s, want Rome, Italy", loc.City, loc.Country)
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"valid 50MB", "50MB", 50 * 1024 * 1024},
		{"valid 10MB", "10MB", 10 * 1024 * 1024},
		{"invalid falls back to 20MB", "bad", 20 * 1024 * 1024},
		{"empty falls back to 20MB", "", 20 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			if got := cfg.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMaxUploadSize(t *testing.T) {
	cfg := load(t, baseConfig)
	if got, want := cfg.API.MaxUploadSizeBytes(), int64(20*1024*1024); got != want {
		t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, want)
	}

	t.Setenv("STAGER_API_MAX_UPLOAD_SIZE", "5MB")
	cfg = load(t, baseConfig)
	if got, want := cfg.API.MaxUploadSizeBytes(), int64(5*1024*1024); got != want {
		t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, want)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:    "invalid port",
			config:  minimalConfig + "\n[server]\nport = 99999\n",
			wantErr: "invalid port",
		},
		{
			name:    "invalid read_timeout",
			config:  minimalConfig + "\n[server]\nread_timeout = \"bad\"\n",
			wantErr: "invalid read_timeout",
		},
		{
			name:    "zero history capacity",
			config:  minimalConfig + "\n[pipeline]\nhistory_capacity = -1\n",
			wantErr: "history_capacity",
		},
		{
			name:    "negative delay",
			config:  minimalConfig + "\n[pipeline]\nnarration_delay = \"-1s\"\n",
			wantErr: "narration_delay",
		},
		{
			name:    "negative retries",
			config:  minimalConfig + "\n[generator]\nmax_retries = -2\n",
			wantErr: "max_retries",
		},
		{
			name:    "location out of range",
			config:  minimalConfig + "\n[location]\nlatitude = 120.0\n",
			wantErr: "default location",
		},
		{
			name: "azure without connection string",
			config: `
[database]
name = "stager"
user = "stager"

[storage]
provider = "azure"
`,
			wantErr: "connection_string required",
		},
		{
			name: "missing database name",
			config: `
[storage]
provider = "memory"
`,
			wantErr: "name required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestAgentDefaults(t *testing.T) {
	cfg := load(t, minimalConfig)

	if cfg.Agent.Name != "default-agent" {
		t.Errorf("agent name: got %s, want default-agent", cfg.Agent.Name)
	}
	if cfg.Agent.Provider == nil {
		t.Fatal("agent provider is nil")
	}
	if cfg.Agent.Provider.Name != "ollama" {
		t.Errorf("provider name: got %s, want ollama", cfg.Agent.Provider.Name)
	}
}

func TestAgentName(t *testing.T) {
	cfg := load(t, baseConfig)
	if cfg.Agent.Name != "test-agent" {
		t.Errorf("agent name: got %s, want test-agent", cfg.Agent.Name)
	}
}

func TestAgentEnvOverrides(t *testing.T) {
	t.Setenv("STAGER_AGENT_PROVIDER_NAME", "azure")
	t.Setenv("STAGER_AGENT_BASE_URL", "https://myendpoint.openai.azure.com")
	t.Setenv("STAGER_AGENT_MODEL_NAME", "gpt-5-mini")
	t.Setenv("STAGER_AGENT_TOKEN", "test-token")
	t.Setenv("STAGER_AGENT_DEPLOYMENT", "gpt-5-mini")
	t.Setenv("STAGER_AGENT_API_VERSION", "2024-12-01-preview")
	t.Setenv("STAGER_AGENT_AUTH_TYPE", "api_key")

	cfg := load(t, baseConfig)

	if cfg.Agent.Provider.Name != "azure" {
		t.Errorf("provider name: got %s, want azure", cfg.Agent.Provider.Name)
	}
	if cfg.Agent.Provider.BaseURL != "https://myendpoint.openai.azure.com" {
		t.Errorf("provider base_url: got %s, want https://myendpoint.openai.azure.com", cfg.Agent.Provider.BaseURL)
	}
	if cfg.Agent.Model.Name != "gpt-5-mini" {
		t.Errorf("model name: got %s, want gpt-5-mini", cfg.Agent.Model.Name)
	}

	opts := cfg.Agent.Provider.Options
	for key, want := range map[string]string{
		"token":       "test-token",
		"deployment":  "gpt-5-mini",
		"api_version": "2024-12-01-preview",
		"auth_type":   "api_key",
	} {
		if opts[key] != want {
			t.Errorf("%s: got %v, want %s", key, opts[key], want)
		}
	}
}

func TestAgentTokenNotRequired(t *testing.T) {
	cfg := load(t, baseConfig)
	if _, ok := cfg.Agent.Provider.Options["token"]; ok {
		t.Error("token should not be set when env var is absent")
	}
}
