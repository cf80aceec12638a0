package config

import (
	"fmt"
	"os"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

const (
	EnvAgentName         = "STAGER_AGENT_NAME"
	EnvAgentProviderName = "STAGER_AGENT_PROVIDER_NAME"
	EnvAgentBaseURL      = "STAGER_AGENT_BASE_URL"
	EnvAgentModelName    = "STAGER_AGENT_MODEL_NAME"
)

// agentOptions maps environment variables to provider option keys.
var agentOptions = map[string]string{
	"STAGER_AGENT_TOKEN":       "token",
	"STAGER_AGENT_DEPLOYMENT":  "deployment",
	"STAGER_AGENT_API_VERSION": "api_version",
	"STAGER_AGENT_AUTH_TYPE":   "auth_type",
}

// FinalizeAgent fills c from go-agents defaults, applies STAGER_AGENT_*
// overrides, and validates the result.
func FinalizeAgent(c *gaconfig.AgentConfig) error {
	defaults := gaconfig.DefaultAgentConfig()
	defaults.Merge(c)
	*c = defaults

	if c.Provider == nil {
		c.Provider = &gaconfig.ProviderConfig{}
	}
	if c.Provider.Options == nil {
		c.Provider.Options = make(map[string]any)
	}
	if c.Model == nil {
		c.Model = &gaconfig.ModelConfig{}
	}

	for name, dst := range map[string]*string{
		EnvAgentName:         &c.Name,
		EnvAgentProviderName: &c.Provider.Name,
		EnvAgentBaseURL:      &c.Provider.BaseURL,
		EnvAgentModelName:    &c.Model.Name,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	for name, key := range agentOptions {
		if v := os.Getenv(name); v != "" {
			c.Provider.Options[key] = v
		}
	}

	switch {
	case c.Name == "":
		return fmt.Errorf("name required")
	case c.Provider.Name == "":
		return fmt.Errorf("provider name required")
	}
	return nil
}
