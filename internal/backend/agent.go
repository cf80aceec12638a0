package backend

import (
	"context"
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
)

// AgentCompleter completes requests with a go-agents agent, using Vision when
// the request carries images and Chat otherwise.
type AgentCompleter struct {
	cfg gaconfig.AgentConfig
}

// NewAgentCompleter creates a completer for cfg. An agent is built per call
// so concurrent requests do not share conversation state.
func NewAgentCompleter(cfg gaconfig.AgentConfig) *AgentCompleter {
	return &AgentCompleter{cfg: cfg}
}

func (c *AgentCompleter) Complete(ctx context.Context, req Request) (string, error) {
	a, err := agent.New(&c.cfg)
	if err != nil {
		return "", fmt.Errorf("%w: create agent: %w", ErrBackend, err)
	}

	prompt := req.Text
	if req.System != "" {
		prompt = req.System + "\n\n" + req.Text
	}

	if len(req.Images) > 0 {
		resp, err := a.Vision(ctx, prompt, req.Images)
		if err != nil {
			return "", fmt.Errorf("%w: vision: %w", ErrBackend, err)
		}
		return resp.Content(), nil
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: chat: %w", ErrBackend, err)
	}
	return resp.Content(), nil
}
