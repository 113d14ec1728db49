package llm

import (
	"context"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"ContentPipeline/internal/config"
	"ContentPipeline/internal/ports"
)

// Client implements ports.Synthesizer backed by the Anthropic API via llmkit.
type Client struct {
	model       string
	apiKey      string
	temperature float64
}

var _ ports.Synthesizer = (*Client)(nil)

// NewClient builds a synthesizer client from configuration.
func NewClient(cfg config.SynthesisConfig) *Client {
	return &Client{
		model:       cfg.Model,
		apiKey:      cfg.APIKey,
		temperature: 0.2,
	}
}

// Complete sends one system+user prompt pair and returns the generated text.
// llmkit dispatches synchronously without a context; cancellation is honored
// before the request goes out.
func (c *Client) Complete(ctx context.Context, system, prompt string, maxTokens int) (string, error) {
	if c == nil || c.apiKey == "" || c.model == "" {
		return "", fmt.Errorf("synthesizer misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	settings := types.RequestSettings{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
	}

	response, err := anthropic.PromptWithSettings(system, prompt, "", c.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	return response.Content[0].Text, nil
}
