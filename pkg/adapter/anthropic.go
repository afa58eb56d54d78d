package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/agrosense/agrosense/pkg/artifact"
)

// AnthropicAdapter serves Claude models. Works for either advisor role;
// extraction benefits from the stronger instruction following.
type AnthropicAdapter struct {
	client anthropic.Client
}

// NewAnthropicAdapter creates the adapter. The SDK reads ANTHROPIC_API_KEY
// from the environment; the key argument only gates construction.
func NewAnthropicAdapter(apiKey string) (*AnthropicAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return &AnthropicAdapter{client: anthropic.NewClient()}, nil
}

func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

func (a *AnthropicAdapter) Models() []string {
	return []string{
		"claude-sonnet-4-20250514",
		"claude-opus-4-20250514",
	}
}

// Generate sends one user message and concatenates the text blocks of the
// reply.
func (a *AnthropicAdapter) Generate(ctx context.Context, model string, prompt string) (*artifact.Artifact, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: defaultMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	var content strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			content.WriteString(block.Text)
		}
	}
	return artifact.New(content.String(), a.Name(), model, prompt), nil
}
