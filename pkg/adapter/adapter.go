// Package adapter provides a uniform interface over LLM providers. The
// advisor uses the same interface for both of its model roles: structured
// parameter extraction (NLU) and prose composition (NLG).
package adapter

import (
	"context"

	"github.com/agrosense/agrosense/pkg/artifact"
)

// defaultMaxTokens caps every generation. Both advisor outputs are short: a
// small JSON object or a few conversational paragraphs.
const defaultMaxTokens = 1024

// Adapter defines the interface for LLM provider adapters.
type Adapter interface {
	// Generate sends a prompt to the model and returns an artifact.
	Generate(ctx context.Context, model string, prompt string) (*artifact.Artifact, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}
