package adapter

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/agrosense/agrosense/pkg/artifact"
)

// GoogleAdapter serves Gemini models through the Gemini API backend.
type GoogleAdapter struct {
	client *genai.Client
}

// NewGoogleAdapter creates the adapter with an explicit API key.
func NewGoogleAdapter(apiKey string) (*GoogleAdapter, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}
	return &GoogleAdapter{client: client}, nil
}

func (a *GoogleAdapter) Name() string {
	return "google"
}

func (a *GoogleAdapter) Models() []string {
	return []string{
		"gemini-2.0-flash",
		"gemini-2.0-pro",
	}
}

// Generate sends the prompt and concatenates the text parts of the first
// candidate.
func (a *GoogleAdapter) Generate(ctx context.Context, model string, prompt string) (*artifact.Artifact, error) {
	resp, err := a.client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return nil, fmt.Errorf("google API error: %w", err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("google returned no candidates")
	}

	var content strings.Builder
	if parts := resp.Candidates[0].Content; parts != nil {
		for _, part := range parts.Parts {
			content.WriteString(part.Text)
		}
	}
	return artifact.New(content.String(), a.Name(), model, prompt), nil
}
