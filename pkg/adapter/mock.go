package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/agrosense/agrosense/pkg/artifact"
)

// MockAdapter returns deterministic responses for local runs and tests.
// Responses are matched by substring against the rendered prompt, so tests
// can key on the user's query without reproducing whole prompt templates.
type MockAdapter struct {
	mu              sync.Mutex
	rules           []mockRule
	defaultResponse string
	err             error
	calls           []string
}

type mockRule struct {
	match    string
	response string
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{defaultResponse: "mock response"}
}

// RespondWhen registers a response returned whenever the prompt contains
// match. Rules are checked in registration order.
func (a *MockAdapter) RespondWhen(match, response string) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rules = append(a.rules, mockRule{match: match, response: response})
	return a
}

// SetDefault changes the fallback response.
func (a *MockAdapter) SetDefault(response string) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.defaultResponse = response
	return a
}

// FailWith makes every Generate call return err. Pass nil to clear.
func (a *MockAdapter) FailWith(err error) *MockAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.err = err
	return a
}

// Calls returns the prompts seen so far.
func (a *MockAdapter) Calls() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.calls))
	copy(out, a.calls)
	return out
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate returns a deterministic artifact for the prompt.
func (a *MockAdapter) Generate(_ context.Context, model string, prompt string) (*artifact.Artifact, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, prompt)
	if a.err != nil {
		return nil, a.err
	}
	if model == "" {
		model = "mock-1"
	}

	for _, rule := range a.rules {
		if strings.Contains(prompt, rule.match) {
			return artifact.New(rule.response, a.Name(), model, prompt), nil
		}
	}

	content := fmt.Sprintf("%s:\n%s", a.defaultResponse, prompt)
	return artifact.New(content, a.Name(), model, prompt), nil
}
