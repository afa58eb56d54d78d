package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRulesMatchInOrder(t *testing.T) {
	mock := NewMockAdapter().
		RespondWhen("nitrogen", "first rule").
		RespondWhen("nitrogen kam", "never reached")

	art, err := mock.Generate(context.Background(), "", "mere khet me nitrogen kam hai")
	require.NoError(t, err)
	assert.Equal(t, "first rule", art.Content)
	assert.Equal(t, "mock", art.Adapter)
	assert.Equal(t, "mock-1", art.Model)
}

func TestMockDefaultEchoesPrompt(t *testing.T) {
	mock := NewMockAdapter().SetDefault("fallback")

	art, err := mock.Generate(context.Background(), "mock-1", "unmatched prompt")
	require.NoError(t, err)
	assert.Contains(t, art.Content, "fallback")
	assert.Contains(t, art.Content, "unmatched prompt")
}

func TestMockFailWith(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockAdapter().FailWith(boom)

	_, err := mock.Generate(context.Background(), "mock-1", "anything")
	assert.ErrorIs(t, err, boom)

	mock.FailWith(nil)
	_, err = mock.Generate(context.Background(), "mock-1", "anything")
	assert.NoError(t, err)
}

func TestMockRecordsCalls(t *testing.T) {
	mock := NewMockAdapter()
	_, _ = mock.Generate(context.Background(), "mock-1", "one")
	_, _ = mock.Generate(context.Background(), "mock-1", "two")

	assert.Equal(t, []string{"one", "two"}, mock.Calls())
}
