package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"ANTHROPIC_API_KEY", "OPENAI_API_KEY", "GOOGLE_API_KEY", "DEEPSEEK_API_KEY",
		"AGROSENSE_CATALOG", "AGROSENSE_INDEX", "AGROSENSE_LISTEN_ADDR",
	} {
		t.Setenv(key, "")
	}
	return home
}

func TestLoadDefaults(t *testing.T) {
	isolateHome(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Empty(t, cfg.OpenAIAPIKey)
	assert.Equal(t, "openai", cfg.Advisor.ExtractorAdapter)
	assert.Equal(t, "gpt-4o-mini", cfg.Advisor.ExtractorModel)
	assert.Equal(t, "openai", cfg.Advisor.ComposerAdapter)
	assert.Equal(t, "text-embedding-3-small", cfg.Advisor.EmbeddingModel)
	assert.Equal(t, filepath.Join("data", "crop_profiles.csv"), cfg.Advisor.CatalogPath)
	assert.Equal(t, filepath.Join("data", "agro_index.json"), cfg.Advisor.IndexPath)
	assert.Equal(t, 5, cfg.Advisor.RetrievalK)
	assert.Equal(t, 5, cfg.Advisor.TopK)
	assert.Equal(t, ":8080", cfg.Advisor.ListenAddr)
	assert.Equal(t, 60, cfg.Advisor.SessionTTLMinutes)
	assert.DirExists(t, cfg.ConfigDir)
}

func TestLoadReadsConfigFile(t *testing.T) {
	home := isolateHome(t)

	configDir := filepath.Join(home, ".agrosense")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	content := `api_keys:
  openai: file-openai-key
  anthropic: file-anthropic-key
advisor:
  extractor_adapter: anthropic
  extractor_model: claude-sonnet-4-20250514
  catalog_path: /srv/agro/crops.csv
  top_k: 3
  refusal_phrases:
    - no lo se
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "file-openai-key", cfg.OpenAIAPIKey)
	assert.Equal(t, "file-anthropic-key", cfg.AnthropicAPIKey)
	assert.Equal(t, "anthropic", cfg.Advisor.ExtractorAdapter)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Advisor.ExtractorModel)
	assert.Equal(t, "/srv/agro/crops.csv", cfg.Advisor.CatalogPath)
	assert.Equal(t, 3, cfg.Advisor.TopK)
	assert.Equal(t, []string{"no lo se"}, cfg.Advisor.RefusalPhrases)
	// Unset fields still get defaults.
	assert.Equal(t, "openai", cfg.Advisor.ComposerAdapter)
	assert.Equal(t, 5, cfg.Advisor.RetrievalK)
}

func TestEnvOverridesFile(t *testing.T) {
	home := isolateHome(t)

	configDir := filepath.Join(home, ".agrosense")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	content := `api_keys:
  openai: file-key
advisor:
  catalog_path: /from/file.csv
  listen_addr: ":9999"
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0644))

	t.Setenv("OPENAI_API_KEY", "env-key")
	t.Setenv("AGROSENSE_CATALOG", "/from/env.csv")
	t.Setenv("AGROSENSE_LISTEN_ADDR", ":7777")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.OpenAIAPIKey)
	assert.Equal(t, "/from/env.csv", cfg.Advisor.CatalogPath)
	assert.Equal(t, ":7777", cfg.Advisor.ListenAddr)
}

func TestLoadIgnoresMalformedConfigFile(t *testing.T) {
	home := isolateHome(t)

	configDir := filepath.Join(home, ".agrosense")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("{{nope"), 0644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.Advisor.ExtractorAdapter)
}

func TestHasAdapter(t *testing.T) {
	cfg := &Config{OpenAIAPIKey: "key"}
	assert.True(t, cfg.HasAdapter("openai"))
	assert.True(t, cfg.HasAdapter("mock"))
	assert.False(t, cfg.HasAdapter("anthropic"))
	assert.False(t, cfg.HasAdapter("unknown"))
}
