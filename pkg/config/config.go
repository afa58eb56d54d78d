// Package config loads AgroSense configuration from ~/.agrosense/config.yaml
// and the environment. Environment variables take precedence over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GoogleAPIKey    string
	DeepSeekAPIKey  string
	Advisor         AdvisorConfig
	ConfigDir       string
}

// AdvisorConfig selects the models and data files the advisor runs with.
type AdvisorConfig struct {
	// ExtractorAdapter/Model handle structured parameter extraction.
	ExtractorAdapter string `yaml:"extractor_adapter"`
	ExtractorModel   string `yaml:"extractor_model"`

	// ComposerAdapter/Model handle clarification questions and final answers.
	ComposerAdapter string `yaml:"composer_adapter"`
	ComposerModel   string `yaml:"composer_model"`

	EmbeddingModel string `yaml:"embedding_model"`

	CatalogPath   string `yaml:"catalog_path"`
	IndexPath     string `yaml:"index_path"`
	TranscriptDir string `yaml:"transcript_dir"`

	RetrievalK int `yaml:"retrieval_k"`
	TopK       int `yaml:"top_k"`

	// RefusalPhrases extends the built-in refusal set.
	RefusalPhrases []string `yaml:"refusal_phrases"`

	ListenAddr        string `yaml:"listen_addr"`
	SessionTTLMinutes int    `yaml:"session_ttl_minutes"`
}

// FileConfig represents the structure of ~/.agrosense/config.yaml
type FileConfig struct {
	APIKeys APIKeysConfig `yaml:"api_keys"`
	Advisor AdvisorConfig `yaml:"advisor"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Google    string `yaml:"google"`
	DeepSeek  string `yaml:"deepseek"`
}

// Load reads configuration from the config file and environment variables.
func Load() (*Config, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		DeepSeekAPIKey:  getEnvOrDefault("DEEPSEEK_API_KEY", fileConfig.APIKeys.DeepSeek),
		Advisor:         fileConfig.Advisor,
		ConfigDir:       configDir,
	}
	applyDefaults(&cfg.Advisor, configDir)
	applyEnvOverrides(&cfg.Advisor)

	return cfg, nil
}

// HasAdapter returns true if the API key for the given adapter is configured.
func (c *Config) HasAdapter(name string) bool {
	switch name {
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	case "google":
		return c.GoogleAPIKey != ""
	case "deepseek":
		return c.DeepSeekAPIKey != ""
	case "mock":
		return true
	default:
		return false
	}
}

func applyDefaults(a *AdvisorConfig, configDir string) {
	if a.ExtractorAdapter == "" {
		a.ExtractorAdapter = "openai"
	}
	if a.ExtractorModel == "" {
		a.ExtractorModel = "gpt-4o-mini"
	}
	if a.ComposerAdapter == "" {
		a.ComposerAdapter = "openai"
	}
	if a.ComposerModel == "" {
		a.ComposerModel = "gpt-4o-mini"
	}
	if a.EmbeddingModel == "" {
		a.EmbeddingModel = "text-embedding-3-small"
	}
	if a.CatalogPath == "" {
		a.CatalogPath = filepath.Join("data", "crop_profiles.csv")
	}
	if a.IndexPath == "" {
		a.IndexPath = filepath.Join("data", "agro_index.json")
	}
	if a.TranscriptDir == "" {
		a.TranscriptDir = filepath.Join(configDir, "transcripts")
	}
	if a.RetrievalK <= 0 {
		a.RetrievalK = 5
	}
	if a.TopK <= 0 {
		a.TopK = 5
	}
	if a.ListenAddr == "" {
		a.ListenAddr = ":8080"
	}
	if a.SessionTTLMinutes <= 0 {
		a.SessionTTLMinutes = 60
	}
}

func applyEnvOverrides(a *AdvisorConfig) {
	if v := os.Getenv("AGROSENSE_CATALOG"); v != "" {
		a.CatalogPath = v
	}
	if v := os.Getenv("AGROSENSE_INDEX"); v != "" {
		a.IndexPath = v
	}
	if v := os.Getenv("AGROSENSE_LISTEN_ADDR"); v != "" {
		a.ListenAddr = v
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg // Return empty config if file doesn't exist
	}

	_ = yaml.Unmarshal(data, cfg) // Ignore parse errors, use defaults
	return cfg
}

// getEnvOrDefault returns the environment variable value if set,
// otherwise returns the default value.
func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".agrosense")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
