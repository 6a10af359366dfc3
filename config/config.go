// Package config loads analyzer configuration from ~/.mythra/config.yaml,
// merged over built-in defaults, with environment variables as the final
// override for provider credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/aschepis/mythra/llm"
)

// AnthropicConfig represents configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
}

// GoogleConfig represents configuration for the Gemini provider.
type GoogleConfig struct {
	APIKey string `yaml:"api_key,omitempty"`
}

// OllamaConfig represents configuration for a local Ollama server.
type OllamaConfig struct {
	Host  string `yaml:"host,omitempty"`  // Ollama host (default: "http://localhost:11434")
	Model string `yaml:"model,omitempty"` // Model used when routing falls through to Ollama
}

// OpenAIConfig represents configuration for the OpenAI provider.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key,omitempty"`
	BaseURL      string `yaml:"base_url,omitempty"` // Custom base URL (default: official API)
	Organization string `yaml:"organization,omitempty"`
}

// AnalysisConfig represents tunables for the analysis pipeline itself.
type AnalysisConfig struct {
	Model          string   `yaml:"model,omitempty"`           // Default model when --model is not given
	MaxTokens      int64    `yaml:"max_tokens,omitempty"`      // Completion token limit per request
	Temperature    *float64 `yaml:"temperature,omitempty"`     // Sampling temperature, provider default if nil
	TimeoutSeconds int      `yaml:"timeout_seconds,omitempty"` // Per-attempt request timeout
	MaxAttempts    int      `yaml:"max_attempts,omitempty"`    // Total attempts per request including the first
	ChunkThreshold int      `yaml:"chunk_threshold,omitempty"` // Source size in bytes above which files are chunked
	ChunkOverlap   int      `yaml:"chunk_overlap,omitempty"`   // Lines of context repeated between chunks
	Concurrency    int      `yaml:"concurrency,omitempty"`     // Units analyzed in parallel
	CachePath      string   `yaml:"cache_path,omitempty"`      // Response cache location
	NoCache        bool     `yaml:"no_cache,omitempty"`        // Disable the response cache entirely
}

// Config is the full analyzer configuration.
type Config struct {
	Anthropic AnthropicConfig `yaml:"anthropic,omitempty"`
	Google    GoogleConfig    `yaml:"google,omitempty"`
	Ollama    OllamaConfig    `yaml:"ollama,omitempty"`
	OpenAI    OpenAIConfig    `yaml:"openai,omitempty"`
	Analysis  AnalysisConfig  `yaml:"analysis,omitempty"`
}

// GetConfigPath returns the config file path. Can be overridden via the
// MYTHRA_CONFIG_PATH environment variable.
func GetConfigPath() string {
	if envPath := os.Getenv("MYTHRA_CONFIG_PATH"); envPath != "" {
		return expandPath(envPath)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "./.mythra/config.yaml"
	}
	return filepath.Join(homeDir, ".mythra", "config.yaml")
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// Load reads the config file at path (if it exists), merges it over the
// defaults, and applies environment variable overrides for credentials.
// A missing config file is not an error.
func Load(path string) (*Config, error) {
	cfg := Config{
		Ollama: OllamaConfig{
			Host: "http://localhost:11434",
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
		},
		Analysis: AnalysisConfig{
			Model:          "gpt-4o",
			MaxTokens:      4000,
			TimeoutSeconds: 90,
			MaxAttempts:    3,
			ChunkThreshold: 48 * 1024,
			ChunkOverlap:   10,
			Concurrency:    1,
			CachePath:      "~/.mythra/cache.db",
		},
	}

	expandedPath := expandPath(path)
	if _, err := os.Stat(expandedPath); err == nil {
		data, err := os.ReadFile(expandedPath) //#nosec 304 -- intentional file read for config
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %q: %w", expandedPath, err)
		}

		var fileConfig Config
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %q: %w", expandedPath, err)
		}

		if err := mergo.Merge(&cfg, fileConfig, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge config: %w", err)
		}
	}

	applyEnvOverrides(&cfg)
	cfg.Analysis.CachePath = expandPath(cfg.Analysis.CachePath)
	return &cfg, nil
}

// applyEnvOverrides lets the conventional provider environment variables
// win over file-configured credentials.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_ORG_ID"); v != "" {
		cfg.OpenAI.Organization = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.Anthropic.APIKey = v
	}
	if v := os.Getenv("GOOGLE_API_KEY"); v != "" {
		cfg.Google.APIKey = v
	}
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Ollama.Host = v
	}
}

// ProviderConfig projects the credential sections into the form the model
// registry consumes.
func (c *Config) ProviderConfig() *llm.ProviderConfig {
	return &llm.ProviderConfig{
		OpenAIAPIKey:    c.OpenAI.APIKey,
		OpenAIBaseURL:   c.OpenAI.BaseURL,
		OpenAIOrg:       c.OpenAI.Organization,
		AnthropicAPIKey: c.Anthropic.APIKey,
		GoogleAPIKey:    c.Google.APIKey,
		OllamaHost:      c.Ollama.Host,
		OllamaModel:     c.Ollama.Model,
	}
}

// Save writes the configuration to the specified path, creating parent
// directories as needed.
func Save(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(expandedPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
