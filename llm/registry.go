package llm

import (
	"fmt"
	"strings"
	"sync"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
)

// Model name prefixes used to route a model to its provider family.
var (
	openAIPrefixes    = []string{"gpt-", "o1-", "o3-", "o4-"}
	anthropicPrefixes = []string{"claude-"}
	geminiPrefixes    = []string{"gemini-", "models/gemini-"}
)

// ProviderConfig holds the credential and endpoint configuration needed to
// resolve a model to a usable client. This mirrors the config package's
// provider sections without importing it, to avoid import cycles.
type ProviderConfig struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIOrg     string

	AnthropicAPIKey string

	GoogleAPIKey string

	OllamaHost  string
	OllamaModel string
}

// ClientKey uniquely identifies a resolved client configuration. The caller
// constructs the concrete Client from it; the registry never imports the
// provider subpackages.
type ClientKey struct {
	Provider     string
	Model        string // Canonical model name (e.g. "models/" prefix for Gemini)
	APIKey       string
	Host         string // For Ollama
	BaseURL      string // For OpenAI-compatible endpoints
	Organization string // For OpenAI
}

// Registry resolves model names to provider configurations.
type Registry struct {
	mu     sync.RWMutex
	config *ProviderConfig
}

// NewRegistry creates a Registry over the given provider configuration.
func NewRegistry(config *ProviderConfig) *Registry {
	if config == nil {
		config = &ProviderConfig{}
	}
	return &Registry{config: config}
}

// IsProviderConfigured reports whether a provider has the configuration it
// needs to accept requests.
func (r *Registry) IsProviderConfigured(provider string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch provider {
	case ProviderOpenAI:
		return r.config.OpenAIAPIKey != ""
	case ProviderAnthropic:
		return r.config.AnthropicAPIKey != ""
	case ProviderGemini:
		return r.config.GoogleAPIKey != ""
	case ProviderOllama:
		// Ollama needs no API key; the host has a default.
		return r.config.OllamaHost != "" || r.config.OllamaModel != ""
	default:
		return false
	}
}

// Resolve maps a model name to the provider that serves it and returns a
// ClientKey carrying the credentials for that provider. A model routed to a
// provider with no credential fails with an auth error before any dispatch.
func (r *Registry) Resolve(model string) (*ClientKey, error) {
	if model == "" {
		return nil, NewInvalidRequestError("model name is required", nil)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	lower := strings.ToLower(model)

	switch {
	case hasAnyPrefix(lower, geminiPrefixes):
		if r.config.GoogleAPIKey == "" {
			return nil, NewAuthError(fmt.Sprintf("gemini model %q requested but no Google API key configured", model), nil)
		}
		// The Generative Language API expects the "models/" prefix.
		canonical := model
		if !strings.HasPrefix(canonical, "models/") {
			canonical = "models/" + canonical
		}
		return &ClientKey{
			Provider: ProviderGemini,
			Model:    canonical,
			APIKey:   r.config.GoogleAPIKey,
		}, nil

	case hasAnyPrefix(lower, openAIPrefixes):
		if r.config.OpenAIAPIKey == "" {
			return nil, NewAuthError(fmt.Sprintf("openai model %q requested but no OpenAI API key configured", model), nil)
		}
		return &ClientKey{
			Provider:     ProviderOpenAI,
			Model:        model,
			APIKey:       r.config.OpenAIAPIKey,
			BaseURL:      r.config.OpenAIBaseURL,
			Organization: r.config.OpenAIOrg,
		}, nil

	case hasAnyPrefix(lower, anthropicPrefixes):
		if r.config.AnthropicAPIKey == "" {
			return nil, NewAuthError(fmt.Sprintf("anthropic model %q requested but no Anthropic API key configured", model), nil)
		}
		return &ClientKey{
			Provider: ProviderAnthropic,
			Model:    model,
			APIKey:   r.config.AnthropicAPIKey,
		}, nil

	default:
		// Unrecognized prefixes fall through to a local Ollama instance when
		// one is configured, so any locally pulled model can be used.
		if r.config.OllamaHost != "" || r.config.OllamaModel != "" {
			host := r.config.OllamaHost
			if host == "" {
				host = "http://localhost:11434"
			}
			return &ClientKey{
				Provider: ProviderOllama,
				Model:    model,
				Host:     host,
			}, nil
		}
		return nil, NewUnsupportedModelError(fmt.Sprintf("unsupported or unknown model name: %s", model), nil)
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
