package main

import (
	"fmt"

	"github.com/aschepis/mythra/config"
	"github.com/aschepis/mythra/llm"
	"github.com/aschepis/mythra/llm/anthropic"
	"github.com/aschepis/mythra/llm/gemini"
	"github.com/aschepis/mythra/llm/ollama"
	"github.com/aschepis/mythra/llm/openai"
)

// buildClient routes the configured model to its provider and constructs
// the matching client.
func buildClient(cfg *config.Config) (llm.Client, error) {
	registry := llm.NewRegistry(cfg.ProviderConfig())

	key, err := registry.Resolve(cfg.Analysis.Model)
	if err != nil {
		return nil, err
	}

	switch key.Provider {
	case llm.ProviderOpenAI:
		return openai.NewClient(key.APIKey, key.BaseURL, key.Model, key.Organization)
	case llm.ProviderAnthropic:
		return anthropic.NewClient(key.APIKey)
	case llm.ProviderGemini:
		return gemini.NewClient(key.APIKey)
	case llm.ProviderOllama:
		return ollama.NewClient(key.Host, key.Model)
	default:
		return nil, fmt.Errorf("unknown provider %q for model %q", key.Provider, key.Model)
	}
}
