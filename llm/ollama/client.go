package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aschepis/mythra/llm"
	"github.com/ollama/ollama/api"
)

// Client implements the llm.Client interface for a local Ollama instance.
type Client struct {
	client *api.Client
	model  string // Default model to use if not specified in request
}

// NewClient creates a new Ollama client.
// If host is empty, it uses the environment default (OLLAMA_HOST or
// http://localhost:11434).
func NewClient(host, model string) (*Client, error) {
	var client *api.Client
	var err error

	if host != "" {
		baseURL, err := parseHost(host)
		if err != nil {
			return nil, fmt.Errorf("invalid host: %w", err)
		}
		client = api.NewClient(baseURL, &http.Client{})
	} else {
		client, err = api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("failed to create ollama client: %w", err)
		}
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// parseHost parses a host string into a URL.
func parseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

// Complete implements llm.Client.Complete.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}

	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return nil, llm.NewInvalidRequestError("model is required", nil)
	}

	messages := []api.Message{
		{Role: "user", Content: req.Prompt},
	}
	if req.System != "" {
		messages = append([]api.Message{{Role: "system", Content: req.System}}, messages...)
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  make(map[string]interface{}),
	}
	if req.MaxTokens > 0 {
		chatReq.Options["num_predict"] = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Options["temperature"] = *req.Temperature
	}

	var final api.ChatResponse
	err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		final = resp
		return nil
	})
	if err != nil {
		return nil, convertError(ctx, err)
	}

	return &llm.Response{
		Text: final.Message.Content,
		Usage: &llm.Usage{
			InputTokens:  int64(final.Metrics.PromptEvalCount),
			OutputTokens: int64(final.Metrics.EvalCount),
		},
		StopReason: final.DoneReason,
	}, nil
}

// convertError maps Ollama API errors to llm.Error types. The API client
// returns api.StatusError for HTTP failures and plain errors for
// connection problems (server not running, wrong host).
func convertError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return llm.NewTimeoutError("ollama request cancelled or timed out", err)
	}

	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusNotFound:
			return llm.NewUnsupportedModelError("ollama model not found (is it pulled?)", err)
		case statusErr.StatusCode == http.StatusBadRequest:
			return llm.NewInvalidRequestError("ollama invalid request", err)
		case statusErr.StatusCode >= 500:
			return llm.NewServerError("ollama server error", statusErr.StatusCode, err)
		default:
			return llm.NewProviderError("ollama API error", err)
		}
	}

	return llm.NewNetworkError("ollama connection failed", err)
}
