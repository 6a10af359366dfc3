package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aschepis/mythra/llm"
)

const defaultRetryAfter = 60 * time.Second

// Client implements the llm.Client interface for Anthropic's API.
type Client struct {
	client *anthropic.Client
}

// NewClient creates a new Anthropic client with the given API key.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, llm.NewAuthError("anthropic api key is required", nil)
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Client{client: &client}, nil
}

// Complete implements llm.Client.Complete.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if req.Model == "" {
		return nil, llm.NewInvalidRequestError("model is required", nil)
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, convertError(err)
	}

	// Concatenate text blocks; gas analysis requests never use tools.
	var text strings.Builder
	for _, blockUnion := range message.Content {
		if block, ok := blockUnion.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(block.Text)
		}
	}

	return &llm.Response{
		Text: text.String(),
		Usage: &llm.Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
		},
		StopReason: string(message.StopReason),
	}, nil
}

// convertError converts Anthropic SDK errors to llm.Error types.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return llm.NewNetworkError("Anthropic request failed", err)
	}

	switch apiErr.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.NewAuthError("Anthropic authentication failed", err)
	case http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		return llm.NewRateLimitError("Anthropic rate limit", &retryAfter, err)
	case http.StatusNotFound:
		return llm.NewUnsupportedModelError("Anthropic model not found", err)
	case http.StatusBadRequest:
		return llm.NewInvalidRequestError("Anthropic invalid request", err)
	case http.StatusRequestTimeout:
		return llm.NewTimeoutError("Anthropic request timeout", err)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return llm.NewServerError("Anthropic server error", apiErr.StatusCode, err)
	default:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     "Anthropic API error",
			Retryable:   apiErr.StatusCode >= 500,
			StatusCode:  apiErr.StatusCode,
			ProviderErr: err,
		}
	}
}
