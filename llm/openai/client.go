package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aschepis/mythra/llm"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAI API errors don't directly expose retry-after headers.
// We use a default retry-after duration for rate limits.
const defaultRetryAfter = 60 * time.Second

// Client implements the llm.Client interface for OpenAI's chat API.
type Client struct {
	client *openai.Client
	model  string // Default model to use if not specified in request
}

// NewClient creates a new OpenAI client.
// If baseURL is empty, the default OpenAI API endpoint is used.
func NewClient(apiKey, baseURL, model, organization string) (*Client, error) {
	if apiKey == "" {
		return nil, llm.NewAuthError("openai api key is required", nil)
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if organization != "" {
		config.OrgID = organization
	}

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
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

	chatReq := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	}

	// OpenAI carries the system instruction as a leading system message.
	if req.System != "" {
		systemMsg := openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		}
		chatReq.Messages = append([]openai.ChatCompletionMessage{systemMsg}, chatReq.Messages...)
	}

	if req.MaxTokens > 0 {
		chatReq.MaxTokens = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}

	chatResp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, convertError(err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, llm.NewProviderError("no choices in OpenAI response", nil)
	}

	choice := chatResp.Choices[0]

	stopReason := "stop"
	switch choice.FinishReason {
	case openai.FinishReasonLength:
		stopReason = "max_tokens"
	case openai.FinishReasonStop:
		stopReason = "stop"
	default:
		// leave as default "stop"
	}

	return &llm.Response{
		Text: choice.Message.Content,
		Usage: &llm.Usage{
			InputTokens:  int64(chatResp.Usage.PromptTokens),
			OutputTokens: int64(chatResp.Usage.CompletionTokens),
		},
		StopReason: stopReason,
	}, nil
}

// convertError converts OpenAI API errors to llm.Error types.
func convertError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		// Connection-level failures surface as plain errors from the SDK.
		return llm.NewNetworkError("OpenAI request failed", err)
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return llm.NewAuthError(fmt.Sprintf("OpenAI authentication failed: %s", apiErr.Message), err)
	case http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		return llm.NewRateLimitError(
			fmt.Sprintf("OpenAI rate limit: %s", apiErr.Message),
			&retryAfter,
			err,
		)
	case http.StatusNotFound:
		return llm.NewUnsupportedModelError(fmt.Sprintf("OpenAI model not found: %s", apiErr.Message), err)
	case http.StatusBadRequest:
		return llm.NewInvalidRequestError(fmt.Sprintf("OpenAI invalid request: %s", apiErr.Message), err)
	case http.StatusRequestTimeout:
		return llm.NewTimeoutError(fmt.Sprintf("OpenAI request timeout: %s", apiErr.Message), err)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return llm.NewServerError(fmt.Sprintf("OpenAI server error: %s", apiErr.Message), apiErr.HTTPStatusCode, err)
	default:
		return &llm.Error{
			Type:        llm.ErrorTypeProvider,
			Message:     fmt.Sprintf("OpenAI API error: %s", apiErr.Message),
			Retryable:   false,
			StatusCode:  apiErr.HTTPStatusCode,
			ProviderErr: err,
		}
	}
}
