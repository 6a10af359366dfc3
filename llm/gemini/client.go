// Package gemini implements llm.Client against the Google Generative
// Language REST API. There is no Gemini SDK in our dependency set, so the
// wire format is handled directly over net/http.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aschepis/mythra/llm"
)

const apiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

const defaultRetryAfter = 60 * time.Second

// Client implements the llm.Client interface for Google's Gemini API.
type Client struct {
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new Gemini client with the given API key.
func NewClient(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, llm.NewAuthError("google api key is required", nil)
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{},
	}, nil
}

// Complete implements llm.Client.Complete.
func (c *Client) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if req.Model == "" {
		return nil, llm.NewInvalidRequestError("model is required", nil)
	}

	// Model names arrive canonical ("models/gemini-..."); the URL carries
	// the bare path segment.
	model := strings.TrimPrefix(req.Model, "models/")
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", apiBaseURL, model, c.apiKey)

	body := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: req.Prompt}}},
		},
		GenerationConfig: &generationConfig{},
	}
	if req.System != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}
	if req.MaxTokens > 0 {
		body.GenerationConfig.MaxOutputTokens = int(req.MaxTokens)
	}
	if req.Temperature != nil {
		body.GenerationConfig.Temperature = req.Temperature
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, llm.NewInvalidRequestError("failed to marshal gemini request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, llm.NewInvalidRequestError("failed to create gemini request", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, llm.NewTimeoutError("gemini request cancelled or timed out", err)
		}
		return nil, llm.NewNetworkError("gemini request failed", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, llm.NewNetworkError("failed to read gemini response", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, convertStatus(httpResp.StatusCode, respBody)
	}

	var result generateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, llm.NewProviderError("failed to parse gemini response", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, llm.NewProviderError("no content in gemini response", nil)
	}

	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	return &llm.Response{
		Text: text.String(),
		Usage: &llm.Usage{
			InputTokens:  int64(result.UsageMetadata.PromptTokenCount),
			OutputTokens: int64(result.UsageMetadata.CandidatesTokenCount),
		},
		StopReason: result.Candidates[0].FinishReason,
	}, nil
}

func convertStatus(status int, body []byte) error {
	detail := fmt.Errorf("gemini API status %d: %s", status, string(body))

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return llm.NewAuthError("gemini authentication failed", detail)
	case status == http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		return llm.NewRateLimitError("gemini rate limit", &retryAfter, detail)
	case status == http.StatusNotFound:
		return llm.NewUnsupportedModelError("gemini model not found", detail)
	case status == http.StatusBadRequest:
		return llm.NewInvalidRequestError("gemini invalid request", detail)
	case status >= 500:
		return llm.NewServerError("gemini server error", status, detail)
	default:
		return llm.NewProviderError("gemini API error", detail)
	}
}

type generateRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	MaxOutputTokens int      `json:"maxOutputTokens,omitempty"`
	Temperature     *float64 `json:"temperature,omitempty"`
}

type generateResponse struct {
	Candidates    []candidate `json:"candidates"`
	UsageMetadata usage       `json:"usageMetadata"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

type usage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}
