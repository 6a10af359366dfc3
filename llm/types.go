package llm

import "context"

// Client is the provider-neutral interface for a single completion call.
// Implementations handle authentication, payload shape, and reply shape
// for one backend family.
type Client interface {
	// Complete sends a request and returns the complete response.
	Complete(ctx context.Context, req *Request) (*Response, error)
}

// Request represents a complete, provider-agnostic LLM request.
type Request struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int64
	Temperature *float64 // Optional; low values bias toward determinism
}

// Response represents the raw result of one provider call.
type Response struct {
	Text       string
	Usage      *Usage
	StopReason string
}

// Usage represents token usage information from a response.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}
