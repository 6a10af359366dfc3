package analyze

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/aschepis/mythra/llm"
)

// fakeClient scripts provider behavior per call number (1-based).
type fakeClient struct {
	mu      sync.Mutex
	calls   int
	respond func(call int, req *llm.Request) (*llm.Response, error)
}

func (f *fakeClient) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	return f.respond(n, req)
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testDispatcher(client llm.Client, maxAttempts int) *Dispatcher {
	return NewDispatcher(client, DispatcherConfig{
		MaxAttempts: maxAttempts,
		NewBackOff:  func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}, zerolog.Nop())
}

func testRequest() *llm.Request {
	return &llm.Request{Model: "gpt-4o", Prompt: "analyze this", MaxTokens: 100}
}

func TestDispatchSucceedsAfterTransientErrors(t *testing.T) {
	client := &fakeClient{respond: func(call int, _ *llm.Request) (*llm.Response, error) {
		if call < 3 {
			return nil, llm.NewRateLimitError("slow down", nil, nil)
		}
		return &llm.Response{Text: "[]"}, nil
	}}

	resp, err := testDispatcher(client, 3).Dispatch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if resp.Text != "[]" {
		t.Errorf("unexpected response text %q", resp.Text)
	}
	if got := client.callCount(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestDispatchExhaustsRetries(t *testing.T) {
	client := &fakeClient{respond: func(int, *llm.Request) (*llm.Response, error) {
		return nil, llm.NewServerError("upstream unavailable", 503, nil)
	}}

	_, err := testDispatcher(client, 3).Dispatch(context.Background(), testRequest())
	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("expected *DispatchError, got %T: %v", err, err)
	}
	if dispatchErr.Attempts != 3 {
		t.Errorf("expected 3 attempts recorded, got %d", dispatchErr.Attempts)
	}
	if got := client.callCount(); got != 3 {
		t.Errorf("expected exactly 3 calls, got %d", got)
	}
	if !llm.IsRetryable(dispatchErr.Cause) {
		t.Errorf("cause should be the last transient error, got %v", dispatchErr.Cause)
	}
}

func TestDispatchTerminalErrorNotRetried(t *testing.T) {
	client := &fakeClient{respond: func(int, *llm.Request) (*llm.Response, error) {
		return nil, llm.NewAuthError("bad credentials", nil)
	}}

	_, err := testDispatcher(client, 3).Dispatch(context.Background(), testRequest())
	if !llm.IsAuthError(err) {
		t.Fatalf("expected auth error to pass through, got %v", err)
	}
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		t.Error("terminal errors must not be wrapped in DispatchError")
	}
	if got := client.callCount(); got != 1 {
		t.Errorf("expected exactly 1 call, got %d", got)
	}
}

func TestDispatchAttemptTimeout(t *testing.T) {
	blocking := clientFunc(func(ctx context.Context, _ *llm.Request) (*llm.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	d := NewDispatcher(blocking, DispatcherConfig{
		MaxAttempts:    2,
		AttemptTimeout: 10 * time.Millisecond,
		NewBackOff:     func() backoff.BackOff { return &backoff.ZeroBackOff{} },
	}, zerolog.Nop())

	_, err := d.Dispatch(context.Background(), testRequest())
	var dispatchErr *DispatchError
	if !errors.As(err, &dispatchErr) {
		t.Fatalf("expected *DispatchError, got %T: %v", err, err)
	}
	var llmErr *llm.Error
	if !errors.As(dispatchErr.Cause, &llmErr) || llmErr.Type != llm.ErrorTypeTimeout {
		t.Errorf("expected timeout cause, got %v", dispatchErr.Cause)
	}
}

func TestDispatchHonorsRetryAfterHint(t *testing.T) {
	hint := 30 * time.Millisecond
	client := &fakeClient{respond: func(call int, _ *llm.Request) (*llm.Response, error) {
		if call == 1 {
			return nil, llm.NewRateLimitError("slow down", &hint, nil)
		}
		return &llm.Response{Text: "[]"}, nil
	}}

	start := time.Now()
	resp, err := testDispatcher(client, 3).Dispatch(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Dispatch returned error: %v", err)
	}
	if resp.Text != "[]" {
		t.Errorf("unexpected response text %q", resp.Text)
	}
	if elapsed := time.Since(start); elapsed < hint {
		t.Errorf("dispatcher waited %s, provider asked for at least %s", elapsed, hint)
	}
	if got := client.callCount(); got != 2 {
		t.Errorf("expected 2 attempts, got %d", got)
	}
}

func TestHintedBackOff(t *testing.T) {
	hint := time.Minute
	b := &hintedBackOff{base: backoff.NewConstantBackOff(time.Second), hint: &hint}

	if got := b.NextBackOff(); got != time.Minute {
		t.Errorf("first wait should use the hint, got %s", got)
	}
	if got := b.NextBackOff(); got != time.Second {
		t.Errorf("hint must be consumed on use, got %s", got)
	}

	// An exhausted schedule stops even when a hint is pending.
	exhausted := &hintedBackOff{base: backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 0), hint: &hint}
	if got := exhausted.NextBackOff(); got != backoff.Stop {
		t.Errorf("hint must not extend the attempt budget, got %s", got)
	}
}

func TestDispatchCancelledContext(t *testing.T) {
	client := &fakeClient{respond: func(int, *llm.Request) (*llm.Response, error) {
		return &llm.Response{Text: "[]"}, nil
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testDispatcher(client, 3).Dispatch(ctx, testRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	var dispatchErr *DispatchError
	if errors.As(err, &dispatchErr) {
		t.Error("cancellation must not be reported as retry exhaustion")
	}
}

// clientFunc adapts a function to the llm.Client interface.
type clientFunc func(ctx context.Context, req *llm.Request) (*llm.Response, error)

func (f clientFunc) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}
