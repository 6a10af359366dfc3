package analyze

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/aschepis/mythra/llm"
)

const (
	// DefaultMaxAttempts is the total attempt budget per request,
	// including the first try.
	DefaultMaxAttempts = 3
	// DefaultAttemptTimeout bounds a single provider call.
	DefaultAttemptTimeout = 90 * time.Second
	// DefaultInitialDelay is the first backoff interval.
	DefaultInitialDelay = 2 * time.Second

	backoffMultiplier          = 2.0
	backoffRandomizationFactor = 0.2
)

// DispatchError reports that the retry budget was exhausted. Cause holds
// the last transient error observed.
type DispatchError struct {
	Attempts int
	Cause    error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch failed after %d attempts: %v", e.Attempts, e.Cause)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// DispatcherConfig controls retry policy and the provider concurrency cap.
// The backoff schedule is injectable so tests run without real delays.
type DispatcherConfig struct {
	MaxAttempts    int
	AttemptTimeout time.Duration
	InitialDelay   time.Duration
	// MaxConcurrent bounds in-flight calls to the provider so a run does
	// not blow through its rate-limit budget. Zero means no bound.
	MaxConcurrent int
	// NewBackOff overrides the backoff schedule between attempts.
	NewBackOff func() backoff.BackOff
}

// Dispatcher sends requests through an llm.Client, retrying transient
// failures with exponential backoff and jitter. Terminal failures (auth,
// bad request, unsupported model) abort immediately.
type Dispatcher struct {
	client llm.Client
	cfg    DispatcherConfig
	sem    chan struct{}
	logger zerolog.Logger
}

// NewDispatcher creates a Dispatcher over the given client.
func NewDispatcher(client llm.Client, cfg DispatcherConfig, logger zerolog.Logger) *Dispatcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultAttemptTimeout
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}

	var sem chan struct{}
	if cfg.MaxConcurrent > 0 {
		sem = make(chan struct{}, cfg.MaxConcurrent)
	}

	return &Dispatcher{
		client: client,
		cfg:    cfg,
		sem:    sem,
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Dispatch sends one request, retrying transient errors up to the attempt
// budget. It returns the provider response, a terminal llm.Error (never
// retried), or a *DispatchError when retries are exhausted.
func (d *Dispatcher) Dispatch(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if d.sem != nil {
		select {
		case d.sem <- struct{}{}:
			defer func() { <-d.sem }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var resp *llm.Response
	attempts := 0

	hinted := &hintedBackOff{
		base: backoff.WithMaxRetries(d.newBackOff(), uint64(d.cfg.MaxAttempts-1)),
	}

	op := func() error {
		attempts++

		attemptCtx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
		defer cancel()

		r, err := d.client.Complete(attemptCtx, req)
		if err != nil {
			// A blown attempt deadline counts as transient; the run-level
			// context ending does not.
			if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				err = llm.NewTimeoutError(fmt.Sprintf("attempt exceeded %s", d.cfg.AttemptTimeout), err)
			}
			if !llm.IsRetryable(err) {
				return backoff.Permanent(err)
			}
			// Rate-limited providers tell us when to come back; that beats
			// the computed schedule for the next wait.
			if retryAfter := llm.ExtractRetryAfter(err); retryAfter != nil {
				hinted.hint = retryAfter
			}
			d.logger.Warn().
				Err(err).
				Int("attempt", attempts).
				Int("max_attempts", d.cfg.MaxAttempts).
				Str("model", req.Model).
				Msg("Transient error, will retry")
			return err
		}

		resp = r
		return nil
	}

	b := backoff.WithContext(hinted, ctx)

	if err := backoff.Retry(op, b); err != nil {
		if llm.IsRetryable(err) {
			return nil, &DispatchError{Attempts: attempts, Cause: err}
		}
		return nil, err
	}
	return resp, nil
}

// hintedBackOff wraps a backoff schedule, substituting the provider's
// retry-after hint for the next interval when one was supplied. The hint
// is consumed on use; later waits fall back to the schedule. A Stop from
// the underlying schedule is never overridden, so the attempt budget
// holds.
type hintedBackOff struct {
	base backoff.BackOff
	hint *time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	next := b.base.NextBackOff()
	if next == backoff.Stop {
		return backoff.Stop
	}
	if b.hint != nil {
		next = *b.hint
		b.hint = nil
	}
	return next
}

func (b *hintedBackOff) Reset() {
	b.base.Reset()
}

func (d *Dispatcher) newBackOff() backoff.BackOff {
	if d.cfg.NewBackOff != nil {
		return d.cfg.NewBackOff()
	}
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = d.cfg.InitialDelay
	eb.Multiplier = backoffMultiplier
	eb.RandomizationFactor = backoffRandomizationFactor
	eb.Reset()
	return eb
}
