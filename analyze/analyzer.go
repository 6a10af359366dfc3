package analyze

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/aschepis/mythra/llm"
	"github.com/aschepis/mythra/solidity"
)

// ErrAllUnitsFailed is returned by Run when not a single unit could be
// analyzed. Individual unit failures never abort a run on their own.
var ErrAllUnitsFailed = errors.New("analysis failed for all units")

// ResponseCache stores raw provider replies keyed by request content, so
// re-running over unchanged sources skips paid provider calls.
// Implementations log their own storage errors; a miss and a broken cache
// look the same to the analyzer.
type ResponseCache interface {
	Get(key string) (string, bool)
	Put(key string, response string)
}

// Config holds the per-run analysis settings.
type Config struct {
	Model       string
	MaxTokens   int64
	Temperature *float64
	// Concurrency bounds the worker pool; 1 (or less) means sequential.
	Concurrency int
	Chunker     ChunkerConfig
}

// Analyzer coordinates the pipeline across a set of source units: build a
// request per unit (or chunk), dispatch it, parse the reply, and aggregate
// everything into one Report.
type Analyzer struct {
	dispatcher *Dispatcher
	builder    *RequestBuilder
	cfg        Config
	cache      ResponseCache
	logger     zerolog.Logger
}

// NewAnalyzer creates an Analyzer. cache may be nil to disable response
// caching.
func NewAnalyzer(dispatcher *Dispatcher, cfg Config, cache ResponseCache, logger zerolog.Logger) *Analyzer {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4000
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Analyzer{
		dispatcher: dispatcher,
		builder: &RequestBuilder{
			Model:       cfg.Model,
			MaxTokens:   cfg.MaxTokens,
			Temperature: cfg.Temperature,
		},
		cfg:    cfg,
		cache:  cache,
		logger: logger.With().Str("component", "analyzer").Logger(),
	}
}

// Run analyzes all units and returns the aggregate report. Failed units
// are recorded in the report and never abort sibling units. The returned
// error is non-nil only for run-level conditions: every unit failed, or
// the context was cancelled (in which case the partial report accumulated
// so far is still returned).
func (a *Analyzer) Run(ctx context.Context, units []SourceUnit) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Model:   a.cfg.Model,
		Units:   make([]string, 0, len(units)),
		Results: make(map[string]*UnitResult, len(units)),
	}
	for _, unit := range units {
		report.Units = append(report.Units, unit.Path)
	}

	results := make([]*UnitResult, len(units))

	var wg sync.WaitGroup
	sem := make(chan struct{}, a.cfg.Concurrency)

	cancelled := -1
	for i, unit := range units {
		// Cooperative cancellation checkpoint between units.
		if ctx.Err() != nil {
			cancelled = i
			break
		}

		wg.Add(1)
		go func(i int, unit SourceUnit) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			results[i] = a.analyzeUnit(ctx, unit)
		}(i, unit)
	}
	wg.Wait()

	for i, unit := range units {
		res := results[i]
		if res == nil {
			res = &UnitResult{
				Unit:  unit.Path,
				Error: "run cancelled before analysis",
				err:   ctx.Err(),
			}
		}
		report.Results[unit.Path] = res
	}

	if cancelled >= 0 {
		a.logger.Warn().
			Int("completed_before_cancel", cancelled).
			Int("total", len(units)).
			Msg("Run cancelled; returning partial report")
		return report, ctx.Err()
	}

	if len(units) > 0 && len(report.Completed()) == 0 {
		return report, ErrAllUnitsFailed
	}

	a.logger.Info().
		Int("units", len(units)).
		Int("failed", len(report.Failures())).
		Int("findings", report.TotalFindings()).
		Msg("Analysis run complete")
	return report, nil
}

// analyzeUnit walks one unit through Building, Dispatching, and Parsing,
// recording either its findings or its failure.
func (a *Analyzer) analyzeUnit(ctx context.Context, unit SourceUnit) *UnitResult {
	logger := a.logger.With().Str("unit", unit.Path).Logger()
	result := &UnitResult{Unit: unit.Path}

	structure := solidity.Scan(unit.Text)
	chunks := SplitSource(unit.Text, a.cfg.Chunker)
	logger.Debug().
		Int("bytes", len(unit.Text)).
		Int("contracts", len(structure.Contracts)).
		Int("functions", len(structure.Functions)).
		Int("chunks", len(chunks)).
		Msg("Building analysis requests")

	perChunk := make([][]Finding, 0, len(chunks))
	for _, chunk := range chunks {
		req := a.builder.Build(unit, chunk)

		text, usage, err := a.complete(ctx, req, logger)
		if usage != nil {
			result.InputTokens += usage.InputTokens
			result.OutputTokens += usage.OutputTokens
		}
		if err != nil {
			logger.Error().Err(err).Int("chunk", chunk.Index).Msg("Dispatch failed")
			result.Error = err.Error()
			result.err = err
			return result
		}

		findings, err := ParseFindings(text, logger)
		if err != nil {
			logger.Error().Err(err).Int("chunk", chunk.Index).Msg("Parse failed")
			result.Error = err.Error()
			result.err = err
			return result
		}
		perChunk = append(perChunk, findings)
	}

	merged := MergeChunkFindings(chunks, perChunk)
	for i := range merged {
		merged[i].Unit = unit.Path
	}
	result.Findings = merged

	logger.Info().Int("findings", len(merged)).Msg("Unit analysis complete")
	return result
}

// complete resolves a request through the cache or the dispatcher.
// Cache hits carry no usage.
func (a *Analyzer) complete(ctx context.Context, req *llm.Request, logger zerolog.Logger) (string, *llm.Usage, error) {
	key := requestKey(req)
	if a.cache != nil {
		if text, ok := a.cache.Get(key); ok {
			logger.Debug().Str("key", key[:12]).Msg("Response cache hit")
			return text, nil, nil
		}
	}

	resp, err := a.dispatcher.Dispatch(ctx, req)
	if err != nil {
		return "", nil, err
	}
	if a.cache != nil {
		a.cache.Put(key, resp.Text)
	}
	return resp.Text, resp.Usage, nil
}

// requestKey derives a stable cache key from everything that influences
// the reply.
func requestKey(req *llm.Request) string {
	payload, _ := json.Marshal(struct {
		Model       string   `json:"model"`
		System      string   `json:"system"`
		Prompt      string   `json:"prompt"`
		MaxTokens   int64    `json:"max_tokens"`
		Temperature *float64 `json:"temperature"`
	}{req.Model, req.System, req.Prompt, req.MaxTokens, req.Temperature})
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
