// Package analyze implements the gas-analysis pipeline: it turns Solidity
// source units into provider-agnostic LLM requests, dispatches them with
// retry-with-backoff, parses the (possibly malformed) replies into
// structured findings, and aggregates everything into a single report.
//
// The pipeline stages are independent and individually testable:
//
//	RequestBuilder.Build - renders the gas-optimization prompt for one unit/chunk
//	SplitSource          - chunks oversized sources along declaration boundaries
//	Dispatcher           - resilient transport over an llm.Client
//	ParseFindings        - strict-then-tolerant extraction of findings
//	Analyzer.Run         - per-unit orchestration and report aggregation
package analyze
