// Package llm provides a provider-neutral layer over the LLM backends used
// for gas analysis. It defines the Client interface that every provider
// subpackage implements, the request/response types exchanged through it,
// a typed error taxonomy that distinguishes retryable from terminal
// failures, and a Registry that resolves a model name to the provider and
// credentials needed to serve it.
//
// Provider-specific wiring lives in the subpackages (llm/openai,
// llm/anthropic, llm/gemini, llm/ollama). Each converts its SDK's errors
// into *llm.Error so the dispatcher can make retry decisions without
// knowing which backend it is talking to.
package llm
