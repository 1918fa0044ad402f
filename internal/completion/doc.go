// Package completion sends an assembled prompt to a chat-completion endpoint
// and returns the free-form answer.
//
// Two providers are available: OpenAI Chat Completions (the default) and
// Anthropic Messages. Both send one user message per call and never retry; a
// failed call surfaces as *Error carrying the provider and HTTP status.
//
// The API key travels with each Request rather than living in the client, so a
// single Completer serves callers holding different keys.
//
// Instrument wraps any Completer with a tracing span, completion metrics and
// structured logging.
package completion
