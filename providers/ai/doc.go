// Package ai defines the shared chat-completion types and interfaces used
// across all upstream provider adapters (OpenAI, Anthropic, Gemini,
// Workers AI, Ollama). The types follow the OpenAI chat completions wire
// format: requests arrive in that shape, every adapter translates it to its
// upstream's native format, and every response is normalized back before it
// leaves the adapter. Callers never see an upstream's native payload.
//
// The two central interfaces are [Adapter] for synchronous chat completions
// and [StreamAdapter] for SSE-based streaming responses. Request data flows
// through [ChatRequest] and responses are returned as [ChatResponse].
// For real-time streaming, [ChatStream] and [StreamChunk] carry incremental
// deltas to the caller.
package ai
