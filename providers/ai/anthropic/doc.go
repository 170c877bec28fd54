// Package anthropic implements the [ai.Adapter] and [ai.StreamAdapter]
// interfaces for Anthropic's Messages API.
//
// It handles request conversion from the OpenAI-format [ai.ChatRequest] to
// Anthropic's Messages wire format (system messages separated into the
// top-level system field), response mapping back to [ai.ChatResponse] with a
// freshly minted identifier, and SSE-based streaming.
//
// The primary entry point is [New], which reads ANTHROPIC_API_KEY and
// ANTHROPIC_API_BASE_URL from the environment. Use [Adapter.WithAPIKey],
// [Adapter.WithBaseURL], or [Adapter.WithHttpClient] to configure the adapter
// programmatically.
package anthropic
