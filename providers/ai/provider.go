package ai

import (
	"context"
)

// Adapter is the core interface every upstream provider implementation must
// satisfy. An adapter owns the full request lifecycle against one upstream:
// model selection where applicable, conversion to the native wire format,
// dispatch, and normalization of the native response back into the OpenAI
// shape. Adapters never retry and never impose timeouts; cancellation and
// deadlines come from the caller's context.
type Adapter interface {
	// Complete sends a chat request to the upstream and returns the
	// normalized response. Returns an error if the upstream call fails,
	// the context is cancelled, or the response cannot be decoded.
	Complete(ctx context.Context, request ChatRequest) (*ChatResponse, error)
}

// StreamAdapter is an optional interface adapters implement to support
// streaming responses. Callers detect streaming support via type assertion:
// adapter.(StreamAdapter). If the adapter does not implement this interface,
// callers fall back to Complete wrapped in a single-chunk stream.
type StreamAdapter interface {
	Adapter

	// Stream sends a chat request and returns a ChatStream that yields one
	// chunk per upstream frame as it arrives. Pre-stream errors (auth, bad
	// request, network) are returned as a normal error. Mid-stream errors
	// are yielded through the iterator, after which the stream ends with no
	// terminal chunk.
	Stream(ctx context.Context, request ChatRequest) (*ChatStream, error)
}
