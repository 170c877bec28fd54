package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/observability"
)

// Stream implements [ai.StreamAdapter] against /api/chat with stream:true.
// Ollama streams newline-delimited JSON, one frame per line; frames with
// message text become exactly one chunk each, in arrival order, and the
// done:true frame produces the terminal chunk.
//
// The connection closing before a done frame is an abort, not a clean end:
// mid-stream failures are yielded as [ai.StreamAbortedError] and the stream
// ends without a terminal chunk.
func (a *Adapter) Stream(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	span := observability.SpanFromContext(ctx)

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrGatewayProvider, providerName),
			observability.String(observability.AttrGatewayModel, request.Model),
			observability.Bool(observability.AttrGatewayStream, true),
		)
	}

	nativeRequest := toNativeRequest(request)
	nativeRequest.Stream = true

	httpResponse, err := utils.DoPostStream(ctx, a.client, a.baseURL+chatEndpoint, "", nativeRequest)
	if err != nil {
		return nil, wrapUpstreamError(httpResponse, err)
	}

	lineScanner := utils.NewNDJSONScanner(httpResponse.Body)
	meta := ai.NewStreamMeta(request.Model)

	iteratorFunc := func(yield func(ai.StreamChunk, error) bool) {
		defer utils.CloseWithLog(httpResponse.Body)

		abort := func(cause error) {
			if span != nil {
				span.AddEvent(observability.EventStreamAborted, observability.Error(cause))
			}
			yield(ai.StreamChunk{}, &ai.StreamAbortedError{Provider: providerName, Cause: cause})
		}

		for {
			if ctx.Err() != nil {
				abort(ctx.Err())
				return
			}

			payload, readErr := lineScanner.Next()
			if readErr == io.EOF {
				// The upstream closed before a done frame; the consumer
				// must not see this as a clean completion.
				abort(io.ErrUnexpectedEOF)
				return
			}
			if readErr != nil {
				abort(fmt.Errorf("stream read error: %w", readErr))
				return
			}

			var frame ollamaResponse
			if parseErr := json.Unmarshal([]byte(payload), &frame); parseErr != nil {
				abort(fmt.Errorf("failed to parse stream frame: %w", parseErr))
				return
			}

			if frame.Error != "" {
				abort(fmt.Errorf("ollama stream error: %s", frame.Error))
				return
			}

			// One chunk per frame carrying text; empty frames are skipped.
			if frame.Message.Content != "" {
				if !yield(meta.Chunk(ai.Delta{Content: frame.Message.Content}), nil) {
					return
				}
			}

			if frame.Done {
				if span != nil {
					span.AddEvent(observability.EventStreamCompleted)
				}
				yield(meta.Finish(ai.FinishReasonStop), nil)
				return
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}
