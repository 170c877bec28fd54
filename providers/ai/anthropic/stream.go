package anthropic

import (
	"context"
	"fmt"
	"io"

	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/observability"
)

// Stream implements [ai.StreamAdapter] for Anthropic's Messages API. It sends
// a streaming request (stream=true) and returns an [ai.ChatStream] yielding
// one chunk per text_delta frame, in arrival order, with no buffering.
//
// Pre-stream errors (missing API key, non-2xx HTTP response, network failure)
// are returned immediately. Mid-stream failures (Anthropic "error" event, SSE
// parse failure, connection loss) are yielded through the iterator as
// [ai.StreamAbortedError] and the stream ends without a terminal chunk.
//
// Anthropic SSE lifecycle:
//
//	message_start → content_block_start → content_block_delta(s) →
//	content_block_stop → message_delta → message_stop
func (a *Adapter) Stream(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	span := observability.SpanFromContext(ctx)

	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrGatewayProvider, providerName),
			observability.String(observability.AttrGatewayModel, request.Model),
			observability.Bool(observability.AttrGatewayStream, true),
		)
	}

	if a.apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY is not set")
	}

	nativeRequest := toNativeRequest(request)
	nativeRequest.Stream = true

	// Body is left open for SSE reading; empty apiKey keeps the Bearer
	// header out (Anthropic authenticates via x-api-key).
	httpResponse, err := utils.DoPostStream(ctx, a.client, a.baseURL+messagesEndpoint, "", nativeRequest, a.buildHeaders()...)
	if err != nil {
		return nil, wrapUpstreamError(httpResponse, err)
	}

	sseScanner := utils.NewSSEScanner(httpResponse.Body)
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

			payload, sseErr := sseScanner.Next()
			if sseErr == io.EOF {
				// The upstream closed before message_stop; the consumer
				// must not see this as a clean completion.
				abort(io.ErrUnexpectedEOF)
				return
			}
			if sseErr != nil {
				abort(fmt.Errorf("SSE read error: %w", sseErr))
				return
			}

			event, parseErr := unmarshalStreamEvent(payload)
			if parseErr != nil {
				abort(fmt.Errorf("failed to parse stream event: %w", parseErr))
				return
			}

			switch event.Type {

			case "content_block_delta":
				// One chunk per frame carrying text; empty deltas are skipped.
				if event.Delta == nil || event.Delta.Type != "text_delta" || event.Delta.Text == "" {
					continue
				}
				if !yield(meta.Chunk(ai.Delta{Content: event.Delta.Text}), nil) {
					return
				}

			case "message_stop":
				// Terminal event: emit the designated finish chunk and stop
				// reading. The transport layer appends the end sentinel.
				if span != nil {
					span.AddEvent(observability.EventStreamCompleted)
				}
				yield(meta.Finish(ai.FinishReasonStop), nil)
				return

			case "error":
				errMsg := "unknown stream error"
				if event.Error != nil {
					errMsg = event.Error.Message
				}
				abort(fmt.Errorf("anthropic stream error: %s", errMsg))
				return

			case "message_start", "content_block_start", "content_block_stop", "message_delta", "ping":
				// Bookkeeping and keep-alive events carry no text.

			default:
				// Unknown event types are skipped.
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}
