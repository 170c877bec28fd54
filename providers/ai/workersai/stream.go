package workersai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/observability"
)

// Stream implements [ai.StreamAdapter]. Model selection runs exactly as in
// Complete, so tools and JSON mode still steer the choice, but tool emulation
// itself does not apply: recovering an invocation would mean buffering the
// whole stream, so tool-carrying requests stream their completion as plain
// text.
//
// Workers AI streams SSE events whose data is {"response":"..."} fragments,
// terminated by a [DONE] sentinel. A data payload that does not parse as
// JSON is forwarded verbatim as a text fragment rather than dropped. The
// sentinel and the connection closing both end the stream cleanly with a
// terminal chunk.
func (a *Adapter) Stream(ctx context.Context, request ai.ChatRequest) (*ai.ChatStream, error) {
	span := observability.SpanFromContext(ctx)
	if span != nil {
		span.SetAttributes(
			observability.String(observability.AttrGatewayProvider, providerName),
			observability.String(observability.AttrGatewayModel, request.Model),
			observability.Bool(observability.AttrGatewayStream, true),
		)
	}

	capability, err := a.selectModel(ctx, request)
	if err != nil {
		return nil, err
	}
	if span != nil {
		span.SetAttributes(observability.String(observability.AttrGatewayModelResolved, capability.ID))
	}

	httpResponse, err := a.client.runStream(ctx, capability.ID, toNativeRequest(request, capability))
	if err != nil {
		return nil, err
	}

	eventScanner := utils.NewSSEScanner(httpResponse.Body)
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

			payload, readErr := eventScanner.Next()
			if readErr == io.EOF {
				if span != nil {
					span.AddEvent(observability.EventStreamCompleted)
				}
				yield(meta.Finish(ai.FinishReasonStop), nil)
				return
			}
			if readErr != nil {
				abort(fmt.Errorf("stream read error: %w", readErr))
				return
			}

			// Malformed frames pass through as raw text.
			text := payload
			var frame streamFrame
			if parseErr := json.Unmarshal([]byte(payload), &frame); parseErr == nil {
				text = frame.Response
			}

			if text == "" {
				continue
			}
			if !yield(meta.Chunk(ai.Delta{Content: text}), nil) {
				return
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}
