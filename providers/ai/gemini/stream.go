package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/observability"
)

// Stream implements [ai.StreamAdapter] against streamGenerateContent with
// alt=sse. Each SSE frame carries a generateContentResponse whose candidate
// parts hold the text for that frame; frames with text become exactly one
// chunk each, in arrival order.
//
// Gemini has no explicit terminal event: the upstream simply closes the
// stream after the last frame, so EOF is the clean end and produces the
// terminal chunk. Mid-stream parse or read failures are yielded as
// [ai.StreamAbortedError] and the stream ends without a terminal chunk.
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
		return nil, fmt.Errorf("GEMINI_API_KEY is not set")
	}

	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse", a.baseURL, request.Model)

	httpResponse, err := utils.DoPostStream(ctx, a.client, url, "", toNativeRequest(request), a.authHeader())
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
				// Gemini signals completion by closing the stream.
				if span != nil {
					span.AddEvent(observability.EventStreamCompleted)
				}
				yield(meta.Finish(ai.FinishReasonStop), nil)
				return
			}
			if sseErr != nil {
				abort(fmt.Errorf("SSE read error: %w", sseErr))
				return
			}

			var frame generateContentResponse
			if parseErr := json.Unmarshal([]byte(payload), &frame); parseErr != nil {
				abort(fmt.Errorf("failed to parse stream frame: %w", parseErr))
				return
			}

			if frame.PromptFeedback != nil && frame.PromptFeedback.BlockReason != "" {
				abort(fmt.Errorf("gemini blocked the prompt: %s", frame.PromptFeedback.BlockReason))
				return
			}

			// One chunk per frame carrying text; empty frames are skipped.
			var text string
			if len(frame.Candidates) > 0 {
				text = candidateText(frame.Candidates[0])
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
