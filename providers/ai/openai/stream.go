package openai

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/observability"
)

// Stream implements [ai.StreamAdapter] through the SDK's streaming client.
// Content and tool-call deltas forward one chunk per native frame, in
// arrival order; role-only preludes, finish markers, and usage frames carry
// nothing forwardable and are skipped.
//
// The SDK swallows the upstream [DONE] sentinel and surfaces it as iterator
// exhaustion, so exhaustion is the clean end and produces the terminal
// chunk. Mid-stream receive failures are yielded as [ai.StreamAbortedError]
// and the stream ends without a terminal chunk.
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
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}

	nativeStream, err := a.client.CreateChatCompletionStream(ctx, toNativeRequest(request))
	if err != nil {
		return nil, wrapSDKError(err)
	}

	meta := ai.NewStreamMeta(request.Model)

	iteratorFunc := func(yield func(ai.StreamChunk, error) bool) {
		defer utils.CloseWithLog(nativeStream)

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

			frame, recvErr := nativeStream.Recv()
			if errors.Is(recvErr, io.EOF) {
				if span != nil {
					span.AddEvent(observability.EventStreamCompleted)
				}
				yield(meta.Finish(ai.FinishReasonStop), nil)
				return
			}
			if recvErr != nil {
				abort(recvErr)
				return
			}

			delta := deltaFromFrame(frame)
			if delta == nil {
				continue
			}
			if !yield(meta.Chunk(*delta), nil) {
				return
			}
		}
	}

	return ai.NewChatStream(iteratorFunc), nil
}
