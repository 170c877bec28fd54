package ai

import (
	"iter"
	"strings"
	"time"
)

/*
	##### STREAM WIRE TYPES #####
*/

// StreamChunk represents a single SSE frame of a streaming chat completion,
// in the OpenAI chat.completion.chunk wire format. Adapters emit one chunk
// per upstream frame that carries text; they never buffer or coalesce.
type StreamChunk struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"` // Always "chat.completion.chunk"
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []StreamChoice `json:"choices"`
}

// StreamChoice carries the delta for one choice. FinishReason is a pointer
// because the wire format requires an explicit null on every non-terminal
// chunk.
type StreamChoice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Delta is the incremental payload of a stream chunk. Content carries a text
// fragment; ToolCalls carries incremental tool call updates for upstreams
// that stream them natively.
type Delta struct {
	Role      MessageRole     `json:"role,omitempty"`
	Content   string          `json:"content,omitempty"`
	ToolCalls []ToolCallDelta `json:"tool_calls,omitempty"`
}

// ToolCallDelta represents an incremental update to a tool call being
// streamed. The Index field identifies which tool call is being updated
// (there may be several in flight). ID and Name are only present on the
// first chunk for a given index; later chunks carry argument fragments.
type ToolCallDelta struct {
	Index    int               `json:"index"`
	ID       string            `json:"id,omitempty"`
	Type     string            `json:"type,omitempty"`
	Function FunctionCallDelta `json:"function"`
}

type FunctionCallDelta struct {
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
}

// Text returns the content fragment of the first choice, or the empty string.
func (c StreamChunk) Text() string {
	if len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Delta.Content
}

// StreamMeta holds the identity fields shared by every chunk of one stream:
// the same ID, model echo, and creation timestamp appear on all of them.
type StreamMeta struct {
	ID      string
	Model   string
	Created int64
}

// NewStreamMeta mints a fresh stream identity for the given model echo.
func NewStreamMeta(model string) StreamMeta {
	return StreamMeta{
		ID:      NewResponseID(),
		Model:   model,
		Created: time.Now().Unix(),
	}
}

// Chunk wraps a delta in a non-terminal chunk carrying this stream's identity.
func (m StreamMeta) Chunk(delta Delta) StreamChunk {
	return StreamChunk{
		ID:      m.ID,
		Object:  ObjectChatCompletionChunk,
		Created: m.Created,
		Model:   m.Model,
		Choices: []StreamChoice{{Index: 0, Delta: delta}},
	}
}

// Finish builds the terminal chunk: an empty delta with the finish reason set.
func (m StreamMeta) Finish(reason string) StreamChunk {
	return StreamChunk{
		ID:      m.ID,
		Object:  ObjectChatCompletionChunk,
		Created: m.Created,
		Model:   m.Model,
		Choices: []StreamChoice{{Index: 0, Delta: Delta{}, FinishReason: &reason}},
	}
}

/*
	##### CHAT STREAM #####
*/

// ChatStream wraps a streaming iterator and provides automatic accumulation
// of chunks into a final ChatResponse. It supports both range-based iteration
// for real-time forwarding and a convenience Collect() method for callers
// who want the complete response.
//
// Important: callers must consume the stream, either by iterating with Iter()
// (including breaking out of the loop early) or by calling Collect(). The
// underlying adapter may hold open resources (such as an HTTP response body)
// that are only released when the iterator completes or is abandoned via a
// loop break. Constructing a ChatStream and never iterating it will leak
// those resources.
type ChatStream struct {
	iterator iter.Seq2[StreamChunk, error]
}

// NewChatStream creates a ChatStream from a raw streaming iterator.
// The iterator is expected to yield StreamChunk values (with nil error) for
// normal frames, and may yield a non-nil error to signal a mid-stream
// failure. After an error the iterator must stop; no terminal chunk follows.
func NewChatStream(iterator iter.Seq2[StreamChunk, error]) *ChatStream {
	return &ChatStream{iterator: iterator}
}

// NewSingleChunkStream wraps a synchronous ChatResponse as a two-chunk
// stream: the full message as one delta, then the terminal chunk. This is
// the fallback when an upstream cannot stream a particular request shape.
func NewSingleChunkStream(response *ChatResponse) *ChatStream {
	meta := StreamMeta{ID: response.ID, Model: response.Model, Created: response.Created}
	message := response.First()

	iteratorFunc := func(yield func(StreamChunk, error) bool) {
		delta := Delta{Role: RoleAssistant, Content: message.Text()}
		for i, call := range message.ToolCalls {
			delta.ToolCalls = append(delta.ToolCalls, ToolCallDelta{
				Index: i,
				ID:    call.ID,
				Type:  call.Type,
				Function: FunctionCallDelta{
					Name:      call.Function.Name,
					Arguments: call.Function.Arguments,
				},
			})
		}
		if !yield(meta.Chunk(delta), nil) {
			return
		}

		finishReason := response.FinishReason()
		if finishReason == "" {
			finishReason = FinishReasonStop
		}
		yield(meta.Finish(finishReason), nil)
	}

	return NewChatStream(iteratorFunc)
}

// Iter returns the underlying iterator for use with range-over-func loops.
//
// Example:
//
//	for chunk, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    fmt.Print(chunk.Text())
//	}
func (stream *ChatStream) Iter() iter.Seq2[StreamChunk, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the accumulated
// ChatResponse. This is a convenience for callers who want the complete
// response but still benefit from streaming transport. Usage is left nil
// because streams do not carry token counts. Any mid-stream error terminates
// collection and returns the partial response alongside the error.
func (stream *ChatStream) Collect() (*ChatResponse, error) {
	var (
		meta             StreamMeta
		content          strings.Builder
		finishReason     string
		toolCallBuilders []*toolCallBuilder
	)

	for chunk, err := range stream.iterator {
		if meta.ID == "" {
			meta = StreamMeta{ID: chunk.ID, Model: chunk.Model, Created: chunk.Created}
		}
		if err != nil {
			return collectResponse(meta, content.String(), finishReason, toolCallBuilders), err
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		content.WriteString(choice.Delta.Content)
		for _, delta := range choice.Delta.ToolCalls {
			toolCallBuilders = accumulateToolCallDelta(toolCallBuilders, delta)
		}
		if choice.FinishReason != nil {
			finishReason = *choice.FinishReason
		}
	}

	return collectResponse(meta, content.String(), finishReason, toolCallBuilders), nil
}

func collectResponse(meta StreamMeta, content, finishReason string, builders []*toolCallBuilder) *ChatResponse {
	message := Message{Role: RoleAssistant, Content: &content}
	for _, builder := range builders {
		message.ToolCalls = append(message.ToolCalls, ToolCall{
			ID:   builder.id,
			Type: ToolTypeFunction,
			Function: FunctionCall{
				Name:      builder.name,
				Arguments: builder.arguments.String(),
			},
		})
	}

	return &ChatResponse{
		ID:      meta.ID,
		Object:  ObjectChatCompletion,
		Created: meta.Created,
		Model:   meta.Model,
		Choices: []Choice{{
			Index:        0,
			Message:      message,
			FinishReason: finishReason,
		}},
	}
}

// toolCallBuilder accumulates incremental tool call deltas into a complete
// ToolCall. Held by pointer: a strings.Builder must not be copied once
// written to, and the slice grows as new indices appear.
type toolCallBuilder struct {
	id        string
	name      string
	arguments strings.Builder
}

// accumulateToolCallDelta merges a ToolCallDelta into the running list of tool
// call builders. It grows the slice as needed when new indices appear.
func accumulateToolCallDelta(builders []*toolCallBuilder, delta ToolCallDelta) []*toolCallBuilder {
	for len(builders) <= delta.Index {
		builders = append(builders, &toolCallBuilder{})
	}

	builder := builders[delta.Index]

	if delta.ID != "" {
		builder.id = delta.ID
	}
	if delta.Function.Name != "" {
		builder.name = delta.Function.Name
	}
	if delta.Function.Arguments != "" {
		builder.arguments.WriteString(delta.Function.Arguments)
	}

	return builders
}
