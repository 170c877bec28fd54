package anthropic

import (
	"encoding/json"
	"fmt"
)

/*
	ANTHROPIC SSE STREAMING - WIRE TYPES

	Anthropic streaming uses SSE with "event:" lines to identify event types,
	followed by "data:" lines containing JSON payloads. The SSE scanner only
	processes "data:" lines, so the "type" field inside the JSON payload
	discriminates events.

	Event lifecycle:
	  message_start → content_block_start → content_block_delta → content_block_stop →
	  message_delta → message_stop
*/

// anthropicStreamEvent is the top-level envelope for all Anthropic SSE events.
// The Type field discriminates which optional fields are populated.
type anthropicStreamEvent struct {
	Type  string          `json:"type"`            // Event discriminator
	Index int             `json:"index,omitempty"` // For content_block_start/delta/stop
	Delta *streamDelta    `json:"delta,omitempty"` // For "content_block_delta" and "message_delta"
	Error *anthropicError `json:"error,omitempty"` // For "error" events
}

// streamDelta carries incremental content within a content_block_delta or
// message_delta event. Text is populated for "text_delta"; StopReason for the
// untyped message_delta payload.
type streamDelta struct {
	Type       string `json:"type,omitempty"` // "text_delta", "input_json_delta", ...
	Text       string `json:"text,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`
}

// anthropicError represents an error event in the Anthropic SSE stream.
type anthropicError struct {
	Type    string `json:"type"`    // Error type (e.g., "overloaded_error", "api_error")
	Message string `json:"message"` // Human-readable error description
}

// unmarshalStreamEvent parses a JSON payload string into an anthropicStreamEvent.
// Returns an error if the JSON is invalid or the type field is missing.
func unmarshalStreamEvent(payload string) (*anthropicStreamEvent, error) {
	var event anthropicStreamEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return nil, err
	}
	if event.Type == "" {
		return nil, fmt.Errorf("missing type field in stream event")
	}
	return &event, nil
}
