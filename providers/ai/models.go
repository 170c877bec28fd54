package ai

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

/*
	##### REQUEST #####
*/

// ChatRequest represents a chat completion request in the OpenAI wire format.
// This is the single request shape accepted by every adapter; each adapter's
// conversion layer maps it to its upstream's native format.
type ChatRequest struct {
	Model            string          `json:"model"`                       // Model name or identifier (may carry a provider prefix)
	Messages         []Message       `json:"messages"`                    // Full conversation, system prompt included as a role=system message
	Tools            []Tool          `json:"tools,omitempty"`             // Tool definitions the model may call
	ToolChoice       any             `json:"tool_choice,omitempty"`       // "none" | "auto" | {"type":"function","function":{"name":...}}
	ResponseFormat   *ResponseFormat `json:"response_format,omitempty"`   // Optional response format constraint
	Stream           bool            `json:"stream,omitempty"`            // Request SSE streaming instead of a single response
	MaxTokens        int             `json:"max_tokens,omitempty"`        // Optional cap on generated tokens
	Temperature      *float32        `json:"temperature,omitempty"`       // Sampling temperature [0..2]; pointer so zero is distinguishable from unset
	TopP             *float32        `json:"top_p,omitempty"`             // Nucleus sampling [0..1]
	FrequencyPenalty float32         `json:"frequency_penalty,omitempty"` // Penalty [-2..2] against frequent tokens
	PresencePenalty  float32         `json:"presence_penalty,omitempty"`  // Penalty [-2..2] against already-seen tokens
	Stop             []string        `json:"stop,omitempty"`              // Stop sequences
	User             string          `json:"user,omitempty"`              // Opaque end-user identifier, forwarded where supported
}

// Message represents a single message in a conversation.
// Content is a pointer because the OpenAI format allows an explicit null
// (assistant messages that carry only tool calls). Use [Message.Text] when
// the string value is needed.
type Message struct {
	Role    MessageRole `json:"role"`
	Content *string     `json:"content"`

	// Tool calling fields
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`   // For role=assistant requesting tools
	ToolCallID string     `json:"tool_call_id,omitempty"` // For role=tool, links to the tool call being responded to
	Name       string     `json:"name,omitempty"`         // For role=tool, name of the tool that generated this response
}

// Text returns the message content, or the empty string when content is null.
func (m Message) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

// NewMessage builds a message with the given role and non-null content.
func NewMessage(role MessageRole, content string) Message {
	return Message{Role: role, Content: &content}
}

// Tool describes a function the model may call, in the OpenAI tools format.
type Tool struct {
	Type     string             `json:"type"` // Always "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition carries the callable's name and JSON Schema parameters.
// Parameters is kept as raw JSON so schemas round-trip byte-for-byte to
// upstreams that accept them natively.
type FunctionDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ResponseFormat constrains the shape of the model output.
type ResponseFormat struct {
	Type string `json:"type"` // "text" | "json_object"
}

/*
	##### RESPONSE #####
*/

// ChatResponse represents a chat completion response in the OpenAI wire
// format. Adapters always return exactly one choice.
type ChatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // Always "chat.completion"
	Created int64    `json:"created"`
	Model   string   `json:"model"` // Echoes the model string from the request
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`
}

// Choice holds the generated message and why generation stopped.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"` // "stop" | "length" | "tool_calls"
}

// First returns the assistant message of the first choice, or a zero
// Message when the response carries no choices.
func (r *ChatResponse) First() Message {
	if r == nil || len(r.Choices) == 0 {
		return Message{}
	}
	return r.Choices[0].Message
}

// FinishReason returns the finish reason of the first choice.
func (r *ChatResponse) FinishReason() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return r.Choices[0].FinishReason
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolCall represents a function/tool call request from the model.
type ToolCall struct {
	ID       string       `json:"id,omitempty"` // Unique identifier for this tool call
	Type     string       `json:"type"`         // "function"
	Function FunctionCall `json:"function"`
}

type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

/*
	##### ENUMS #####
*/

// MessageRole represents the role of a message; compatible with string
type MessageRole string

const (
	RoleSystem    MessageRole = "system"    // System instructions/configuration
	RoleUser      MessageRole = "user"      // End-user message
	RoleAssistant MessageRole = "assistant" // Model response
	RoleTool      MessageRole = "tool"      // Tool/function output
)

// Finish reasons in the OpenAI vocabulary. Adapters map upstream stop
// semantics onto these three values.
const (
	FinishReasonStop      = "stop"
	FinishReasonLength    = "length"
	FinishReasonToolCalls = "tool_calls"
)

// NormalizeFinishReason maps a provider-native completion reason onto the
// OpenAI vocabulary. Native "stop" and "end_turn" (any case) read as a clean
// stop, an absent reason is treated as one, and everything else conservatively
// becomes "length". The OpenAI passthrough does not use this; its reasons are
// already in the right vocabulary.
func NormalizeFinishReason(native string) string {
	switch strings.ToLower(native) {
	case "", "stop", "end_turn":
		return FinishReasonStop
	default:
		return FinishReasonLength
	}
}

// Object type discriminators.
const (
	ObjectChatCompletion      = "chat.completion"
	ObjectChatCompletionChunk = "chat.completion.chunk"
)

// Response format types.
const (
	ResponseFormatText       = "text"
	ResponseFormatJSONObject = "json_object"
)

// ToolTypeFunction is the only tool type in the OpenAI tools format.
const ToolTypeFunction = "function"

/*
	##### CONSTRUCTORS #####
*/

// NewResponseID mints a fresh OpenAI-style completion identifier.
// Adapters that translate upstream formats use this instead of forwarding
// upstream identifiers, so callers cannot correlate responses across layers.
func NewResponseID() string {
	return "chatcmpl-" + uuid.NewString()
}

// NewToolCallID mints a fresh tool call identifier.
func NewToolCallID() string {
	return "call_" + uuid.NewString()
}

// NewChatResponse assembles a single-choice response with a fresh ID and the
// current timestamp. The model parameter should echo the model string the
// caller sent, prefixes included.
func NewChatResponse(model string, message Message, finishReason string, usage *Usage) *ChatResponse {
	return &ChatResponse{
		ID:      NewResponseID(),
		Object:  ObjectChatCompletion,
		Created: time.Now().Unix(),
		Model:   model,
		Choices: []Choice{{
			Index:        0,
			Message:      message,
			FinishReason: finishReason,
		}},
		Usage: usage,
	}
}
