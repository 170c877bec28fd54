package openai

import (
	"encoding/json"
	"testing"

	sdk "github.com/sashabaranov/go-openai"

	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/ai"
)

// TestToNativeRequest_FieldMapping verifies the mechanical field-for-field
// translation into the SDK request.
func TestToNativeRequest_FieldMapping(t *testing.T) {
	native := toNativeRequest(ai.ChatRequest{
		Model: "gpt-4o",
		Messages: []ai.Message{
			ai.NewMessage(ai.RoleSystem, "Be terse."),
			ai.NewMessage(ai.RoleUser, "Hi"),
		},
		MaxTokens:        256,
		Temperature:      utils.Ptr(float32(0.7)),
		TopP:             utils.Ptr(float32(0.9)),
		FrequencyPenalty: 0.1,
		PresencePenalty:  0.2,
		Stop:             []string{"END"},
		User:             "user-42",
	})

	if native.Model != "gpt-4o" {
		t.Errorf("expected model forwarded, got %q", native.Model)
	}
	if len(native.Messages) != 2 || native.Messages[0].Role != "system" {
		t.Errorf("expected messages forwarded with roles intact, got %+v", native.Messages)
	}
	if native.MaxTokens != 256 {
		t.Errorf("expected max_tokens 256, got %d", native.MaxTokens)
	}
	if native.Temperature != 0.7 {
		t.Errorf("expected temperature 0.7, got %v", native.Temperature)
	}
	if native.TopP != 0.9 {
		t.Errorf("expected top_p 0.9, got %v", native.TopP)
	}
	if native.FrequencyPenalty != 0.1 || native.PresencePenalty != 0.2 {
		t.Errorf("expected penalties forwarded, got %v / %v", native.FrequencyPenalty, native.PresencePenalty)
	}
	if len(native.Stop) != 1 || native.Stop[0] != "END" {
		t.Errorf("expected stop forwarded, got %v", native.Stop)
	}
	if native.User != "user-42" {
		t.Errorf("expected user forwarded, got %q", native.User)
	}
}

// TestToNativeRequest_ToolSurface verifies that tools, tool_choice, and
// response_format forward natively instead of being emulated or dropped.
func TestToNativeRequest_ToolSurface(t *testing.T) {
	parameters := json.RawMessage(`{"type":"object","properties":{"city":{"type":"string"}}}`)

	native := toNativeRequest(ai.ChatRequest{
		Model:    "gpt-4o",
		Messages: []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")},
		Tools: []ai.Tool{{
			Type: ai.ToolTypeFunction,
			Function: ai.FunctionDefinition{
				Name:        "get_weather",
				Description: "Current weather for a city",
				Parameters:  parameters,
			},
		}},
		ToolChoice:     "auto",
		ResponseFormat: &ai.ResponseFormat{Type: ai.ResponseFormatJSONObject},
	})

	if len(native.Tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(native.Tools))
	}
	tool := native.Tools[0]
	if tool.Type != sdk.ToolTypeFunction || tool.Function.Name != "get_weather" {
		t.Errorf("expected the function tool forwarded, got %+v", tool)
	}
	if raw, ok := tool.Function.Parameters.(json.RawMessage); !ok || string(raw) != string(parameters) {
		t.Errorf("expected the JSON schema forwarded untouched, got %v", tool.Function.Parameters)
	}
	if native.ToolChoice != "auto" {
		t.Errorf("expected tool_choice forwarded, got %v", native.ToolChoice)
	}
	if native.ResponseFormat == nil || native.ResponseFormat.Type != sdk.ChatCompletionResponseFormatTypeJSONObject {
		t.Errorf("expected response_format json_object, got %+v", native.ResponseFormat)
	}
}

// TestToNativeMessage_ToolHistory verifies that assistant tool calls and
// tool outputs replay natively.
func TestToNativeMessage_ToolHistory(t *testing.T) {
	assistant := toNativeMessage(ai.Message{
		Role: ai.RoleAssistant,
		ToolCalls: []ai.ToolCall{{
			ID:       "call_abc",
			Type:     ai.ToolTypeFunction,
			Function: ai.FunctionCall{Name: "get_weather", Arguments: `{"city":"Paris"}`},
		}},
	})
	if len(assistant.ToolCalls) != 1 || assistant.ToolCalls[0].ID != "call_abc" {
		t.Errorf("expected the tool call replayed, got %+v", assistant.ToolCalls)
	}
	if assistant.ToolCalls[0].Function.Arguments != `{"city":"Paris"}` {
		t.Errorf("expected arguments preserved, got %q", assistant.ToolCalls[0].Function.Arguments)
	}

	toolOutput := toNativeMessage(ai.Message{
		Role:       ai.RoleTool,
		ToolCallID: "call_abc",
		Content:    ptr(`{"temp": 21}`),
	})
	if toolOutput.Role != "tool" || toolOutput.ToolCallID != "call_abc" {
		t.Errorf("expected native tool role with call linkage, got %+v", toolOutput)
	}
	if toolOutput.Content != `{"temp": 21}` {
		t.Errorf("expected tool payload preserved, got %q", toolOutput.Content)
	}
}

// TestDeltaFromFrame verifies which native frames forward and which are
// skipped.
func TestDeltaFromFrame(t *testing.T) {
	tests := []struct {
		name    string
		frame   sdk.ChatCompletionStreamResponse
		forward bool
	}{
		{
			name: "content delta forwards",
			frame: sdk.ChatCompletionStreamResponse{Choices: []sdk.ChatCompletionStreamChoice{
				{Delta: sdk.ChatCompletionStreamChoiceDelta{Content: "Hello"}},
			}},
			forward: true,
		},
		{
			name: "role-only prelude is skipped",
			frame: sdk.ChatCompletionStreamResponse{Choices: []sdk.ChatCompletionStreamChoice{
				{Delta: sdk.ChatCompletionStreamChoiceDelta{Role: "assistant"}},
			}},
			forward: false,
		},
		{
			name: "finish marker is skipped",
			frame: sdk.ChatCompletionStreamResponse{Choices: []sdk.ChatCompletionStreamChoice{
				{FinishReason: sdk.FinishReasonStop},
			}},
			forward: false,
		},
		{
			name:    "usage-only frame is skipped",
			frame:   sdk.ChatCompletionStreamResponse{Usage: &sdk.Usage{TotalTokens: 10}},
			forward: false,
		},
		{
			name: "tool-call delta forwards",
			frame: sdk.ChatCompletionStreamResponse{Choices: []sdk.ChatCompletionStreamChoice{
				{Delta: sdk.ChatCompletionStreamChoiceDelta{ToolCalls: []sdk.ToolCall{{
					Index:    utils.Ptr(0),
					ID:       "call_abc",
					Type:     sdk.ToolTypeFunction,
					Function: sdk.FunctionCall{Name: "get_weather", Arguments: `{"ci`},
				}}}},
			}},
			forward: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta := deltaFromFrame(tt.frame)
			if (delta != nil) != tt.forward {
				t.Fatalf("expected forward=%v, got delta %+v", tt.forward, delta)
			}
		})
	}
}

// TestDeltaFromFrame_ToolCallFields verifies the tool-call delta field
// mapping, index included.
func TestDeltaFromFrame_ToolCallFields(t *testing.T) {
	delta := deltaFromFrame(sdk.ChatCompletionStreamResponse{Choices: []sdk.ChatCompletionStreamChoice{
		{Delta: sdk.ChatCompletionStreamChoiceDelta{ToolCalls: []sdk.ToolCall{{
			Index:    utils.Ptr(1),
			ID:       "call_xyz",
			Type:     sdk.ToolTypeFunction,
			Function: sdk.FunctionCall{Name: "lookup", Arguments: `{"q":`},
		}}}},
	}})

	if delta == nil || len(delta.ToolCalls) != 1 {
		t.Fatalf("expected one tool-call delta, got %+v", delta)
	}
	call := delta.ToolCalls[0]
	if call.Index != 1 || call.ID != "call_xyz" || call.Function.Name != "lookup" {
		t.Errorf("expected index/id/name mapped, got %+v", call)
	}
	if call.Function.Arguments != `{"q":` {
		t.Errorf("expected the argument fragment preserved, got %q", call.Function.Arguments)
	}
}

func ptr(s string) *string { return &s }
