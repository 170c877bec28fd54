package workersai

import (
	"testing"

	"github.com/modelmux/modelmux/providers/ai"
)

func TestToNativeRequest_MessagesFormat(t *testing.T) {
	temperature := float32(0.5)
	toolOutput := "42"
	request := ai.ChatRequest{
		Model: GenericModel,
		Messages: []ai.Message{
			ai.NewMessage(ai.RoleSystem, "Be terse."),
			ai.NewMessage(ai.RoleUser, "Hi"),
			{Role: ai.RoleTool, Content: &toolOutput, ToolCallID: "call_1", Name: "calc"},
		},
		MaxTokens:   128,
		Temperature: &temperature,
	}

	native := toNativeRequest(request, ModelCapability{ID: "m", InputFormat: InputMessages})

	if native.Prompt != "" {
		t.Error("messages-format models must not get a flattened prompt")
	}
	if len(native.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(native.Messages))
	}
	if native.Messages[0].Role != "system" || native.Messages[0].Content != "Be terse." {
		t.Errorf("unexpected system message: %+v", native.Messages[0])
	}
	if native.Messages[2].Role != "user" {
		t.Errorf("tool outputs fold into user turns, got role %q", native.Messages[2].Role)
	}
	if native.MaxTokens != 128 {
		t.Errorf("expected max_tokens forwarded, got %d", native.MaxTokens)
	}
	if native.Temperature == nil || *native.Temperature != 0.5 {
		t.Error("expected temperature forwarded")
	}
}

func TestToNativeRequest_PromptFormat(t *testing.T) {
	request := ai.ChatRequest{
		Model: "@cf/meta/llama-2-7b-chat-int8",
		Messages: []ai.Message{
			ai.NewMessage(ai.RoleUser, "What is Go?"),
		},
	}

	native := toNativeRequest(request, ModelCapability{ID: "legacy", InputFormat: InputPrompt})

	if len(native.Messages) != 0 {
		t.Error("prompt-format models must not get a message array")
	}
	if native.Prompt != "User: What is Go?" {
		t.Errorf("unexpected prompt: %q", native.Prompt)
	}
}

// TestFlattenPrompt pins the transcript shape: one leading System block
// gathered from every system message, then labelled turns separated by blank
// lines.
func TestFlattenPrompt(t *testing.T) {
	messages := []ai.Message{
		ai.NewMessage(ai.RoleUser, "What is Go?"),
		ai.NewMessage(ai.RoleAssistant, "A language."),
		ai.NewMessage(ai.RoleSystem, "Answer briefly."),
		ai.NewMessage(ai.RoleUser, "Elaborate."),
	}

	got := flattenPrompt(messages)
	want := "System: Answer briefly.\n\nUser: What is Go?\n\nAssistant: A language.\n\nUser: Elaborate."
	if got != want {
		t.Errorf("expected:\n%q\ngot:\n%q", want, got)
	}
}

func TestFlattenPrompt_NoSystem(t *testing.T) {
	got := flattenPrompt([]ai.Message{ai.NewMessage(ai.RoleUser, "Hi")})
	if got != "User: Hi" {
		t.Errorf("expected a single user turn, got %q", got)
	}
}
