package workersai

import (
	"encoding/json"
	"strings"

	"github.com/modelmux/modelmux/internal/utils"
	"github.com/modelmux/modelmux/providers/ai"
)

// Workers AI has no native function calling, so tool requests are emulated:
// the tool definitions are rendered into an instruction block, the model is
// told to answer with a JSON invocation, and the completion is scanned for
// one. A completion that does not contain a parseable invocation is returned
// as ordinary text; there is no retry.

const toolInstructionHeader = `You have access to the tools listed below. To call a tool, respond with a single JSON object of the form {"tool": "<tool name>", "arguments": {<parameters>}} and nothing else. If no tool is needed, answer normally.`

// toolInvocation is the JSON shape the instruction block asks the model to
// produce.
type toolInvocation struct {
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments"`
}

// toolInstruction renders the tool definitions into the instruction block,
// JSON Schema parameters included so the model knows the argument shapes.
func toolInstruction(tools []ai.Tool) string {
	var builder strings.Builder
	builder.WriteString(toolInstructionHeader)
	builder.WriteString("\n\nTools:\n")

	for _, tool := range tools {
		builder.WriteString("- ")
		builder.WriteString(tool.Function.Name)
		if tool.Function.Description != "" {
			builder.WriteString(": ")
			builder.WriteString(tool.Function.Description)
		}
		builder.WriteString("\n")
		if len(tool.Function.Parameters) > 0 {
			builder.WriteString("  parameters: ")
			builder.Write(tool.Function.Parameters)
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// withToolInstruction returns a copy of the request with the instruction
// block appended as a trailing system message. For prompt-format models the
// flattener folds it into the leading System block. The original message
// slice is left untouched.
func withToolInstruction(request ai.ChatRequest) ai.ChatRequest {
	messages := make([]ai.Message, 0, len(request.Messages)+1)
	messages = append(messages, request.Messages...)
	messages = append(messages, ai.NewMessage(ai.RoleSystem, toolInstruction(request.Tools)))

	request.Messages = messages
	return request
}

// parseEmulatedToolCall scans a completion for a JSON tool invocation and
// converts it into a single tool call with a fresh identifier. Almost-JSON
// (single quotes, trailing commas) is accepted through a repair pass. The
// second return is false when the completion carries no recoverable
// invocation, in which case the caller treats it as plain text.
func parseEmulatedToolCall(text string) (ai.ToolCall, bool) {
	candidate, ok := rawJSONSlice(text)
	if !ok {
		return ai.ToolCall{}, false
	}

	invocation, err := utils.ParseJSONAs[toolInvocation](candidate)
	if err != nil || invocation.Tool == "" {
		return ai.ToolCall{}, false
	}

	arguments := "{}"
	if raw := strings.TrimSpace(string(invocation.Arguments)); raw != "" && raw != "null" {
		arguments = raw
	}

	return ai.ToolCall{
		ID:   ai.NewToolCallID(),
		Type: ai.ToolTypeFunction,
		Function: ai.FunctionCall{
			Name:      invocation.Tool,
			Arguments: arguments,
		},
	}, true
}
