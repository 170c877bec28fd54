package workersai

import (
	"strings"

	"github.com/modelmux/modelmux/providers/ai"
)

// toNativeRequest maps the incoming request onto the /ai/run body for the
// selected model. Chat-native models get the message array with roles
// preserved; prompt-only models get the conversation flattened into a single
// labelled transcript. Sampling parameters carry over directly.
func toNativeRequest(request ai.ChatRequest, capability ModelCapability) runRequest {
	native := runRequest{
		MaxTokens: request.MaxTokens,
	}

	if request.Temperature != nil {
		temperature := float64(*request.Temperature)
		native.Temperature = &temperature
	}
	if request.TopP != nil {
		topP := float64(*request.TopP)
		native.TopP = &topP
	}

	if capability.InputFormat == InputPrompt {
		native.Prompt = flattenPrompt(request.Messages)
		return native
	}

	native.Messages = make([]runMessage, 0, len(request.Messages))
	for _, message := range request.Messages {
		native.Messages = append(native.Messages, runMessage{
			Role:    nativeRole(message.Role),
			Content: message.Text(),
		})
	}
	return native
}

// nativeRole keeps the OpenAI role names Workers AI understands and folds
// tool outputs into user turns, since the models have no tool role.
func nativeRole(role ai.MessageRole) string {
	if role == ai.RoleTool {
		return string(ai.RoleUser)
	}
	return string(role)
}

// flattenPrompt renders a conversation as a single transcript for models
// that predate the messages API. System messages are gathered into one
// leading "System:" block; the remaining turns are labelled "User:" and
// "Assistant:" and separated by blank lines.
func flattenPrompt(messages []ai.Message) string {
	var systemParts []string
	var turns []string

	for _, message := range messages {
		switch message.Role {
		case ai.RoleSystem:
			systemParts = append(systemParts, message.Text())
		case ai.RoleAssistant:
			turns = append(turns, "Assistant: "+message.Text())
		default:
			turns = append(turns, "User: "+message.Text())
		}
	}

	if len(systemParts) > 0 {
		turns = append([]string{"System: " + strings.Join(systemParts, "\n")}, turns...)
	}

	return strings.Join(turns, "\n\n")
}

// promptText concatenates all message contents for token approximation.
func promptText(request ai.ChatRequest) string {
	var builder strings.Builder
	for _, message := range request.Messages {
		builder.WriteString(message.Text())
	}
	return builder.String()
}
