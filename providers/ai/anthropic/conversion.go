package anthropic

import (
	"strings"

	"github.com/modelmux/modelmux/providers/ai"
)

// defaultMaxTokens is applied when the caller did not cap the response;
// Anthropic rejects requests without max_tokens.
const defaultMaxTokens = 4096

// toNativeRequest converts an ai.ChatRequest into the Messages API shape.
// System messages are pulled out of the conversation into the top-level
// system field; every other message becomes a user or assistant turn. Tool
// messages are folded into user turns so history replayed through the
// gateway never produces a role Anthropic rejects.
func toNativeRequest(request ai.ChatRequest) anthropicRequest {
	native := anthropicRequest{
		Model:         request.Model,
		MaxTokens:     defaultMaxTokens,
		StopSequences: request.Stop,
	}

	var systemParts []string
	for _, message := range request.Messages {
		switch message.Role {
		case ai.RoleSystem:
			systemParts = append(systemParts, message.Text())

		case ai.RoleAssistant:
			native.Messages = append(native.Messages, anthropicMessage{
				Role:    "assistant",
				Content: []anthropicContentBlock{{Type: "text", Text: message.Text()}},
			})

		default:
			// User turns, and tool outputs replayed as user context.
			native.Messages = append(native.Messages, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{{Type: "text", Text: message.Text()}},
			})
		}
	}
	native.System = strings.Join(systemParts, "\n")

	if request.MaxTokens > 0 {
		native.MaxTokens = request.MaxTokens
	}
	if request.Temperature != nil {
		temperature := float64(*request.Temperature)
		native.Temperature = &temperature
	}
	if request.TopP != nil {
		topP := float64(*request.TopP)
		native.TopP = &topP
	}

	return native
}

// toChatResponse converts a Messages API response to the OpenAI shape.
// Text blocks are joined with newlines into a single assistant message; the
// identifier is freshly minted rather than forwarded, and the model echoes
// what the caller asked for.
func toChatResponse(response anthropicResponse, requestModel string) *ai.ChatResponse {
	var textParts []string
	for _, block := range response.Content {
		if block.Type == "text" {
			textParts = append(textParts, block.Text)
		}
	}

	usage := &ai.Usage{
		PromptTokens:     response.Usage.InputTokens,
		CompletionTokens: response.Usage.OutputTokens,
		TotalTokens:      response.Usage.InputTokens + response.Usage.OutputTokens,
	}

	return ai.NewChatResponse(
		requestModel,
		ai.NewMessage(ai.RoleAssistant, strings.Join(textParts, "\n")),
		ai.NormalizeFinishReason(response.StopReason),
		usage,
	)
}
