package ollama

import (
	"strings"

	"github.com/modelmux/modelmux/providers/ai"
)

// toNativeRequest converts an ai.ChatRequest into the /api/chat shape. The
// routing prefix is stripped from the model, roles forward as-is (tool
// outputs fold into user turns), and a response_format of json_object maps
// to Ollama's format:"json".
func toNativeRequest(request ai.ChatRequest) ollamaRequest {
	native := ollamaRequest{
		Model:   strings.TrimPrefix(request.Model, modelPrefix),
		Options: buildOptions(request),
	}

	for _, message := range request.Messages {
		role := string(message.Role)
		if message.Role == ai.RoleTool {
			role = string(ai.RoleUser)
		}
		native.Messages = append(native.Messages, ollamaMessage{
			Role:    role,
			Content: message.Text(),
		})
	}

	if request.ResponseFormat != nil && request.ResponseFormat.Type == ai.ResponseFormatJSONObject {
		native.Format = "json"
	}

	return native
}

// buildOptions maps sampling parameters onto Ollama's options block,
// returning nil when the request carries none of them.
func buildOptions(request ai.ChatRequest) *ollamaOptions {
	options := &ollamaOptions{
		Stop: request.Stop,
	}
	configured := len(request.Stop) > 0

	if request.MaxTokens > 0 {
		numPredict := request.MaxTokens
		options.NumPredict = &numPredict
		configured = true
	}
	if request.Temperature != nil {
		temperature := float64(*request.Temperature)
		options.Temperature = &temperature
		configured = true
	}
	if request.TopP != nil {
		topP := float64(*request.TopP)
		options.TopP = &topP
		configured = true
	}

	if !configured {
		return nil
	}
	return options
}

// toChatResponse converts an /api/chat response to the OpenAI shape. The
// model echoes the request exactly as routed, prefix included; eval counts
// become usage when the server reports them and are approximated otherwise.
func toChatResponse(response ollamaResponse, request ai.ChatRequest) *ai.ChatResponse {
	usage := usageFromCounts(response, promptText(request))

	return ai.NewChatResponse(
		request.Model,
		ai.NewMessage(ai.RoleAssistant, response.Message.Content),
		ai.NormalizeFinishReason(response.DoneReason),
		usage,
	)
}

// promptText concatenates every message's content for usage approximation.
func promptText(request ai.ChatRequest) string {
	var builder strings.Builder
	for _, message := range request.Messages {
		builder.WriteString(message.Text())
	}
	return builder.String()
}

// usageFromCounts builds the usage block from Ollama's eval counts, falling
// back to length-based approximation when the server reported none.
func usageFromCounts(response ollamaResponse, prompt string) *ai.Usage {
	if response.PromptEvalCount == 0 && response.EvalCount == 0 {
		return ai.ApproximateUsage(prompt, response.Message.Content)
	}
	return &ai.Usage{
		PromptTokens:     response.PromptEvalCount,
		CompletionTokens: response.EvalCount,
		TotalTokens:      response.PromptEvalCount + response.EvalCount,
	}
}
