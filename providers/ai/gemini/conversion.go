package gemini

import (
	"strings"

	"github.com/modelmux/modelmux/providers/ai"
)

// Gemini turn roles. Assistant history replays as "model"; everything else,
// tool outputs included, folds into "user" turns.
const (
	roleUser  = "user"
	roleModel = "model"
)

// toNativeRequest converts an ai.ChatRequest into the generateContent shape.
// System messages are pulled out of the conversation into systemInstruction;
// a response_format of json_object maps to the JSON response MIME type.
func toNativeRequest(request ai.ChatRequest) generateContentRequest {
	native := generateContentRequest{
		GenerationConfig: buildGenerationConfig(request),
	}

	var systemParts []part
	for _, message := range request.Messages {
		switch message.Role {
		case ai.RoleSystem:
			systemParts = append(systemParts, part{Text: message.Text()})

		case ai.RoleAssistant:
			native.Contents = append(native.Contents, content{
				Role:  roleModel,
				Parts: []part{{Text: message.Text()}},
			})

		default:
			native.Contents = append(native.Contents, content{
				Role:  roleUser,
				Parts: []part{{Text: message.Text()}},
			})
		}
	}
	if len(systemParts) > 0 {
		native.SystemInstruction = &systemInstruction{Parts: systemParts}
	}

	return native
}

// buildGenerationConfig maps sampling parameters onto Gemini's generation
// config, returning nil when the request carries none of them.
func buildGenerationConfig(request ai.ChatRequest) *generationConfig {
	config := &generationConfig{
		StopSequences: request.Stop,
	}
	configured := len(request.Stop) > 0

	if request.MaxTokens > 0 {
		maxTokens := request.MaxTokens
		config.MaxOutputTokens = &maxTokens
		configured = true
	}
	if request.Temperature != nil {
		temperature := float64(*request.Temperature)
		config.Temperature = &temperature
		configured = true
	}
	if request.TopP != nil {
		topP := float64(*request.TopP)
		config.TopP = &topP
		configured = true
	}
	if request.ResponseFormat != nil && request.ResponseFormat.Type == ai.ResponseFormatJSONObject {
		config.ResponseMimeType = "application/json"
		configured = true
	}

	if !configured {
		return nil
	}
	return config
}

// toChatResponse converts a generateContent response to the OpenAI shape.
// The first candidate's text parts are joined into a single assistant
// message; when Gemini omits usage metadata the counts are approximated
// from character lengths.
func toChatResponse(response generateContentResponse, request ai.ChatRequest) *ai.ChatResponse {
	var text string
	var finishReason string
	if len(response.Candidates) > 0 {
		chosen := response.Candidates[0]
		text = candidateText(chosen)
		finishReason = chosen.FinishReason
	}

	usage := usageFromMetadata(response.UsageMetadata, promptText(request), text)

	return ai.NewChatResponse(
		request.Model,
		ai.NewMessage(ai.RoleAssistant, text),
		ai.NormalizeFinishReason(finishReason),
		usage,
	)
}

// candidateText joins the text parts of a candidate.
func candidateText(chosen candidate) string {
	if chosen.Content == nil {
		return ""
	}
	var builder strings.Builder
	for _, p := range chosen.Content.Parts {
		builder.WriteString(p.Text)
	}
	return builder.String()
}

// promptText concatenates every message's content for usage approximation.
func promptText(request ai.ChatRequest) string {
	var builder strings.Builder
	for _, message := range request.Messages {
		builder.WriteString(message.Text())
	}
	return builder.String()
}

// usageFromMetadata maps Gemini usage metadata onto the OpenAI usage block,
// falling back to length-based approximation when it is missing.
func usageFromMetadata(metadata *usageMetadata, prompt, completion string) *ai.Usage {
	if metadata == nil {
		return ai.ApproximateUsage(prompt, completion)
	}
	total := metadata.TotalTokenCount
	if total == 0 {
		total = metadata.PromptTokenCount + metadata.CandidatesTokenCount
	}
	return &ai.Usage{
		PromptTokens:     metadata.PromptTokenCount,
		CompletionTokens: metadata.CandidatesTokenCount,
		TotalTokens:      total,
	}
}
