package openai

import (
	sdk "github.com/sashabaranov/go-openai"

	"github.com/modelmux/modelmux/providers/ai"
)

// toNativeRequest translates a gateway request into the SDK's request type.
// The wire formats match field-for-field, so this is a mechanical mapping;
// tools, tool_choice, and response_format forward as-is.
func toNativeRequest(request ai.ChatRequest) sdk.ChatCompletionRequest {
	native := sdk.ChatCompletionRequest{
		Model:            request.Model,
		MaxTokens:        request.MaxTokens,
		Stop:             request.Stop,
		FrequencyPenalty: request.FrequencyPenalty,
		PresencePenalty:  request.PresencePenalty,
		User:             request.User,
		ToolChoice:       request.ToolChoice,
	}

	for _, message := range request.Messages {
		native.Messages = append(native.Messages, toNativeMessage(message))
	}
	for _, tool := range request.Tools {
		function := sdk.FunctionDefinition{
			Name:        tool.Function.Name,
			Description: tool.Function.Description,
			Parameters:  tool.Function.Parameters,
		}
		native.Tools = append(native.Tools, sdk.Tool{
			Type:     sdk.ToolType(tool.Type),
			Function: &function,
		})
	}

	if request.Temperature != nil {
		native.Temperature = *request.Temperature
	}
	if request.TopP != nil {
		native.TopP = *request.TopP
	}
	if request.ResponseFormat != nil {
		native.ResponseFormat = &sdk.ChatCompletionResponseFormat{
			Type: sdk.ChatCompletionResponseFormatType(request.ResponseFormat.Type),
		}
	}

	return native
}

func toNativeMessage(message ai.Message) sdk.ChatCompletionMessage {
	native := sdk.ChatCompletionMessage{
		Role:       string(message.Role),
		Content:    message.Text(),
		Name:       message.Name,
		ToolCallID: message.ToolCallID,
	}
	for _, call := range message.ToolCalls {
		native.ToolCalls = append(native.ToolCalls, sdk.ToolCall{
			ID:       call.ID,
			Type:     sdk.ToolType(call.Type),
			Function: sdk.FunctionCall{Name: call.Function.Name, Arguments: call.Function.Arguments},
		})
	}
	return native
}

// toChatResponse translates the SDK response back to the gateway shape. The
// finish reason passes through unmapped (OpenAI's vocabulary is the wire
// vocabulary), usage is native, and only the first choice is kept.
func toChatResponse(native sdk.ChatCompletionResponse, requestModel string) *ai.ChatResponse {
	chosen := native.Choices[0]

	message := ai.Message{Role: ai.RoleAssistant}
	for _, call := range chosen.Message.ToolCalls {
		message.ToolCalls = append(message.ToolCalls, ai.ToolCall{
			ID:       call.ID,
			Type:     string(call.Type),
			Function: ai.FunctionCall{Name: call.Function.Name, Arguments: call.Function.Arguments},
		})
	}
	// Tool-call turns come back with null content on the wire; preserve
	// that instead of flattening it to an empty string.
	if chosen.Message.Content != "" || len(message.ToolCalls) == 0 {
		content := chosen.Message.Content
		message.Content = &content
	}

	usage := &ai.Usage{
		PromptTokens:     native.Usage.PromptTokens,
		CompletionTokens: native.Usage.CompletionTokens,
		TotalTokens:      native.Usage.TotalTokens,
	}

	return ai.NewChatResponse(requestModel, message, string(chosen.FinishReason), usage)
}

// deltaFromFrame extracts the forwardable delta from one native stream
// frame, or nil when the frame carries nothing to emit: role-only preludes,
// finish-reason markers, and usage-only frames all return nil.
func deltaFromFrame(frame sdk.ChatCompletionStreamResponse) *ai.Delta {
	if len(frame.Choices) == 0 {
		return nil
	}
	nativeDelta := frame.Choices[0].Delta

	delta := ai.Delta{
		Role:    ai.MessageRole(nativeDelta.Role),
		Content: nativeDelta.Content,
	}
	for _, call := range nativeDelta.ToolCalls {
		index := 0
		if call.Index != nil {
			index = *call.Index
		}
		delta.ToolCalls = append(delta.ToolCalls, ai.ToolCallDelta{
			Index:    index,
			ID:       call.ID,
			Type:     string(call.Type),
			Function: ai.FunctionCallDelta{Name: call.Function.Name, Arguments: call.Function.Arguments},
		})
	}

	if delta.Content == "" && len(delta.ToolCalls) == 0 {
		return nil
	}
	return &delta
}
