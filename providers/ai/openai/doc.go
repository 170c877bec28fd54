// Package openai adapts the gateway's wire format to OpenAI's chat
// completions API through the sashabaranov/go-openai client.
//
// This is the passthrough adapter: the inbound wire format is already
// OpenAI's, so conversion is a field-for-field translation at the SDK
// boundary. Unlike the other adapters, tools, tool_choice, and
// response_format forward natively, and the upstream finish reason and usage
// counts are returned unmapped. The response identifier is still minted
// fresh and the model echoes the request, matching the rest of the gateway.
package openai
