// Package gemini implements the [ai.Adapter] and [ai.StreamAdapter]
// interfaces for Google's Gemini API (generateContent and
// streamGenerateContent endpoints).
//
// Role mapping follows Gemini's vocabulary: assistant turns become "model"
// contents and system messages are separated into the systemInstruction
// field. Responses are normalized back to the OpenAI shape with fresh
// identifiers and usage taken from usageMetadata.
package gemini
