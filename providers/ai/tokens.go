package ai

// ApproximateTokens estimates the token count of a text as ceil(len/4).
// Upstreams that do not report usage (Workers AI, some Ollama builds) get
// their counts from this approximation instead of omitting usage entirely.
func ApproximateTokens(text string) int {
	return (len(text) + 3) / 4
}

// ApproximateUsage builds a Usage block from character-length approximations
// of the prompt and completion texts.
func ApproximateUsage(prompt, completion string) *Usage {
	promptTokens := ApproximateTokens(prompt)
	completionTokens := ApproximateTokens(completion)
	return &Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
	}
}
