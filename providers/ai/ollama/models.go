package ollama

/*
	OLLAMA API - REQUEST TYPES
*/

// ollamaRequest represents the request to Ollama's /api/chat endpoint. The
// stream field has no omitempty: Ollama defaults to streaming, so the
// synchronous path must send stream:false explicitly.
type ollamaRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Format   string          `json:"format,omitempty"` // "json" forces JSON output
	Options  *ollamaOptions  `json:"options,omitempty"`
}

// ollamaMessage represents one conversation turn. Ollama uses OpenAI's role
// vocabulary.
type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ollamaOptions carries generation parameters. Ollama nests them under
// "options" instead of taking them at the top level.
type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	NumPredict  *int     `json:"num_predict,omitempty"` // max tokens to generate
	Stop        []string `json:"stop,omitempty"`
}

/*
	OLLAMA API - RESPONSE TYPES
*/

// ollamaResponse represents both the synchronous response and one streamed
// frame; streaming sends a sequence of these as newline-delimited JSON with
// done=true on the final frame. Eval counts only appear on final frames, and
// older server builds omit them entirely.
type ollamaResponse struct {
	Model           string        `json:"model"`
	CreatedAt       string        `json:"created_at"`
	Message         ollamaMessage `json:"message"`
	Done            bool          `json:"done"`
	DoneReason      string        `json:"done_reason,omitempty"` // "stop", "length", "load"
	PromptEvalCount int           `json:"prompt_eval_count,omitempty"`
	EvalCount       int           `json:"eval_count,omitempty"`
	Error           string        `json:"error,omitempty"`
}
