package workersai

/*
	##### NATIVE REQUEST #####
*/

// runRequest is the body of an /ai/run call. Messages and Prompt are
// mutually exclusive; which one is populated follows the model's
// [InputFormat].
type runRequest struct {
	Messages    []runMessage `json:"messages,omitempty"`
	Prompt      string       `json:"prompt,omitempty"`
	Stream      bool         `json:"stream,omitempty"`
	MaxTokens   int          `json:"max_tokens,omitempty"`
	Temperature *float64     `json:"temperature,omitempty"`
	TopP        *float64     `json:"top_p,omitempty"`
}

type runMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

/*
	##### NATIVE RESPONSE #####
*/

// runEnvelope is Cloudflare's standard API envelope around a synchronous
// /ai/run result.
type runEnvelope struct {
	Result  runResult  `json:"result"`
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors"`
}

type runResult struct {
	Response string `json:"response"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// streamFrame is the payload of one SSE data event in streaming mode.
// Streaming results skip the envelope and carry the text fragment directly.
type streamFrame struct {
	Response string `json:"response"`
}
