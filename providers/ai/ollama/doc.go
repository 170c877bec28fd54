// Package ollama adapts the gateway's wire format to an Ollama server's
// /api/chat endpoint.
//
// Models route here under the "ollama/" prefix, which is stripped before the
// upstream call ("ollama/llama3" runs llama3). Ollama shares OpenAI's role
// vocabulary, so messages forward almost as-is and the system prompt stays
// inline in the conversation. Responses stream as newline-delimited JSON
// rather than SSE. Token counts come from prompt_eval_count/eval_count when
// the server reports them and are approximated from character lengths when
// it does not.
package ollama
