// Package server exposes the gateway over HTTP in the OpenAI API shape.
//
// POST /v1/chat/completions accepts a chat request and answers with a
// single JSON completion, or with an SSE stream of chat.completion.chunk
// frames followed by a [DONE] sentinel when the request sets stream. A
// stream that fails after frames have been sent is closed without the
// sentinel. GET /v1/models lists the Workers AI model catalog and
// GET /health reports liveness. Errors use the OpenAI error envelope.
package server
