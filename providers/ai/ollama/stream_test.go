package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/modelmux/modelmux/providers/ai"
)

// writeLine is a test helper that writes one NDJSON frame and flushes.
func writeLine(writer http.ResponseWriter, data string) {
	fmt.Fprintf(writer, "%s\n", data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func contentFrame(text string) string {
	return fmt.Sprintf(`{"model":"llama3","message":{"role":"assistant","content":%q},"done":false}`, text)
}

func streamingAdapter(t *testing.T, handler http.HandlerFunc) *Adapter {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New().WithBaseURL(server.URL)
}

// TestStream_Frames verifies the happy path: stream:true on the wire, one
// chunk per frame in arrival order, then the terminal chunk on done:true.
func TestStream_Frames(t *testing.T) {
	var captured ollamaRequest
	adapter := streamingAdapter(t, func(writer http.ResponseWriter, request *http.Request) {
		if err := json.NewDecoder(request.Body).Decode(&captured); err != nil {
			t.Errorf("can't decode request body: %v", err)
		}
		writer.Header().Set("Content-Type", "application/x-ndjson")
		writeLine(writer, contentFrame("Hello"))
		writeLine(writer, contentFrame(" world"))
		writeLine(writer, `{"model":"llama3","message":{"role":"assistant","content":""},"done":true,"done_reason":"stop","prompt_eval_count":2,"eval_count":3}`)
	})

	stream, err := adapter.Stream(context.Background(), ai.ChatRequest{
		Model:    "ollama/llama3",
		Messages: []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var chunks []ai.StreamChunk
	for chunk, iterErr := range stream.Iter() {
		if iterErr != nil {
			t.Fatalf("unexpected mid-stream error: %v", iterErr)
		}
		chunks = append(chunks, chunk)
	}

	if !captured.Stream {
		t.Error("expected stream:true on the wire")
	}
	if captured.Model != "llama3" {
		t.Errorf("expected the prefix stripped on the wire, got %q", captured.Model)
	}

	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks (2 deltas + terminal), got %d", len(chunks))
	}
	if chunks[0].Text() != "Hello" || chunks[1].Text() != " world" {
		t.Errorf("expected ordered deltas, got %q then %q", chunks[0].Text(), chunks[1].Text())
	}
	if chunks[0].Model != "ollama/llama3" {
		t.Errorf("expected the prefixed model echoed on chunks, got %q", chunks[0].Model)
	}

	terminal := chunks[2]
	if terminal.Choices[0].FinishReason == nil || *terminal.Choices[0].FinishReason != ai.FinishReasonStop {
		t.Errorf("expected terminal finish_reason stop, got %v", terminal.Choices[0].FinishReason)
	}
	if terminal.Text() != "" {
		t.Errorf("expected empty terminal delta, got %q", terminal.Text())
	}
}

// TestStream_DoneFrameWithText verifies that a final frame carrying both
// text and done:true yields the text before the terminal chunk.
func TestStream_DoneFrameWithText(t *testing.T) {
	adapter := streamingAdapter(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/x-ndjson")
		writeLine(writer, contentFrame("Almost"))
		writeLine(writer, `{"model":"llama3","message":{"role":"assistant","content":" done"},"done":true,"done_reason":"stop"}`)
	})

	stream, err := adapter.Stream(context.Background(), ai.ChatRequest{
		Model:    "ollama/llama3",
		Messages: []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected collect error: %v", err)
	}
	if response.First().Text() != "Almost done" {
		t.Errorf("expected the final frame's text included, got %q", response.First().Text())
	}
}

// TestStream_ErrorLine verifies that an in-band error frame aborts the
// stream with a typed error and no terminal chunk.
func TestStream_ErrorLine(t *testing.T) {
	adapter := streamingAdapter(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/x-ndjson")
		writeLine(writer, contentFrame("partial"))
		writeLine(writer, `{"error": "llama runner process has terminated"}`)
	})

	stream, err := adapter.Stream(context.Background(), ai.ChatRequest{
		Model:    "ollama/llama3",
		Messages: []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var chunks []ai.StreamChunk
	var streamErr error
	for chunk, iterErr := range stream.Iter() {
		if iterErr != nil {
			streamErr = iterErr
			break
		}
		chunks = append(chunks, chunk)
	}

	var aborted *ai.StreamAbortedError
	if !errors.As(streamErr, &aborted) {
		t.Fatalf("expected StreamAbortedError, got %v", streamErr)
	}
	if aborted.Provider != providerName {
		t.Errorf("expected provider %q, got %q", providerName, aborted.Provider)
	}
	if !strings.Contains(aborted.Error(), "llama runner") {
		t.Errorf("expected the upstream message in the error, got %v", aborted)
	}
	for _, chunk := range chunks {
		if chunk.Choices[0].FinishReason != nil {
			t.Error("expected no terminal chunk on an aborted stream")
		}
	}
}

// TestStream_PrematureEOF verifies that a connection closing before the done
// frame is reported as an abort, not a clean completion.
func TestStream_PrematureEOF(t *testing.T) {
	adapter := streamingAdapter(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/x-ndjson")
		writeLine(writer, contentFrame("cut "))
		// Handler returns without a done frame; the body just ends.
	})

	stream, err := adapter.Stream(context.Background(), ai.ChatRequest{
		Model:    "ollama/llama3",
		Messages: []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, collectErr := stream.Collect()
	var aborted *ai.StreamAbortedError
	if !errors.As(collectErr, &aborted) {
		t.Fatalf("expected StreamAbortedError on premature close, got %v", collectErr)
	}
}

// TestStream_UpstreamRejection verifies that a non-2xx answer is returned as
// a pre-stream error, before any iteration happens.
func TestStream_UpstreamRejection(t *testing.T) {
	adapter := streamingAdapter(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusNotFound)
		_, _ = writer.Write([]byte(`{"error": "model 'missing' not found"}`))
	})

	_, err := adapter.Stream(context.Background(), ai.ChatRequest{
		Model:    "ollama/missing",
		Messages: []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")},
	})

	var upstreamErr *ai.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", upstreamErr.StatusCode)
	}
}
