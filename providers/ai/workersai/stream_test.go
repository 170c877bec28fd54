package workersai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/modelmux/modelmux/providers/ai"
)

// writeSSE writes one Workers AI SSE frame: a bare data line, no event
// discriminator.
func writeSSE(writer http.ResponseWriter, data string) {
	fmt.Fprintf(writer, "data: %s\n\n", data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

func TestStream_Frames(t *testing.T) {
	var captured runRequest

	adapter := testAdapter(t, func(writer http.ResponseWriter, request *http.Request) {
		if err := json.NewDecoder(request.Body).Decode(&captured); err != nil {
			t.Errorf("can't decode request body: %v", err)
		}

		writer.Header().Set("Content-Type", "text/event-stream")
		writeSSE(writer, `{"response":"Hello"}`)
		writeSSE(writer, `{"response":""}`)
		writeSSE(writer, `{"response":" world"}`)
		writeSSE(writer, "[DONE]")
	})

	stream, err := adapter.Stream(context.Background(), ai.ChatRequest{
		Model:    "@cf/meta/llama-3.1-8b-instruct",
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

	if len(chunks) != 3 {
		t.Fatalf("expected 2 deltas and a terminal chunk, got %d", len(chunks))
	}
	if chunks[0].Text() != "Hello" || chunks[1].Text() != " world" {
		t.Errorf("expected ordered deltas, got %q then %q", chunks[0].Text(), chunks[1].Text())
	}

	terminal := chunks[2]
	if terminal.Text() != "" {
		t.Error("the terminal chunk carries an empty delta")
	}
	if terminal.Choices[0].FinishReason == nil || *terminal.Choices[0].FinishReason != ai.FinishReasonStop {
		t.Error("the terminal chunk carries finish reason stop")
	}

	if chunks[0].ID != terminal.ID || !strings.HasPrefix(chunks[0].ID, "chatcmpl-") {
		t.Error("every chunk shares one fresh stream identity")
	}
	if chunks[0].Model != "@cf/meta/llama-3.1-8b-instruct" {
		t.Errorf("expected the model echoed as requested, got %q", chunks[0].Model)
	}
}

// TestStream_MalformedFramePassesThrough: a data payload that is not valid
// JSON is forwarded verbatim instead of killing the stream.
func TestStream_MalformedFramePassesThrough(t *testing.T) {
	adapter := testAdapter(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		writeSSE(writer, `{"response":"ok"}`)
		writeSSE(writer, "plain text fragment")
		writeSSE(writer, "[DONE]")
	})

	stream, err := adapter.Stream(context.Background(), ai.ChatRequest{
		Model:    "@cf/meta/llama-3.1-8b-instruct",
		Messages: []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var texts []string
	for chunk, iterErr := range stream.Iter() {
		if iterErr != nil {
			t.Fatalf("unexpected mid-stream error: %v", iterErr)
		}
		if chunk.Text() != "" {
			texts = append(texts, chunk.Text())
		}
	}

	if len(texts) != 2 || texts[1] != "plain text fragment" {
		t.Errorf("expected the malformed frame forwarded as raw text, got %v", texts)
	}
}

// TestStream_ToolsSteerSelectionOnly: tool definitions still influence which
// model is chosen, but no instruction block is injected and the completion
// streams as plain text.
func TestStream_ToolsSteerSelectionOnly(t *testing.T) {
	var captured runRequest

	adapter := testAdapter(t, func(writer http.ResponseWriter, request *http.Request) {
		if err := json.NewDecoder(request.Body).Decode(&captured); err != nil {
			t.Errorf("can't decode request body: %v", err)
		}
		writer.Header().Set("Content-Type", "text/event-stream")
		writeSSE(writer, `{"response":"Checking the weather now."}`)
		writeSSE(writer, "[DONE]")
	})

	stream, err := adapter.Stream(context.Background(), ai.ChatRequest{
		Model:    GenericModel,
		Messages: []ai.Message{ai.NewMessage(ai.RoleUser, "Weather in Paris?")},
		Tools:    []ai.Tool{weatherTool()},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	response, err := stream.Collect()
	if err != nil {
		t.Fatalf("unexpected error collecting: %v", err)
	}

	for _, message := range captured.Messages {
		if strings.Contains(message.Content, toolInstructionHeader) {
			t.Error("streaming must not inject the emulation instruction")
		}
	}
	if response.First().Text() != "Checking the weather now." {
		t.Errorf("expected the completion streamed as text, got %q", response.First().Text())
	}
	if len(response.First().ToolCalls) != 0 {
		t.Error("streaming never synthesizes tool calls")
	}
}

func TestStream_PreStreamRejection(t *testing.T) {
	adapter := testAdapter(t, func(writer http.ResponseWriter, request *http.Request) {
		http.Error(writer, `{"success":false,"errors":[{"code":10000,"message":"authentication error"}]}`, http.StatusUnauthorized)
	})

	_, err := adapter.Stream(context.Background(), ai.ChatRequest{
		Model:    GenericModel,
		Messages: []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")},
	})

	var upstreamErr *ai.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upstreamErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", upstreamErr.StatusCode)
	}
}

func TestStream_UnknownExplicitModel(t *testing.T) {
	adapter := testAdapter(t, func(writer http.ResponseWriter, request *http.Request) {
		t.Error("no upstream call expected for an unknown model")
	})

	_, err := adapter.Stream(context.Background(), ai.ChatRequest{
		Model:    "@cf/meta/does-not-exist",
		Messages: []ai.Message{ai.NewMessage(ai.RoleUser, "Hi")},
	})

	var unknownErr *ai.UnknownModelError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("expected UnknownModelError, got %v", err)
	}
}
