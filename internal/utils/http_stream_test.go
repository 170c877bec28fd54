package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestSSEScanner_Payloads exercises the scanner's line handling in one table:
// comments, non-data fields, whitespace trimming, multi-line data joining and
// consecutive blank lines.
func TestSSEScanner_Payloads(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "single event",
			input: "data: hello\n\n",
			want:  []string{"hello"},
		},
		{
			name:  "multiple events in order",
			input: "data: first\n\ndata: second\n\ndata: third\n\n",
			want:  []string{"first", "second", "third"},
		},
		{
			name:  "multi-line data joined with newline",
			input: "data: line1\ndata: line2\ndata: line3\n\n",
			want:  []string{"line1\nline2\nline3"},
		},
		{
			name:  "comments skipped",
			input: ": keep-alive\ndata: real payload\n\n",
			want:  []string{"real payload"},
		},
		{
			name:  "non-data fields ignored",
			input: "event: update\nid: 42\nretry: 3000\ndata: payload\n\n",
			want:  []string{"payload"},
		},
		{
			name:  "whitespace trimmed",
			input: "data:   padded value   \n\n",
			want:  []string{"padded value"},
		},
		{
			name:  "consecutive blank lines produce no empty payloads",
			input: "data: event1\n\n\n\ndata: event2\n\n",
			want:  []string{"event1", "event2"},
		},
		{
			name:  "trailing data without final blank line still returned",
			input: "data: no-trailing-blank",
			want:  []string{"no-trailing-blank"},
		},
		{
			name:  "empty stream",
			input: "",
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := NewSSEScanner(strings.NewReader(tt.input))
			var got []string
			for {
				payload, err := scanner.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got = append(got, payload)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d payloads %v, got %d: %v", len(tt.want), tt.want, len(got), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("payload %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}

// TestNDJSONScanner verifies one payload per non-blank line and io.EOF at
// the end of input.
func TestNDJSONScanner(t *testing.T) {
	scanner := NewNDJSONScanner(strings.NewReader("{\"a\":1}\n\n  {\"b\":2}  \n{\"c\":3}"))

	want := []string{`{"a":1}`, `{"b":2}`, `{"c":3}`}
	for i, expected := range want {
		payload, err := scanner.Next()
		if err != nil {
			t.Fatalf("line %d: unexpected error: %v", i, err)
		}
		if payload != expected {
			t.Errorf("line %d: expected %q, got %q", i, expected, payload)
		}
	}

	if _, err := scanner.Next(); err != io.EOF {
		t.Errorf("expected io.EOF at end of input, got %v", err)
	}
}

// TestSSEScanner_DoneSentinel verifies that "data: [DONE]" terminates the
// scan with io.EOF even when more data follows.
func TestSSEScanner_DoneSentinel(t *testing.T) {
	scanner := NewSSEScanner(strings.NewReader("data: before\n\ndata: [DONE]\n\ndata: after\n\n"))

	payload, err := scanner.Next()
	if err != nil {
		t.Fatalf("expected nil error on first event, got %v", err)
	}
	if payload != "before" {
		t.Errorf("expected %q, got %q", "before", payload)
	}

	if _, err = scanner.Next(); err != io.EOF {
		t.Errorf("expected io.EOF on [DONE], got %v", err)
	}
}

// TestDoPostStream_SuccessResponse_ReturnsOpenBody verifies that a 200
// response leaves the body open for the caller to consume via SSEScanner.
func TestDoPostStream_SuccessResponse_ReturnsOpenBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: chunk1\n\ndata: [DONE]\n\n")
	}))
	defer server.Close()

	response, err := DoPostStream(context.Background(), server.Client(), server.URL, "test-key", map[string]string{"q": "test"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer CloseWithLog(response.Body)

	scanner := NewSSEScanner(response.Body)
	payload, scanErr := scanner.Next()
	if scanErr != nil {
		t.Fatalf("expected nil error reading SSE, got %v", scanErr)
	}
	if payload != "chunk1" {
		t.Errorf("expected %q, got %q", "chunk1", payload)
	}
}

// TestDoPostStream_Non2xx_ReturnsErrorWithBody verifies that a non-2xx status
// surfaces as an error carrying the status code and the drained body.
func TestDoPostStream_Non2xx_ReturnsErrorWithBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	res, err := DoPostStream(context.Background(), server.Client(), server.URL, "test-key", map[string]string{})
	if err == nil {
		t.Fatal("expected error for non-2xx response, got nil")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("expected error to contain status code 429, got: %v", err)
	}
	if !strings.Contains(err.Error(), "rate limit exceeded") {
		t.Errorf("expected error to contain the upstream body, got: %v", err)
	}
	if res == nil || res.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected raw response with status 429, got %+v", res)
	}
}

// TestDoPostStream_ContextCancelled_ReturnsError verifies that a cancelled
// context aborts the request before the handler runs.
func TestDoPostStream_ContextCancelled_ReturnsError(t *testing.T) {
	handlerCalled := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cancelledCtx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := DoPostStream(cancelledCtx, server.Client(), server.URL, "", map[string]string{})
	if err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
	if handlerCalled {
		t.Error("expected the upstream handler not to be reached")
	}
}

// TestDoPostStream_CustomHeader_OverridesDefault verifies that HeaderOption
// values are applied last on the outgoing request.
func TestDoPostStream_CustomHeader_OverridesDefault(t *testing.T) {
	const headerKey = "x-custom-provider-key"
	const headerValue = "provider-token-123"
	var captured string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r.Header.Get(headerKey)
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	response, err := DoPostStream(
		context.Background(),
		server.Client(),
		server.URL,
		"",
		map[string]string{},
		HeaderOption{Key: headerKey, Value: headerValue},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	CloseWithLog(response.Body)

	if captured != headerValue {
		t.Errorf("expected custom header %q, got %q", headerValue, captured)
	}
}
