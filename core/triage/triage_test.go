package triage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/modelmux/modelmux/providers/ai"
	"github.com/modelmux/modelmux/providers/cache/inmemory"
)

// countingInferencer records how many inference calls were issued and returns
// a canned response or error.
type countingInferencer struct {
	calls    int
	response string
	err      error
}

func (f *countingInferencer) Infer(_ context.Context, _ string, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

// failingStore simulates an unavailable cache backend.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache down")
}

func (failingStore) Put(context.Context, string, string, time.Duration) error {
	return errors.New("cache down")
}

func conversation(texts ...string) []ai.Message {
	messages := make([]ai.Message, 0, len(texts))
	for _, text := range texts {
		messages = append(messages, ai.NewMessage(ai.RoleUser, text))
	}
	return messages
}

// TestClassify_MemoizesByContent verifies that identical content issues at
// most one inference call and the second verdict matches the first.
func TestClassify_MemoizesByContent(t *testing.T) {
	inferencer := &countingInferencer{response: "high"}
	classifier := NewClassifier(inferencer, inmemory.New(), "@cf/meta/llama-3.2-1b-instruct", time.Hour)
	messages := conversation("Write a compiler in Go")

	first := classifier.Classify(context.Background(), messages)
	second := classifier.Classify(context.Background(), messages)

	if inferencer.calls != 1 {
		t.Errorf("expected exactly 1 inference call, got %d", inferencer.calls)
	}
	if first != VerdictHigh || second != first {
		t.Errorf("expected both verdicts %q, got %q then %q", VerdictHigh, first, second)
	}
}

// TestClassify_DistinctContent verifies that different conversations do not
// share cache entries.
func TestClassify_DistinctContent(t *testing.T) {
	inferencer := &countingInferencer{response: "low"}
	classifier := NewClassifier(inferencer, inmemory.New(), "model", time.Hour)

	classifier.Classify(context.Background(), conversation("hi"))
	classifier.Classify(context.Background(), conversation("hello"))

	if inferencer.calls != 2 {
		t.Errorf("expected 2 inference calls for distinct content, got %d", inferencer.calls)
	}
}

// TestClassify_VerdictParsing pins the substring interpretation of model
// answers: anything containing "high" reads as high, everything else as low.
func TestClassify_VerdictParsing(t *testing.T) {
	tests := []struct {
		response string
		want     Verdict
	}{
		{response: "low", want: VerdictLow},
		{response: "high", want: VerdictHigh},
		{response: "HIGH", want: VerdictHigh},
		{response: "I would say High.", want: VerdictHigh},
		{response: "medium", want: VerdictLow},
		{response: "", want: VerdictLow},
		{response: "not low at all", want: VerdictLow},
	}

	for _, tt := range tests {
		t.Run(tt.response, func(t *testing.T) {
			inferencer := &countingInferencer{response: tt.response}
			classifier := NewClassifier(inferencer, nil, "model", time.Hour)

			if got := classifier.Classify(context.Background(), conversation("anything")); got != tt.want {
				t.Errorf("response %q: expected %q, got %q", tt.response, tt.want, got)
			}
		})
	}
}

// TestClassify_InferenceFailure verifies the conservative fallback: an
// inference error yields high, is never an error, and is not cached, so the
// next call retries the model.
func TestClassify_InferenceFailure(t *testing.T) {
	inferencer := &countingInferencer{err: errors.New("upstream 500")}
	classifier := NewClassifier(inferencer, inmemory.New(), "model", time.Hour)
	messages := conversation("hello")

	if got := classifier.Classify(context.Background(), messages); got != VerdictHigh {
		t.Errorf("expected fallback %q on inference failure, got %q", VerdictHigh, got)
	}
	if got := classifier.Classify(context.Background(), messages); got != VerdictHigh {
		t.Errorf("expected fallback %q on second failure, got %q", VerdictHigh, got)
	}
	if inferencer.calls != 2 {
		t.Errorf("expected the fallback verdict not to be cached, got %d calls", inferencer.calls)
	}
}

// TestClassify_CacheFailure verifies that a broken store degrades to
// classify-every-time instead of erroring.
func TestClassify_CacheFailure(t *testing.T) {
	inferencer := &countingInferencer{response: "low"}
	classifier := NewClassifier(inferencer, failingStore{}, "model", time.Hour)
	messages := conversation("hi there")

	if got := classifier.Classify(context.Background(), messages); got != VerdictLow {
		t.Errorf("expected %q despite cache failure, got %q", VerdictLow, got)
	}
	classifier.Classify(context.Background(), messages)

	if inferencer.calls != 2 {
		t.Errorf("expected every call to reach the model with a broken cache, got %d calls", inferencer.calls)
	}
}

// TestClassify_NilStore verifies the classifier works without any cache.
func TestClassify_NilStore(t *testing.T) {
	inferencer := &countingInferencer{response: "high"}
	classifier := NewClassifier(inferencer, nil, "model", time.Hour)

	if got := classifier.Classify(context.Background(), conversation("plan a system design")); got != VerdictHigh {
		t.Errorf("expected %q, got %q", VerdictHigh, got)
	}
}

// TestCacheKey_Stable verifies the key derivation is deterministic and
// content-sensitive.
func TestCacheKey_Stable(t *testing.T) {
	a := cacheKey(joinContents(conversation("hello", "world")))
	b := cacheKey(joinContents(conversation("hello", "world")))
	c := cacheKey(joinContents(conversation("hello", "mars")))

	if a != b {
		t.Errorf("expected identical keys for identical content, got %q and %q", a, b)
	}
	if a == c {
		t.Error("expected different keys for different content")
	}
	if len(a) != len(cacheKeyPrefix)+64 {
		t.Errorf("expected prefix plus 64 hex chars, got %q", a)
	}
}
