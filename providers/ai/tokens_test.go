package ai

import "testing"

// TestApproximateTokens pins the ceil(len/4) boundaries.
func TestApproximateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{text: "", want: 0},
		{text: "a", want: 1},
		{text: "abcd", want: 1},
		{text: "abcde", want: 2},
		{text: "abcdefgh", want: 2},
		{text: "The quick brown fox", want: 5},
	}

	for _, tt := range tests {
		if got := ApproximateTokens(tt.text); got != tt.want {
			t.Errorf("ApproximateTokens(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

// TestApproximateUsage verifies the total is the sum of both sides.
func TestApproximateUsage(t *testing.T) {
	usage := ApproximateUsage("12345678", "1234")

	if usage.PromptTokens != 2 {
		t.Errorf("expected 2 prompt tokens, got %d", usage.PromptTokens)
	}
	if usage.CompletionTokens != 1 {
		t.Errorf("expected 1 completion token, got %d", usage.CompletionTokens)
	}
	if usage.TotalTokens != 3 {
		t.Errorf("expected total 3, got %d", usage.TotalTokens)
	}
}
