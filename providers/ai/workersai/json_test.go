package workersai

import "testing"

func TestExtractFirstJSON(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		wantOK bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"object in prose", `Sure, here it is: {"a":1} and that should do.`, `{"a":1}`, true},
		{"nested object", `result: {"outer":{"inner":2}} done`, `{"outer":{"inner":2}}`, true},
		{"bare array", `[1,2,3]`, `[1,2,3]`, true},
		{"array in prose", `the list [1,2,3] as requested`, `[1,2,3]`, true},
		{"markdown fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"no json at all", "just words", "just words", false},
		{"unbalanced object", `{"a": 1`, `{"a": 1`, false},
		{"invalid slice", `{not json}`, `{not json}`, false},
		{"empty input", "", "", false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, ok := ExtractFirstJSON(test.input)
			if ok != test.wantOK {
				t.Fatalf("expected ok=%v, got %v", test.wantOK, ok)
			}
			if got != test.want {
				t.Errorf("expected %q, got %q", test.want, got)
			}
		})
	}
}

// TestExtractFirstJSON_Idempotent: extraction applied to its own output is a
// no-op, so layered callers cannot mangle an already-clean value.
func TestExtractFirstJSON_Idempotent(t *testing.T) {
	extracted, ok := ExtractFirstJSON(`prose before {"a":{"b":1}} prose after`)
	if !ok {
		t.Fatal("expected the first pass to extract")
	}

	again, ok := ExtractFirstJSON(extracted)
	if !ok {
		t.Fatal("expected the second pass to succeed")
	}
	if again != extracted {
		t.Errorf("expected a fixed point, got %q then %q", extracted, again)
	}
}
