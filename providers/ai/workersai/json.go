package workersai

import (
	"encoding/json"
	"strings"
)

// ExtractFirstJSON pulls the first JSON value out of free-form model output.
// It slices from the first opening delimiter ('{' or '[', whichever appears
// first) to the last matching closing delimiter and reports whether that
// slice parses as JSON. When no valid slice exists the original text comes
// back unchanged with ok=false, so callers can fall through to the raw
// completion. The function is idempotent: applied to its own successful
// output it returns the same string.
//
// This is deliberately a heuristic. Models wrap JSON in prose, markdown
// fences and stray brackets; first-to-last slicing handles the common cases
// without a full scanner.
func ExtractFirstJSON(text string) (string, bool) {
	candidate, ok := rawJSONSlice(text)
	if !ok || !json.Valid([]byte(candidate)) {
		return text, false
	}
	return candidate, true
}

// rawJSONSlice cuts the first-to-last delimiter slice without validating it.
// The tool-call parser works on this raw slice so that almost-JSON can still
// go through a repair pass.
func rawJSONSlice(text string) (string, bool) {
	start, closer := firstDelimiter(text)
	if start < 0 {
		return "", false
	}

	end := strings.LastIndex(text, closer)
	if end < start {
		return "", false
	}

	return text[start : end+1], true
}

// firstDelimiter locates the earliest opening brace or bracket and returns
// its index with the matching closer. Returns -1 when the text opens
// neither.
func firstDelimiter(text string) (int, string) {
	braceIndex := strings.IndexByte(text, '{')
	bracketIndex := strings.IndexByte(text, '[')

	switch {
	case braceIndex < 0 && bracketIndex < 0:
		return -1, ""
	case bracketIndex < 0 || (braceIndex >= 0 && braceIndex < bracketIndex):
		return braceIndex, "}"
	default:
		return bracketIndex, "]"
	}
}
