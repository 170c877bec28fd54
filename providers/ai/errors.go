package ai

import "fmt"

// UnsupportedModelError indicates the requested model string matched no
// configured provider route. The gateway maps it to an invalid-request
// response.
type UnsupportedModelError struct {
	Model string
}

func (e *UnsupportedModelError) Error() string {
	return fmt.Sprintf("unsupported model %q: no provider route matches", e.Model)
}

// UnknownModelError indicates an explicitly named model is absent from the
// provider's registry, so capability checks cannot run.
type UnknownModelError struct {
	Model string
}

func (e *UnknownModelError) Error() string {
	return fmt.Sprintf("unknown model %q: not present in the model registry", e.Model)
}

// UpstreamError wraps a non-2xx answer from an upstream provider API.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s upstream returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// StreamAbortedError signals that a stream failed after frames were already
// delivered. The transport closes the connection without a terminal chunk so
// the client can tell truncation from completion.
type StreamAbortedError struct {
	Provider string
	Cause    error
}

func (e *StreamAbortedError) Error() string {
	return fmt.Sprintf("%s stream aborted: %v", e.Provider, e.Cause)
}

func (e *StreamAbortedError) Unwrap() error {
	return e.Cause
}
