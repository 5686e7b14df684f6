package llm

import "fmt"

// CompletionError reports a failed or unusable completion. It wraps the
// underlying provider error, if any, so callers can classify gateway
// failures without inspecting provider-specific error types.
type CompletionError struct {
	Provider string
	Err      error
}

func (e *CompletionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s completion failed", e.Provider)
	}
	return fmt.Sprintf("%s completion failed: %v", e.Provider, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// completionErr wraps err as a CompletionError for the named provider.
func completionErr(provider string, err error) error {
	return &CompletionError{Provider: provider, Err: err}
}

// completionErrf formats a provider-level failure that has no underlying error.
func completionErrf(provider, format string, args ...any) error {
	return &CompletionError{Provider: provider, Err: fmt.Errorf(format, args...)}
}
