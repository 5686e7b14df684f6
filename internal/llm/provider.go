package llm

import "context"

// Provider is the text-completion gateway: it accepts a message history and
// returns one assistant turn. Implementations make a single remote call per
// Complete invocation; retry policy belongs to callers.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}
