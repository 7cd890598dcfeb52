package llm

import "context"

// Provider is the text-generation oracle: one composed prompt in, one
// trimmed completion out. Implementations may fail transiently; callers
// treat those failures as retryable.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Close() error
}
