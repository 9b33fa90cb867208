package llm

import "context"

type Provider interface {
	// GenerateText runs a one-shot prompt and returns the full response text.
	GenerateText(ctx context.Context, prompt string) (string, error)
}
