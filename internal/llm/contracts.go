package llm

import "context"

// NormalizedText is the outcome of the repair pass over recognized text.
// WasCleaned is false whenever the model pass was skipped or failed; callers
// must not assume any cleanup occurred in that case.
type NormalizedText struct {
	Text       string
	WasCleaned bool
}

// Normalizer repairs recognition artifacts in extracted text.
type Normalizer interface {
	Normalize(ctx context.Context, text string) NormalizedText
}

// TextClient is the slice of the model client the normalizer needs.
type TextClient interface {
	Ready(ctx context.Context) bool
	Generate(ctx context.Context, prompt string) (string, error)
}
