// Package llm abstracts the generation backends behind one Client contract.
// Each adapter resolves its own credentials from an explicit config struct,
// sends exactly one request per Generate call, and normalizes the backend's
// response shape. Retries are deliberately not implemented at this layer.
package llm

import "context"

// GenerationResult is the normalized output of one backend call.
type GenerationResult struct {
	Text          string
	FinishReason  string
	SafetyRatings any
}

// Client is implemented once per generation backend.
type Client interface {
	// Generate sends a single prompt and returns the normalized result. A
	// missing credential fails before any network I/O.
	Generate(ctx context.Context, prompt, model string) (*GenerationResult, error)

	// DefaultModel is used when the request does not name a model.
	DefaultModel() string
}
