package adapter

import "context"

// TextGenerator is the port for generative text backends. Implementations
// route a model name to a concrete provider and return the finished text for
// a single prompt.
type TextGenerator interface {
	// Generate runs one completion for prompt against the named model.
	// An empty model name selects the provider's default.
	Generate(ctx context.Context, model string, prompt string) (string, error)

	ListModels(ctx context.Context) ([]string, error)
}
