package ai

import (
	"context"
	"fmt"

	"social-autopost/internal/domain"
	"social-autopost/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*NoopAdapter)(nil)

// NoopAdapter stands in when no generation backend is configured (missing or
// placeholder API keys). It fails fast on first use instead of crashing the
// process at startup.
type NoopAdapter struct{}

func NewNoopAdapter() *NoopAdapter { return &NoopAdapter{} }

func (n *NoopAdapter) ListModels(ctx context.Context) ([]string, error) {
	return nil, nil
}

func (n *NoopAdapter) Generate(ctx context.Context, model, prompt string) (string, error) {
	return "", fmt.Errorf("generation backend: %w", domain.ErrNotConfigured)
}

func adapterUnavailable(model string) error {
	return fmt.Errorf("no provider for model %q: %w", model, domain.ErrNotConfigured)
}
