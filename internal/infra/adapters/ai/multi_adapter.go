package ai

import (
	"context"
	"strings"

	"social-autopost/internal/domain/ports/adapter"
)

var _ adapter.TextGenerator = (*MultiAdapter)(nil)

// MultiAdapter routes a model name to a concrete provider adapter, so the
// generation pipeline can name its primary and fallback models without
// caring which backend serves them.
type MultiAdapter struct {
	defaultProvider string // e.g., "gemini" or "openai"
	byProvider      map[string]adapter.TextGenerator
	modelToProvider map[string]string
}

func NewMultiAdapter(
	defaultProvider string,
	byProvider map[string]adapter.TextGenerator,
	modelToProvider map[string]string,
) *MultiAdapter {
	return &MultiAdapter{
		defaultProvider: strings.ToLower(defaultProvider),
		byProvider:      byProvider,
		modelToProvider: modelToProvider,
	}
}

func (m *MultiAdapter) resolveProvider(model string) string {
	if p := m.modelToProvider[model]; p != "" {
		return strings.ToLower(p)
	}
	l := strings.ToLower(model)
	switch {
	case strings.HasPrefix(l, "gemini"):
		return "gemini"
	case strings.HasPrefix(l, "gpt"):
		return "openai"
	default:
		return m.defaultProvider
	}
}

func (m *MultiAdapter) pick(model string) adapter.TextGenerator {
	prov := m.resolveProvider(model)
	if a := m.byProvider[prov]; a != nil {
		return a
	}
	// last resort: first available
	for _, a := range m.byProvider {
		if a != nil {
			return a
		}
	}
	return nil
}

func (m *MultiAdapter) ListModels(ctx context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(m.modelToProvider)+4)

	for model := range m.modelToProvider {
		if _, ok := seen[model]; !ok {
			seen[model] = struct{}{}
			out = append(out, model)
		}
	}
	for _, a := range m.byProvider {
		list, _ := a.ListModels(ctx)
		for _, name := range list {
			if name == "" {
				continue
			}
			if _, ok := seen[name]; !ok {
				seen[name] = struct{}{}
				out = append(out, name)
			}
		}
	}
	return out, nil
}

func (m *MultiAdapter) Generate(ctx context.Context, model, prompt string) (string, error) {
	a := m.pick(model)
	if a == nil {
		return "", adapterUnavailable(model)
	}
	return a.Generate(ctx, model, prompt)
}
