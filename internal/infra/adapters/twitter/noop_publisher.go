package twitter

import (
	"context"
	"fmt"

	"social-autopost/internal/domain"
	"social-autopost/internal/domain/ports/adapter"
)

var _ adapter.Publisher = (*NoopPublisher)(nil)

// NoopPublisher stands in when publish credentials are missing or still hold
// the setup placeholder. Every use fails fast with a configuration error so
// posts land in FAILED with an actionable message instead of the process
// crashing at startup.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (n *NoopPublisher) Publish(ctx context.Context, text string) (*adapter.PublishResult, error) {
	return nil, fmt.Errorf("publish backend: %w", domain.ErrNotConfigured)
}

func (n *NoopPublisher) Delete(ctx context.Context, externalID string) error {
	return fmt.Errorf("publish backend: %w", domain.ErrNotConfigured)
}
