package adapter

import "context"

// PublishResult is the publish backend's acknowledgement of a created entry.
type PublishResult struct {
	ID   string
	Text string
}

// Publisher is the port for the external publishing API.
type Publisher interface {
	Publish(ctx context.Context, text string) (*PublishResult, error)
	// Delete removes a previously published entry; used by cleanup paths.
	Delete(ctx context.Context, externalID string) error
}
