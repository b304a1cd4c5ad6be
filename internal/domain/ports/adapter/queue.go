package adapter

import "context"

// JobQueue is the enqueue side of the durable work queue. payload is
// marshaled to JSON by the implementation. Delivery is at-least-once with no
// ordering guarantee across job types; consumer registration is an infra
// concern.
type JobQueue interface {
	Enqueue(ctx context.Context, queue, jobType string, payload any) error
}
