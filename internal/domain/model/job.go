package model

import (
	"encoding/json"
	"time"
)

// Queue and job-type names shared by producers and consumers.
const (
	QueuePostExecutor = "post-executor"
	QueueAutoFill     = "auto-fill"

	JobTypeExecutePost  = "execute-post"
	JobTypeCheckAndFill = "check-and-fill"
)

// Job is the wire representation of one unit of queued work. Delivery is
// at-least-once; Attempts counts deliveries so the queue can bound retries.
type Job struct {
	ID          string          `json:"id"`
	Queue       string          `json:"queue"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	EnqueuedAt  time.Time       `json:"enqueued_at"`
	NotBefore   time.Time       `json:"not_before,omitempty"`
}

// ExecutePostPayload is the payload of an execute-post job.
type ExecutePostPayload struct {
	PostID string `json:"postId"`
}
