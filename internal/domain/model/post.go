package model

import (
	"strings"
	"time"

	"social-autopost/internal/domain"
)

type PostStatus string

const (
	PostStatusDraft             PostStatus = "DRAFT"
	PostStatusScheduled         PostStatus = "SCHEDULED"
	PostStatusWaitingGeneration PostStatus = "WAITING_GENERATION"
	PostStatusPosted            PostStatus = "POSTED"
	PostStatusFailed            PostStatus = "FAILED"
	PostStatusApproved          PostStatus = "APPROVED"
)

// Post is the unit of publication and the subject of the lifecycle state
// machine. Provenance fields (CategoryID, PromptID, SlotID) are empty strings
// when unset; SlotID is only ever set by the materializer.
type Post struct {
	ID            string
	Content       string
	Status        PostStatus
	ScheduledTime time.Time
	PostedTime    *time.Time

	CategoryID string
	PromptID   string
	SlotID     string

	// Thread linkage, preserved for the manual-review workflow.
	ParentPostID   string
	ThreadPosition int

	ExternalID   string
	MediaURL     string
	RetryCount   int
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSlotPost builds the WAITING_GENERATION post the materializer persists for
// a due slot occurrence.
func NewSlotPost(id string, slot *ScheduleSlot, promptID string, scheduledAt time.Time) (*Post, error) {
	if id == "" || slot == nil || slot.ID == "" || promptID == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Post{
		ID:            id,
		Status:        PostStatusWaitingGeneration,
		ScheduledTime: scheduledAt,
		CategoryID:    slot.CategoryID,
		PromptID:      promptID,
		SlotID:        slot.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (p *Post) HasContent() bool { return strings.TrimSpace(p.Content) != "" }

// Executable reports whether the executor may act on this post. Any other
// status means another consumer already handled it (or it was never queued
// legitimately), which is a no-op for the executor rather than an error.
func (p *Post) Executable() bool {
	return p.Status == PostStatusScheduled || p.Status == PostStatusWaitingGeneration
}

// MarkGenerated stores just-in-time generated content and moves the post to
// SCHEDULED as the intermediate marker before publication.
func (p *Post) MarkGenerated(content string) error {
	if p.Status == PostStatusPosted {
		return domain.ErrPostAlreadyPosted
	}
	p.Content = content
	p.Status = PostStatusScheduled
	p.UpdatedAt = time.Now()
	return nil
}

// MarkPosted records a successful publication. POSTED is terminal.
func (p *Post) MarkPosted(externalID string, at time.Time) error {
	if p.Status == PostStatusPosted {
		return domain.ErrPostAlreadyPosted
	}
	p.Status = PostStatusPosted
	p.PostedTime = &at
	p.ExternalID = externalID
	p.ErrorMessage = ""
	p.UpdatedAt = time.Now()
	return nil
}

// MarkFailed records a failed attempt. The state machine never retries on its
// own; a retry is an external re-enqueue decision.
func (p *Post) MarkFailed(msg string) error {
	if p.Status == PostStatusPosted {
		return domain.ErrPostAlreadyPosted
	}
	p.Status = PostStatusFailed
	p.ErrorMessage = msg
	p.RetryCount++
	p.UpdatedAt = time.Now()
	return nil
}
