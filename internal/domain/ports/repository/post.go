package repository

import (
	"context"
	"time"

	"social-autopost/internal/domain/model"
)

// PostFilter narrows List results; zero values mean "any".
type PostFilter struct {
	Status     model.PostStatus
	CategoryID string
	Limit      int
	Offset     int
}

type PostRepository interface {
	Save(ctx context.Context, tx Tx, post *model.Post) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Post, error)
	List(ctx context.Context, filter PostFilter) ([]*model.Post, error)
	Delete(ctx context.Context, id string) error

	// FindDue returns posts in SCHEDULED or WAITING_GENERATION whose
	// scheduled time is at or before now, oldest first, up to limit.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*model.Post, error)

	// ExistsForSlotDay reports whether a post for slotID is already
	// scheduled inside [from, to). This is the (slot, calendar day)
	// idempotency guard shared by the matcher and auto-fill paths.
	ExistsForSlotDay(ctx context.Context, tx Tx, slotID string, from, to time.Time) (bool, error)
}
