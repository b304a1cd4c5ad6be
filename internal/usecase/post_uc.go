package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/adapter"
	"social-autopost/internal/domain/ports/repository"
)

// CreatePostInput carries the fields of a manually authored post. Content
// may be empty when CategoryID and PromptID are set, in which case the post
// waits for just-in-time generation.
type CreatePostInput struct {
	Content        string
	ScheduledTime  time.Time
	CategoryID     string
	PromptID       string
	MediaURL       string
	ParentPostID   string
	ThreadPosition int
	Draft          bool
}

// PostUseCase manages manually authored posts and the operator-facing
// lifecycle actions on any post.
type PostUseCase struct {
	repo  repository.PostRepository
	queue adapter.JobQueue
}

func NewPostUseCase(repo repository.PostRepository, queue adapter.JobQueue) *PostUseCase {
	return &PostUseCase{repo: repo, queue: queue}
}

// Create persists a manual post. Drafts stay out of execution until approved;
// everything else enters the SCHEDULED or WAITING_GENERATION track and is
// picked up by the due-post scan.
func (uc *PostUseCase) Create(ctx context.Context, in CreatePostInput) (*model.Post, error) {
	hasContent := strings.TrimSpace(in.Content) != ""
	status := model.PostStatusScheduled
	switch {
	case in.Draft:
		status = model.PostStatusDraft
	case hasContent:
	case in.CategoryID != "" && in.PromptID != "":
		status = model.PostStatusWaitingGeneration
	default:
		return nil, fmt.Errorf("%w: post needs content or a category and prompt", domain.ErrInvalidArgument)
	}
	if in.ScheduledTime.IsZero() {
		return nil, fmt.Errorf("%w: scheduled time is required", domain.ErrInvalidArgument)
	}

	now := time.Now()
	post := &model.Post{
		ID:             uuid.NewString(),
		Content:        in.Content,
		Status:         status,
		ScheduledTime:  in.ScheduledTime,
		CategoryID:     in.CategoryID,
		PromptID:       in.PromptID,
		MediaURL:       in.MediaURL,
		ParentPostID:   in.ParentPostID,
		ThreadPosition: in.ThreadPosition,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.repo.Save(ctx, nil, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Update persists edits to an existing post.
func (uc *PostUseCase) Update(ctx context.Context, post *model.Post) error {
	return uc.repo.Save(ctx, nil, post)
}

// Get retrieves a post by ID.
func (uc *PostUseCase) Get(ctx context.Context, id string) (*model.Post, error) {
	return uc.repo.FindByID(ctx, nil, id)
}

// List returns posts matching the filter.
func (uc *PostUseCase) List(ctx context.Context, filter repository.PostFilter) ([]*model.Post, error) {
	return uc.repo.List(ctx, filter)
}

// Delete removes a post.
func (uc *PostUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

// Approve releases a draft into the execution track. Posts with content go
// to SCHEDULED via APPROVED; content-less drafts with a prompt wait for
// generation.
func (uc *PostUseCase) Approve(ctx context.Context, id string) (*model.Post, error) {
	post, err := uc.repo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if post.Status != model.PostStatusDraft && post.Status != model.PostStatusApproved {
		return nil, fmt.Errorf("%w: only drafts can be approved, post is %s", domain.ErrInvalidArgument, post.Status)
	}
	if post.HasContent() {
		post.Status = model.PostStatusScheduled
	} else if post.CategoryID != "" && post.PromptID != "" {
		post.Status = model.PostStatusWaitingGeneration
	} else {
		return nil, fmt.Errorf("%w: draft has neither content nor a generation source", domain.ErrInvalidArgument)
	}
	post.UpdatedAt = time.Now()
	if err := uc.repo.Save(ctx, nil, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Retry re-enqueues a failed post for execution. The state machine never
// retries on its own, so this is the only path back from FAILED.
func (uc *PostUseCase) Retry(ctx context.Context, id string) (*model.Post, error) {
	post, err := uc.repo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if post.Status != model.PostStatusFailed {
		return nil, fmt.Errorf("%w: only failed posts can be retried, post is %s", domain.ErrInvalidArgument, post.Status)
	}
	if post.HasContent() {
		post.Status = model.PostStatusScheduled
	} else {
		post.Status = model.PostStatusWaitingGeneration
	}
	post.ErrorMessage = ""
	post.UpdatedAt = time.Now()
	if err := uc.repo.Save(ctx, nil, post); err != nil {
		return nil, err
	}
	if err := uc.queue.Enqueue(ctx, model.QueuePostExecutor, model.JobTypeExecutePost, model.ExecutePostPayload{PostID: post.ID}); err != nil {
		return nil, fmt.Errorf("enqueue retry for post %s: %w", post.ID, err)
	}
	return post, nil
}
