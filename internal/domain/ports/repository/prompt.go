package repository

import (
	"context"

	"social-autopost/internal/domain/model"
)

type PromptRepository interface {
	Save(ctx context.Context, prompt *model.Prompt) error
	FindByID(ctx context.Context, id string) (*model.Prompt, error)
	// ListByCategory returns the category's prompts; activeOnly restricts to
	// the eligible set used for selection.
	ListByCategory(ctx context.Context, categoryID string, activeOnly bool) ([]*model.Prompt, error)
	ListAll(ctx context.Context) ([]*model.Prompt, error)
	Delete(ctx context.Context, id string) error
}
