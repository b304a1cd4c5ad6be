package repository

import (
	"context"

	"social-autopost/internal/domain/model"
)

type CategoryRepository interface {
	Save(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id string) (*model.Category, error)
	ListAll(ctx context.Context) ([]*model.Category, error)
	// Delete removes the category; prompts cascade, slots and posts keep a
	// nulled category reference.
	Delete(ctx context.Context, id string) error
}
