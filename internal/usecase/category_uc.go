package usecase

import (
	"context"

	"github.com/google/uuid"

	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/repository"
)

// CategoryUseCase manages content categories.
type CategoryUseCase struct {
	repo repository.CategoryRepository
}

func NewCategoryUseCase(repo repository.CategoryRepository) *CategoryUseCase {
	return &CategoryUseCase{repo: repo}
}

// Create validates and persists a new category.
func (uc *CategoryUseCase) Create(ctx context.Context, name, description string, priority int) (*model.Category, error) {
	category, err := model.NewCategory(uuid.NewString(), name, description, priority)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// Update persists changes to an existing category.
func (uc *CategoryUseCase) Update(ctx context.Context, category *model.Category) error {
	return uc.repo.Save(ctx, category)
}

// Get retrieves a category by ID.
func (uc *CategoryUseCase) Get(ctx context.Context, id string) (*model.Category, error) {
	return uc.repo.FindByID(ctx, id)
}

// List returns all categories.
func (uc *CategoryUseCase) List(ctx context.Context) ([]*model.Category, error) {
	return uc.repo.ListAll(ctx)
}

// Delete removes a category. Prompts under it go with it; slots and posts
// keep existing with their category reference cleared.
func (uc *CategoryUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}
