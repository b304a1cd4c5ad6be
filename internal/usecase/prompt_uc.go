package usecase

import (
	"context"

	"github.com/google/uuid"

	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/repository"
)

// PromptUseCase manages generation prompt templates.
type PromptUseCase struct {
	repo repository.PromptRepository
}

func NewPromptUseCase(repo repository.PromptRepository) *PromptUseCase {
	return &PromptUseCase{repo: repo}
}

// Create validates and persists a new prompt template.
func (uc *PromptUseCase) Create(ctx context.Context, name, content, categoryID string, weight int) (*model.Prompt, error) {
	prompt, err := model.NewPrompt(uuid.NewString(), name, content, categoryID, weight)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, prompt); err != nil {
		return nil, err
	}
	return prompt, nil
}

// Update persists changes to an existing prompt.
func (uc *PromptUseCase) Update(ctx context.Context, prompt *model.Prompt) error {
	return uc.repo.Save(ctx, prompt)
}

// Get retrieves a prompt by ID.
func (uc *PromptUseCase) Get(ctx context.Context, id string) (*model.Prompt, error) {
	return uc.repo.FindByID(ctx, id)
}

// ListByCategory returns prompts under a category, optionally active only.
func (uc *PromptUseCase) ListByCategory(ctx context.Context, categoryID string, activeOnly bool) ([]*model.Prompt, error) {
	return uc.repo.ListByCategory(ctx, categoryID, activeOnly)
}

// List returns all prompts.
func (uc *PromptUseCase) List(ctx context.Context) ([]*model.Prompt, error) {
	return uc.repo.ListAll(ctx)
}

// Delete removes a prompt.
func (uc *PromptUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}
