package usecase

import (
	"context"

	"github.com/google/uuid"

	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/repository"
)

// SlotUseCase manages the recurring schedule slots the minute matcher and
// auto-fill pass operate on.
type SlotUseCase struct {
	repo repository.ScheduleSlotRepository
}

func NewSlotUseCase(repo repository.ScheduleSlotRepository) *SlotUseCase {
	return &SlotUseCase{repo: repo}
}

// Create validates and persists a new slot. Time is "HH:MM", days are weekday
// names or the DAILY wildcard, timezone is an IANA name.
func (uc *SlotUseCase) Create(ctx context.Context, timeOfDay string, days []string, categoryID, timezone string) (*model.ScheduleSlot, error) {
	slot, err := model.NewScheduleSlot(uuid.NewString(), timeOfDay, days, categoryID, timezone)
	if err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

// Update persists changes to an existing slot.
func (uc *SlotUseCase) Update(ctx context.Context, slot *model.ScheduleSlot) error {
	return uc.repo.Save(ctx, slot)
}

// Get retrieves a slot by ID.
func (uc *SlotUseCase) Get(ctx context.Context, id string) (*model.ScheduleSlot, error) {
	return uc.repo.FindByID(ctx, id)
}

// List returns all slots, active or not.
func (uc *SlotUseCase) List(ctx context.Context) ([]*model.ScheduleSlot, error) {
	return uc.repo.ListAll(ctx)
}

// Delete removes a slot. Posts it already materialized are untouched.
func (uc *SlotUseCase) Delete(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}
