package repository

import (
	"context"

	"social-autopost/internal/domain/model"
)

type ScheduleSlotRepository interface {
	Save(ctx context.Context, slot *model.ScheduleSlot) error
	FindByID(ctx context.Context, id string) (*model.ScheduleSlot, error)
	ListActive(ctx context.Context) ([]*model.ScheduleSlot, error)
	ListAll(ctx context.Context) ([]*model.ScheduleSlot, error)
	Delete(ctx context.Context, id string) error
}
