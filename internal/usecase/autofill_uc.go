package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"social-autopost/internal/config"
	"social-autopost/internal/domain"
	"social-autopost/internal/domain/ports/repository"
)

// AutoFiller backs the check-and-fill job: it walks the active slots and
// materializes a post for each upcoming occurrence inside the lookahead
// window that has no post yet. Filled posts are picked up by the due-post
// scan when their time comes, so no enqueueing happens here.
type AutoFiller interface {
	FillUpcoming(ctx context.Context) error
}

var _ AutoFiller = (*autoFillUC)(nil)

type autoFillUC struct {
	slots        repository.ScheduleSlotRepository
	materializer SlotMaterializer
	lookahead    time.Duration
	log          *zerolog.Logger

	now func() time.Time
}

func NewAutoFiller(
	slots repository.ScheduleSlotRepository,
	materializer SlotMaterializer,
	cfg *config.SchedulerConfig,
	logger *zerolog.Logger,
) *autoFillUC {
	l := logger.With().Str("component", "AutoFiller").Logger()
	return &autoFillUC{
		slots:        slots,
		materializer: materializer,
		lookahead:    time.Duration(cfg.LookaheadDays) * 24 * time.Hour,
		log:          &l,
		now:          time.Now,
	}
}

func (a *autoFillUC) FillUpcoming(ctx context.Context) error {
	slots, err := a.slots.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active slots: %w", err)
	}

	now := a.now()
	horizon := now.Add(a.lookahead)
	var filled, skipped int

	for _, slot := range slots {
		occurrence, ok := slot.NextOccurrence(now)
		if !ok || occurrence.After(horizon) {
			continue
		}

		post, err := a.materializer.Materialize(ctx, slot, occurrence)
		switch {
		case err == nil:
			filled++
			a.log.Info().Str("slot_id", slot.ID).Str("post_id", post.ID).
				Time("scheduled_time", occurrence).Msg("slot filled")
		case errors.Is(err, domain.ErrSlotAlreadyFilled):
			skipped++
		case errors.Is(err, domain.ErrNoCategory), errors.Is(err, domain.ErrNoEligiblePrompts):
			skipped++
			a.log.Warn().Err(err).Str("slot_id", slot.ID).Msg("slot cannot be auto-filled")
		default:
			a.log.Error().Err(err).Str("slot_id", slot.ID).Msg("auto-fill failed for slot")
		}
	}

	a.log.Info().Int("slots", len(slots)).Int("filled", filled).Int("skipped", skipped).
		Msg("auto-fill pass complete")
	return nil
}
