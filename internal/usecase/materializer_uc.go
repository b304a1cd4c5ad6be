package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/repository"
	"social-autopost/internal/infra/metrics"
)

// SlotMaterializer turns a due slot occurrence into a persisted
// WAITING_GENERATION post. Both triggers (the minute matcher and the hourly
// look-ahead) go through this one implementation so the (slot, calendar day)
// idempotency guard applies uniformly.
type SlotMaterializer interface {
	Materialize(ctx context.Context, slot *model.ScheduleSlot, occurrence time.Time) (*model.Post, error)
}

var _ SlotMaterializer = (*materializerUC)(nil)

type materializerUC struct {
	posts   repository.PostRepository
	prompts repository.PromptRepository
	tm      repository.TransactionManager
	log     *zerolog.Logger

	pick func(n int) int // uniform prompt selection, injectable for tests
}

func NewMaterializer(
	posts repository.PostRepository,
	prompts repository.PromptRepository,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *materializerUC {
	l := logger.With().Str("component", "Materializer").Logger()
	return &materializerUC{
		posts:   posts,
		prompts: prompts,
		tm:      tm,
		log:     &l,
		pick:    rand.IntN,
	}
}

// Materialize creates exactly one post per (slot, calendar day). A slot
// without a category or without active prompts is reported via sentinel
// errors the callers log and skip; an already-filled day returns
// ErrSlotAlreadyFilled, which is the expected outcome on re-runs, not a
// failure.
func (m *materializerUC) Materialize(ctx context.Context, slot *model.ScheduleSlot, occurrence time.Time) (*model.Post, error) {
	if slot.CategoryID == "" {
		metrics.IncPostMaterialized("skipped")
		return nil, domain.ErrNoCategory
	}

	eligible, err := m.prompts.ListByCategory(ctx, slot.CategoryID, true)
	if err != nil {
		metrics.IncPostMaterialized("error")
		return nil, fmt.Errorf("load prompts for category %s: %w", slot.CategoryID, err)
	}
	if len(eligible) == 0 {
		metrics.IncPostMaterialized("skipped")
		return nil, domain.ErrNoEligiblePrompts
	}
	prompt := eligible[m.pick(len(eligible))]

	post, err := model.NewSlotPost(uuid.NewString(), slot, prompt.ID, occurrence)
	if err != nil {
		metrics.IncPostMaterialized("error")
		return nil, err
	}

	// The existence check and insert share a transaction so two ticks racing
	// on the same minute cannot both materialize the slot.
	from, to := slot.DayBounds(occurrence)
	err = m.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		exists, err := m.posts.ExistsForSlotDay(ctx, tx, slot.ID, from, to)
		if err != nil {
			return err
		}
		if exists {
			return domain.ErrSlotAlreadyFilled
		}
		return m.posts.Save(ctx, tx, post)
	})
	if err != nil {
		if err == domain.ErrSlotAlreadyFilled {
			metrics.IncPostMaterialized("skipped")
			m.log.Debug().Str("slot_id", slot.ID).Time("occurrence", occurrence).Msg("slot already filled for this day")
			return nil, err
		}
		metrics.IncPostMaterialized("error")
		return nil, fmt.Errorf("materialize slot %s: %w", slot.ID, err)
	}

	metrics.IncPostMaterialized("created")
	m.log.Info().Str("slot_id", slot.ID).Str("post_id", post.ID).
		Str("prompt_id", prompt.ID).Time("scheduled_time", occurrence).Msg("post materialized")
	return post, nil
}
