package sched

import (
	"context"
	"errors"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"social-autopost/internal/config"
	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/adapter"
	"social-autopost/internal/domain/ports/repository"
	"social-autopost/internal/infra/metrics"
	"social-autopost/internal/usecase"
)

// Driver runs the two cron cadences: a minute tick that materializes posts
// for matching slots and enqueues everything due, and an hourly tick that
// enqueues the check-and-fill job. Execution itself happens in the queue
// consumers; the driver only triggers.
type Driver struct {
	slots        repository.ScheduleSlotRepository
	posts        repository.PostRepository
	materializer usecase.SlotMaterializer
	queue        adapter.JobQueue
	batchSize    int
	log          *zerolog.Logger

	c   *cron.Cron
	now func() time.Time
}

func NewDriver(
	slots repository.ScheduleSlotRepository,
	posts repository.PostRepository,
	materializer usecase.SlotMaterializer,
	queue adapter.JobQueue,
	cfg *config.SchedulerConfig,
	logger *zerolog.Logger,
) *Driver {
	l := logger.With().Str("component", "SchedDriver").Logger()
	return &Driver{
		slots:        slots,
		posts:        posts,
		materializer: materializer,
		queue:        queue,
		batchSize:    cfg.DueBatchSize,
		log:          &l,
		now:          time.Now,
	}
}

// Start registers the cadences and begins ticking. The returned error only
// reflects spec registration, which cannot fail for the fixed specs here.
func (d *Driver) Start(ctx context.Context) error {
	d.c = cron.New()
	if _, err := d.c.AddFunc("* * * * *", func() { d.minuteTick(ctx) }); err != nil {
		return err
	}
	if _, err := d.c.AddFunc("@hourly", func() { d.hourlyTick(ctx) }); err != nil {
		return err
	}
	d.c.Start()
	d.log.Info().Msg("scheduler started")
	return nil
}

// Stop halts triggering and waits for in-flight ticks to return.
func (d *Driver) Stop(ctx context.Context) {
	if d.c == nil {
		return
	}
	select {
	case <-d.c.Stop().Done():
	case <-ctx.Done():
	}
	d.log.Info().Msg("scheduler stopped")
}

// minuteTick materializes a post for every active slot matching the current
// minute, then enqueues an execute-post job for each due post. Matched slots
// are covered by the due scan in the same tick, so materialization never
// enqueues on its own.
func (d *Driver) minuteTick(ctx context.Context) {
	metrics.IncSchedulerTick("minute")
	now := d.now().Truncate(time.Minute)

	slots, err := d.slots.ListActive(ctx)
	if err != nil {
		d.log.Error().Err(err).Msg("minute tick: list active slots")
	} else {
		for _, slot := range slots {
			if !slot.MatchesMinute(now) {
				continue
			}
			post, err := d.materializer.Materialize(ctx, slot, now)
			switch {
			case err == nil:
				d.log.Info().Str("slot_id", slot.ID).Str("post_id", post.ID).Msg("slot matched, post materialized")
			case errors.Is(err, domain.ErrSlotAlreadyFilled):
				d.log.Debug().Str("slot_id", slot.ID).Msg("slot already filled today")
			case errors.Is(err, domain.ErrNoCategory), errors.Is(err, domain.ErrNoEligiblePrompts):
				d.log.Warn().Err(err).Str("slot_id", slot.ID).Msg("slot matched but cannot materialize")
			default:
				d.log.Error().Err(err).Str("slot_id", slot.ID).Msg("materialize failed")
			}
		}
	}

	d.dispatchDue(ctx, now)
}

// dispatchDue enqueues one execute-post job per due post, batch-limited per
// tick. Duplicate deliveries across ticks are tolerated downstream by the
// executor's lock and status guard.
func (d *Driver) dispatchDue(ctx context.Context, now time.Time) {
	due, err := d.posts.FindDue(ctx, now, d.batchSize)
	if err != nil {
		d.log.Error().Err(err).Msg("minute tick: scan due posts")
		return
	}
	for _, post := range due {
		payload := model.ExecutePostPayload{PostID: post.ID}
		if err := d.queue.Enqueue(ctx, model.QueuePostExecutor, model.JobTypeExecutePost, payload); err != nil {
			d.log.Error().Err(err).Str("post_id", post.ID).Msg("enqueue execute-post")
			continue
		}
		d.log.Debug().Str("post_id", post.ID).Time("scheduled_time", post.ScheduledTime).Msg("execute-post enqueued")
	}
}

func (d *Driver) hourlyTick(ctx context.Context) {
	metrics.IncSchedulerTick("hourly")
	if err := d.queue.Enqueue(ctx, model.QueueAutoFill, model.JobTypeCheckAndFill, nil); err != nil {
		d.log.Error().Err(err).Msg("enqueue check-and-fill")
	}
}
