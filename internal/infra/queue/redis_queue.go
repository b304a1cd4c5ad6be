package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/adapter"
	"social-autopost/internal/infra/metrics"
	"social-autopost/internal/infra/worker"
)

var _ adapter.JobQueue = (*RedisQueue)(nil)

// Handler processes one delivered job. Returning an error makes the queue
// apply its retry policy; the handler itself must stay idempotent because
// delivery is at-least-once.
type Handler func(ctx context.Context, job *model.Job) error

type Options struct {
	MaxAttempts  int           // per job before it goes to the dead list
	RetryBackoff time.Duration // fixed delay between redeliveries
	PollTimeout  time.Duration // blocking-pop timeout per loop iteration
}

// RedisQueue is a durable named work queue on Redis lists. Ready jobs live in
// queue:<name>; an in-flight copy is parked in queue:<name>:processing until
// acknowledged, so a crash mid-job leaves the job recoverable. Failed jobs
// wait in a delayed ZSET and are promoted back to the ready list when due.
type RedisQueue struct {
	cli  *redis.Client
	log  *zerolog.Logger
	opts Options

	mu       sync.RWMutex
	handlers map[string]map[string]Handler // queue -> job type -> handler
}

func New(cli *redis.Client, opts Options, logger *zerolog.Logger) *RedisQueue {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = time.Minute
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = time.Second
	}
	l := logger.With().Str("component", "RedisQueue").Logger()
	return &RedisQueue{
		cli:      cli,
		log:      &l,
		opts:     opts,
		handlers: make(map[string]map[string]Handler),
	}
}

func readyKey(queue string) string      { return "queue:" + queue }
func processingKey(queue string) string { return "queue:" + queue + ":processing" }
func delayedKey(queue string) string    { return "queue:" + queue + ":delayed" }
func deadKey(queue string) string       { return "queue:" + queue + ":dead" }

// Enqueue pushes a new job onto the named queue.
func (q *RedisQueue) Enqueue(ctx context.Context, queue, jobType string, payload any) error {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		raw = b
	}
	job := &model.Job{
		ID:          ulid.Make().String(),
		Queue:       queue,
		Type:        jobType,
		Payload:     raw,
		MaxAttempts: q.opts.MaxAttempts,
		EnqueuedAt:  time.Now(),
	}
	b, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.cli.LPush(ctx, readyKey(queue), b).Err(); err != nil {
		return fmt.Errorf("enqueue %s/%s: %w", queue, jobType, err)
	}
	metrics.IncQueueJob(queue, jobType, "enqueued")
	q.log.Debug().Str("queue", queue).Str("type", jobType).Str("job_id", job.ID).Msg("job enqueued")
	return nil
}

// Register binds a handler to (queue, jobType). Must be called before Consume.
func (q *RedisQueue) Register(queue, jobType string, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.handlers[queue] == nil {
		q.handlers[queue] = make(map[string]Handler)
	}
	q.handlers[queue][jobType] = h
}

func (q *RedisQueue) handlerFor(queue, jobType string) Handler {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.handlers[queue][jobType]
}

// Consume runs the delivery loop for one queue, dispatching jobs onto the
// pool. It blocks until ctx is cancelled; run it in a goroutine.
func (q *RedisQueue) Consume(ctx context.Context, queue string, pool *worker.Pool) {
	q.recoverProcessing(ctx, queue)
	q.log.Info().Str("queue", queue).Msg("queue consumer started")

	for {
		if ctx.Err() != nil {
			q.log.Info().Str("queue", queue).Msg("queue consumer stopping")
			return
		}
		q.promoteDelayed(ctx, queue)

		raw, err := q.cli.BRPopLPush(ctx, readyKey(queue), processingKey(queue), q.opts.PollTimeout).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			q.log.Error().Err(err).Str("queue", queue).Msg("pop failed")
			continue
		}
		_ = pool.Submit(ctx, func(ctx context.Context) error {
			q.deliver(ctx, queue, raw)
			return nil
		})
	}
}

// recoverProcessing re-queues jobs left in the processing list by a previous
// run that crashed between pop and ack.
func (q *RedisQueue) recoverProcessing(ctx context.Context, queue string) {
	for {
		raw, err := q.cli.RPopLPush(ctx, processingKey(queue), readyKey(queue)).Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				q.log.Error().Err(err).Str("queue", queue).Msg("recover processing failed")
			}
			return
		}
		q.log.Warn().Str("queue", queue).Str("job", raw).Msg("recovered in-flight job")
	}
}

// promoteDelayed moves due retry jobs back onto the ready list.
func (q *RedisQueue) promoteDelayed(ctx context.Context, queue string) {
	now := float64(time.Now().UnixMilli())
	members, err := q.cli.ZRangeByScore(ctx, delayedKey(queue), &redis.ZRangeBy{
		Min: "-inf", Max: fmt.Sprintf("%f", now), Count: 100,
	}).Result()
	if err != nil || len(members) == 0 {
		return
	}
	for _, m := range members {
		// ZRem guards against double promotion by concurrent consumers.
		removed, err := q.cli.ZRem(ctx, delayedKey(queue), m).Result()
		if err != nil || removed == 0 {
			continue
		}
		_ = q.cli.LPush(ctx, readyKey(queue), m).Err()
	}
}

func (q *RedisQueue) deliver(ctx context.Context, queue, raw string) {
	defer func() {
		// Ack: drop the in-flight copy regardless of outcome; retries are
		// re-inserted explicitly below.
		_ = q.cli.LRem(context.Background(), processingKey(queue), 1, raw).Err()
	}()

	var job model.Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		q.log.Error().Err(err).Str("queue", queue).Msg("malformed job dropped")
		return
	}
	job.Attempts++

	h := q.handlerFor(queue, job.Type)
	if h == nil {
		q.log.Error().Str("queue", queue).Str("type", job.Type).Msg("no handler registered; job dropped")
		return
	}

	err := h(ctx, &job)
	if err == nil {
		metrics.IncQueueJob(queue, job.Type, "completed")
		return
	}
	q.log.Warn().Err(err).Str("queue", queue).Str("type", job.Type).
		Str("job_id", job.ID).Int("attempts", job.Attempts).Msg("job failed")

	notBefore, retry := retryAt(&job, time.Now(), q.opts.RetryBackoff)
	if !retry {
		metrics.IncQueueJob(queue, job.Type, "dead")
		if b, merr := json.Marshal(&job); merr == nil {
			_ = q.cli.LPush(context.Background(), deadKey(queue), b).Err()
		}
		return
	}

	job.NotBefore = notBefore
	b, merr := json.Marshal(&job)
	if merr != nil {
		q.log.Error().Err(merr).Str("job_id", job.ID).Msg("marshal retry failed; job lost")
		return
	}
	metrics.IncQueueJob(queue, job.Type, "retried")
	_ = q.cli.ZAdd(context.Background(), delayedKey(queue), &redis.Z{
		Score:  float64(job.NotBefore.UnixMilli()),
		Member: b,
	}).Err()
}

// retryAt decides the fate of a failed job: another delivery after the fixed
// backoff while attempts remain, the dead list once the budget is spent.
func retryAt(job *model.Job, now time.Time, backoff time.Duration) (time.Time, bool) {
	if job.Attempts >= job.MaxAttempts {
		return time.Time{}, false
	}
	return now.Add(backoff), true
}
