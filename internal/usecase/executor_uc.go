package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/rs/zerolog"

	"social-autopost/internal/config"
	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/adapter"
	"social-autopost/internal/domain/ports/repository"
	"social-autopost/internal/infra/adapters/twitter"
	"social-autopost/internal/infra/metrics"
)

const (
	maxPostRunes  = 280
	truncateBound = 277
	ellipsis      = "..."

	// headroom on top of the generation retry window for backend call
	// latency and the publish round trip
	executionLockMargin = 2 * time.Minute
)

// PostExecutor consumes execute-post jobs: just-in-time generation when the
// post is still WAITING_GENERATION, then sanitization and publication.
type PostExecutor interface {
	Execute(ctx context.Context, postID string) error
}

// ExecutionLocker serializes executors working on the same post id. The
// status check remains the correctness guard; the lock only narrows the
// check-then-write window between concurrent consumers.
type ExecutionLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

var _ PostExecutor = (*executorUC)(nil)

type executorUC struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	prompts    repository.PromptRepository
	generator  ContentGenerator
	publisher  adapter.Publisher
	locker     ExecutionLocker
	lockTTL    time.Duration
	log        *zerolog.Logger
}

func NewPostExecutor(
	posts repository.PostRepository,
	categories repository.CategoryRepository,
	prompts repository.PromptRepository,
	generator ContentGenerator,
	publisher adapter.Publisher,
	locker ExecutionLocker,
	genCfg config.GenerationConfig,
	logger *zerolog.Logger,
) *executorUC {
	l := logger.With().Str("component", "PostExecutor").Logger()
	// The lock must outlive the worst-case generation path (every retry
	// attempt plus its delay), otherwise the minute tick's duplicate
	// deliveries can slip past an expired lock mid-generation and publish
	// twice.
	ttl := time.Duration(genCfg.Attempts)*genCfg.RetryDelay + executionLockMargin
	return &executorUC{
		posts:      posts,
		categories: categories,
		prompts:    prompts,
		generator:  generator,
		publisher:  publisher,
		locker:     locker,
		lockTTL:    ttl,
		log:        &l,
	}
}

func (e *executorUC) Execute(ctx context.Context, postID string) error {
	log := e.log.With().Str("post_id", postID).Logger()

	if e.locker != nil {
		token, err := e.locker.TryLock(ctx, "lock:post:"+postID, e.lockTTL)
		if err != nil {
			if errors.Is(err, domain.ErrExecutionLocked) {
				log.Info().Msg("post locked by another worker; dropping duplicate delivery")
				metrics.IncPostExecuted("noop")
				return nil
			}
			return fmt.Errorf("acquire execution lock: %w", err)
		}
		defer func() { _ = e.locker.Unlock(context.Background(), "lock:post:"+postID, token) }()
	}

	post, err := e.posts.FindByID(ctx, nil, postID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			log.Warn().Msg("post not found; dropping job")
			metrics.IncPostExecuted("dropped")
			return nil
		}
		return fmt.Errorf("load post %s: %w", postID, err)
	}

	if !post.Executable() {
		log.Info().Str("status", string(post.Status)).Msg("post not executable; job is a no-op")
		metrics.IncPostExecuted("noop")
		return nil
	}

	if post.Status == model.PostStatusWaitingGeneration {
		if err := e.generateContent(ctx, post); err != nil {
			return err
		}
	}

	return e.publish(ctx, post)
}

// generateContent performs just-in-time generation and persists the result
// with SCHEDULED as the intermediate marker before publication.
func (e *executorUC) generateContent(ctx context.Context, post *model.Post) error {
	if post.CategoryID == "" || post.PromptID == "" {
		err := fmt.Errorf("post %s awaits generation but category=%q prompt=%q", post.ID, post.CategoryID, post.PromptID)
		e.fail(post, err)
		return err
	}
	category, err := e.categories.FindByID(ctx, post.CategoryID)
	if err != nil {
		err = fmt.Errorf("category %s for post %s: %w", post.CategoryID, post.ID, err)
		e.fail(post, err)
		return err
	}
	prompt, err := e.prompts.FindByID(ctx, post.PromptID)
	if err != nil {
		err = fmt.Errorf("prompt %s for post %s: %w", post.PromptID, post.ID, err)
		e.fail(post, err)
		return err
	}

	text, err := e.generator.Generate(ctx, category, prompt, "")
	if err != nil {
		e.fail(post, err)
		return err
	}
	if err := post.MarkGenerated(text); err != nil {
		return err
	}
	if err := e.posts.Save(ctx, nil, post); err != nil {
		return fmt.Errorf("persist generated content: %w", err)
	}
	return nil
}

func (e *executorUC) publish(ctx context.Context, post *model.Post) error {
	content, err := sanitizeContent(post.Content)
	if err != nil {
		e.fail(post, err)
		return err
	}

	start := time.Now()
	res, err := e.publisher.Publish(ctx, content)
	metrics.ObservePublishLatency(float64(time.Since(start) / time.Millisecond))
	if err != nil {
		var apiErr *twitter.APIError
		if errors.As(err, &apiErr) && apiErr.IsPermission() {
			e.log.Error().Int("code", apiErr.Code).Str("detail", apiErr.Detail).
				Msg("publish rejected for authorization reasons; check access token and app permissions")
		}
		e.fail(post, err)
		return err
	}

	if err := post.MarkPosted(res.ID, time.Now()); err != nil {
		return err
	}
	if err := e.posts.Save(ctx, nil, post); err != nil {
		return fmt.Errorf("persist posted state: %w", err)
	}
	metrics.IncPostExecuted("posted")
	e.log.Info().Str("post_id", post.ID).Str("external_id", res.ID).Msg("post published")
	return nil
}

// fail records the failure on the post before the error propagates, so state
// stays consistent with the last attempted action even if the process dies
// right after. The background context keeps the write alive past job
// cancellation.
func (e *executorUC) fail(post *model.Post, cause error) {
	if err := post.MarkFailed(cause.Error()); err != nil {
		e.log.Error().Err(err).Str("post_id", post.ID).Msg("could not mark post failed")
		return
	}
	if err := e.posts.Save(context.Background(), nil, post); err != nil {
		e.log.Error().Err(err).Str("post_id", post.ID).Msg("could not persist failed state")
	}
	metrics.IncPostExecuted("failed")
}

// sanitizeContent trims whitespace and enforces the 280-character hard limit:
// over-long content is cut at the last whitespace boundary before rune 277
// (hard cut when there is none) with an ellipsis appended.
func sanitizeContent(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", domain.ErrEmptyContent
	}
	runes := []rune(s)
	if len(runes) <= maxPostRunes {
		return s, nil
	}
	cut := runes[:truncateBound]
	boundary := -1
	for i, r := range cut {
		if unicode.IsSpace(r) {
			boundary = i
		}
	}
	if boundary > 0 {
		cut = cut[:boundary]
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + ellipsis, nil
}
