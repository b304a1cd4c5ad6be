package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	"github.com/rs/zerolog"

	"social-autopost/internal/config"
	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/adapter"
	"social-autopost/internal/infra/metrics"
)

// ContentGenerator turns a (category, prompt) pair into finished text.
// One outer attempt is a primary-then-fallback pass over the backend; outer
// attempts are retried with a fixed delay, no backoff growth and no jitter.
type ContentGenerator interface {
	Generate(ctx context.Context, category *model.Category, prompt *model.Prompt, contextText string) (string, error)
}

var _ ContentGenerator = (*contentGeneratorUC)(nil)

type contentGeneratorUC struct {
	ai       adapter.TextGenerator
	primary  string
	fallback string
	attempts int
	delay    time.Duration
	log      *zerolog.Logger

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
	enc   *tiktoken.Tiktoken // best effort, nil when encoding unavailable
}

func NewContentGenerator(
	ai adapter.TextGenerator,
	aiCfg config.AIConfig,
	genCfg config.GenerationConfig,
	logger *zerolog.Logger,
) *contentGeneratorUC {
	l := logger.With().Str("component", "ContentGenerator").Logger()
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		l.Warn().Err(err).Msg("tokenizer unavailable; prompt token metrics disabled")
		enc = nil
	}
	return &contentGeneratorUC{
		ai:       ai,
		primary:  aiCfg.PrimaryModel,
		fallback: aiCfg.FallbackModel,
		attempts: genCfg.Attempts,
		delay:    genCfg.RetryDelay,
		log:      &l,
		sleep:    sleepCtx,
		now:      time.Now,
		enc:      enc,
	}
}

func (g *contentGeneratorUC) Generate(ctx context.Context, category *model.Category, prompt *model.Prompt, contextText string) (string, error) {
	finalPrompt := prompt.Render(g.now(), contextText)
	if g.enc != nil {
		metrics.ObservePromptTokens(len(g.enc.Encode(finalPrompt, nil, nil)))
	}
	g.log.Info().Str("category", category.Name).Str("prompt", prompt.Name).Msg("generating content")

	var lastErr error
	for attempt := 1; attempt <= g.attempts; attempt++ {
		if attempt > 1 {
			if err := g.sleep(ctx, g.delay); err != nil {
				return "", err
			}
		}

		text, err := g.call(ctx, g.primary, finalPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		g.log.Warn().Err(err).Int("attempt", attempt).Str("model", g.primary).Msg("primary model failed")

		text, err = g.call(ctx, g.fallback, finalPrompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
		g.log.Warn().Err(err).Int("attempt", attempt).Str("model", g.fallback).Msg("fallback model failed")
	}
	return "", fmt.Errorf("generation failed after %d attempts: %w", g.attempts, lastErr)
}

func (g *contentGeneratorUC) call(ctx context.Context, model, prompt string) (string, error) {
	start := time.Now()
	text, err := g.ai.Generate(ctx, model, prompt)
	metrics.ObserveGenerationLatency(model, float64(time.Since(start)/time.Millisecond))
	if err != nil {
		metrics.IncGenerationAttempt(model, "error")
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		metrics.IncGenerationAttempt(model, "empty")
		return "", domain.ErrEmptyContent
	}
	metrics.IncGenerationAttempt(model, "ok")
	return text, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
