package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"social-autopost/internal/config"
)

func newTestGenerator(ai *fakeAI) *contentGeneratorUC {
	g := NewContentGenerator(ai, config.AIConfig{
		PrimaryModel:  "gemini-1.5-pro",
		FallbackModel: "gemini-1.5-flash",
	}, config.GenerationConfig{
		Attempts:   5,
		RetryDelay: 30 * time.Second,
	}, newLogger())
	return g
}

// recordingSleeper captures the delays the generator requests instead of
// actually waiting.
type recordingSleeper struct {
	delays []time.Duration
}

func (r *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func TestGenerator_PrimarySucceedsFirstTry(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{results: []fakeAIResult{{text: "first try"}}}
	g := newTestGenerator(ai)
	sleeper := &recordingSleeper{}
	g.sleep = sleeper.sleep

	got, err := g.Generate(context.Background(), fixtureCategory("cat-1"), fixturePrompt("p-1", "cat-1"), "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "first try" {
		t.Fatalf("want %q, got %q", "first try", got)
	}
	if len(ai.calls) != 1 || ai.calls[0] != "gemini-1.5-pro" {
		t.Fatalf("want a single primary call, got %v", ai.calls)
	}
	if len(sleeper.delays) != 0 {
		t.Fatalf("first attempt must not sleep, got %v", sleeper.delays)
	}
}

func TestGenerator_FallbackCoversPrimaryFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("primary down")
	ai := &fakeAI{results: []fakeAIResult{
		{err: boom},
		{text: "from fallback"},
	}}
	g := newTestGenerator(ai)
	sleeper := &recordingSleeper{}
	g.sleep = sleeper.sleep

	got, err := g.Generate(context.Background(), fixtureCategory("cat-1"), fixturePrompt("p-1", "cat-1"), "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "from fallback" {
		t.Fatalf("want fallback text, got %q", got)
	}
	if len(ai.calls) != 2 || ai.calls[1] != "gemini-1.5-flash" {
		t.Fatalf("want primary then fallback, got %v", ai.calls)
	}
	if len(sleeper.delays) != 0 {
		t.Fatalf("fallback within the same attempt must not sleep, got %v", sleeper.delays)
	}
}

func TestGenerator_SucceedsOnFifthAttempt(t *testing.T) {
	t.Parallel()

	boom := errors.New("unavailable")
	results := make([]fakeAIResult, 0, 9)
	for i := 0; i < 8; i++ {
		results = append(results, fakeAIResult{err: boom})
	}
	results = append(results, fakeAIResult{text: "finally"})

	ai := &fakeAI{results: results}
	g := newTestGenerator(ai)
	sleeper := &recordingSleeper{}
	g.sleep = sleeper.sleep

	got, err := g.Generate(context.Background(), fixtureCategory("cat-1"), fixturePrompt("p-1", "cat-1"), "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "finally" {
		t.Fatalf("want %q, got %q", "finally", got)
	}
	// 4 failed attempts at 2 calls each, then the successful primary call
	if len(ai.calls) != 9 {
		t.Fatalf("want 9 backend calls, got %d (%v)", len(ai.calls), ai.calls)
	}
	if len(sleeper.delays) != 4 {
		t.Fatalf("want 4 inter-attempt delays, got %d", len(sleeper.delays))
	}
	for _, d := range sleeper.delays {
		if d != 30*time.Second {
			t.Fatalf("delays must be fixed 30s, got %v", d)
		}
	}
}

func TestGenerator_ExhaustionReturnsLastError(t *testing.T) {
	t.Parallel()

	lastBoom := errors.New("still down")
	results := make([]fakeAIResult, 10)
	for i := range results {
		results[i] = fakeAIResult{err: errors.New("transient")}
	}
	results[9] = fakeAIResult{err: lastBoom}

	ai := &fakeAI{results: results}
	g := newTestGenerator(ai)
	sleeper := &recordingSleeper{}
	g.sleep = sleeper.sleep

	_, err := g.Generate(context.Background(), fixtureCategory("cat-1"), fixturePrompt("p-1", "cat-1"), "")
	if err == nil {
		t.Fatalf("expected error after exhaustion")
	}
	if !errors.Is(err, lastBoom) {
		t.Fatalf("want the final backend error wrapped, got %v", err)
	}
	if len(ai.calls) != 10 {
		t.Fatalf("want 10 backend calls (5 attempts x 2 models), got %d", len(ai.calls))
	}
	if len(sleeper.delays) != 4 {
		t.Fatalf("want 4 inter-attempt delays, got %d", len(sleeper.delays))
	}
}

func TestGenerator_EmptyResponseIsRetried(t *testing.T) {
	t.Parallel()

	ai := &fakeAI{results: []fakeAIResult{
		{text: "   "},
		{text: "real content"},
	}}
	g := newTestGenerator(ai)
	sleeper := &recordingSleeper{}
	g.sleep = sleeper.sleep

	got, err := g.Generate(context.Background(), fixtureCategory("cat-1"), fixturePrompt("p-1", "cat-1"), "")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "real content" {
		t.Fatalf("want fallback to cover empty primary output, got %q", got)
	}
}

func TestGenerator_RendersPromptTokens(t *testing.T) {
	t.Parallel()

	var seenPrompt string
	ai := &fakeAI{results: []fakeAIResult{{text: "ok"}}}
	g := newTestGenerator(ai)
	base := g.ai
	g.ai = promptSpy{inner: base, seen: &seenPrompt}
	g.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }

	prompt := fixturePrompt("p-1", "cat-1") // content "Write about {date}."
	if _, err := g.Generate(context.Background(), fixtureCategory("cat-1"), prompt, ""); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(seenPrompt, "2026-03-02T09:00:00Z") {
		t.Fatalf("date token not rendered into backend prompt: %q", seenPrompt)
	}
}

type promptSpy struct {
	inner interface {
		Generate(ctx context.Context, model, prompt string) (string, error)
		ListModels(ctx context.Context) ([]string, error)
	}
	seen *string
}

func (s promptSpy) Generate(ctx context.Context, model, prompt string) (string, error) {
	*s.seen = prompt
	return s.inner.Generate(ctx, model, prompt)
}

func (s promptSpy) ListModels(ctx context.Context) ([]string, error) {
	return s.inner.ListModels(ctx)
}
