package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"social-autopost/internal/config"
	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
)

type executorFixture struct {
	posts      *memPostRepo
	categories *memCategoryRepo
	prompts    *memPromptRepo
	generator  *fakeGenerator
	publisher  *fakePublisher
	locker     *fakeLocker
	exec       *executorUC
}

func newExecutorFixture() *executorFixture {
	f := &executorFixture{
		posts:      newMemPostRepo(),
		categories: newMemCategoryRepo(),
		prompts:    newMemPromptRepo(),
		generator:  &fakeGenerator{text: "generated content"},
		publisher:  &fakePublisher{},
		locker:     newFakeLocker(),
	}
	f.exec = NewPostExecutor(f.posts, f.categories, f.prompts, f.generator, f.publisher, f.locker, testGenerationConfig(), newLogger())
	return f
}

func testGenerationConfig() config.GenerationConfig {
	return config.GenerationConfig{Attempts: 5, RetryDelay: 30 * time.Second}
}

func (f *executorFixture) seedScheduledPost(id, content string) *model.Post {
	now := time.Now()
	post := &model.Post{
		ID:            id,
		Content:       content,
		Status:        model.PostStatusScheduled,
		ScheduledTime: now.Add(-time.Minute),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_ = f.posts.Save(context.Background(), nil, post)
	return post
}

func (f *executorFixture) seedWaitingPost(id, categoryID, promptID string) *model.Post {
	now := time.Now()
	post := &model.Post{
		ID:            id,
		Status:        model.PostStatusWaitingGeneration,
		ScheduledTime: now.Add(-time.Minute),
		CategoryID:    categoryID,
		PromptID:      promptID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	_ = f.posts.Save(context.Background(), nil, post)
	return post
}

func TestExecutor_PublishesScheduledPost(t *testing.T) {
	t.Parallel()

	f := newExecutorFixture()
	f.seedScheduledPost("post-1", "ready to go")

	if err := f.exec.Execute(context.Background(), "post-1"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, _ := f.posts.FindByID(context.Background(), nil, "post-1")
	if got.Status != model.PostStatusPosted {
		t.Fatalf("want POSTED, got %s", got.Status)
	}
	if got.ExternalID != "123" {
		t.Fatalf("want external id 123, got %q", got.ExternalID)
	}
	if got.PostedTime == nil {
		t.Fatalf("posted time must be set")
	}
	if len(f.publisher.published) != 1 || f.publisher.published[0] != "ready to go" {
		t.Fatalf("unexpected publish calls: %v", f.publisher.published)
	}
	if f.generator.calls != 0 {
		t.Fatalf("SCHEDULED post with content must not trigger generation")
	}
}

func TestExecutor_GeneratesJustInTime(t *testing.T) {
	t.Parallel()

	f := newExecutorFixture()
	_ = f.categories.Save(context.Background(), fixtureCategory("cat-1"))
	_ = f.prompts.Save(context.Background(), fixturePrompt("p-1", "cat-1"))
	f.seedWaitingPost("post-1", "cat-1", "p-1")

	if err := f.exec.Execute(context.Background(), "post-1"); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	got, _ := f.posts.FindByID(context.Background(), nil, "post-1")
	if got.Status != model.PostStatusPosted {
		t.Fatalf("want POSTED, got %s", got.Status)
	}
	if got.Content != "generated content" {
		t.Fatalf("generated content must be persisted, got %q", got.Content)
	}
	if f.generator.calls != 1 {
		t.Fatalf("want one generation call, got %d", f.generator.calls)
	}
}

func TestExecutor_MissingPostDropsJob(t *testing.T) {
	t.Parallel()

	f := newExecutorFixture()
	if err := f.exec.Execute(context.Background(), "nope"); err != nil {
		t.Fatalf("missing post must be dropped without error, got %v", err)
	}
}

func TestExecutor_NonExecutableStatusIsNoop(t *testing.T) {
	t.Parallel()

	for _, status := range []model.PostStatus{
		model.PostStatusDraft,
		model.PostStatusPosted,
		model.PostStatusFailed,
		model.PostStatusApproved,
	} {
		f := newExecutorFixture()
		post := f.seedScheduledPost("post-1", "content")
		post.Status = status
		_ = f.posts.Save(context.Background(), nil, post)

		if err := f.exec.Execute(context.Background(), "post-1"); err != nil {
			t.Fatalf("status %s: want no-op, got %v", status, err)
		}
		if len(f.publisher.published) != 0 {
			t.Fatalf("status %s: nothing must be published", status)
		}
	}
}

func TestExecutor_LockedPostSkipsWithoutError(t *testing.T) {
	t.Parallel()

	f := newExecutorFixture()
	f.seedScheduledPost("post-1", "content")
	f.locker.denied = true

	if err := f.exec.Execute(context.Background(), "post-1"); err != nil {
		t.Fatalf("locked post must be skipped without error, got %v", err)
	}
	if len(f.publisher.published) != 0 {
		t.Fatalf("locked post must not publish")
	}
}

type generatorFunc func(ctx context.Context, category *model.Category, prompt *model.Prompt, contextText string) (string, error)

func (f generatorFunc) Generate(ctx context.Context, category *model.Category, prompt *model.Prompt, contextText string) (string, error) {
	return f(ctx, category, prompt, contextText)
}

// ttlLocker expires held locks against an injected clock, the way the real
// Redis SetNX lock does against server time.
type ttlLocker struct {
	now    func() time.Time
	expiry map[string]time.Time
}

func (l *ttlLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if deadline, ok := l.expiry[key]; ok && l.now().Before(deadline) {
		return "", domain.ErrExecutionLocked
	}
	l.expiry[key] = l.now().Add(ttl)
	return "token", nil
}

func (l *ttlLocker) Unlock(ctx context.Context, key, token string) error {
	delete(l.expiry, key)
	return nil
}

func TestExecutor_LockOutlivesGenerationRetries(t *testing.T) {
	t.Parallel()

	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	locker := &ttlLocker{now: func() time.Time { return clock }, expiry: map[string]time.Time{}}

	posts := newMemPostRepo()
	categories := newMemCategoryRepo()
	prompts := newMemPromptRepo()
	publisher := &fakePublisher{}
	_ = categories.Save(context.Background(), fixtureCategory("cat-1"))
	_ = prompts.Save(context.Background(), fixturePrompt("p-1", "cat-1"))

	post := &model.Post{
		ID:            "post-1",
		Status:        model.PostStatusWaitingGeneration,
		ScheduledTime: clock.Add(-time.Minute),
		CategoryID:    "cat-1",
		PromptID:      "p-1",
	}
	_ = posts.Save(context.Background(), nil, post)

	var exec *executorUC
	var duplicateErr error
	slowGen := generatorFunc(func(ctx context.Context, _ *model.Category, _ *model.Prompt, _ string) (string, error) {
		// the retry loop runs across several scheduler ticks; a duplicate
		// delivery lands while the first worker is still inside it
		clock = clock.Add(3 * time.Minute)
		duplicateErr = exec.Execute(ctx, "post-1")
		return "generated content", nil
	})
	exec = NewPostExecutor(posts, categories, prompts, slowGen, publisher, locker, testGenerationConfig(), newLogger())

	if err := exec.Execute(context.Background(), "post-1"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if duplicateErr != nil {
		t.Fatalf("duplicate delivery must be a silent no-op, got %v", duplicateErr)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("want exactly one publish, got %d", len(publisher.published))
	}
	got, _ := posts.FindByID(context.Background(), nil, "post-1")
	if got.Status != model.PostStatusPosted {
		t.Fatalf("want POSTED, got %s", got.Status)
	}
}

func TestExecutor_MissingPromptFailsPost(t *testing.T) {
	t.Parallel()

	f := newExecutorFixture()
	_ = f.categories.Save(context.Background(), fixtureCategory("cat-1"))
	f.seedWaitingPost("post-1", "cat-1", "gone")

	err := f.exec.Execute(context.Background(), "post-1")
	if err == nil {
		t.Fatalf("missing prompt must surface an error for queue retry")
	}

	got, _ := f.posts.FindByID(context.Background(), nil, "post-1")
	if got.Status != model.PostStatusFailed {
		t.Fatalf("want FAILED, got %s", got.Status)
	}
	if got.RetryCount != 1 {
		t.Fatalf("want retry count 1, got %d", got.RetryCount)
	}
	if got.ErrorMessage == "" {
		t.Fatalf("error message must be recorded")
	}
}

func TestExecutor_GenerationFailureFailsPost(t *testing.T) {
	t.Parallel()

	f := newExecutorFixture()
	_ = f.categories.Save(context.Background(), fixtureCategory("cat-1"))
	_ = f.prompts.Save(context.Background(), fixturePrompt("p-1", "cat-1"))
	f.seedWaitingPost("post-1", "cat-1", "p-1")
	f.generator.err = errors.New("all providers down")
	f.generator.text = ""

	err := f.exec.Execute(context.Background(), "post-1")
	if err == nil {
		t.Fatalf("generation failure must surface for queue retry")
	}

	got, _ := f.posts.FindByID(context.Background(), nil, "post-1")
	if got.Status != model.PostStatusFailed {
		t.Fatalf("want FAILED, got %s", got.Status)
	}
	if got.HasContent() {
		t.Fatalf("content must stay empty after failed generation, got %q", got.Content)
	}
	if got.RetryCount != 1 {
		t.Fatalf("want retry count 1, got %d", got.RetryCount)
	}
	if len(f.publisher.published) != 0 {
		t.Fatalf("failed generation must not publish")
	}
}

func TestExecutor_PublishFailureFailsPost(t *testing.T) {
	t.Parallel()

	f := newExecutorFixture()
	f.seedScheduledPost("post-1", "content")
	f.publisher.err = errors.New("api unreachable")

	if err := f.exec.Execute(context.Background(), "post-1"); err == nil {
		t.Fatalf("publish failure must surface for queue retry")
	}
	got, _ := f.posts.FindByID(context.Background(), nil, "post-1")
	if got.Status != model.PostStatusFailed {
		t.Fatalf("want FAILED, got %s", got.Status)
	}
}

func TestExecutor_EmptyContentFailsPost(t *testing.T) {
	t.Parallel()

	f := newExecutorFixture()
	f.seedScheduledPost("post-1", "   \n\t ")

	err := f.exec.Execute(context.Background(), "post-1")
	if !errors.Is(err, domain.ErrEmptyContent) {
		t.Fatalf("want ErrEmptyContent, got %v", err)
	}
	got, _ := f.posts.FindByID(context.Background(), nil, "post-1")
	if got.Status != model.PostStatusFailed {
		t.Fatalf("want FAILED, got %s", got.Status)
	}
}

func TestSanitizeContent(t *testing.T) {
	t.Parallel()

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		got, err := sanitizeContent("  hello world \n")
		if err != nil || got != "hello world" {
			t.Fatalf("got %q, %v", got, err)
		}
	})

	t.Run("empty is rejected", func(t *testing.T) {
		if _, err := sanitizeContent("   "); !errors.Is(err, domain.ErrEmptyContent) {
			t.Fatalf("want ErrEmptyContent, got %v", err)
		}
	})

	t.Run("at limit passes through", func(t *testing.T) {
		in := strings.Repeat("a", 280)
		got, err := sanitizeContent(in)
		if err != nil || got != in {
			t.Fatalf("280 runes must pass unchanged")
		}
	})

	t.Run("hard cut when no whitespace", func(t *testing.T) {
		in := strings.Repeat("a", 300)
		got, err := sanitizeContent(in)
		if err != nil {
			t.Fatalf("sanitize: %v", err)
		}
		if got != strings.Repeat("a", 277)+"..." {
			t.Fatalf("want 277 runes + ellipsis, got len %d", utf8.RuneCountInString(got))
		}
	})

	t.Run("cuts at last whitespace before boundary", func(t *testing.T) {
		in := strings.Repeat("a", 250) + " " + strings.Repeat("b", 100)
		got, err := sanitizeContent(in)
		if err != nil {
			t.Fatalf("sanitize: %v", err)
		}
		if got != strings.Repeat("a", 250)+"..." {
			t.Fatalf("want cut at whitespace boundary, got %q...", got[:30])
		}
	})

	t.Run("multibyte runes count as one", func(t *testing.T) {
		in := strings.Repeat("é", 300)
		got, err := sanitizeContent(in)
		if err != nil {
			t.Fatalf("sanitize: %v", err)
		}
		if utf8.RuneCountInString(got) != 280 {
			t.Fatalf("want 280 runes, got %d", utf8.RuneCountInString(got))
		}
		if !strings.HasSuffix(got, "...") {
			t.Fatalf("truncated content must end with ellipsis")
		}
	})
}
