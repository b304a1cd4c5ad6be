package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/adapter"
	"social-autopost/internal/domain/ports/repository"
)

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

//
// ---------------- in-memory repositories ----------------
//

type memPostRepo struct {
	mu    sync.Mutex
	byID  map[string]*model.Post
	saves int

	errSave error
	errFind error
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{byID: map[string]*model.Post{}}
}

func (m *memPostRepo) Save(ctx context.Context, _ repository.Tx, p *model.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errSave != nil {
		return m.errSave
	}
	cp := *p
	m.byID[p.ID] = &cp
	m.saves++
	return nil
}

func (m *memPostRepo) FindByID(ctx context.Context, _ repository.Tx, id string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.errFind != nil {
		return nil, m.errFind
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPostRepo) List(ctx context.Context, f repository.PostFilter) ([]*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Post
	for _, p := range m.byID {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.CategoryID != "" && p.CategoryID != f.CategoryID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPostRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memPostRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Post
	for _, p := range m.byID {
		if !p.Executable() || p.ScheduledTime.After(now) {
			continue
		}
		cp := *p
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memPostRepo) ExistsForSlotDay(ctx context.Context, _ repository.Tx, slotID string, from, to time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byID {
		if p.SlotID != slotID {
			continue
		}
		if !p.ScheduledTime.Before(from) && p.ScheduledTime.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

type memSlotRepo struct {
	mu   sync.Mutex
	byID map[string]*model.ScheduleSlot
}

func newMemSlotRepo() *memSlotRepo {
	return &memSlotRepo{byID: map[string]*model.ScheduleSlot{}}
}

func (m *memSlotRepo) Save(ctx context.Context, s *model.ScheduleSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSlotRepo) FindByID(ctx context.Context, id string) (*model.ScheduleSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSlotRepo) ListActive(ctx context.Context) ([]*model.ScheduleSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ScheduleSlot
	for _, s := range m.byID {
		if s.Active {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memSlotRepo) ListAll(ctx context.Context) ([]*model.ScheduleSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.ScheduleSlot
	for _, s := range m.byID {
		cp := *s
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memSlotRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// memPromptRepo lists prompts in insertion order so selection tests can pin
// which prompt a given pick index lands on.
type memPromptRepo struct {
	mu    sync.Mutex
	byID  map[string]*model.Prompt
	order []string
}

func newMemPromptRepo() *memPromptRepo {
	return &memPromptRepo{byID: map[string]*model.Prompt{}}
}

func (m *memPromptRepo) Save(ctx context.Context, p *model.Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		m.order = append(m.order, p.ID)
	}
	cp := *p
	m.byID[p.ID] = &cp
	return nil
}

func (m *memPromptRepo) FindByID(ctx context.Context, id string) (*model.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memPromptRepo) ListByCategory(ctx context.Context, categoryID string, activeOnly bool) ([]*model.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Prompt
	for _, id := range m.order {
		p := m.byID[id]
		if p.CategoryID != categoryID {
			continue
		}
		if activeOnly && !p.Active {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPromptRepo) ListAll(ctx context.Context) ([]*model.Prompt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Prompt
	for _, id := range m.order {
		cp := *m.byID[id]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memPromptRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

type memCategoryRepo struct {
	mu   sync.Mutex
	byID map[string]*model.Category
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{byID: map[string]*model.Category{}}
}

func (m *memCategoryRepo) Save(ctx context.Context, c *model.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.byID[c.ID] = &cp
	return nil
}

func (m *memCategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCategoryRepo) ListAll(ctx context.Context) ([]*model.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Category
	for _, c := range m.byID {
		cp := *c
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memCategoryRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

type noTx struct{}

type memTxManager struct{}

func (m *memTxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, noTx{})
}

//
// ---------------- adapter fakes ----------------
//

// fakeAI replays scripted results per call, in order. Extra calls repeat the
// final entry.
type fakeAI struct {
	mu      sync.Mutex
	calls   []string // model per call
	results []fakeAIResult
}

type fakeAIResult struct {
	text string
	err  error
}

func (f *fakeAI) Generate(ctx context.Context, model, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, model)
	idx := len(f.calls) - 1
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	r := f.results[idx]
	return r.text, r.err
}

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake-model"}, nil
}

type fakeGenerator struct {
	text  string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, category *model.Category, prompt *model.Prompt, contextText string) (string, error) {
	f.calls++
	return f.text, f.err
}

type fakePublisher struct {
	mu        sync.Mutex
	published []string
	result    *adapter.PublishResult
	err       error
}

func (f *fakePublisher) Publish(ctx context.Context, text string) (*adapter.PublishResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.published = append(f.published, text)
	if f.result != nil {
		return f.result, nil
	}
	return &adapter.PublishResult{ID: "123", Text: text}, nil
}

func (f *fakePublisher) Delete(ctx context.Context, externalID string) error { return nil }

type fakeLocker struct {
	mu     sync.Mutex
	held   map[string]bool
	denied bool
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]bool{}} }

func (f *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.denied || f.held[key] {
		return "", domain.ErrExecutionLocked
	}
	f.held[key] = true
	return "token", nil
}

func (f *fakeLocker) Unlock(ctx context.Context, key, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.held, key)
	return nil
}

type enqueuedJob struct {
	queue   string
	jobType string
	payload any
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []enqueuedJob
	err  error
}

func (f *fakeQueue) Enqueue(ctx context.Context, queue, jobType string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, enqueuedJob{queue: queue, jobType: jobType, payload: payload})
	return nil
}

//
// ---------------- shared fixtures ----------------
//

func fixtureSlot(id, categoryID string) *model.ScheduleSlot {
	s, err := model.NewScheduleSlot(id, "09:00", []string{"DAILY"}, categoryID, "UTC")
	if err != nil {
		panic(err)
	}
	return s
}

func fixturePrompt(id, categoryID string) *model.Prompt {
	p, err := model.NewPrompt(id, "prompt-"+id, "Write about {date}.", categoryID, 1)
	if err != nil {
		panic(err)
	}
	return p
}

func fixtureCategory(id string) *model.Category {
	c, err := model.NewCategory(id, "category-"+id, "", 1)
	if err != nil {
		panic(err)
	}
	return c
}
