package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/repository"
)

var _ repository.PromptRepository = (*PromptRepo)(nil)

type PromptRepo struct {
	pool *pgxpool.Pool
}

func NewPromptRepo(pool *pgxpool.Pool) *PromptRepo {
	return &PromptRepo{pool: pool}
}

const promptColumns = `id, name, content, category_id, weight, active, created_at, updated_at`

func (r *PromptRepo) Save(ctx context.Context, prompt *model.Prompt) error {
	prompt.UpdatedAt = time.Now()
	const q = `
INSERT INTO prompts (id, name, content, category_id, weight, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
  name       = EXCLUDED.name,
  content    = EXCLUDED.content,
  category_id = EXCLUDED.category_id,
  weight     = EXCLUDED.weight,
  active     = EXCLUDED.active,
  updated_at = EXCLUDED.updated_at;`

	_, err := r.pool.Exec(ctx, q,
		prompt.ID, prompt.Name, prompt.Content, nullable(prompt.CategoryID),
		prompt.Weight, prompt.Active, prompt.CreatedAt, prompt.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save prompt: %w", err)
	}
	return nil
}

func scanPrompt(row pgx.Row) (*model.Prompt, error) {
	var p model.Prompt
	err := row.Scan(&p.ID, &p.Name, &p.Content, scanNullString{&p.CategoryID},
		&p.Weight, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan prompt: %w", err)
	}
	return &p, nil
}

func (r *PromptRepo) FindByID(ctx context.Context, id string) (*model.Prompt, error) {
	q := `SELECT ` + promptColumns + ` FROM prompts WHERE id = $1;`
	return scanPrompt(r.pool.QueryRow(ctx, q, id))
}

func (r *PromptRepo) ListByCategory(ctx context.Context, categoryID string, activeOnly bool) ([]*model.Prompt, error) {
	q := `SELECT ` + promptColumns + ` FROM prompts WHERE category_id = $1`
	if activeOnly {
		q += ` AND active`
	}
	q += ` ORDER BY name ASC;`
	return r.list(ctx, q, categoryID)
}

func (r *PromptRepo) ListAll(ctx context.Context) ([]*model.Prompt, error) {
	return r.list(ctx, `SELECT `+promptColumns+` FROM prompts ORDER BY name ASC;`)
}

func (r *PromptRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.Prompt, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()
	var out []*model.Prompt
	for rows.Next() {
		p, err := scanPrompt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PromptRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM prompts WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete prompt: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
