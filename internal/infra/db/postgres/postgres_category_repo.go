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

var _ repository.CategoryRepository = (*CategoryRepo)(nil)

type CategoryRepo struct {
	pool *pgxpool.Pool
}

func NewCategoryRepo(pool *pgxpool.Pool) *CategoryRepo {
	return &CategoryRepo{pool: pool}
}

const categoryColumns = `id, name, description, priority, active, created_at, updated_at`

func (r *CategoryRepo) Save(ctx context.Context, category *model.Category) error {
	category.UpdatedAt = time.Now()
	const q = `
INSERT INTO categories (id, name, description, priority, active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  name        = EXCLUDED.name,
  description = EXCLUDED.description,
  priority    = EXCLUDED.priority,
  active      = EXCLUDED.active,
  updated_at  = EXCLUDED.updated_at;`

	_, err := r.pool.Exec(ctx, q,
		category.ID, category.Name, nullable(category.Description),
		category.Priority, category.Active, category.CreatedAt, category.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save category: %w", err)
	}
	return nil
}

func scanCategory(row pgx.Row) (*model.Category, error) {
	var c model.Category
	err := row.Scan(&c.ID, &c.Name, scanNullString{&c.Description},
		&c.Priority, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan category: %w", err)
	}
	return &c, nil
}

func (r *CategoryRepo) FindByID(ctx context.Context, id string) (*model.Category, error) {
	q := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1;`
	return scanCategory(r.pool.QueryRow(ctx, q, id))
}

func (r *CategoryRepo) ListAll(ctx context.Context) ([]*model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY priority DESC, name ASC;`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()
	var out []*model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes the category. Prompts are removed by the ON DELETE CASCADE
// FK; slots and posts keep a NULLed category_id (ON DELETE SET NULL), so no
// dangling required references survive.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
