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

var _ repository.PostRepository = (*PostRepo)(nil)

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

const postColumns = `
id, content, status, scheduled_time, posted_time,
category_id, prompt_id, slot_id, parent_post_id, thread_position,
external_id, media_url, retry_count, error_message, created_at, updated_at`

func (r *PostRepo) Save(ctx context.Context, tx repository.Tx, post *model.Post) error {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	post.UpdatedAt = time.Now()

	const q = `
INSERT INTO posts (id, content, status, scheduled_time, posted_time,
                   category_id, prompt_id, slot_id, parent_post_id, thread_position,
                   external_id, media_url, retry_count, error_message, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (id) DO UPDATE SET
  content       = EXCLUDED.content,
  status        = EXCLUDED.status,
  scheduled_time = EXCLUDED.scheduled_time,
  posted_time   = EXCLUDED.posted_time,
  external_id   = EXCLUDED.external_id,
  media_url     = EXCLUDED.media_url,
  retry_count   = EXCLUDED.retry_count,
  error_message = EXCLUDED.error_message,
  updated_at    = EXCLUDED.updated_at;`

	_, err = ex.Exec(ctx, q,
		post.ID, nullable(post.Content), string(post.Status), post.ScheduledTime, post.PostedTime,
		nullable(post.CategoryID), nullable(post.PromptID), nullable(post.SlotID),
		nullable(post.ParentPostID), post.ThreadPosition,
		nullable(post.ExternalID), nullable(post.MediaURL),
		post.RetryCount, nullable(post.ErrorMessage), post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save post: %w", err)
	}
	return nil
}

func scanPost(row pgx.Row) (*model.Post, error) {
	var p model.Post
	var status string
	err := row.Scan(
		&p.ID,
		scanNullString{&p.Content},
		&status,
		&p.ScheduledTime,
		&p.PostedTime,
		scanNullString{&p.CategoryID},
		scanNullString{&p.PromptID},
		scanNullString{&p.SlotID},
		scanNullString{&p.ParentPostID},
		&p.ThreadPosition,
		scanNullString{&p.ExternalID},
		scanNullString{&p.MediaURL},
		&p.RetryCount,
		scanNullString{&p.ErrorMessage},
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	p.Status = model.PostStatus(status)
	return &p, nil
}

func (r *PostRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Post, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + postColumns + ` FROM posts WHERE id = $1;`
	return scanPost(ex.QueryRow(ctx, q, id))
}

func (r *PostRepo) List(ctx context.Context, filter repository.PostFilter) ([]*model.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE 1=1`
	args := []interface{}{}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		q += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	q += " ORDER BY scheduled_time ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)
	q += fmt.Sprintf(" LIMIT $%d", len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()
	var out []*model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PostRepo) FindDue(ctx context.Context, now time.Time, limit int) ([]*model.Post, error) {
	q := `SELECT ` + postColumns + `
  FROM posts
 WHERE status IN ($1, $2)
   AND scheduled_time <= $3
 ORDER BY scheduled_time ASC
 LIMIT $4;`
	rows, err := r.pool.Query(ctx, q,
		string(model.PostStatusScheduled), string(model.PostStatusWaitingGeneration), now, limit)
	if err != nil {
		return nil, fmt.Errorf("find due posts: %w", err)
	}
	defer rows.Close()
	var out []*model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostRepo) ExistsForSlotDay(ctx context.Context, tx repository.Tx, slotID string, from, to time.Time) (bool, error) {
	ex, err := getExecutor(r.pool, tx)
	if err != nil {
		return false, err
	}
	const q = `
SELECT EXISTS (
  SELECT 1 FROM posts
   WHERE slot_id = $1
     AND scheduled_time >= $2
     AND scheduled_time <  $3
);`
	var exists bool
	if err := ex.QueryRow(ctx, q, slotID, from, to).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists for slot day: %w", err)
	}
	return exists, nil
}
