package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"social-autopost/internal/domain"
	"social-autopost/internal/domain/model"
	"social-autopost/internal/domain/ports/repository"
)

var _ repository.ScheduleSlotRepository = (*ScheduleSlotRepo)(nil)

type ScheduleSlotRepo struct {
	pool *pgxpool.Pool
}

func NewScheduleSlotRepo(pool *pgxpool.Pool) *ScheduleSlotRepo {
	return &ScheduleSlotRepo{pool: pool}
}

func (r *ScheduleSlotRepo) Save(ctx context.Context, slot *model.ScheduleSlot) error {
	const q = `
INSERT INTO schedule_slots (id, slot_time, days_of_week, category_id, timezone, active, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  slot_time    = EXCLUDED.slot_time,
  days_of_week = EXCLUDED.days_of_week,
  category_id  = EXCLUDED.category_id,
  timezone     = EXCLUDED.timezone,
  active       = EXCLUDED.active;`

	_, err := r.pool.Exec(ctx, q,
		slot.ID, slot.Time, strings.Join(slot.DaysOfWeek, ","),
		nullable(slot.CategoryID), slot.Timezone, slot.Active, slot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save slot: %w", err)
	}
	return nil
}

func scanSlot(row pgx.Row) (*model.ScheduleSlot, error) {
	var s model.ScheduleSlot
	var days string
	err := row.Scan(&s.ID, &s.Time, &days, scanNullString{&s.CategoryID}, &s.Timezone, &s.Active, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan slot: %w", err)
	}
	if days != "" {
		s.DaysOfWeek = strings.Split(days, ",")
	}
	return &s, nil
}

const slotColumns = `id, slot_time, days_of_week, category_id, timezone, active, created_at`

func (r *ScheduleSlotRepo) FindByID(ctx context.Context, id string) (*model.ScheduleSlot, error) {
	q := `SELECT ` + slotColumns + ` FROM schedule_slots WHERE id = $1;`
	return scanSlot(r.pool.QueryRow(ctx, q, id))
}

func (r *ScheduleSlotRepo) list(ctx context.Context, q string, args ...interface{}) ([]*model.ScheduleSlot, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()
	var out []*model.ScheduleSlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *ScheduleSlotRepo) ListActive(ctx context.Context) ([]*model.ScheduleSlot, error) {
	return r.list(ctx, `SELECT `+slotColumns+` FROM schedule_slots WHERE active ORDER BY slot_time ASC;`)
}

func (r *ScheduleSlotRepo) ListAll(ctx context.Context) ([]*model.ScheduleSlot, error) {
	return r.list(ctx, `SELECT `+slotColumns+` FROM schedule_slots ORDER BY slot_time ASC;`)
}

func (r *ScheduleSlotRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedule_slots WHERE id = $1;`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
