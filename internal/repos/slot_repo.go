package repos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"courtwatch/internal/domain"
)

type SlotRepo struct{ db *sqlx.DB }

func NewSlotRepo(db *sqlx.DB) *SlotRepo { return &SlotRepo{db: db} }

// Existing rows only ever get their capacity refreshed. Name, times, duration and
// price keep whatever was stored first for the key.
const upsertSlot = `
	INSERT INTO courts(
		composite_key, venue_slug, category_slug, name, date, starts_at, ends_at, duration, price, spaces
	) VALUES (
		:composite_key, :venue_slug, :category_slug, :name, :date, :starts_at, :ends_at, :duration, :price, :spaces
	)
	ON CONFLICT(composite_key) DO UPDATE SET spaces = excluded.spaces
`

// "Available" means bookable and not yet started, relative to the wall clock passed in.
const availablePredicate = `
	spaces > 0
	AND (date > :today OR (date = :today AND starts_at > :now))
`

// Upsert applies the whole batch in one transaction; readers see all of it or none of it.
func (r *SlotRepo) Upsert(ctx context.Context, slots []domain.Slot) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, &domain.StoreError{Op: "upsert", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareNamedContext(ctx, upsertSlot)
	if err != nil {
		return 0, &domain.StoreError{Op: "upsert", Err: err}
	}
	defer stmt.Close()

	var affected int64
	for _, s := range slots {
		if s.CompositeKey == "" {
			s.CompositeKey = s.Key().String()
		}
		res, err := stmt.ExecContext(ctx, s)
		if err != nil {
			return 0, &domain.StoreError{Op: "upsert " + s.CompositeKey, Err: err}
		}
		n, _ := res.RowsAffected()
		affected += n
	}

	if err := tx.Commit(); err != nil {
		return 0, &domain.StoreError{Op: "upsert commit", Err: err}
	}
	return affected, nil
}

// Available returns every bookable future slot ordered by date then start time.
func (r *SlotRepo) Available(ctx context.Context, now time.Time) ([]domain.Slot, error) {
	return r.selectAvailable(ctx, "available", `
		SELECT * FROM courts
		WHERE `+availablePredicate+`
		ORDER BY date ASC, starts_at ASC, composite_key ASC
	`, clockArgs(now))
}

// AvailableByDate is Available restricted to a single YYYY-MM-DD date.
func (r *SlotRepo) AvailableByDate(ctx context.Context, date string, now time.Time) ([]domain.Slot, error) {
	args := clockArgs(now)
	args["date"] = date
	return r.selectAvailable(ctx, "available by date", `
		SELECT * FROM courts
		WHERE `+availablePredicate+`
		AND date = :date
		ORDER BY starts_at ASC, composite_key ASC
	`, args)
}

// AvailableByTimeRange is Available restricted to start times within [from, to] (HH:MM) on any date.
func (r *SlotRepo) AvailableByTimeRange(ctx context.Context, from, to string, now time.Time) ([]domain.Slot, error) {
	args := clockArgs(now)
	args["from"] = from
	args["to"] = to
	return r.selectAvailable(ctx, "available by time range", `
		SELECT * FROM courts
		WHERE `+availablePredicate+`
		AND starts_at BETWEEN :from AND :to
		ORDER BY date ASC, starts_at ASC, composite_key ASC
	`, args)
}

// Get returns the stored row for a composite key (sql.ErrNoRows if absent).
func (r *SlotRepo) Get(ctx context.Context, key string) (domain.Slot, error) {
	var s domain.Slot
	err := r.db.GetContext(ctx, &s, `SELECT * FROM courts WHERE composite_key = ?`, key)
	return s, err
}

// Count returns the number of stored rows, past ones included.
func (r *SlotRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM courts`); err != nil {
		return 0, &domain.StoreError{Op: "count", Err: err}
	}
	return n, nil
}

func (r *SlotRepo) selectAvailable(ctx context.Context, op, query string, args map[string]any) ([]domain.Slot, error) {
	q, params, err := sqlx.Named(query, args)
	if err != nil {
		return nil, &domain.StoreError{Op: op, Err: err}
	}
	out := []domain.Slot{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(q), params...); err != nil {
		return nil, &domain.StoreError{Op: op, Err: err}
	}
	return out, nil
}

func clockArgs(now time.Time) map[string]any {
	return map[string]any{
		"today": now.Format(domain.DateLayout),
		"now":   now.Format(domain.TimeLayout),
	}
}
