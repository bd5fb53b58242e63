package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/model"
)

// BoatRepo manages the fleet. Boats are soft-deleted by flipping
// `active`; the row and its reservation history stay put.
type BoatRepo struct{ db *sql.DB }

// NewBoatRepo returns a BoatRepo bound to db.
func NewBoatRepo(db *sql.DB) *BoatRepo { return &BoatRepo{db: db} }

const boatCols = `id, name, type, capacity, number_of_beds, location, image_url, description, active, created_at, updated_at`

// ListActive returns active boats ordered by name.
func (r *BoatRepo) ListActive(ctx context.Context) ([]model.Boat, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+boatCols+` FROM boats WHERE active = true ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Boat, 0)
	for rows.Next() {
		b, err := scanBoatRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// GetByID fetches one boat, active or not.
func (r *BoatRepo) GetByID(ctx context.Context, id string) (model.Boat, error) {
	b, err := scanBoatRow(r.db.QueryRowContext(ctx,
		`SELECT `+boatCols+` FROM boats WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Boat{}, ledger.ErrNotFound
	}
	return b, err
}

// Create inserts a boat and fills in generated fields.
func (r *BoatRepo) Create(ctx context.Context, b *model.Boat) error {
	b.ID = uuid.NewString()
	b.Active = true
	const q = `INSERT INTO boats (id, name, type, capacity, number_of_beds, location, image_url, description, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`
	return r.db.QueryRowContext(ctx, q,
		b.ID, b.Name, b.Type, b.Capacity, b.Beds, b.Location,
		toNull(b.ImageURL), toNull(b.Description), b.Active,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// SetActive toggles the soft-delete flag.
func (r *BoatRepo) SetActive(ctx context.Context, id string, active bool) (model.Boat, error) {
	b, err := scanBoatRow(r.db.QueryRowContext(ctx,
		`UPDATE boats SET active = $2, updated_at = now() WHERE id = $1 RETURNING `+boatCols, id, active))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Boat{}, ledger.ErrNotFound
	}
	return b, err
}
