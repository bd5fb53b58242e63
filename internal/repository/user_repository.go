package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/model"
	"github.com/bluewater/fleet-reservation/internal/utils"
)

// UserRepo provides account lookup and admin user management over the
// `users` table. Emails are normalized to lowercase before any query
// so uniqueness is effectively case-insensitive.
type UserRepo struct{ db *sql.DB }

// NewUserRepo returns a UserRepo bound to db.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userCols = `id, email, phone, password_hash, first_name, last_name,
	is_admin, is_goldmember, is_captain, created_at, updated_at`

func scanUser(row rowScanner) (model.User, error) {
	var (
		u           model.User
		first, last sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &first, &last,
		&u.IsAdmin, &u.IsGoldMember, &u.IsCaptain, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.FirstName = fromNull(first)
	u.LastName = fromNull(last)
	return u, nil
}

// Create hashes the password, inserts the user and fills in the
// generated fields. A duplicate email comes back as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User, password string, cost int) error {
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return err
	}
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.PasswordHash = hash
	const q = `INSERT INTO users (id, email, phone, password_hash, first_name, last_name, is_admin, is_goldmember, is_captain)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING created_at, updated_at`
	err = r.db.QueryRowContext(ctx, q,
		u.ID, u.Email, u.Phone, u.PasswordHash, toNull(u.FirstName), toNull(u.LastName),
		u.IsAdmin, u.IsGoldMember, u.IsCaptain,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ledger.ErrNotFound
	}
	return u, err
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ledger.ErrNotFound
	}
	return u, err
}

// Search lists users matching q against email or name (empty q lists
// everyone), newest first, capped at 200.
func (r *UserRepo) Search(ctx context.Context, q string) ([]model.User, error) {
	const query = `SELECT ` + userCols + ` FROM users
		WHERE ($1 = '' OR
			email ILIKE '%' || $1 || '%' OR
			COALESCE(first_name,'') ILIKE '%' || $1 || '%' OR
			COALESCE(last_name,'') ILIKE '%' || $1 || '%')
		ORDER BY created_at DESC
		LIMIT 200`
	rows, err := r.db.QueryContext(ctx, query, strings.TrimSpace(q))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// UpdateProfile applies a partial update; nil fields keep their
// current value (COALESCE).
func (r *UserRepo) UpdateProfile(ctx context.Context, id string, phone, firstName, lastName *string) (model.User, error) {
	const q = `UPDATE users
		SET phone = COALESCE($2, phone),
		    first_name = COALESCE($3, first_name),
		    last_name = COALESCE($4, last_name),
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + userCols
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id, toNull(phone), toNull(firstName), toNull(lastName)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ledger.ErrNotFound
	}
	return u, err
}

// SetGoldMember toggles the gold-member flag.
func (r *UserRepo) SetGoldMember(ctx context.Context, id string, gold bool) (model.User, error) {
	return r.setFlag(ctx, id, "is_goldmember", gold)
}

// SetCaptain toggles the captain flag.
func (r *UserRepo) SetCaptain(ctx context.Context, id string, captain bool) (model.User, error) {
	return r.setFlag(ctx, id, "is_captain", captain)
}

func (r *UserRepo) setFlag(ctx context.Context, id, column string, v bool) (model.User, error) {
	// column comes from the two callers above, never from input.
	q := `UPDATE users SET ` + column + ` = $2, updated_at = now() WHERE id = $1 RETURNING ` + userCols
	u, err := scanUser(r.db.QueryRowContext(ctx, q, id, v))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ledger.ErrNotFound
	}
	return u, err
}

// Delete removes a user. Reservations keep their snapshot fields and
// their user_id goes NULL via the FK's ON DELETE SET NULL.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ledger.ErrNotFound
	}
	return nil
}
