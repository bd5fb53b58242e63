package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/model"
)

// blockingSet is rendered once from the canonical status list so the
// SQL filters can never drift from the Go-side definition.
var blockingSet = func() string {
	quoted := make([]string, len(model.BlockingStatuses))
	for i, s := range model.BlockingStatuses {
		quoted[i] = "'" + string(s) + "'"
	}
	return "(" + strings.Join(quoted, ",") + ")"
}()

// ReservationRepo persists reservations and implements ledger.Store.
// Date ranges are compared with Postgres daterange operators; the
// reservations_no_overlap and reservations_captain_no_overlap
// exclusion constraints back up every write (see migrations).
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a ReservationRepo bound to db.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationCols = `id, boat_id, user_id, captain_id, start_date, end_exclusive,
	status, requester_name, requester_email, notes, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var (
		res               model.Reservation
		userID, captainID sql.NullString
		reqName, reqEmail sql.NullString
		notes             sql.NullString
		status            string
	)
	err := row.Scan(&res.ID, &res.BoatID, &userID, &captainID, &res.StartDate, &res.EndExclusive,
		&status, &reqName, &reqEmail, &notes, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Status = model.Status(status)
	res.UserID = fromNull(userID)
	res.CaptainID = fromNull(captainID)
	res.RequesterName = fromNull(reqName)
	res.RequesterEmail = fromNull(reqEmail)
	res.Notes = fromNull(notes)
	return res, nil
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func toNull(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// GetReservation loads a single row by id.
func (r *ReservationRepo) GetReservation(ctx context.Context, id string) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+reservationCols+` FROM reservations WHERE id = $1`, id)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ledger.ErrNotFound
	}
	return res, err
}

// CreateReservation inserts the row and fills in the generated
// timestamps. An exclusion-constraint rejection surfaces as
// ledger.ErrRangeConflict.
func (r *ReservationRepo) CreateReservation(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations
		(id, boat_id, user_id, captain_id, start_date, end_exclusive, status, requester_name, requester_email, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, q,
		res.ID, res.BoatID, toNull(res.UserID), toNull(res.CaptainID),
		res.StartDate, res.EndExclusive, string(res.Status),
		toNull(res.RequesterName), toNull(res.RequesterEmail), toNull(res.Notes),
	).Scan(&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return mapWriteError(err)
	}
	return nil
}

// UpdateReservationStatus is a compare-and-set: the UPDATE matches the
// current status so a raced decision fails with ErrNotFound instead
// of applying twice.
func (r *ReservationRepo) UpdateReservationStatus(ctx context.Context, id string, from, to model.Status) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE reservations SET status = $3, updated_at = now()
		 WHERE id = $1 AND status = $2
		 RETURNING `+reservationCols, id, string(from), string(to))
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ledger.ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, mapWriteError(err)
	}
	return res, nil
}

// UpdateReservationRange rewrites the half-open range; the exclusion
// constraints re-check the new range at commit.
func (r *ReservationRepo) UpdateReservationRange(ctx context.Context, id string, start, endExclusive time.Time) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE reservations SET start_date = $2, end_exclusive = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING `+reservationCols, id, start, endExclusive)
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ledger.ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, mapWriteError(err)
	}
	return res, nil
}

// SetReservationCaptain assigns or clears the captain.
func (r *ReservationRepo) SetReservationCaptain(ctx context.Context, id string, captainID *string) (model.Reservation, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE reservations SET captain_id = $2, updated_at = now()
		 WHERE id = $1
		 RETURNING `+reservationCols, id, toNull(captainID))
	res, err := scanReservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Reservation{}, ledger.ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, mapWriteError(err)
	}
	return res, nil
}

// DeleteReservation removes the row only when it still holds
// onlyStatus. Used for block removal; real reservations are never
// deleted.
func (r *ReservationRepo) DeleteReservation(ctx context.Context, id string, onlyStatus model.Status) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM reservations WHERE id = $1 AND status = $2`, id, string(onlyStatus))
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

// HasBoatOverlap is the optimistic pre-check for a boat's calendar.
// Two half-open ranges intersect iff each starts before the other
// ends; daterange(...,'[)') && expresses exactly that.
func (r *ReservationRepo) HasBoatOverlap(ctx context.Context, boatID string, start, endExclusive time.Time, excludeID string) (bool, error) {
	q := `SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE boat_id = $1
		  AND status IN ` + blockingSet + `
		  AND daterange(start_date, end_exclusive, '[)') && daterange($2::date, $3::date, '[)')
		  AND ($4::uuid IS NULL OR id <> $4::uuid))`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, boatID, start, endExclusive, nullID(excludeID)).Scan(&exists)
	return exists, err
}

// HasCaptainOverlap checks a captain's calendar, matching the id
// against both captain_id and user_id so dual-role users cannot be
// double-booked.
func (r *ReservationRepo) HasCaptainOverlap(ctx context.Context, captainID string, start, endExclusive time.Time, excludeID string) (bool, error) {
	q := `SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE (captain_id = $1 OR user_id = $1)
		  AND status IN ` + blockingSet + `
		  AND daterange(start_date, end_exclusive, '[)') && daterange($2::date, $3::date, '[)')
		  AND ($4::uuid IS NULL OR id <> $4::uuid))`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, captainID, start, endExclusive, nullID(excludeID)).Scan(&exists)
	return exists, err
}

func nullID(id string) any {
	if id == "" {
		return nil
	}
	return id
}

// ListSchedule returns the anonymized blocking-set projection for the
// window, across all boats.
func (r *ReservationRepo) ListSchedule(ctx context.Context, start, endExclusive time.Time) ([]model.ScheduleEntry, error) {
	q := `SELECT id, boat_id, start_date, end_exclusive, status
		FROM reservations
		WHERE status IN ` + blockingSet + `
		  AND daterange(start_date, end_exclusive, '[)') && daterange($1::date, $2::date, '[)')
		ORDER BY boat_id, start_date`
	rows, err := r.db.QueryContext(ctx, q, start, endExclusive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ScheduleEntry, 0)
	for rows.Next() {
		var e model.ScheduleEntry
		var status string
		if err := rows.Scan(&e.ID, &e.BoatID, &e.StartDate, &e.EndExclusive, &status); err != nil {
			return nil, err
		}
		e.Status = model.Status(status)
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListAvailableCaptains returns captains with no blocking-set row
// (as captain or as requester) intersecting the window.
func (r *ReservationRepo) ListAvailableCaptains(ctx context.Context, start, endExclusive time.Time, limit int) ([]model.User, error) {
	q := `SELECT u.id, u.email, u.phone, u.first_name, u.last_name,
			u.is_admin, u.is_goldmember, u.is_captain, u.created_at, u.updated_at
		FROM users u
		WHERE u.is_captain = true
		  AND NOT EXISTS (
			SELECT 1 FROM reservations r
			WHERE (r.captain_id = u.id OR r.user_id = u.id)
			  AND r.status IN ` + blockingSet + `
			  AND daterange(r.start_date, r.end_exclusive, '[)') && daterange($1::date, $2::date, '[)'))
		ORDER BY u.first_name NULLS LAST, u.last_name NULLS LAST, u.email
		LIMIT $3`
	rows, err := r.db.QueryContext(ctx, q, start, endExclusive, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.User, 0)
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// GetUser satisfies the ledger.Store port; the fuller user queries
// live on UserRepo.
func (r *ReservationRepo) GetUser(ctx context.Context, id string) (model.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, phone, first_name, last_name, is_admin, is_goldmember, is_captain, created_at, updated_at
		 FROM users WHERE id = $1`, id)
	u, err := scanUserRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ledger.ErrNotFound
	}
	return u, err
}

// GetBoat satisfies the ledger.Store port.
func (r *ReservationRepo) GetBoat(ctx context.Context, id string) (model.Boat, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, type, capacity, number_of_beds, location, image_url, description, active, created_at, updated_at
		 FROM boats WHERE id = $1`, id)
	b, err := scanBoatRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Boat{}, ledger.ErrNotFound
	}
	return b, err
}

// ListByUser returns a user's reservations joined with the boat name,
// newest first, capped at 200 rows.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID string) ([]model.ReservationWithBoat, error) {
	q := `SELECT r.id, r.boat_id, r.user_id, r.captain_id, r.start_date, r.end_exclusive,
			r.status, r.requester_name, r.requester_email, r.notes, r.created_at, r.updated_at,
			b.name
		FROM reservations r
		JOIN boats b ON b.id = r.boat_id
		WHERE r.user_id = $1
		ORDER BY r.start_date DESC
		LIMIT 200`
	return r.queryWithBoat(ctx, q, userID)
}

// ListWindow returns every reservation starting inside
// [start, start+days), with requester detail, for the admin listing.
func (r *ReservationRepo) ListWindow(ctx context.Context, start time.Time, days int) ([]model.ReservationWithBoat, error) {
	q := `SELECT r.id, r.boat_id, r.user_id, r.captain_id, r.start_date, r.end_exclusive,
			r.status, r.requester_name, r.requester_email, r.notes, r.created_at, r.updated_at,
			b.name
		FROM reservations r
		JOIN boats b ON b.id = r.boat_id
		WHERE r.start_date >= $1::date
		  AND r.start_date < $1::date + $2::int
		ORDER BY r.start_date ASC, b.name ASC`
	return r.queryWithBoat(ctx, q, start, days)
}

// ListPending returns the admin inbox: PENDING requests, newest first.
func (r *ReservationRepo) ListPending(ctx context.Context) ([]model.ReservationWithBoat, error) {
	q := `SELECT r.id, r.boat_id, r.user_id, r.captain_id, r.start_date, r.end_exclusive,
			r.status, r.requester_name, r.requester_email, r.notes, r.created_at, r.updated_at,
			b.name
		FROM reservations r
		JOIN boats b ON b.id = r.boat_id
		WHERE r.status = 'PENDING'
		ORDER BY r.created_at DESC`
	return r.queryWithBoat(ctx, q)
}

func (r *ReservationRepo) queryWithBoat(ctx context.Context, q string, args ...any) ([]model.ReservationWithBoat, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.ReservationWithBoat, 0)
	for rows.Next() {
		var (
			item                     model.ReservationWithBoat
			userID, captainID        sql.NullString
			reqName, reqEmail, notes sql.NullString
			status                   string
		)
		if err := rows.Scan(&item.ID, &item.BoatID, &userID, &captainID, &item.StartDate, &item.EndExclusive,
			&status, &reqName, &reqEmail, &notes, &item.CreatedAt, &item.UpdatedAt, &item.BoatName); err != nil {
			return nil, err
		}
		item.Status = model.Status(status)
		item.UserID = fromNull(userID)
		item.CaptainID = fromNull(captainID)
		item.RequesterName = fromNull(reqName)
		item.RequesterEmail = fromNull(reqEmail)
		item.Notes = fromNull(notes)
		out = append(out, item)
	}
	return out, rows.Err()
}

func scanUserRow(row rowScanner) (model.User, error) {
	var (
		u           model.User
		first, last sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.Phone, &first, &last,
		&u.IsAdmin, &u.IsGoldMember, &u.IsCaptain, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	u.FirstName = fromNull(first)
	u.LastName = fromNull(last)
	return u, nil
}

func scanBoatRow(row rowScanner) (model.Boat, error) {
	var (
		b            model.Boat
		image, descr sql.NullString
	)
	err := row.Scan(&b.ID, &b.Name, &b.Type, &b.Capacity, &b.Beds, &b.Location,
		&image, &descr, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Boat{}, err
	}
	b.ImageURL = fromNull(image)
	b.Description = fromNull(descr)
	return b, nil
}
