package ledger

import (
	"context"
	"time"

	"github.com/bluewater/fleet-reservation/internal/model"
)

// Store is the persistence port the ledger drives. The Postgres
// implementation lives in internal/repository; an in-memory
// implementation for tests and local development lives in
// internal/ledger/memstore.
//
// Correctness contract: CreateReservation, UpdateReservationRange and
// SetReservationCaptain must enforce the non-overlap invariant at
// commit time (a range-exclusion constraint in Postgres) and return
// ErrRangeConflict when it is violated. The ledger's own overlap
// pre-checks exist only to give the common case a friendly rejection;
// they are not the correctness mechanism, because two racing requests
// can both pass the pre-check before either commits.
type Store interface {
	// GetReservation returns ErrNotFound when id does not resolve.
	GetReservation(ctx context.Context, id string) (model.Reservation, error)

	// CreateReservation inserts r and fills in generated fields
	// (CreatedAt, UpdatedAt).
	CreateReservation(ctx context.Context, r *model.Reservation) error

	// UpdateReservationStatus flips status only when the row currently
	// holds `from` (compare-and-set); it returns ErrNotFound when no
	// row matched, so a raced transition surfaces instead of applying
	// twice.
	UpdateReservationStatus(ctx context.Context, id string, from, to model.Status) (model.Reservation, error)

	// UpdateReservationRange rewrites the date range of a reservation.
	UpdateReservationRange(ctx context.Context, id string, start, endExclusive time.Time) (model.Reservation, error)

	// SetReservationCaptain assigns or clears (nil) the captain.
	SetReservationCaptain(ctx context.Context, id string, captainID *string) (model.Reservation, error)

	// DeleteReservation removes the row only if it currently holds
	// onlyStatus; otherwise ErrNotFound.
	DeleteReservation(ctx context.Context, id string, onlyStatus model.Status) error

	// HasBoatOverlap reports whether any blocking-set reservation on
	// the boat intersects [start, endExclusive), ignoring excludeID
	// (pass "" to exclude nothing).
	HasBoatOverlap(ctx context.Context, boatID string, start, endExclusive time.Time, excludeID string) (bool, error)

	// HasCaptainOverlap is the captain-side variant; the captain is
	// matched against both captain_id and user_id so dual-role users
	// cannot be double-booked.
	HasCaptainOverlap(ctx context.Context, captainID string, start, endExclusive time.Time, excludeID string) (bool, error)

	// ListSchedule returns blocking-set reservations intersecting
	// [start, endExclusive) across all boats, ordered by boat then
	// start date, stripped of requester identity.
	ListSchedule(ctx context.Context, start, endExclusive time.Time) ([]model.ScheduleEntry, error)

	// ListAvailableCaptains returns captains with no blocking-set
	// reservation intersecting [start, endExclusive), ordered by first
	// name, last name, email (nulls last), capped at limit.
	ListAvailableCaptains(ctx context.Context, start, endExclusive time.Time, limit int) ([]model.User, error)

	// GetUser returns ErrNotFound when id does not resolve.
	GetUser(ctx context.Context, id string) (model.User, error)

	// GetBoat returns ErrNotFound when id does not resolve.
	GetBoat(ctx context.Context, id string) (model.Boat, error)
}
