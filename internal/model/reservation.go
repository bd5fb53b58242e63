package model

import "time"

// Status enumerates the lifecycle states of a reservation row.
// PENDING is the initial state for user requests; BLOCKED is the
// alternate initial state used for admin maintenance blocks.
// CHANGE_REQUESTED and CANCEL_REQUESTED are declared because they
// participate in the blocking set, but no operation currently
// produces or consumes them.
type Status string

const (
	StatusPending         Status = "PENDING"
	StatusApproved        Status = "APPROVED"
	StatusDenied          Status = "DENIED"
	StatusCancelled       Status = "CANCELLED"
	StatusBlocked         Status = "BLOCKED"
	StatusChangeRequested Status = "CHANGE_REQUESTED"
	StatusCancelRequested Status = "CANCEL_REQUESTED"
)

// BlockingStatuses lists every status that occupies dates. Two
// reservations on the same boat whose statuses are both in this set
// must never have intersecting date ranges. DENIED and CANCELLED are
// deliberately absent: they free the dates they once held.
var BlockingStatuses = []Status{
	StatusPending,
	StatusApproved,
	StatusBlocked,
	StatusChangeRequested,
	StatusCancelRequested,
}

// Blocks reports whether a reservation in this status occupies its
// date range for overlap purposes.
func (s Status) Blocks() bool {
	switch s {
	case StatusPending, StatusApproved, StatusBlocked, StatusChangeRequested, StatusCancelRequested:
		return true
	}
	return false
}

// Valid reports whether s is one of the declared statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusDenied, StatusCancelled,
		StatusBlocked, StatusChangeRequested, StatusCancelRequested:
		return true
	}
	return false
}

// Reservation is the canonical record for a booked (or requested)
// date range on a boat. Handlers and repositories map to and from
// this one shape at the store boundary.
//
// StartDate and EndExclusive form a half-open civil-date range
// [StartDate, EndExclusive); both are stored at UTC midnight with no
// time-of-day component. UserID is nil for admin blocks. CaptainID is
// assigned after creation and is never set when the requester is a
// gold member. RequesterName/Email/Notes are a snapshot taken at
// creation time so the row stays meaningful if the user is deleted.
type Reservation struct {
	ID             string    // reservations.id (uuid)
	BoatID         string    // reservations.boat_id
	UserID         *string   // reservations.user_id (nullable)
	CaptainID      *string   // reservations.captain_id (nullable)
	StartDate      time.Time // reservations.start_date (civil date)
	EndExclusive   time.Time // reservations.end_exclusive (civil date)
	Status         Status    // reservations.status
	RequesterName  *string   // reservations.requester_name (nullable)
	RequesterEmail *string   // reservations.requester_email (nullable)
	Notes          *string   // reservations.notes (nullable)
	CreatedAt      time.Time // reservations.created_at
	UpdatedAt      time.Time // reservations.updated_at
}

// ScheduleEntry is the anonymized projection returned to non-admin
// callers: it says a boat is unavailable without saying for whom.
type ScheduleEntry struct {
	ID           string    `json:"id"`
	BoatID       string    `json:"boatId"`
	StartDate    time.Time `json:"startDate"`
	EndExclusive time.Time `json:"endExclusive"`
	Status       Status    `json:"status"`
}

// ReservationWithBoat joins a reservation with the owning boat's name
// for listings (admin window, "my reservations").
type ReservationWithBoat struct {
	Reservation
	BoatName string
}
