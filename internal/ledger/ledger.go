package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bluewater/fleet-reservation/internal/model"
)

// Policy knobs. The HTTP layer clamps or rejects before calling in,
// the ledger rejects again so no caller can sidestep them.
const (
	MaxRequestDays  = 30  // public request path
	MaxBlockDays    = 60  // admin block path
	MaxScheduleDays = 31  // anonymized schedule projection
	CaptainListCap  = 200 // listAvailableCaptains result cap
)

// Actor is the authenticated identity performing an operation. The
// identity provider (JWT middleware) fills it in; the ledger never
// looks at tokens.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// Ledger enforces the reservation invariants over a Store. It holds
// no state of its own; every operation is one unit of work against
// the store.
type Ledger struct {
	store Store
	now   func() time.Time
	loc   *time.Location // business timezone anchoring "today"
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock pins the clock, used by tests to make "today" deterministic.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithTimezone sets the business timezone used for the civil "today"
// comparison on edit/cancel eligibility. Defaults to UTC.
func WithTimezone(loc *time.Location) Option {
	return func(l *Ledger) { l.loc = loc }
}

// New builds a Ledger over the given store.
func New(store Store, opts ...Option) *Ledger {
	if store == nil {
		panic("nil store passed to ledger.New")
	}
	l := &Ledger{store: store, now: time.Now, loc: time.UTC}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// today returns the current civil date in the business timezone.
func (l *Ledger) today() time.Time { return midnightIn(l.now(), l.loc) }

// RequestInput carries a user's reservation request. Name, email and
// notes are snapshotted onto the row so it survives user deletion.
type RequestInput struct {
	BoatID         string
	StartDate      string // "YYYY-MM-DD"
	DurationDays   int
	UserID         string
	RequesterName  string
	RequesterEmail string
	Notes          string
}

// RequestReservation validates a request, pre-checks the boat's
// calendar and inserts a PENDING row. A racing request that slips
// past the pre-check is caught by the store constraint and still
// comes back as *OverlapError.
func (l *Ledger) RequestReservation(ctx context.Context, in RequestInput) (model.Reservation, error) {
	if in.BoatID == "" {
		return model.Reservation{}, invalidf("boatId", "required")
	}
	start, err := ParseDate(in.StartDate)
	if err != nil {
		return model.Reservation{}, &ValidationError{Field: "startDate", Reason: err.Error()}
	}
	if in.DurationDays < 1 || in.DurationDays > MaxRequestDays {
		return model.Reservation{}, invalidf("durationDays", "must be between 1 and %d", MaxRequestDays)
	}
	boat, err := l.store.GetBoat(ctx, in.BoatID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Reservation{}, invalidf("boatId", "no such boat")
		}
		return model.Reservation{}, err
	}
	if !boat.Active {
		return model.Reservation{}, invalidf("boatId", "boat is not active")
	}

	end := AddDays(start, in.DurationDays)
	r := model.Reservation{
		ID:             uuid.NewString(),
		BoatID:         boat.ID,
		UserID:         optional(in.UserID),
		StartDate:      start,
		EndExclusive:   end,
		Status:         model.StatusPending,
		RequesterName:  optional(in.RequesterName),
		RequesterEmail: optional(in.RequesterEmail),
		Notes:          optional(in.Notes),
	}
	return l.insert(ctx, r)
}

// CreateBlock inserts an admin maintenance block: a BLOCKED row with
// no user identity and synthetic requester fields. Callers must have
// authenticated the actor as an admin before invoking.
func (l *Ledger) CreateBlock(ctx context.Context, boatID, startDate string, days int, note string) (model.Reservation, error) {
	if boatID == "" {
		return model.Reservation{}, invalidf("boatId", "required")
	}
	start, err := ParseDate(startDate)
	if err != nil {
		return model.Reservation{}, &ValidationError{Field: "startDate", Reason: err.Error()}
	}
	if days < 1 || days > MaxBlockDays {
		return model.Reservation{}, invalidf("days", "must be between 1 and %d", MaxBlockDays)
	}
	if _, err := l.store.GetBoat(ctx, boatID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.Reservation{}, invalidf("boatId", "no such boat")
		}
		return model.Reservation{}, err
	}

	name, email := "ADMIN", "admin"
	r := model.Reservation{
		ID:             uuid.NewString(),
		BoatID:         boatID,
		StartDate:      start,
		EndExclusive:   AddDays(start, days),
		Status:         model.StatusBlocked,
		RequesterName:  &name,
		RequesterEmail: &email,
		Notes:          optional(note),
	}
	return l.insert(ctx, r)
}

// insert runs the overlap pre-check and writes the row, translating a
// constraint rejection into the same *OverlapError the pre-check
// produces.
func (l *Ledger) insert(ctx context.Context, r model.Reservation) (model.Reservation, error) {
	busy, err := l.store.HasBoatOverlap(ctx, r.BoatID, r.StartDate, r.EndExclusive, "")
	if err != nil {
		return model.Reservation{}, err
	}
	if busy {
		return model.Reservation{}, l.overlap(r.BoatID, r.StartDate, r.EndExclusive)
	}
	if err := l.store.CreateReservation(ctx, &r); err != nil {
		if errors.Is(err, ErrRangeConflict) {
			return model.Reservation{}, l.overlap(r.BoatID, r.StartDate, r.EndExclusive)
		}
		return model.Reservation{}, err
	}
	return r, nil
}

// SetStatus drives the one-shot state machine. Allowed transitions
// are PENDING -> {APPROVED, DENIED, CANCELLED, BLOCKED}; anything
// else fails with *InvalidTransitionError. Non-admin actors may only
// cancel their own PENDING reservation, and only while its start date
// is strictly in the future.
func (l *Ledger) SetStatus(ctx context.Context, id string, next model.Status, actor Actor) (model.Reservation, error) {
	switch next {
	case model.StatusApproved, model.StatusDenied, model.StatusCancelled, model.StatusBlocked:
	default:
		return model.Reservation{}, invalidf("status", "%q is not a reachable status", string(next))
	}

	r, err := l.store.GetReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}

	if !actor.IsAdmin {
		if next != model.StatusCancelled {
			return model.Reservation{}, ErrForbidden
		}
		if r.UserID == nil || *r.UserID != actor.UserID {
			// Not the caller's row; do not reveal that it exists.
			return model.Reservation{}, ErrNotFound
		}
		if !r.StartDate.After(l.today()) {
			return model.Reservation{}, &InvalidTransitionError{
				Current: r.Status, Requested: next,
				Reason: "start date is not in the future",
			}
		}
	}

	if r.Status != model.StatusPending {
		return model.Reservation{}, &InvalidTransitionError{Current: r.Status, Requested: next}
	}

	// Approving or blocking re-occupies the range, so re-validate even
	// though a PENDING row already held it: a concurrent edit can have
	// moved things around since the read above.
	if next == model.StatusApproved || next == model.StatusBlocked {
		busy, err := l.store.HasBoatOverlap(ctx, r.BoatID, r.StartDate, r.EndExclusive, r.ID)
		if err != nil {
			return model.Reservation{}, err
		}
		if busy {
			return model.Reservation{}, l.overlap(r.BoatID, r.StartDate, r.EndExclusive)
		}
	}

	updated, err := l.store.UpdateReservationStatus(ctx, id, model.StatusPending, next)
	if err != nil {
		switch {
		case errors.Is(err, ErrRangeConflict):
			return model.Reservation{}, l.overlap(r.BoatID, r.StartDate, r.EndExclusive)
		case errors.Is(err, ErrNotFound):
			// Raced: someone else decided first.
			return model.Reservation{}, &InvalidTransitionError{Current: r.Status, Requested: next, Reason: "already decided"}
		}
		return model.Reservation{}, err
	}
	return updated, nil
}

// EditReservation moves a PENDING, still-future reservation to a new
// date range, re-validating both the boat's calendar and, when a
// captain is already assigned, the captain's calendar.
func (l *Ledger) EditReservation(ctx context.Context, id, newStart, newEndExclusive string, actor Actor) (model.Reservation, error) {
	start, err := ParseDate(newStart)
	if err != nil {
		return model.Reservation{}, &ValidationError{Field: "startDate", Reason: err.Error()}
	}
	end, err := ParseDate(newEndExclusive)
	if err != nil {
		return model.Reservation{}, &ValidationError{Field: "endExclusive", Reason: err.Error()}
	}
	if !end.After(start) {
		return model.Reservation{}, invalidf("endExclusive", "must be after startDate")
	}

	r, err := l.store.GetReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if !actor.IsAdmin && (r.UserID == nil || *r.UserID != actor.UserID) {
		return model.Reservation{}, ErrNotFound
	}
	if r.Status != model.StatusPending {
		return model.Reservation{}, &InvalidTransitionError{Current: r.Status, Reason: "only PENDING reservations can be edited"}
	}
	if !r.StartDate.After(l.today()) {
		return model.Reservation{}, &InvalidTransitionError{Current: r.Status, Reason: "start date is not in the future"}
	}

	busy, err := l.store.HasBoatOverlap(ctx, r.BoatID, start, end, r.ID)
	if err != nil {
		return model.Reservation{}, err
	}
	if busy {
		return model.Reservation{}, l.overlap(r.BoatID, start, end)
	}
	if r.CaptainID != nil {
		taken, err := l.store.HasCaptainOverlap(ctx, *r.CaptainID, start, end, r.ID)
		if err != nil {
			return model.Reservation{}, err
		}
		if taken {
			return model.Reservation{}, &OverlapError{CaptainID: *r.CaptainID, StartDate: start, EndExclusive: end}
		}
	}

	updated, err := l.store.UpdateReservationRange(ctx, id, start, end)
	if err != nil {
		if errors.Is(err, ErrRangeConflict) {
			return model.Reservation{}, l.overlap(r.BoatID, start, end)
		}
		return model.Reservation{}, err
	}
	return updated, nil
}

// DeleteBlock removes an admin block. Rows in any other status are
// reported as not found and left untouched: real reservations keep
// their audit history and are resolved through SetStatus instead.
func (l *Ledger) DeleteBlock(ctx context.Context, id string) error {
	r, err := l.store.GetReservation(ctx, id)
	if err != nil {
		return err
	}
	if r.Status != model.StatusBlocked {
		return ErrNotFound
	}
	return l.store.DeleteReservation(ctx, id, model.StatusBlocked)
}

// AssignCaptain sets (or, with nil, clears) the captain on a
// reservation. Gold-member requesters are self-sufficient: assignment
// is rejected outright rather than silently ignored, whatever the
// captainID value.
func (l *Ledger) AssignCaptain(ctx context.Context, id string, captainID *string) (model.Reservation, error) {
	r, err := l.store.GetReservation(ctx, id)
	if err != nil {
		return model.Reservation{}, err
	}
	if r.UserID != nil {
		u, err := l.store.GetUser(ctx, *r.UserID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return model.Reservation{}, err
		}
		if err == nil && u.IsGoldMember {
			return model.Reservation{}, invalidf("captainId", "requester is a gold member; captain assignment does not apply")
		}
	}

	if captainID != nil {
		capt, err := l.store.GetUser(ctx, *captainID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return model.Reservation{}, invalidf("captainId", "no such user")
			}
			return model.Reservation{}, err
		}
		if !capt.IsCaptain {
			return model.Reservation{}, invalidf("captainId", "user does not have the captain role")
		}
		taken, err := l.store.HasCaptainOverlap(ctx, capt.ID, r.StartDate, r.EndExclusive, r.ID)
		if err != nil {
			return model.Reservation{}, err
		}
		if taken {
			return model.Reservation{}, &OverlapError{CaptainID: capt.ID, StartDate: r.StartDate, EndExclusive: r.EndExclusive}
		}
	}

	updated, err := l.store.SetReservationCaptain(ctx, id, captainID)
	if err != nil {
		if errors.Is(err, ErrRangeConflict) && captainID != nil {
			return model.Reservation{}, &OverlapError{CaptainID: *captainID, StartDate: r.StartDate, EndExclusive: r.EndExclusive}
		}
		return model.Reservation{}, err
	}
	return updated, nil
}

// AvailableCaptains lists captains free over [start, endExclusive),
// matched against both their assignments and their own bookings.
func (l *Ledger) AvailableCaptains(ctx context.Context, startDate, endExclusive string) ([]model.User, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, &ValidationError{Field: "start", Reason: err.Error()}
	}
	end, err := ParseDate(endExclusive)
	if err != nil {
		return nil, &ValidationError{Field: "end", Reason: err.Error()}
	}
	if !end.After(start) {
		return nil, invalidf("end", "must be after start")
	}
	return l.store.ListAvailableCaptains(ctx, start, end, CaptainListCap)
}

// Schedule returns the anonymized availability projection for
// [start, start+days) across all boats.
func (l *Ledger) Schedule(ctx context.Context, startDate string, days int) ([]model.ScheduleEntry, error) {
	start, err := ParseDate(startDate)
	if err != nil {
		return nil, &ValidationError{Field: "start", Reason: err.Error()}
	}
	if days < 1 || days > MaxScheduleDays {
		return nil, invalidf("days", "must be between 1 and %d", MaxScheduleDays)
	}
	return l.store.ListSchedule(ctx, start, AddDays(start, days))
}

func (l *Ledger) overlap(boatID string, start, end time.Time) *OverlapError {
	return &OverlapError{BoatID: boatID, StartDate: start, EndExclusive: end}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
