// Package ledger owns the reservation rules for the fleet: who may
// hold which boat over which date range, and how a reservation moves
// through its lifecycle. All state lives in the Store; the ledger
// itself holds no mutable state and every operation is a single unit
// of work.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/bluewater/fleet-reservation/internal/model"
)

// ErrNotFound is returned when an id does not resolve, or when the
// resource exists but does not belong to the caller. Handlers
// translate it into an HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the actor lacks the rights for an
// operation (e.g. a non-admin approving a request). Handlers
// translate it into an HTTP 403.
var ErrForbidden = errors.New("forbidden")

// ErrRangeConflict is the sentinel a Store implementation returns
// when the database's range-exclusion constraint rejects a write.
// The ledger wraps it into an *OverlapError before it reaches a
// handler; it exists so store code never has to build domain errors.
var ErrRangeConflict = errors.New("range conflict")

// ValidationError reports malformed or out-of-policy input (HTTP 400).
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// InvalidTransitionError reports that a reservation's current status
// is not eligible for the requested change (HTTP 400). Approve and
// deny act exactly once: anything not PENDING stays where it is.
type InvalidTransitionError struct {
	Current   model.Status
	Requested model.Status
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	switch {
	case e.Requested == "" && e.Reason != "":
		return fmt.Sprintf("reservation is %s: %s", e.Current, e.Reason)
	case e.Reason != "":
		return fmt.Sprintf("cannot move %s reservation to %s: %s", e.Current, e.Requested, e.Reason)
	default:
		return fmt.Sprintf("cannot move %s reservation to %s", e.Current, e.Requested)
	}
}

// OverlapError reports that a date range collides with an existing
// blocking-set reservation on the same boat, or with a captain's
// existing assignment (HTTP 409).
type OverlapError struct {
	BoatID       string
	CaptainID    string // set instead of BoatID for captain conflicts
	StartDate    time.Time
	EndExclusive time.Time
}

func (e *OverlapError) Error() string {
	if e.CaptainID != "" {
		return fmt.Sprintf("captain %s already has a reservation overlapping [%s, %s)",
			e.CaptainID, FormatDate(e.StartDate), FormatDate(e.EndExclusive))
	}
	return fmt.Sprintf("boat %s already booked for part of [%s, %s)",
		e.BoatID, FormatDate(e.StartDate), FormatDate(e.EndExclusive))
}
