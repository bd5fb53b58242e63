// Package memstore provides an in-memory ledger.Store used by the
// test suite and for local development without Postgres. It emulates
// the database's range-exclusion constraints at write time so racing
// writers observe the same failure mode as against the real store.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/model"
)

// Store keeps everything in maps behind one mutex. Every method takes
// the lock for its whole body, which makes each call atomic the same
// way a single-statement transaction is.
type Store struct {
	mu           sync.Mutex
	reservations map[string]model.Reservation
	users        map[string]model.User
	boats        map[string]model.Boat
}

// New returns an empty store.
func New() *Store {
	return &Store{
		reservations: make(map[string]model.Reservation),
		users:        make(map[string]model.User),
		boats:        make(map[string]model.Boat),
	}
}

// AddBoat seeds a boat.
func (s *Store) AddBoat(b model.Boat) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boats[b.ID] = b
}

// AddUser seeds a user.
func (s *Store) AddUser(u model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
}

func (s *Store) GetReservation(_ context.Context, id string) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, ledger.ErrNotFound
	}
	return r, nil
}

func (s *Store) CreateReservation(_ context.Context, r *model.Reservation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Status.Blocks() {
		if s.boatOverlapLocked(r.BoatID, r.StartDate, r.EndExclusive, r.ID) {
			return ledger.ErrRangeConflict
		}
		if r.CaptainID != nil && s.captainOverlapLocked(*r.CaptainID, r.StartDate, r.EndExclusive, r.ID) {
			return ledger.ErrRangeConflict
		}
	}
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	s.reservations[r.ID] = *r
	return nil
}

func (s *Store) UpdateReservationStatus(_ context.Context, id string, from, to model.Status) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.Status != from {
		return model.Reservation{}, ledger.ErrNotFound
	}
	r.Status = to
	if to.Blocks() && !from.Blocks() {
		if s.boatOverlapLocked(r.BoatID, r.StartDate, r.EndExclusive, r.ID) {
			return model.Reservation{}, ledger.ErrRangeConflict
		}
	}
	r.UpdatedAt = time.Now().UTC()
	s.reservations[id] = r
	return r, nil
}

func (s *Store) UpdateReservationRange(_ context.Context, id string, start, endExclusive time.Time) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, ledger.ErrNotFound
	}
	if r.Status.Blocks() {
		if s.boatOverlapLocked(r.BoatID, start, endExclusive, r.ID) {
			return model.Reservation{}, ledger.ErrRangeConflict
		}
		if r.CaptainID != nil && s.captainOverlapLocked(*r.CaptainID, start, endExclusive, r.ID) {
			return model.Reservation{}, ledger.ErrRangeConflict
		}
	}
	r.StartDate = start
	r.EndExclusive = endExclusive
	r.UpdatedAt = time.Now().UTC()
	s.reservations[id] = r
	return r, nil
}

func (s *Store) SetReservationCaptain(_ context.Context, id string, captainID *string) (model.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok {
		return model.Reservation{}, ledger.ErrNotFound
	}
	if captainID != nil && r.Status.Blocks() &&
		s.captainOverlapLocked(*captainID, r.StartDate, r.EndExclusive, r.ID) {
		return model.Reservation{}, ledger.ErrRangeConflict
	}
	r.CaptainID = captainID
	r.UpdatedAt = time.Now().UTC()
	s.reservations[id] = r
	return r, nil
}

func (s *Store) DeleteReservation(_ context.Context, id string, onlyStatus model.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reservations[id]
	if !ok || r.Status != onlyStatus {
		return ledger.ErrNotFound
	}
	delete(s.reservations, id)
	return nil
}

func (s *Store) HasBoatOverlap(_ context.Context, boatID string, start, endExclusive time.Time, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.boatOverlapLocked(boatID, start, endExclusive, excludeID), nil
}

func (s *Store) HasCaptainOverlap(_ context.Context, captainID string, start, endExclusive time.Time, excludeID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.captainOverlapLocked(captainID, start, endExclusive, excludeID), nil
}

func (s *Store) ListSchedule(_ context.Context, start, endExclusive time.Time) ([]model.ScheduleEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.ScheduleEntry, 0)
	for _, r := range s.reservations {
		if !r.Status.Blocks() {
			continue
		}
		if !ledger.Overlaps(r.StartDate, r.EndExclusive, start, endExclusive) {
			continue
		}
		out = append(out, model.ScheduleEntry{
			ID:           r.ID,
			BoatID:       r.BoatID,
			StartDate:    r.StartDate,
			EndExclusive: r.EndExclusive,
			Status:       r.Status,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].BoatID != out[j].BoatID {
			return out[i].BoatID < out[j].BoatID
		}
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListAvailableCaptains(_ context.Context, start, endExclusive time.Time, limit int) ([]model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.User, 0)
	for _, u := range s.users {
		if !u.IsCaptain {
			continue
		}
		if s.captainOverlapLocked(u.ID, start, endExclusive, "") {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := compareNullable(out[i].FirstName, out[j].FirstName); c != 0 {
			return c < 0
		}
		if c := compareNullable(out[i].LastName, out[j].LastName); c != 0 {
			return c < 0
		}
		return out[i].Email < out[j].Email
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetUser(_ context.Context, id string) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return model.User{}, ledger.ErrNotFound
	}
	return u, nil
}

func (s *Store) GetBoat(_ context.Context, id string) (model.Boat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.boats[id]
	if !ok {
		return model.Boat{}, ledger.ErrNotFound
	}
	return b, nil
}

// Reservations returns a snapshot of all rows, for test assertions.
func (s *Store) Reservations() []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0, len(s.reservations))
	for _, r := range s.reservations {
		out = append(out, r)
	}
	return out
}

func (s *Store) boatOverlapLocked(boatID string, start, end time.Time, excludeID string) bool {
	for _, r := range s.reservations {
		if r.ID == excludeID || r.BoatID != boatID || !r.Status.Blocks() {
			continue
		}
		if ledger.Overlaps(r.StartDate, r.EndExclusive, start, end) {
			return true
		}
	}
	return false
}

// captainOverlapLocked matches uid against both captain_id and
// user_id, so a captain's own booking also makes them unavailable.
func (s *Store) captainOverlapLocked(uid string, start, end time.Time, excludeID string) bool {
	for _, r := range s.reservations {
		if r.ID == excludeID || !r.Status.Blocks() {
			continue
		}
		linked := (r.CaptainID != nil && *r.CaptainID == uid) || (r.UserID != nil && *r.UserID == uid)
		if !linked {
			continue
		}
		if ledger.Overlaps(r.StartDate, r.EndExclusive, start, end) {
			return true
		}
	}
	return false
}

// compareNullable orders non-nil before nil (nulls last), then by
// case-insensitive value.
func compareNullable(a, b *string) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return strings.Compare(strings.ToLower(*a), strings.ToLower(*b))
}
