package ledger_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/ledger/memstore"
	"github.com/bluewater/fleet-reservation/internal/model"
)

const (
	boatID    = "0c6e2b9a-0000-4000-8000-000000000001"
	ownerID   = "0c6e2b9a-0000-4000-8000-000000000002"
	otherID   = "0c6e2b9a-0000-4000-8000-000000000003"
	captainID = "0c6e2b9a-0000-4000-8000-000000000004"
	goldID    = "0c6e2b9a-0000-4000-8000-000000000005"
)

var (
	admin = ledger.Actor{UserID: "admin", IsAdmin: true}
	owner = ledger.Actor{UserID: ownerID}
	other = ledger.Actor{UserID: otherID}
)

// testClock pins "today" to 2024-05-01 so the June fixtures below are
// always in the future.
func testClock() time.Time {
	return time.Date(2024, 5, 1, 15, 30, 0, 0, time.UTC)
}

func newLedger(t *testing.T) (*ledger.Ledger, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	st.AddBoat(model.Boat{ID: boatID, Name: "Morning Star", Capacity: 8, Active: true})
	st.AddUser(model.User{ID: ownerID, Email: "owner@example.com"})
	st.AddUser(model.User{ID: otherID, Email: "other@example.com"})
	st.AddUser(model.User{ID: captainID, Email: "captain@example.com", IsCaptain: true})
	st.AddUser(model.User{ID: goldID, Email: "gold@example.com", IsGoldMember: true})
	return ledger.New(st, ledger.WithClock(testClock)), st
}

func request(t *testing.T, l *ledger.Ledger, start string, days int) model.Reservation {
	t.Helper()
	res, err := l.RequestReservation(context.Background(), ledger.RequestInput{
		BoatID:         boatID,
		StartDate:      start,
		DurationDays:   days,
		UserID:         ownerID,
		RequesterName:  "Jo Owner",
		RequesterEmail: "owner@example.com",
	})
	require.NoError(t, err)
	return res
}

func TestRequestReservationValidation(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   ledger.RequestInput
	}{
		{"missing boat", ledger.RequestInput{StartDate: "2024-06-01", DurationDays: 3}},
		{"bad date", ledger.RequestInput{BoatID: boatID, StartDate: "June 1st", DurationDays: 3}},
		{"zero duration", ledger.RequestInput{BoatID: boatID, StartDate: "2024-06-01", DurationDays: 0}},
		{"negative duration", ledger.RequestInput{BoatID: boatID, StartDate: "2024-06-01", DurationDays: -2}},
		{"duration over cap", ledger.RequestInput{BoatID: boatID, StartDate: "2024-06-01", DurationDays: ledger.MaxRequestDays + 1}},
		{"unknown boat", ledger.RequestInput{BoatID: "nope", StartDate: "2024-06-01", DurationDays: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := l.RequestReservation(ctx, tc.in)
			var vErr *ledger.ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestRequestInactiveBoatRejected(t *testing.T) {
	l, st := newLedger(t)
	st.AddBoat(model.Boat{ID: "retired", Name: "Rust Bucket", Capacity: 4, Active: false})

	_, err := l.RequestReservation(context.Background(), ledger.RequestInput{
		BoatID: "retired", StartDate: "2024-06-01", DurationDays: 3,
	})
	var vErr *ledger.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "boatId", vErr.Field)
}

func TestRequestOverlapAndAdjacency(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	// Occupies [2024-06-01, 2024-06-05).
	request(t, l, "2024-06-01", 4)

	_, err := l.RequestReservation(ctx, ledger.RequestInput{
		BoatID: boatID, StartDate: "2024-06-04", DurationDays: 2, UserID: otherID,
	})
	var oErr *ledger.OverlapError
	require.ErrorAs(t, err, &oErr)
	assert.Equal(t, boatID, oErr.BoatID)

	// End-exclusive: a trip starting on the previous end date fits.
	res, err := l.RequestReservation(ctx, ledger.RequestInput{
		BoatID: boatID, StartDate: "2024-06-05", DurationDays: 3, UserID: otherID,
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-05", ledger.FormatDate(res.StartDate))
	assert.Equal(t, "2024-06-08", ledger.FormatDate(res.EndExclusive))
	assert.Equal(t, model.StatusPending, res.Status)
}

func TestDeniedAndCancelledFreeDates(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	first := request(t, l, "2024-06-01", 4)
	_, err := l.SetStatus(ctx, first.ID, model.StatusDenied, admin)
	require.NoError(t, err)

	// The denied range is free again.
	second := request(t, l, "2024-06-01", 4)

	_, err = l.SetStatus(ctx, second.ID, model.StatusCancelled, owner)
	require.NoError(t, err)

	request(t, l, "2024-06-01", 4)
}

func TestSetStatusOneShot(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	res := request(t, l, "2024-06-01", 4)
	approved, err := l.SetStatus(ctx, res.ID, model.StatusApproved, admin)
	require.NoError(t, err)
	assert.Equal(t, model.StatusApproved, approved.Status)

	// A decided row cannot be decided again.
	_, err = l.SetStatus(ctx, res.ID, model.StatusDenied, admin)
	var tErr *ledger.InvalidTransitionError
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, model.StatusApproved, tErr.Current)
}

func TestSetStatusRejectsUnreachableTargets(t *testing.T) {
	l, _ := newLedger(t)
	res := request(t, l, "2024-06-01", 4)

	for _, next := range []model.Status{model.StatusPending, model.StatusChangeRequested, "SAILED"} {
		_, err := l.SetStatus(context.Background(), res.ID, next, admin)
		var vErr *ledger.ValidationError
		assert.ErrorAs(t, err, &vErr, "target %s", next)
	}
}

func TestSetStatusUnknownID(t *testing.T) {
	l, _ := newLedger(t)
	_, err := l.SetStatus(context.Background(), "missing", model.StatusApproved, admin)
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

func TestNonAdminRules(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	res := request(t, l, "2024-06-01", 4)

	t.Run("cannot approve", func(t *testing.T) {
		_, err := l.SetStatus(ctx, res.ID, model.StatusApproved, owner)
		assert.ErrorIs(t, err, ledger.ErrForbidden)
	})

	t.Run("cannot cancel someone else's row", func(t *testing.T) {
		_, err := l.SetStatus(ctx, res.ID, model.StatusCancelled, other)
		// Existence is not revealed to strangers.
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("cannot cancel once the trip has started", func(t *testing.T) {
		started := request(t, l, "2024-05-01", 2) // starts "today"
		_, err := l.SetStatus(ctx, started.ID, model.StatusCancelled, owner)
		var tErr *ledger.InvalidTransitionError
		assert.ErrorAs(t, err, &tErr)
	})

	t.Run("can cancel own future row", func(t *testing.T) {
		got, err := l.SetStatus(ctx, res.ID, model.StatusCancelled, owner)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, got.Status)
	})
}

func TestEditReservation(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	res := request(t, l, "2024-06-01", 4)

	t.Run("end must be after start", func(t *testing.T) {
		_, err := l.EditReservation(ctx, res.ID, "2024-06-10", "2024-06-10", owner)
		var vErr *ledger.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("stranger sees not found", func(t *testing.T) {
		_, err := l.EditReservation(ctx, res.ID, "2024-06-10", "2024-06-12", other)
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("moves onto free dates", func(t *testing.T) {
		got, err := l.EditReservation(ctx, res.ID, "2024-06-10", "2024-06-14", owner)
		require.NoError(t, err)
		assert.Equal(t, "2024-06-10", ledger.FormatDate(got.StartDate))
		assert.Equal(t, "2024-06-14", ledger.FormatDate(got.EndExclusive))
	})

	t.Run("rejects occupied dates", func(t *testing.T) {
		request(t, l, "2024-06-20", 3)
		_, err := l.EditReservation(ctx, res.ID, "2024-06-21", "2024-06-23", owner)
		var oErr *ledger.OverlapError
		assert.ErrorAs(t, err, &oErr)
	})

	t.Run("decided rows cannot be edited", func(t *testing.T) {
		approved := request(t, l, "2024-07-01", 3)
		_, err := l.SetStatus(ctx, approved.ID, model.StatusApproved, admin)
		require.NoError(t, err)
		_, err = l.EditReservation(ctx, approved.ID, "2024-07-10", "2024-07-12", admin)
		var tErr *ledger.InvalidTransitionError
		assert.ErrorAs(t, err, &tErr)
	})
}

func TestBlocks(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	t.Run("days out of range", func(t *testing.T) {
		_, err := l.CreateBlock(ctx, boatID, "2024-06-01", ledger.MaxBlockDays+1, "haul out")
		var vErr *ledger.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	block, err := l.CreateBlock(ctx, boatID, "2024-06-01", 7, "engine service")
	require.NoError(t, err)
	assert.Equal(t, model.StatusBlocked, block.Status)
	assert.Nil(t, block.UserID)

	t.Run("block occupies dates", func(t *testing.T) {
		_, err := l.RequestReservation(ctx, ledger.RequestInput{
			BoatID: boatID, StartDate: "2024-06-03", DurationDays: 2, UserID: ownerID,
		})
		var oErr *ledger.OverlapError
		assert.ErrorAs(t, err, &oErr)
	})

	t.Run("delete only removes BLOCKED rows", func(t *testing.T) {
		res := request(t, l, "2024-07-01", 3)
		_, err := l.SetStatus(ctx, res.ID, model.StatusApproved, admin)
		require.NoError(t, err)
		assert.ErrorIs(t, l.DeleteBlock(ctx, res.ID), ledger.ErrNotFound)
	})

	t.Run("deleting the block frees the dates", func(t *testing.T) {
		require.NoError(t, l.DeleteBlock(ctx, block.ID))
		request(t, l, "2024-06-03", 2)
	})
}

func TestAssignCaptain(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()
	cid := captainID

	res := request(t, l, "2024-06-01", 4)

	t.Run("plain member is not assignable", func(t *testing.T) {
		oid := otherID
		_, err := l.AssignCaptain(ctx, res.ID, &oid)
		var vErr *ledger.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	got, err := l.AssignCaptain(ctx, res.ID, &cid)
	require.NoError(t, err)
	require.NotNil(t, got.CaptainID)
	assert.Equal(t, captainID, *got.CaptainID)

	t.Run("captain busy elsewhere", func(t *testing.T) {
		second := request(t, l, "2024-06-03", 2)
		_, err := l.AssignCaptain(ctx, second.ID, &cid)
		var oErr *ledger.OverlapError
		require.ErrorAs(t, err, &oErr)
		assert.Equal(t, captainID, oErr.CaptainID)
	})

	t.Run("clearing the assignment", func(t *testing.T) {
		got, err := l.AssignCaptain(ctx, res.ID, nil)
		require.NoError(t, err)
		assert.Nil(t, got.CaptainID)
	})

	t.Run("gold member trips never take a captain", func(t *testing.T) {
		gold, err := l.RequestReservation(ctx, ledger.RequestInput{
			BoatID: boatID, StartDate: "2024-08-01", DurationDays: 3, UserID: goldID,
		})
		require.NoError(t, err)

		var vErr *ledger.ValidationError
		_, err = l.AssignCaptain(ctx, gold.ID, &cid)
		assert.ErrorAs(t, err, &vErr)
		// Even a clearing write is rejected for gold members.
		_, err = l.AssignCaptain(ctx, gold.ID, nil)
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestAvailableCaptains(t *testing.T) {
	l, st := newLedger(t)
	ctx := context.Background()
	first := "Avery"
	st.AddUser(model.User{ID: "cap2", Email: "avery@example.com", FirstName: &first, IsCaptain: true})

	res := request(t, l, "2024-06-01", 4)
	cid := captainID
	_, err := l.AssignCaptain(ctx, res.ID, &cid)
	require.NoError(t, err)

	t.Run("busy captain excluded", func(t *testing.T) {
		free, err := l.AvailableCaptains(ctx, "2024-06-03", "2024-06-06")
		require.NoError(t, err)
		require.Len(t, free, 1)
		assert.Equal(t, "cap2", free[0].ID)
	})

	t.Run("all free outside the range", func(t *testing.T) {
		free, err := l.AvailableCaptains(ctx, "2024-06-05", "2024-06-08")
		require.NoError(t, err)
		assert.Len(t, free, 2)
	})

	t.Run("captain own booking also blocks", func(t *testing.T) {
		_, err := l.RequestReservation(ctx, ledger.RequestInput{
			BoatID: boatID, StartDate: "2024-07-01", DurationDays: 3, UserID: "cap2",
		})
		require.NoError(t, err)
		free, err := l.AvailableCaptains(ctx, "2024-07-02", "2024-07-03")
		require.NoError(t, err)
		require.Len(t, free, 1)
		assert.Equal(t, captainID, free[0].ID)
	})

	t.Run("denied rows free the captain", func(t *testing.T) {
		_, err := l.SetStatus(ctx, res.ID, model.StatusDenied, admin)
		require.NoError(t, err)
		free, err := l.AvailableCaptains(ctx, "2024-06-03", "2024-06-06")
		require.NoError(t, err)
		assert.Len(t, free, 2)
	})

	t.Run("invalid range", func(t *testing.T) {
		_, err := l.AvailableCaptains(ctx, "2024-06-06", "2024-06-06")
		var vErr *ledger.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestSchedule(t *testing.T) {
	l, _ := newLedger(t)
	ctx := context.Background()

	request(t, l, "2024-06-01", 4)
	denied := request(t, l, "2024-06-10", 2)
	_, err := l.SetStatus(ctx, denied.ID, model.StatusDenied, admin)
	require.NoError(t, err)
	_, err = l.CreateBlock(ctx, boatID, "2024-06-20", 5, "varnish")
	require.NoError(t, err)

	entries, err := l.Schedule(ctx, "2024-06-01", 31)
	require.NoError(t, err)
	require.Len(t, entries, 2, "denied rows disappear from the schedule")
	assert.Equal(t, model.StatusPending, entries[0].Status)
	assert.Equal(t, model.StatusBlocked, entries[1].Status)

	t.Run("window clipping", func(t *testing.T) {
		entries, err := l.Schedule(ctx, "2024-06-05", 10)
		require.NoError(t, err)
		// [06-05, 06-15) touches neither the first trip nor the block.
		assert.Len(t, entries, 0)
	})

	t.Run("days bounds", func(t *testing.T) {
		_, err := l.Schedule(ctx, "2024-06-01", 0)
		var vErr *ledger.ValidationError
		assert.ErrorAs(t, err, &vErr)
		_, err = l.Schedule(ctx, "2024-06-01", ledger.MaxScheduleDays+1)
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("start is required", func(t *testing.T) {
		_, err := l.Schedule(ctx, "", 20)
		var vErr *ledger.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}

func TestConcurrentRequestsExactlyOneWins(t *testing.T) {
	l, st := newLedger(t)
	ctx := context.Background()

	const racers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.RequestReservation(ctx, ledger.RequestInput{
				BoatID: boatID, StartDate: "2024-06-01", DurationDays: 5, UserID: ownerID,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			default:
				var oErr *ledger.OverlapError
				if assert.ErrorAs(t, err, &oErr) {
					conflicts++
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes, "exactly one racer may win the range")
	assert.Equal(t, racers-1, conflicts)
	assert.Len(t, st.Reservations(), 1)
}
