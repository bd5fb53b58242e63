package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/model"
	"github.com/bluewater/fleet-reservation/internal/repository"
)

func TestWriteErrStatusCodes(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", &ledger.ValidationError{Field: "startDate", Reason: "bad"}, http.StatusBadRequest},
		{"invalid transition", &ledger.InvalidTransitionError{Current: model.StatusApproved, Requested: model.StatusDenied}, http.StatusBadRequest},
		{"overlap", &ledger.OverlapError{BoatID: "b1"}, http.StatusConflict},
		{"not found", ledger.ErrNotFound, http.StatusNotFound},
		{"forbidden", ledger.ErrForbidden, http.StatusForbidden},
		{"email exists", repository.ErrEmailExists, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

			require.NoError(t, writeErr(c, tc.err))
			assert.Equal(t, tc.want, rec.Code)
			assert.Contains(t, rec.Body.String(), `"ok":false`)
		})
	}
}

func TestClampDays(t *testing.T) {
	cases := []struct {
		raw  string
		want int
	}{
		{"", 14},
		{"junk", 14},
		{"0", 1},
		{"-3", 1},
		{"20", 20},
		{"999", 31},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, clampDays(tc.raw, 14, 31), "raw=%q", tc.raw)
	}
}

func TestReservationJSONDates(t *testing.T) {
	name := "Jo"
	r := model.Reservation{
		ID:            "r1",
		BoatID:        "b1",
		StartDate:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndExclusive:  time.Date(2024, 6, 5, 0, 0, 0, 0, time.UTC),
		Status:        model.StatusPending,
		RequesterName: &name,
	}
	m := reservationJSON(r)
	assert.Equal(t, "2024-06-01", m["startDate"])
	assert.Equal(t, "2024-06-05", m["endExclusive"])
	assert.Equal(t, "Jo", m["requesterName"])
	assert.Equal(t, "", reservationJSON(model.Reservation{})["requesterEmail"])
}
