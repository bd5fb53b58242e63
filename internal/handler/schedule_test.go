package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSchedule(t *testing.T, h *PublicHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Schedule(e.NewContext(req, rec)))
	return rec
}

func scheduleLen(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var body struct {
		OK       bool              `json:"ok"`
		Schedule []json.RawMessage `json:"schedule"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.OK)
	return len(body.Schedule)
}

func TestScheduleQueryParams(t *testing.T) {
	l, _ := testLedger(t)
	h := NewPublicHandler(l, nil)
	ctx := context.Background()

	pendingReservation(t, l) // [2024-06-01, 2024-06-05)
	_, err := l.CreateBlock(ctx, testBoatID, "2024-07-20", 3, "haul out")
	require.NoError(t, err)

	t.Run("missing start rejected", func(t *testing.T) {
		rec := runSchedule(t, h, "/api/schedule")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("days defaults to 14", func(t *testing.T) {
		// [06-01, 06-15) sees the trip but not the July block.
		rec := runSchedule(t, h, "/api/schedule?start=2024-06-01")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, scheduleLen(t, rec))
	})

	t.Run("oversized days clamped to the cap", func(t *testing.T) {
		// Clamped to 31: [06-01, 07-02) still excludes the July block.
		rec := runSchedule(t, h, "/api/schedule?start=2024-06-01&days=999")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, scheduleLen(t, rec))
	})

	t.Run("non-numeric days falls back to the default", func(t *testing.T) {
		rec := runSchedule(t, h, "/api/schedule?start=2024-06-01&days=soon")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, scheduleLen(t, rec))
	})

	t.Run("zero days clamped up", func(t *testing.T) {
		rec := runSchedule(t, h, "/api/schedule?start=2024-06-02&days=0")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, scheduleLen(t, rec))
	})
}
