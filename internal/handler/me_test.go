package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluewater/fleet-reservation/internal/config"
	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/ledger/memstore"
	"github.com/bluewater/fleet-reservation/internal/middleware"
	"github.com/bluewater/fleet-reservation/internal/model"
)

const (
	testBoatID = "1de0c109-84a1-4241-a4a8-3de5b6e2a0f3"
	testUserID = "7a9e2a64-85b2-4a31-9c61-54dbd1d2f1a0"
)

// testLedger builds a memstore-backed ledger with one active boat and
// one member, clock pinned to 2024-05-01.
func testLedger(t *testing.T) (*ledger.Ledger, *memstore.Store) {
	t.Helper()
	st := memstore.New()
	st.AddBoat(model.Boat{ID: testBoatID, Name: "Meltemi", Active: true})
	st.AddUser(model.User{ID: testUserID, Email: "jo@example.com"})
	l := ledger.New(st, ledger.WithClock(func() time.Time {
		return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	}))
	return l, st
}

// cacheFixture wires a real cache config against an in-process redis.
func cacheFixture(t *testing.T) (config.CacheConfig, *redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cfg := config.CacheConfig{Enabled: true, TTL: time.Minute, Prefix: "resp-cache", MaxBodyBytes: 1 << 20}
	return cfg, rdb, mr
}

func pendingReservation(t *testing.T, l *ledger.Ledger) model.Reservation {
	t.Helper()
	res, err := l.RequestReservation(context.Background(), ledger.RequestInput{
		BoatID: testBoatID, StartDate: "2024-06-01", DurationDays: 4, UserID: testUserID,
	})
	require.NoError(t, err)
	return res
}

func TestCancelReservationInvalidatesScheduleCache(t *testing.T) {
	l, _ := testLedger(t)
	cfg, rdb, mr := cacheFixture(t)
	h := NewMeHandler(nil, nil, l, cfg, rdb)
	res := pendingReservation(t, l)

	key := cfg.Prefix + ":stale-schedule"
	require.NoError(t, rdb.Set(context.Background(), key, "x", 0).Err())

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/me/reservations/"+res.ID, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(res.ID)
	c.Set(middleware.CtxUserID, testUserID)

	require.NoError(t, h.CancelReservation(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, mr.Exists(key), "cancel frees dates, the cached schedule must go")
}

func TestEditReservationInvalidatesScheduleCache(t *testing.T) {
	l, _ := testLedger(t)
	cfg, rdb, mr := cacheFixture(t)
	h := NewMeHandler(nil, nil, l, cfg, rdb)
	res := pendingReservation(t, l)

	key := cfg.Prefix + ":stale-schedule"
	require.NoError(t, rdb.Set(context.Background(), key, "x", 0).Err())

	e := echo.New()
	body := `{"startDate":"2024-06-10","endExclusive":"2024-06-14"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/me/reservations/"+res.ID, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(res.ID)
	c.Set(middleware.CtxUserID, testUserID)

	require.NoError(t, h.EditReservation(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "2024-06-10")
	assert.False(t, mr.Exists(key), "moving a range must drop the cached schedule")
}
