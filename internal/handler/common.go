// Package handler contains the HTTP handlers for the reservation API.
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/logger"
	"github.com/bluewater/fleet-reservation/internal/metrics"
	"github.com/bluewater/fleet-reservation/internal/middleware"
	"github.com/bluewater/fleet-reservation/internal/model"
	"github.com/bluewater/fleet-reservation/internal/repository"
)

const dbTimeout = 5 * time.Second

// clampDays parses a days query param, falling back to def when the
// value is missing or not a number and clamping the result into
// [1, max].
func clampDays(raw string, def, max int) int {
	n, err := strconv.Atoi(raw)
	if raw == "" || err != nil {
		n = def
	}
	if n < 1 {
		n = 1
	}
	if n > max {
		n = max
	}
	return n
}

// actor builds the ledger actor from the JWT claims stored in context.
func actor(c echo.Context) ledger.Actor {
	uid, _ := c.Get(middleware.CtxUserID).(string)
	adm, _ := c.Get(middleware.CtxIsAdmin).(bool)
	return ledger.Actor{UserID: uid, IsAdmin: adm}
}

// writeErr translates ledger and repository errors into the API's
// status codes and {ok:false} envelope. Unknown errors are logged and
// reported as a generic 500.
func writeErr(c echo.Context, err error) error {
	var (
		vErr *ledger.ValidationError
		tErr *ledger.InvalidTransitionError
		oErr *ledger.OverlapError
	)
	switch {
	case errors.As(err, &vErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": vErr.Error()})
	case errors.As(err, &tErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": tErr.Error()})
	case errors.As(err, &oErr):
		metrics.CountOverlapRejection()
		return c.JSON(http.StatusConflict, echo.Map{"ok": false, "error": oErr.Error()})
	case errors.Is(err, ledger.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"ok": false, "error": "not found"})
	case errors.Is(err, ledger.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"ok": false, "error": "forbidden"})
	case errors.Is(err, repository.ErrEmailExists):
		return c.JSON(http.StatusConflict, echo.Map{"ok": false, "error": "email already exists"})
	default:
		logger.L().Error("request failed",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.JSON(http.StatusInternalServerError, echo.Map{"ok": false, "error": "internal error"})
	}
}

// reservationJSON renders a reservation for API responses. Civil dates
// go out as YYYY-MM-DD strings.
func reservationJSON(r model.Reservation) echo.Map {
	return echo.Map{
		"id":             r.ID,
		"boatId":         r.BoatID,
		"userId":         r.UserID,
		"captainId":      r.CaptainID,
		"requesterName":  derefOr(r.RequesterName, ""),
		"requesterEmail": derefOr(r.RequesterEmail, ""),
		"notes":          r.Notes,
		"startDate":      ledger.FormatDate(r.StartDate),
		"endExclusive":   ledger.FormatDate(r.EndExclusive),
		"status":         r.Status,
		"createdAt":      r.CreatedAt,
		"updatedAt":      r.UpdatedAt,
	}
}

func reservationWithBoatJSON(r model.ReservationWithBoat) echo.Map {
	m := reservationJSON(r.Reservation)
	m["boatName"] = r.BoatName
	return m
}

func userJSON(u model.User) echo.Map {
	return echo.Map{
		"id":           u.ID,
		"email":        u.Email,
		"phone":        u.Phone,
		"firstName":    u.FirstName,
		"lastName":     u.LastName,
		"isAdmin":      u.IsAdmin,
		"isGoldMember": u.IsGoldMember,
		"isCaptain":    u.IsCaptain,
	}
}

func boatJSON(b model.Boat) echo.Map {
	return echo.Map{
		"id":          b.ID,
		"name":        b.Name,
		"type":        b.Type,
		"capacity":    b.Capacity,
		"beds":        b.Beds,
		"location":    b.Location,
		"imageUrl":    b.ImageURL,
		"description": b.Description,
		"active":      b.Active,
	}
}

func derefOr(p *string, def string) string {
	if p != nil {
		return *p
	}
	return def
}
