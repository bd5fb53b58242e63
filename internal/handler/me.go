package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/bluewater/fleet-reservation/internal/config"
	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/middleware"
	"github.com/bluewater/fleet-reservation/internal/model"
	"github.com/bluewater/fleet-reservation/internal/repository"
)

// MeHandler serves the authenticated user's profile and reservations.
type MeHandler struct {
	Users        *repository.UserRepo
	Reservations *repository.ReservationRepo
	Ledger       *ledger.Ledger
	CacheCfg     config.CacheConfig
	Redis        *redis.Client
}

func NewMeHandler(u *repository.UserRepo, r *repository.ReservationRepo, l *ledger.Ledger, cacheCfg config.CacheConfig, rdb *redis.Client) *MeHandler {
	return &MeHandler{Users: u, Reservations: r, Ledger: l, CacheCfg: cacheCfg, Redis: rdb}
}

// Profile returns the caller's account.
func (h *MeHandler) Profile(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.GetByID(ctx, actor(c).UserID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "user": userJSON(u)})
}

type profilePatchReq struct {
	Phone     *string `json:"phone"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// UpdateProfile applies a partial update to phone and name fields.
func (h *MeHandler) UpdateProfile(c echo.Context) error {
	var req profilePatchReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.UpdateProfile(ctx, actor(c).UserID, req.Phone, req.FirstName, req.LastName)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "user": userJSON(u)})
}

// MyReservations lists the caller's reservations, newest trip first.
func (h *MeHandler) MyReservations(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, err := h.Reservations.ListByUser(ctx, actor(c).UserID)
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]echo.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, reservationWithBoatJSON(r))
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "reservations": out})
}

type editReservationReq struct {
	StartDate    string `json:"startDate"`
	EndExclusive string `json:"endExclusive"`
}

// EditReservation moves a pending reservation to new dates. Owners can
// only touch their own rows; the ledger re-runs the overlap checks.
func (h *MeHandler) EditReservation(c echo.Context) error {
	var req editReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Ledger.EditReservation(ctx, c.Param("id"), req.StartDate, req.EndExclusive, actor(c))
	if err != nil {
		return writeErr(c, err)
	}
	middleware.InvalidateCache(ctx, h.CacheCfg, h.Redis)
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "reservation": reservationJSON(res)})
}

// CancelReservation sets the caller's pending reservation to CANCELLED.
func (h *MeHandler) CancelReservation(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Ledger.SetStatus(ctx, c.Param("id"), model.StatusCancelled, actor(c))
	if err != nil {
		return writeErr(c, err)
	}
	middleware.InvalidateCache(ctx, h.CacheCfg, h.Redis)
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "reservation": reservationJSON(res)})
}
