package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/bluewater/fleet-reservation/internal/config"
	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/metrics"
	"github.com/bluewater/fleet-reservation/internal/middleware"
	"github.com/bluewater/fleet-reservation/internal/model"
	"github.com/bluewater/fleet-reservation/internal/queue"
	"github.com/bluewater/fleet-reservation/internal/repository"
	queue_publisher "github.com/bluewater/fleet-reservation/internal/service"
)

// AdminReservationHandler serves the admin decision surface: window
// listings, approvals, denials, maintenance blocks and captain
// assignment.
type AdminReservationHandler struct {
	Ledger       *ledger.Ledger
	Reservations *repository.ReservationRepo
	Boats        *repository.BoatRepo
	CacheCfg     config.CacheConfig
	Redis        *redis.Client
}

func NewAdminReservationHandler(l *ledger.Ledger, r *repository.ReservationRepo, b *repository.BoatRepo, cacheCfg config.CacheConfig, rdb *redis.Client) *AdminReservationHandler {
	return &AdminReservationHandler{Ledger: l, Reservations: r, Boats: b, CacheCfg: cacheCfg, Redis: rdb}
}

const maxWindowDays = 60

// Window lists reservations whose start date falls in [start, start+days).
// days defaults to 14 and is clamped to 1..60.
func (h *AdminReservationHandler) Window(c echo.Context) error {
	start, err := ledger.ParseDate(c.QueryParam("start"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "start must be YYYY-MM-DD"})
	}
	days := clampDays(c.QueryParam("days"), 14, maxWindowDays)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, err := h.Reservations.ListWindow(ctx, start, days)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "reservations": withBoatList(rows)})
}

// Pending lists undecided requests, newest first.
func (h *AdminReservationHandler) Pending(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	rows, err := h.Reservations.ListPending(ctx)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "reservations": withBoatList(rows)})
}

// Approve moves a pending reservation to APPROVED.
func (h *AdminReservationHandler) Approve(c echo.Context) error {
	return h.decide(c, model.StatusApproved)
}

// Deny moves a pending reservation to DENIED, freeing its dates.
func (h *AdminReservationHandler) Deny(c echo.Context) error {
	return h.decide(c, model.StatusDenied)
}

func (h *AdminReservationHandler) decide(c echo.Context, next model.Status) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Ledger.SetStatus(ctx, c.Param("id"), next, actor(c))
	if err != nil {
		return writeErr(c, err)
	}
	metrics.CountDecision(string(next))
	middleware.InvalidateCache(ctx, h.CacheCfg, h.Redis)

	boatName := ""
	if b, err := h.Boats.GetByID(ctx, res.BoatID); err == nil {
		boatName = b.Name
	}
	_ = queue_publisher.PublishReservationDecided(ctx, queue.ReservationDecidedEvent{
		ReservationID:  res.ID,
		BoatID:         res.BoatID,
		BoatName:       boatName,
		RequesterEmail: derefOr(res.RequesterEmail, ""),
		StartDate:      ledger.FormatDate(res.StartDate),
		EndExclusive:   ledger.FormatDate(res.EndExclusive),
		Status:         string(res.Status),
		DecidedAt:      time.Now().UTC().Format(time.RFC3339),
	})

	return c.JSON(http.StatusOK, echo.Map{"ok": true, "reservation": reservationJSON(res)})
}

type createBlockReq struct {
	BoatID    string `json:"boatId"`
	StartDate string `json:"startDate"`
	Days      int    `json:"days"`
	Note      string `json:"note"`
}

// CreateBlock reserves a maintenance window for a boat.
func (h *AdminReservationHandler) CreateBlock(c echo.Context) error {
	var req createBlockReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Ledger.CreateBlock(ctx, req.BoatID, req.StartDate, req.Days, req.Note)
	if err != nil {
		return writeErr(c, err)
	}
	middleware.InvalidateCache(ctx, h.CacheCfg, h.Redis)
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "reservation": reservationJSON(res)})
}

// DeleteBlock removes a maintenance block. Only BLOCKED rows qualify.
func (h *AdminReservationHandler) DeleteBlock(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Ledger.DeleteBlock(ctx, c.Param("id")); err != nil {
		return writeErr(c, err)
	}
	middleware.InvalidateCache(ctx, h.CacheCfg, h.Redis)
	return c.NoContent(http.StatusNoContent)
}

type assignCaptainReq struct {
	CaptainID *string `json:"captainId"` // null clears the assignment
}

// AssignCaptain sets or clears the captain on a reservation.
func (h *AdminReservationHandler) AssignCaptain(c echo.Context) error {
	var req assignCaptainReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	res, err := h.Ledger.AssignCaptain(ctx, c.Param("id"), req.CaptainID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "reservation": reservationJSON(res)})
}

// AvailableCaptains lists captains free over [start, end).
func (h *AdminReservationHandler) AvailableCaptains(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, err := h.Ledger.AvailableCaptains(ctx, c.QueryParam("start"), c.QueryParam("end"))
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "captains": out})
}

func withBoatList(rows []model.ReservationWithBoat) []echo.Map {
	out := make([]echo.Map, 0, len(rows))
	for _, r := range rows {
		out = append(out, reservationWithBoatJSON(r))
	}
	return out
}
