package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/bluewater/fleet-reservation/internal/config"
	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/middleware"
	"github.com/bluewater/fleet-reservation/internal/queue"
	"github.com/bluewater/fleet-reservation/internal/repository"
	queue_publisher "github.com/bluewater/fleet-reservation/internal/service"
)

// ReservationHandler serves the public reservation request endpoint.
type ReservationHandler struct {
	Ledger   *ledger.Ledger
	Boats    *repository.BoatRepo
	CacheCfg config.CacheConfig
	Redis    *redis.Client
}

func NewReservationHandler(l *ledger.Ledger, b *repository.BoatRepo, cacheCfg config.CacheConfig, rdb *redis.Client) *ReservationHandler {
	return &ReservationHandler{Ledger: l, Boats: b, CacheCfg: cacheCfg, Redis: rdb}
}

type requestReservationReq struct {
	BoatID         string `json:"boatId"`
	StartDate      string `json:"startDate"`
	DurationDays   int    `json:"durationDays"`
	RequesterName  string `json:"requesterName"`
	RequesterEmail string `json:"requesterEmail"`
	Notes          string `json:"notes"`
}

// Request creates a PENDING reservation for the authenticated user and
// notifies admins over the broker. The ledger owns all validation; a
// lost race against a concurrent request surfaces as 409.
func (h *ReservationHandler) Request(c echo.Context) error {
	var req requestReservationReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	uid, _ := c.Get(middleware.CtxUserID).(string)
	res, err := h.Ledger.RequestReservation(ctx, ledger.RequestInput{
		BoatID:         req.BoatID,
		StartDate:      req.StartDate,
		DurationDays:   req.DurationDays,
		UserID:         uid,
		RequesterName:  req.RequesterName,
		RequesterEmail: req.RequesterEmail,
		Notes:          req.Notes,
	})
	if err != nil {
		return writeErr(c, err)
	}

	middleware.InvalidateCache(ctx, h.CacheCfg, h.Redis)

	boatName := ""
	if b, err := h.Boats.GetByID(ctx, res.BoatID); err == nil {
		boatName = b.Name
	}
	// Best effort; the reservation stands even if the broker is down.
	_ = queue_publisher.PublishReservationRequested(ctx, queue.ReservationRequestedEvent{
		ReservationID:  res.ID,
		BoatID:         res.BoatID,
		BoatName:       boatName,
		RequesterName:  derefOr(res.RequesterName, ""),
		RequesterEmail: derefOr(res.RequesterEmail, ""),
		StartDate:      ledger.FormatDate(res.StartDate),
		EndExclusive:   ledger.FormatDate(res.EndExclusive),
		RequestedAt:    res.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	})

	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "reservation": reservationJSON(res)})
}
