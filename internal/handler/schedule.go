package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/repository"
)

// PublicHandler serves the unauthenticated browse surface: boat
// listings and the anonymized availability schedule.
type PublicHandler struct {
	Ledger   *ledger.Ledger
	BoatRepo *repository.BoatRepo
}

func NewPublicHandler(l *ledger.Ledger, b *repository.BoatRepo) *PublicHandler {
	return &PublicHandler{Ledger: l, BoatRepo: b}
}

// Boats lists active boats ordered by name.
func (h *PublicHandler) Boats(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	boats, err := h.BoatRepo.ListActive(ctx)
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]echo.Map, 0, len(boats))
	for _, b := range boats {
		out = append(out, boatJSON(b))
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "boats": out})
}

// Schedule returns blocking date ranges for all boats in a window.
// Query params: start (YYYY-MM-DD, required) and days (default 14,
// clamped to 1..31). Entries carry no requester identity.
func (h *PublicHandler) Schedule(c echo.Context) error {
	if _, err := ledger.ParseDate(c.QueryParam("start")); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "start must be YYYY-MM-DD"})
	}
	days := clampDays(c.QueryParam("days"), 14, ledger.MaxScheduleDays)

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	entries, err := h.Ledger.Schedule(ctx, c.QueryParam("start"), days)
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]echo.Map, 0, len(entries))
	for _, e := range entries {
		out = append(out, echo.Map{
			"id":           e.ID,
			"boatId":       e.BoatID,
			"startDate":    ledger.FormatDate(e.StartDate),
			"endExclusive": ledger.FormatDate(e.EndExclusive),
			"status":       e.Status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "schedule": out})
}
