package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bluewater/fleet-reservation/internal/model"
	"github.com/bluewater/fleet-reservation/internal/repository"
)

// AdminBoatHandler manages the fleet itself.
type AdminBoatHandler struct {
	Boats *repository.BoatRepo
}

func NewAdminBoatHandler(b *repository.BoatRepo) *AdminBoatHandler {
	return &AdminBoatHandler{Boats: b}
}

type createBoatReq struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Capacity    int    `json:"capacity"`
	Beds        int    `json:"beds"`
	Location    string `json:"location"`
	ImageURL    string `json:"imageUrl"`
	Description string `json:"description"`
}

// Create adds a boat to the fleet, active immediately.
func (h *AdminBoatHandler) Create(c echo.Context) error {
	var req createBoatReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid body"})
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "name required"})
	}
	if req.Capacity < 1 {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "capacity must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b := model.Boat{
		Name:        req.Name,
		Type:        strings.TrimSpace(req.Type),
		Capacity:    req.Capacity,
		Beds:        req.Beds,
		Location:    strings.TrimSpace(req.Location),
		ImageURL:    optionalStr(req.ImageURL),
		Description: optionalStr(req.Description),
	}
	if err := h.Boats.Create(ctx, &b); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "boat": boatJSON(b)})
}

type setActiveReq struct {
	Active bool `json:"active"`
}

// SetActive retires a boat from the public listing or brings it back.
// Existing reservations are untouched.
func (h *AdminBoatHandler) SetActive(c echo.Context) error {
	var req setActiveReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	b, err := h.Boats.SetActive(ctx, c.Param("id"), req.Active)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "boat": boatJSON(b)})
}
