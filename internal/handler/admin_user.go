package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/bluewater/fleet-reservation/internal/model"
	"github.com/bluewater/fleet-reservation/internal/repository"
)

// AdminUserHandler manages member accounts: search, creation, gold
// membership, captain flag and deletion.
type AdminUserHandler struct {
	Users      *repository.UserRepo
	BcryptCost int
}

func NewAdminUserHandler(u *repository.UserRepo, bcryptCost int) *AdminUserHandler {
	return &AdminUserHandler{Users: u, BcryptCost: bcryptCost}
}

// Search matches users by email or name fragment. An empty q lists
// everyone, capped at 200.
func (h *AdminUserHandler) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	users, err := h.Users.Search(ctx, q)
	if err != nil {
		return writeErr(c, err)
	}
	out := make([]echo.Map, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "users": out})
}

type adminCreateUserReq struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	Phone        string `json:"phone"`
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	IsAdmin      bool   `json:"isAdmin"`
	IsGoldMember bool   `json:"isGoldMember"`
	IsCaptain    bool   `json:"isCaptain"`
}

// Create adds an account directly, letting admins provision captains
// and other admins without the self-service register flow.
func (h *AdminUserHandler) Create(c echo.Context) error {
	var req adminCreateUserReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "email/password required"})
	}
	if len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "password too short"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u := model.User{
		Email:        req.Email,
		Phone:        strings.TrimSpace(req.Phone),
		FirstName:    optionalStr(req.FirstName),
		LastName:     optionalStr(req.LastName),
		IsAdmin:      req.IsAdmin,
		IsGoldMember: req.IsGoldMember,
		IsCaptain:    req.IsCaptain,
	}
	if err := h.Users.Create(ctx, &u, req.Password, h.BcryptCost); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"ok": true, "user": userJSON(u)})
}

type flagReq struct {
	Value bool `json:"value"`
}

// SetGoldMember toggles gold membership. Gold members always sail
// without an assigned captain.
func (h *AdminUserHandler) SetGoldMember(c echo.Context) error {
	var req flagReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.SetGoldMember(ctx, c.Param("id"), req.Value)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "user": userJSON(u)})
}

// SetCaptain toggles the captain flag, adding or removing the user
// from the assignable pool.
func (h *AdminUserHandler) SetCaptain(c echo.Context) error {
	var req flagReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"ok": false, "error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	u, err := h.Users.SetCaptain(ctx, c.Param("id"), req.Value)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"ok": true, "user": userJSON(u)})
}

// Delete removes an account. Reservation rows keep their requester
// snapshot; their user_id is nulled by the schema.
func (h *AdminUserHandler) Delete(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeout)
	defer cancel()

	if err := h.Users.Delete(ctx, c.Param("id")); err != nil {
		return writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
