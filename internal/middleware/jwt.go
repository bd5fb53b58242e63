// Package middleware provides reusable HTTP middleware for the API.
package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Context keys populated by JWTAuth.
const (
	CtxUserID  = "user_id"
	CtxIsAdmin = "is_admin"
)

// JWTAuth validates the Bearer access token and stores the subject and
// admin flag in the request context under CtxUserID and CtxIsAdmin.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "error": "invalid token"})
			}

			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "error": "invalid claims"})
			}
			sub, _ := claims["sub"].(string)
			if sub == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"ok": false, "error": "invalid claims"})
			}
			adm, _ := claims["adm"].(bool)

			c.Set(CtxUserID, sub)
			c.Set(CtxIsAdmin, adm)
			return next(c)
		}
	}
}

// JWTOptional populates CtxUserID and CtxIsAdmin when a valid Bearer
// token is present but lets the request through either way. Used on
// routes that accept both authenticated and anonymous callers, such
// as logout.
func JWTOptional(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return next(c)
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, echo.ErrUnauthorized
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return next(c)
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return next(c)
			}
			if sub, _ := claims["sub"].(string); sub != "" {
				adm, _ := claims["adm"].(bool)
				c.Set(CtxUserID, sub)
				c.Set(CtxIsAdmin, adm)
			}
			return next(c)
		}
	}
}

// RequireAdmin aborts with 403 unless JWTAuth marked the caller as admin.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if adm, _ := c.Get(CtxIsAdmin).(bool); !adm {
				return c.JSON(http.StatusForbidden, echo.Map{"ok": false, "error": "forbidden"})
			}
			return next(c)
		}
	}
}

// currentUserID returns the authenticated user id or "anon" for public
// routes. Used for rate-limit bucketing.
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}
