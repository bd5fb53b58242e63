// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/bluewater/fleet-reservation/internal/config"
	"github.com/bluewater/fleet-reservation/internal/handler"
	"github.com/bluewater/fleet-reservation/internal/logger"
	"github.com/bluewater/fleet-reservation/internal/metrics"
	"github.com/bluewater/fleet-reservation/internal/middleware"
)

// Handlers groups every handler the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Me           *handler.MeHandler
	Public       *handler.PublicHandler
	Reservations *handler.ReservationHandler
	AdminRes     *handler.AdminReservationHandler
	AdminBoats   *handler.AdminBoatHandler
	AdminUsers   *handler.AdminUserHandler
	Health       echo.HandlerFunc
}

// Register mounts all routes.
//
//	/healthz, /metrics        operational, unauthenticated
//	/api/auth/*               register, login, refresh, logout
//	/api/boats, /api/schedule public browse (cached, rate limited)
//	/api/me/*                 authenticated member surface
//	/api/reservations/*       authenticated reservation requests
//	/api/admin/*              admin-only decision surface
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client, httpMetrics *metrics.HTTPMetrics) {
	e.Use(echomw.Recover())
	e.Use(logger.Middleware())
	if cfg.ClientOrigin != "" {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			AllowOrigins: []string{cfg.ClientOrigin},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
		}))
	} else {
		e.Use(echomw.CORS())
	}
	e.Use(httpMetrics.Middleware())

	e.GET("/healthz", h.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	rl := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	// Auth
	auth := e.Group("/api/auth", rl)
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout, middleware.JWTOptional(cfg.JWTSecret))

	// Public browse: cached and rate limited, no JWT.
	pub := e.Group("/api", rl)
	pub.GET("/boats", h.Public.Boats, cache)
	pub.GET("/schedule", h.Public.Schedule, cache)

	// Member surface
	jwtAuth := middleware.JWTAuth(cfg.JWTSecret)
	me := e.Group("/api/me", rl, jwtAuth)
	me.GET("", h.Me.Profile)
	me.PATCH("", h.Me.UpdateProfile)
	me.GET("/reservations", h.Me.MyReservations)
	me.PATCH("/reservations/:id", h.Me.EditReservation)
	me.DELETE("/reservations/:id", h.Me.CancelReservation)

	res := e.Group("/api/reservations", rl, jwtAuth)
	res.POST("/request", h.Reservations.Request)

	// Admin surface
	admin := e.Group("/api/admin", jwtAuth, middleware.RequireAdmin())
	admin.GET("/reservations", h.AdminRes.Window)
	admin.GET("/reservations/pending", h.AdminRes.Pending)
	admin.POST("/reservations/:id/approve", h.AdminRes.Approve)
	admin.POST("/reservations/:id/deny", h.AdminRes.Deny)
	admin.PATCH("/reservations/:id/captain", h.AdminRes.AssignCaptain)
	admin.GET("/captains/available", h.AdminRes.AvailableCaptains)
	admin.POST("/blocks", h.AdminRes.CreateBlock)
	admin.DELETE("/blocks/:id", h.AdminRes.DeleteBlock)
	admin.POST("/boats", h.AdminBoats.Create)
	admin.PATCH("/boats/:id/active", h.AdminBoats.SetActive)
	admin.GET("/users", h.AdminUsers.Search)
	admin.POST("/users", h.AdminUsers.Create)
	admin.PATCH("/users/:id/gold", h.AdminUsers.SetGoldMember)
	admin.PATCH("/users/:id/captain", h.AdminUsers.SetCaptain)
	admin.DELETE("/users/:id", h.AdminUsers.Delete)
}
