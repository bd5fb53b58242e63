package main

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/bluewater/fleet-reservation/internal/config"
	"github.com/bluewater/fleet-reservation/internal/database"
	"github.com/bluewater/fleet-reservation/internal/handler"
	"github.com/bluewater/fleet-reservation/internal/ledger"
	"github.com/bluewater/fleet-reservation/internal/logger"
	"github.com/bluewater/fleet-reservation/internal/metrics"
	"github.com/bluewater/fleet-reservation/internal/queue"
	"github.com/bluewater/fleet-reservation/internal/repository"
	"github.com/bluewater/fleet-reservation/internal/router"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	zl, err := logger.Init(cfg.Env)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	if err != nil {
		zl.Fatal("database open", zap.Error(err))
	}
	defer db.Close()

	loc, err := time.LoadLocation(cfg.BusinessTZ)
	if err != nil {
		zl.Fatal("invalid BUSINESS_TZ", zap.String("tz", cfg.BusinessTZ), zap.Error(err))
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		zl.Warn("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	boats := repository.NewBoatRepo(db)
	reservations := repository.NewReservationRepo(db)

	lg := ledger.New(reservations, ledger.WithTimezone(loc))
	cacheCfg := config.LoadCacheConfig()

	go func() {
		if err := queue.StartDecisionConsumer(); err != nil {
			zl.Error("decision consumer stopped", zap.Error(err))
		}
	}()

	e := echo.New()
	e.HideBanner = true

	router.Register(e, router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Me:           handler.NewMeHandler(users, reservations, lg, cacheCfg, rdb),
		Public:       handler.NewPublicHandler(lg, boats),
		Reservations: handler.NewReservationHandler(lg, boats, cacheCfg, rdb),
		AdminRes:     handler.NewAdminReservationHandler(lg, reservations, boats, cacheCfg, rdb),
		AdminBoats:   handler.NewAdminBoatHandler(boats),
		AdminUsers:   handler.NewAdminUserHandler(users, cfg.BcryptCost),
		Health:       handler.Health(db),
	}, cfg, rdb, metrics.NewHTTPMetrics())

	addr := ":" + cfg.Port
	zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
	if err := e.Start(addr); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}
