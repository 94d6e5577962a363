package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/recital-seat-booking/internal/clock"
	"github.com/iliyamo/recital-seat-booking/internal/config"
	"github.com/iliyamo/recital-seat-booking/internal/database"
	"github.com/iliyamo/recital-seat-booking/internal/handler"
	"github.com/iliyamo/recital-seat-booking/internal/middleware"
	"github.com/iliyamo/recital-seat-booking/internal/queue"
	"github.com/iliyamo/recital-seat-booking/internal/repository"
	"github.com/iliyamo/recital-seat-booking/internal/router"
	"github.com/iliyamo/recital-seat-booking/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Open(database.Options{
		User:     cfg.DBUser,
		Pass:     cfg.DBPass,
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Name:     cfg.DBName,
		LockWait: cfg.DBLockWait,
	})
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if cfg.DBMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			log.Fatalf("migrate: %v", err)
		}
	}

	rdb := config.NewRedisClient() // nil disables cache and rate limit
	publisher := queue.NewPublisher(cfg.RabbitURL)
	clk := clock.NewSystem()

	tx := repository.NewTxManager(db)
	shows := repository.NewShowRepo(db)
	seats := repository.NewSeatRepo(db)
	guests := repository.NewGuestRepo(db)
	bookings := repository.NewBookingRepo(db)

	layout := service.NewLayout(tx, shows, seats, bookings)
	engine := service.NewEngine(tx, shows, seats, guests, bookings, publisher, clk, service.EngineConfig{
		FrontendURL:   cfg.FrontendURL,
		NotifyTimeout: cfg.NotifyTimeout,
	})
	checkIns := service.NewCheckIn(tx, bookings, clk)
	identity := service.NewIdentity(tx, guests, publisher, clk, service.IdentityConfig{
		JWTSecret:     cfg.JWTSecret,
		SessionTTL:    cfg.SessionTTL,
		LoginTokenTTL: cfg.LoginTokenTTL,
		FrontendURL:   cfg.FrontendURL,
		NotifyTimeout: cfg.NotifyTimeout,
	})

	cacheCfg := config.LoadCacheConfig()
	purge := middleware.PurgeOnWrite(cacheCfg, rdb)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			if v.Error != nil {
				log.Printf("%s %s %d %s ip=%s err=%v", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP, v.Error)
				return nil
			}
			log.Printf("%s %s %d %s ip=%s", v.Method, v.URI, v.Status, v.Latency, v.RemoteIP)
			return nil
		},
	}))

	router.RegisterRoutes(e, db)
	router.RegisterPublic(e, handler.NewShowHandler(layout, cfg.RequestTimeout), middleware.NewRedisCache(cacheCfg, rdb))
	router.RegisterAuth(e, handler.NewAuthHandler(identity, cfg.FrontendURL, cfg.Dev(), cfg.RequestTimeout), identity)
	router.RegisterBookings(e,
		handler.NewBookingHandler(engine, checkIns, cfg.FrontendURL, cfg.RequestTimeout),
		identity,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		purge,
	)
	router.RegisterAdmin(e, handler.NewAdminHandler(layout, cfg.RequestTimeout), cfg.AdminPasswordHash, purge)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	addr := ":" + cfg.Port
	go func() {
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	if err := publisher.Close(); err != nil {
		log.Printf("amqp close: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := db.Close(); err != nil {
		log.Printf("db close: %v", err)
	}
}
