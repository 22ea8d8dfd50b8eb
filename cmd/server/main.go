package main

import (
	"context"
	"log"
	"math/rand"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/autonow/autonow-backend/internal/auth"
	"github.com/autonow/autonow-backend/internal/config"
	"github.com/autonow/autonow-backend/internal/handler"
	"github.com/autonow/autonow-backend/internal/queue"
	"github.com/autonow/autonow-backend/internal/repository"
	"github.com/autonow/autonow-backend/internal/router"
	"github.com/autonow/autonow-backend/internal/service"
	"github.com/autonow/autonow-backend/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx := context.Background()

	rdb := config.NewRedisClient()

	var kv store.KV
	switch cfg.StoreBackend {
	case "memory":
		kv = store.NewMemory()
	case "redis":
		if rdb == nil {
			log.Fatal("STORE_BACKEND=redis but redis is unreachable")
		}
		kv = store.NewRedis(rdb)
	case "mysql":
		cfg.MustMySQL()
		m, err := store.OpenMySQL(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			log.Fatalf("mysql store: %v", err)
		}
		defer m.Close()
		kv = m
	default:
		log.Fatalf("unknown STORE_BACKEND %q", cfg.StoreBackend)
	}
	st := store.New(kv)

	if err := repository.Bootstrap(ctx, st); err != nil {
		log.Fatalf("bootstrap: %v", err)
	}

	authSvc := auth.NewService(st, cfg.AuthHash, cfg.BcryptCost)
	if _, err := authSvc.CleanupExpiredData(ctx); err != nil {
		log.Printf("startup cleanup: %v", err)
	}
	if cfg.CleanupInterval > 0 {
		go authSvc.StartCleanupLoop(ctx, cfg.CleanupInterval)
	}

	pub := service.NewPublisher(cfg.RabbitURL)
	if pub.Enabled() {
		go queue.StartRideConsumer(cfg.RabbitURL)
	}

	rng := service.NewRand(rand.Int63())
	booking := service.NewBooking(
		repository.NewRideRepo(st),
		authSvc.Drivers,
		service.NewRandQuoter(rng),
		service.NewRandMatcher(rng),
		service.NewRandProgress(rng),
		pub,
	)

	e := echo.New()
	router.Register(e, router.Deps{
		Auth:      authSvc,
		AuthH:     handler.NewAuthHandler(authSvc),
		DriverH:   handler.NewDriverHandler(authSvc, booking),
		RideH:     handler.NewRideHandler(booking),
		AdminH:    handler.NewAdminHandler(authSvc, st),
		Progress:  handler.NewProgressHandler(booking),
		RateLimit: config.LoadRateLimitConfig(),
		Redis:     rdb,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, store=%s)", addr, cfg.Env, cfg.StoreBackend)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
