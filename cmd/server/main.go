package main // Entry point package

import (
    "context"
    "log"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/event-seat-booking/internal/config"
    "github.com/iliyamo/event-seat-booking/internal/database"
    "github.com/iliyamo/event-seat-booking/internal/handler"
    "github.com/iliyamo/event-seat-booking/internal/middleware"
    "github.com/iliyamo/event-seat-booking/internal/queue"
    "github.com/iliyamo/event-seat-booking/internal/repository"
    "github.com/iliyamo/event-seat-booking/internal/router"
    "github.com/iliyamo/event-seat-booking/internal/service"
)

func main() {
    _ = godotenv.Load() // .env is optional; real env vars win
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database open: %v", err)
    }
    defer db.Close()
    if err := database.EnsureSchema(context.Background(), db); err != nil {
        log.Fatalf("database schema: %v", err)
    }

    // Seed the seat table on boot so a fresh deployment serves seats
    // without a manual init call; /seats/init stays available and is a
    // no-op once rows exist.
    seats := repository.NewSeatRepo(db)
    if created, err := seats.Seed(context.Background(), cfg.SeatCount); err != nil {
        log.Fatalf("seat seed: %v", err)
    } else if created {
        log.Printf("seeded %d seats", cfg.SeatCount)
    }

    users := repository.NewUserRepo(db)
    tokens := repository.NewTokenRepo(db)

    locks := service.NewLockManager(seats, cfg.LockTTL)
    booker := service.NewBookingFinalizer(seats, cfg.LockTTL, queue.NewPublisher())
    sweeper := service.NewSweeper(seats, cfg.LockTTL, cfg.SweepInterval)

    // Background workers. The sweeper reclaims locks whose holder went
    // away; the consumer mirrors booking events into logs/booking.log.
    sweepCtx, stopSweep := context.WithCancel(context.Background())
    defer stopSweep()
    go func() {
        if err := sweeper.Run(sweepCtx); err != nil {
            log.Printf("sweeper stopped: %v", err)
        }
    }()
    go func() {
        if err := queue.StartSeatBookedConsumer(); err != nil {
            log.Printf("booking consumer stopped: %v", err)
        }
    }()

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterAuth(e, handler.NewAuthHandler(cfg, users, tokens), cfg.JWTSecret)

    // Redis is optional; when unreachable both middlewares degrade to
    // pass-through.
    rdb := config.NewRedisClient()
    seatHandler := handler.NewSeatHandler(seats, locks, booker, cfg.SeatCount)
    router.RegisterSeats(e, seatHandler, cfg.JWTSecret,
        middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
        middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
    )

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s, lock_ttl=%s)", addr, cfg.Env, cfg.LockTTL)
    if err := e.Start(addr); err != nil {
        log.Fatal(err)
    }
}
