package main // Entry point package

import (
    "context"
    "log"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/joho/godotenv"
    "github.com/labstack/echo/v4"

    "github.com/ticketrush/booking/internal/config"
    "github.com/ticketrush/booking/internal/database"
    "github.com/ticketrush/booking/internal/handler"
    "github.com/ticketrush/booking/internal/lock"
    "github.com/ticketrush/booking/internal/notify"
    "github.com/ticketrush/booking/internal/queue"
    "github.com/ticketrush/booking/internal/repository"
    "github.com/ticketrush/booking/internal/router"
    "github.com/ticketrush/booking/internal/worker"
)

func main() {
    // Load a local .env when present; real deployments rely on the
    // process environment.
    _ = godotenv.Load()
    cfg := config.Load()

    db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
    if err != nil {
        log.Fatalf("database connect failed: %v", err)
    }
    defer func() { _ = db.Close() }()

    // Redis carries the seat locks and the notification bus; without
    // it the pipeline cannot guarantee seat exclusivity.
    rdb := config.NewRedisClient()
    if rdb == nil {
        log.Fatal("redis connect failed; seat locking requires redis")
    }
    defer func() { _ = rdb.Close() }()

    bus := notify.NewRedisEventBus(rdb)
    hub := notify.NewHub()
    tickets := repository.NewTicketRepo(db)
    notifications := repository.NewNotificationRepo(db)
    locks := lock.NewManager(lock.NewRedisStore(rdb), bus, cfg.LockTTL)
    publisher := queue.NewPublisher(cfg.AMQPURL)

    ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
    defer stop()

    // Booking worker: consumes commands from the durable queue and
    // converts verified locks into tickets.
    bookingWorker := worker.New(locks, tickets, bus)
    go func() {
        if err := queue.StartBookingConsumer(ctx, cfg.AMQPURL, bookingWorker.ProcessBooking); err != nil && ctx.Err() == nil {
            log.Printf("booking-consumer stopped: %v", err)
        }
    }()

    // Notification fan-out: persists bus events and pushes them to
    // live sessions.
    fanout := notify.NewFanout(bus, notifications, hub)
    go fanout.Run(ctx)

    e := echo.New()
    router.RegisterRoutes(e)
    router.RegisterBooking(e, handler.NewBookingHandler(locks, publisher, tickets),
        cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
    router.RegisterNotifications(e, handler.NewNotificationHandler(notifications, hub), cfg.JWTSecret)

    addr := ":" + cfg.Port
    log.Printf("listening on %s (env=%s)", addr, cfg.Env)

    go func() {
        if err := e.Start(addr); err != nil {
            log.Printf("http server stopped: %v", err)
            stop()
        }
    }()

    <-ctx.Done()
    log.Print("shutting down")
    shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := e.Shutdown(shutdownCtx); err != nil {
        log.Printf("http shutdown: %v", err)
        os.Exit(1)
    }
}
