package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iamjiwoo/subway-priority-seat/internal/config"
	"github.com/iamjiwoo/subway-priority-seat/internal/database"
	"github.com/iamjiwoo/subway-priority-seat/internal/handler"
	"github.com/iamjiwoo/subway-priority-seat/internal/hub"
	"github.com/iamjiwoo/subway-priority-seat/internal/queue"
	"github.com/iamjiwoo/subway-priority-seat/internal/repository"
	"github.com/iamjiwoo/subway-priority-seat/internal/router"
	"github.com/iamjiwoo/subway-priority-seat/internal/service"
)

func main() {
	// Load .env if present; real deployments set the environment
	// directly and the file is absent.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis backs rate limiting and response caching; nil disables both.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; rate limiting and caching disabled")
	}

	// The broadcast hub owns the viewer registry for the whole process
	// lifetime.  Reservation and ingest services are handed the same
	// instance so every successful seat write fans out exactly once.
	h := hub.New()
	go h.Run()

	seatRepo := repository.NewSeatRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	publisher := service.NewSeatStatusPublisher(cfg.AMQPURL)
	reservationSvc := service.NewReservationService(seatRepo, reservationRepo, h, publisher)
	ingestSvc := service.NewIngestService(seatRepo, h, publisher)

	// Background audit consumer; reconnects on broker failure.
	go func() {
		if err := queue.StartSeatStatusConsumer(cfg.AMQPURL); err != nil {
			log.Printf("seat-status consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e, h)
	router.RegisterReservations(e, handler.NewReservationHandler(reservationSvc), cfg.JWTSecret)
	router.RegisterSeats(e, handler.NewSeatHandler(seatRepo, ingestSvc), cfg.HardwareToken, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	// Drain in-flight requests, then disconnect viewers and release the
	// database pool.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Printf("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	h.Close()
	if err := db.Close(); err != nil {
		log.Printf("database close: %v", err)
	}
}
