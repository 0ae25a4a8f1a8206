package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iamjiwoo/subway-priority-seat/internal/config"
	"github.com/iamjiwoo/subway-priority-seat/internal/handler"
	"github.com/iamjiwoo/subway-priority-seat/internal/middleware"
)

// RegisterSeats registers the seat endpoints under /api.  The read
// endpoints are public and sit behind the Redis response cache (seat
// maps are re-read constantly by every open client, and a short TTL is
// fine because viewers reconcile against broadcast events anyway).
// The sensor ingest and train provisioning sit behind the hardware
// shared secret and a rate limiter, never behind user auth.
func RegisterSeats(e *echo.Echo, h *handler.SeatHandler, hardwareToken string, rdb *redis.Client) {
	cacheCfg := config.LoadCacheConfig()
	rlCfg := config.LoadRateLimitConfig()

	public := e.Group("/api/seats", middleware.NewRedisCache(cacheCfg, rdb))
	public.GET("/status/:trainNumber/:carNumber", h.GetStatus)
	public.GET("/available/:trainNumber", h.GetAvailable)
	public.GET("/priority/:trainNumber", h.GetPriority)

	hardware := e.Group("/api",
		middleware.HardwareAuth(hardwareToken),
		middleware.NewTokenBucket(rlCfg, rdb),
	)
	hardware.PATCH("/seats/:seatId/status", h.UpdateStatus)
	hardware.POST("/trains/:trainNumber/seats", h.ProvisionTrain)
}
