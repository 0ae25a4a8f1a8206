package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iamjiwoo/subway-priority-seat/internal/handler"
	"github.com/iamjiwoo/subway-priority-seat/internal/middleware"
)

// RegisterReservations registers the reservation endpoints under /api.
// All routes require a valid JWT; creating and cancelling additionally
// require a verified pregnancy certificate, which reaches us as the
// "verified" claim.  Listing one's own history only needs the JWT.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string) {
	g := e.Group("/api", middleware.JWTAuth(jwtSecret))

	g.GET("/reservations/mine", h.ListMine)

	verified := g.Group("", middleware.RequireVerified())
	verified.POST("/reservations", h.Create)
	verified.DELETE("/reservations/:id", h.Delete)
}
