package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // Echo web framework used for routing

	"github.com/iamjiwoo/subway-priority-seat/internal/handler" // handlers that implement the endpoints
	"github.com/iamjiwoo/subway-priority-seat/internal/hub"
)

// RegisterRoutes registers routes that require no authentication on the
// provided Echo instance: the health check and the real-time viewer
// channel.  The websocket route carries no user-specific data, so it
// sits outside the JWT group; viewers that connect mid-stream fetch
// full state over the public seat endpoints.
func RegisterRoutes(e *echo.Echo, h *hub.Hub) {
	// Health check for load balancers and monitoring systems.
	e.GET("/healthz", handler.Health)

	ws := handler.NewWSHandler(h)
	e.GET("/api/ws", ws.Serve)
}
