package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/iamjiwoo/subway-priority-seat/internal/hub"
)

// upgrader performs the HTTP→websocket upgrade for viewer
// connections.  The browser client is served from a different origin
// than the API in every deployment we run, so the origin check is
// left permissive; the channel is read-only fan-out and carries no
// user-specific data.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSHandler upgrades viewer connections and hands them to the hub.
type WSHandler struct {
	Hub *hub.Hub
}

// NewWSHandler constructs a WSHandler bound to the given hub.
func NewWSHandler(h *hub.Hub) *WSHandler {
	if h == nil {
		panic("nil hub passed to NewWSHandler")
	}
	return &WSHandler{Hub: h}
}

// Serve handles GET /api/ws.  Each connection is registered with the
// hub and then only receives; the core requires no client→server
// messages, so the read loop exists purely to notice the transport
// closing and unregister the viewer.
func (h *WSHandler) Serve(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		return nil
	}
	client := hub.NewClient(conn)
	h.Hub.Register(client)
	go client.WritePump()

	// Block on reads until the viewer disconnects; inbound payloads
	// are discarded.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.Hub.Unregister(client)
	return nil
}
