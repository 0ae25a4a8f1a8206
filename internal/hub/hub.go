package hub

// Hub owns the registry of connected viewers.  It is an explicit
// object constructed at server start and closed at shutdown, injected
// wherever reservation or ingest code needs to trigger a broadcast.
// All registry mutation and iteration happens on the single run loop
// goroutine, so a broadcast can never observe a register or unregister
// mid-iteration.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
}

// New constructs a Hub.  The caller must invoke Run (usually in its
// own goroutine) before registering clients.
func New() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 64),
		done:       make(chan struct{}),
	}
}

// Run processes register, unregister and broadcast requests until
// Close is called.  On shutdown every remaining client's send channel
// is closed, which terminates its WritePump and closes its connection.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			h.drop(c)
		case ev := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- ev:
				default:
					// Viewer is not draining its queue; drop it
					// rather than block the fan-out.  The viewer
					// reconnects and refetches full state.
					h.drop(c)
				}
			}
		case <-h.done:
			for c := range h.clients {
				h.drop(c)
			}
			return
		}
	}
}

func (h *Hub) drop(c *Client) {
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// Register adds a viewer to the live set.  The client starts receiving
// broadcasts once the run loop has processed the request.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.send)
	}
}

// Unregister removes a viewer.  It is called from the connection's
// read loop when the transport reports a close; no explicit
// client-side unregister message exists.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues an event for delivery to every open connection.
// Delivery is fire-and-forget; the caller never waits on viewers.
func (h *Hub) Broadcast(ev Event) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	}
}

// Close stops the run loop and disconnects all viewers.
func (h *Hub) Close() {
	close(h.done)
}
