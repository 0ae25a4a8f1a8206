package hub

// Conn is the subset of a websocket connection the hub needs.  It is
// satisfied by *websocket.Conn from gorilla/websocket; tests supply
// in-memory fakes.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Client is one connected viewer.  Its lifecycle is
// connecting→open→closed: a Client is "connecting" between
// construction and Register, "open" while it is in the hub's registry,
// and "closed" once the hub has dropped it and closed the send
// channel.  Only open clients receive broadcasts.
type Client struct {
	conn Conn
	send chan Event
}

// NewClient wraps a connection in a Client with a buffered outbound
// queue.  The buffer absorbs short bursts; a viewer that cannot drain
// it is dropped by the hub rather than slowing the broadcast loop.
func NewClient(conn Conn) *Client {
	return &Client{conn: conn, send: make(chan Event, 16)}
}

// WritePump forwards queued events to the underlying connection until
// the send channel is closed or a write fails.  It must run in its own
// goroutine, one per client.  The connection is closed on exit so the
// viewer's read loop unblocks.
func (c *Client) WritePump() {
	defer c.conn.Close()
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			return
		}
	}
}
