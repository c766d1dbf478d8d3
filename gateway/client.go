package gateway

import (
	"sync"
	"time"

	"chat-hub/domain"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second
	// Time allowed to read the next pong before the connection is dropped.
	pongWait = 60 * time.Second
	// Ping interval, must be less than pongWait.
	pingPeriod = 30 * time.Second
	// Maximum inbound frame size.
	maxFrameSize = 1 << 16
	// Outbound buffer per connection; a full buffer drops frames rather
	// than blocking the dispatcher.
	sendBufferSize = 256
)

// Client is one live transport connection bound to exactly one identity.
// The binding happens at successful authentication and never changes.
type Client struct {
	gw   *Gateway
	conn *websocket.Conn
	user domain.User

	send     chan []byte
	mu       sync.Mutex
	closed   bool
	dropOnce sync.Once
}

func newClient(gw *Gateway, conn *websocket.Conn, user domain.User) *Client {
	return &Client{
		gw:   gw,
		conn: conn,
		user: user,
		send: make(chan []byte, sendBufferSize),
	}
}

// Identity returns the identity the handle was bound to at authentication.
func (c *Client) Identity() domain.Identity { return c.user.ID }

// enqueue offers a frame to the connection's outbound buffer. Delivery is
// fire-and-forget: a closed connection or a full buffer drops the frame and
// reports false, which is never treated as an error upstream.
func (c *Client) enqueue(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// shutdown closes the outbound channel exactly once, which terminates the
// write pump. Safe to call from any error path.
func (c *Client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump reads inbound frames and forwards them to the gateway until the
// transport closes, then triggers the lifecycle cleanup.
func (c *Client) readPump() {
	defer c.gw.dropClient(c)

	c.conn.SetReadLimit(maxFrameSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.gw.log.Debug("Connection closed unexpectedly", "user", c.user.ID, "err", err)
			}
			return
		}
		c.gw.handleFrame(c, raw)
	}
}

// writePump drains the outbound buffer to the transport and keeps the
// connection alive with periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
