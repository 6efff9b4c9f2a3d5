package ws

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// Client adapts a websocket connection to the Subscriber interface.
// Event frames arrive from the hub goroutine and pings from the
// handler's keepalive ticker, so writes are serialized with a mutex.
type Client struct {
	conn *websocket.Conn
	log  *slog.Logger

	mu sync.Mutex
}

func NewClient(conn *websocket.Conn, logger *slog.Logger) *Client {
	return &Client{conn: conn, log: logger}
}

// Send writes one event frame. A slow or dead peer trips the write
// deadline and the hub drops the subscription.
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.log.Warn("websocket send failed", "error", err)
		_ = c.conn.Close()
		return err
	}
	return nil
}

// Ping emits a control frame to keep the connection alive.
func (c *Client) Ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

// Close terminates the connection.
func (c *Client) Close() {
	_ = c.conn.Close()
}
