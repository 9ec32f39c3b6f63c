package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Conn is the connection handle passed through the domain services. Sends
// are serialized and bounded by a write deadline so that one stalled peer
// can never hold up a fan-out loop. Implementations must be safe for
// concurrent use.
type Conn interface {
	// Send writes v as a JSON frame, failing after the write deadline.
	Send(v interface{}) error
	// Close tears down the transport.
	Close() error
}

type wsConn struct {
	mu           sync.Mutex
	ws           *websocket.Conn
	writeTimeout time.Duration
}

// WrapConn adapts a gorilla connection into a deadline-bounded Conn.
func WrapConn(ws *websocket.Conn, writeTimeout time.Duration) Conn {
	return &wsConn{ws: ws, writeTimeout: writeTimeout}
}

func (c *wsConn) Send(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	return c.ws.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.ws.Close()
}
