package signal

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/chamlab/lobby/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	errClosed       = errors.New("connection closed")
)

// wsConn wraps a websocket connection with a bounded non-blocking send
// queue. The write pump drains the queue; a full queue fails TrySend so
// a slow consumer can never stall a broadcast.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func newWSConn(ws *websocket.Conn, buffer int) *wsConn {
	if buffer <= 0 {
		buffer = 64
	}
	return &wsConn{
		conn: ws,
		send: make(chan core.Frame, buffer),
	}
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
