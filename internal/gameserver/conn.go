package gameserver

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Conn is one live WebSocket connection. Outbound frames flow through the
// buffered send channel so broadcasts never block on a slow client.
type Conn struct {
	id  string
	ws  *websocket.Conn
	hub *Hub

	// mu guards send and closed. A reader goroutine can still be mid-message
	// (delivering a join ack) when the hub force-closes the connection, so
	// enqueue must observe closed instead of hitting a closed channel.
	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// ID returns the connection's unique identity.
func (c *Conn) ID() string { return c.id }

// enqueue stages a frame for the write pump. A full buffer drops the frame
// (delivery is best-effort); a closed connection drops it silently.
func (c *Conn) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.logger.Warn("send buffer full, dropping frame", zap.String("conn", c.id))
	}
}

// sendAck stages a join acknowledgment frame.
func (c *Conn) sendAck(seq uint64, ackErr error) {
	data, err := encodeAck(seq, ackErr)
	if err != nil {
		c.hub.logger.Error("encoding ack failed", zap.String("conn", c.id), zap.Error(err))
		return
	}
	c.enqueue(data)
}

// close shuts the send channel, which makes the write pump send a close
// frame and tear the socket down. Idempotent, and safe against concurrent
// enqueues: the closed flag flips under the same mutex enqueue holds.
func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// readPump consumes inbound frames until the connection dies, then
// unregisters. Loss of the connection is the session's only end-of-life
// signal, so unregistering here is what drives disconnect handling.
func (c *Conn) readPump() {
	defer c.hub.unregister(c)

	readTimeout := c.hub.cfg.ReadTimeout
	_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(readTimeout))
	})

	for {
		messageType, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("read error", zap.String("conn", c.id), zap.Error(err))
			}
			return
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(readTimeout))

		if messageType == websocket.TextMessage {
			c.hub.handleMessage(c, data)
		}
	}
}

// writePump drains the send channel to the socket and keeps the connection
// alive with periodic pings.
func (c *Conn) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
