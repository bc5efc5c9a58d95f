package kitchen

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 4 * 1024
	sendBuffer     = 256
)

// ErrConnectionClosed is returned by Send once a connection is shut down or
// its outbound buffer is full. Either way the connection is unhealthy and
// the hub drops it.
var ErrConnectionClosed = errors.New("kitchen connection closed")

// WSConn adapts a gorilla websocket connection to the hub's Endpoint
// interface. Writes go through a buffered channel drained by writePump so a
// broadcast never blocks on a slow display.
type WSConn struct {
	id   uuid.UUID
	conn *websocket.Conn
	send chan []byte
	log  *logrus.Entry

	closeOnce sync.Once
	closed    chan struct{}
}

// NewWSConn wraps an upgraded websocket connection, registers it with the
// hub and starts its pumps. Registration happens before the pumps so a
// connection dying immediately still deregisters cleanly. The connection
// removes itself from the hub when either pump exits.
func NewWSConn(conn *websocket.Conn, hub *Hub, log *logrus.Logger) *WSConn {
	c := &WSConn{
		id:     uuid.New(),
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
	c.log = log.WithField("component", "kitchen").WithField("connection", c.id)

	hub.Register(c)
	go c.writePump(hub)
	go c.readPump(hub)
	return c
}

// ID returns the connection identity.
func (c *WSConn) ID() uuid.UUID {
	return c.id
}

// Send queues a frame for delivery. Returns ErrConnectionClosed when the
// connection is gone or its buffer is full; the actual write happens in
// writePump.
func (c *WSConn) Send(message []byte) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- message:
		return nil
	default:
		// Buffer full means the display stopped reading; treat it as dead.
		return ErrConnectionClosed
	}
}

// Close shuts the connection down. Idempotent.
func (c *WSConn) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.conn.Close()
	})
	return nil
}

// readPump consumes inbound frames. Kitchen displays are push-only, so the
// pump exists to service pings and to notice the peer going away.
func (c *WSConn) readPump(hub *Hub) {
	defer func() {
		hub.Deregister(c.id)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.log.WithError(err).Warn("kitchen websocket read error")
			}
			return
		}
	}
}

// writePump drains the send channel onto the wire and keeps the connection
// alive with pings.
func (c *WSConn) writePump(hub *Hub) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		hub.Deregister(c.id)
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.log.WithError(err).Warn("kitchen websocket write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closed:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, nil)
			return
		}
	}
}
