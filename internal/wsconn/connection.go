// Package wsconn is the connection layer (component I): it owns every
// live gorilla/websocket socket, shards inbound frames across a worker
// pool keyed by connection id, and hands each frame to a
// msgrouter.Router for decoding and dispatch. It also implements
// eventrouter.Dispatcher, turning a game's routed domain events into
// writes on whichever sockets currently hold that game's four seats.
package wsconn

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"mahjongserver/common/log"
)

var (
	pongWait             = 30 * time.Second
	writeWait            = 10 * time.Second
	pingInterval         = (pongWait * 9) / 10
	maxMessageSize int64 = 1 << 16
)

// pack is one inbound frame tagged with the connection it arrived on.
type pack struct {
	connID string
	body   []byte
}

// connection wraps one accepted websocket and its write-side channel.
// Close is idempotent: both the read and write pumps, and a forced
// server-side close, can call it without double-closing closeChan.
type connection struct {
	connID    string
	conn      *websocket.Conn
	hub       *Hub
	writeChan chan []byte
	closeChan chan struct{}
	closeOnce sync.Once
}

func newConnection(connID string, conn *websocket.Conn, hub *Hub) *connection {
	return &connection{
		connID:    connID,
		conn:      conn,
		hub:       hub,
		writeChan: make(chan []byte, 256),
		closeChan: make(chan struct{}),
	}
}

func (c *connection) run() {
	go c.writePump()
	go c.readPump()
}

func (c *connection) readPump() {
	defer func() {
		c.hub.removeClient(c.connID)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, body, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn("wsconn: conn %s closed unexpectedly: %v", c.connID, err)
			}
			return
		}
		if msgType != websocket.BinaryMessage {
			log.Warn("wsconn: conn %s sent unsupported frame type %d", c.connID, msgType)
			continue
		}
		c.hub.dispatch(pack{connID: c.connID, body: body})
	}
}

func (c *connection) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case body, ok := <-c.writeChan:
			if !ok {
				_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = c.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, body); err != nil {
				log.Error("wsconn: conn %s write failed: %v", c.connID, err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.closeChan:
			return
		}
	}
}

// send enqueues a frame for delivery, dropping it rather than blocking
// the caller if the connection's write buffer is full and already on
// its way out.
func (c *connection) send(body []byte) {
	select {
	case c.writeChan <- body:
	case <-c.closeChan:
	default:
		log.Warn("wsconn: conn %s write buffer full, dropping frame", c.connID)
	}
}

func (c *connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closeChan)
	})
}
