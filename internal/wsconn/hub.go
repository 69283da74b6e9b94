package wsconn

import (
	"hash/fnv"
	"net/http"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"mahjongserver/common/log"
	"mahjongserver/internal/eventrouter"
	"mahjongserver/internal/msgrouter"
)

const bucketCount = 32

type bucket struct {
	mu      sync.RWMutex
	clients map[string]*connection
}

// Hub accepts websocket upgrades, shards live connections across
// bucketCount lock stripes, and fans inbound frames out across a
// worker pool sized to the host before handing each one to Router.
// HandleMessage. It is the sole place a connection id resolves to a
// live socket, so it also implements eventrouter.Dispatcher: a routed
// domain event is delivered by asking Router which connection holds
// the target seat(s) and writing straight to that connection's buffer.
type Hub struct {
	Router   *msgrouter.Router
	upgrader websocket.Upgrader

	buckets     [bucketCount]*bucket
	workers     []chan pack
	workerMask  uint32
	connCounter int64
}

func NewHub(router *msgrouter.Router) *Hub {
	workerCount := runtime.NumCPU() * 2
	if workerCount < 2 {
		workerCount = 2
	}
	h := &Hub{
		Router: router,
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
		workers: make([]chan pack, workerCount),
	}
	for i := range h.buckets {
		h.buckets[i] = &bucket{clients: make(map[string]*connection)}
	}
	for i := range h.workers {
		h.workers[i] = make(chan pack, 256)
		go h.workerLoop(h.workers[i])
	}
	return h
}

// ServeHTTP upgrades the request to a websocket and starts pumping it.
// Authentication (matching the connection to a user) happens at the
// JOIN_ROOM/RECONNECT message level via the game ticket, not here; the
// HTTP layer in front of this endpoint is where a reverse proxy or the
// httpapi package would apply any transport-level access control.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("wsconn: upgrade failed: %v", err)
		return
	}

	connID := uuid.New().String()
	c := newConnection(connID, conn, h)
	h.addClient(c)
	c.run()
	log.Info("wsconn: accepted connection %s from %s", connID, r.RemoteAddr)
}

func (h *Hub) bucketFor(connID string) *bucket {
	return h.buckets[fnv32(connID)%bucketCount]
}

func (h *Hub) addClient(c *connection) {
	b := h.bucketFor(c.connID)
	b.mu.Lock()
	b.clients[c.connID] = c
	b.mu.Unlock()
	atomic.AddInt64(&h.connCounter, 1)
}

func (h *Hub) removeClient(connID string) {
	b := h.bucketFor(connID)
	b.mu.Lock()
	_, existed := b.clients[connID]
	delete(b.clients, connID)
	b.mu.Unlock()
	if existed {
		atomic.AddInt64(&h.connCounter, -1)
	}
}

func (h *Hub) connFor(connID string) (*connection, bool) {
	b := h.bucketFor(connID)
	b.mu.RLock()
	defer b.mu.RUnlock()
	c, ok := b.clients[connID]
	return c, ok
}

// dispatch routes one inbound frame to the worker responsible for its
// connection id, preserving per-connection ordering without a lock per
// message; a full worker queue falls back to handling the frame inline
// rather than dropping it.
func (h *Hub) dispatch(p pack) {
	idx := fnv32(p.connID) % uint32(len(h.workers))
	select {
	case h.workers[idx] <- p:
	default:
		log.Warn("wsconn: worker %d queue full, handling inline", idx)
		h.handle(p)
	}
}

func (h *Hub) workerLoop(in chan pack) {
	for p := range in {
		h.handle(p)
	}
}

func (h *Hub) handle(p pack) {
	for _, out := range h.Router.HandleMessage(p.connID, p.body) {
		h.write(out.ConnID, out.Frame)
	}
}

func (h *Hub) write(connID string, frame []byte) {
	c, ok := h.connFor(connID)
	if !ok {
		return
	}
	c.send(frame)
}

// Deliver implements eventrouter.Dispatcher: it asks Router which
// connection currently holds each seat of gameID and writes the
// encoded event straight to that connection's buffer, or to every
// seated connection for a broadcast target.
func (h *Hub) Deliver(gameID string, routed []eventrouter.Routed) {
	seats := h.Router.SeatConnsForGame(gameID)
	for _, r := range routed {
		frame, err := msgrouter.EncodeEvent(gameID, r.Event)
		if err != nil {
			log.Error("wsconn: encode event for game %s: %v", gameID, err)
			continue
		}
		if r.Target.Broadcast {
			for _, connID := range seats {
				h.write(connID, frame)
			}
			continue
		}
		if connID, ok := seats[r.Target.Seat]; ok {
			h.write(connID, frame)
		}
	}
}

func fnv32(key string) uint32 {
	hasher := fnv.New32a()
	_, _ = hasher.Write([]byte(key))
	return hasher.Sum32()
}
