package events

import (
	"net/http"
	"sync"
	"time"

	"clipcoach/internal/core/domain"
	"clipcoach/internal/core/ports"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Should be configured properly for production
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// client wraps one dashboard connection. writeMu serializes every frame
// write; gorilla/websocket allows at most one concurrent writer per
// connection, and events and pings arrive from different goroutines.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) writeEvent(event ports.VideoEvent, timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(timeout))
	return c.conn.WriteJSON(event)
}

func (c *client) writePing(timeout time.Duration) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout))
}

// Hub fans video lifecycle events out to connected dashboard clients.
// It is broadcast-only; clients never send application messages.
type Hub struct {
	connections map[domain.ActorID]*client
	mu          sync.RWMutex

	pingInterval time.Duration
	readTimeout  time.Duration
	writeTimeout time.Duration

	logger *zap.SugaredLogger
}

func NewHub(logger *zap.SugaredLogger) *Hub {
	return &Hub{
		connections:  make(map[domain.ActorID]*client),
		pingInterval: 30 * time.Second,
		readTimeout:  60 * time.Second,
		writeTimeout: 10 * time.Second,
		logger:       logger,
	}
}

// HandleWebSocket upgrades the request and keeps the connection
// registered until the client goes away. actorID comes from the auth
// middleware, not from the client.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request, actorID domain.ActorID) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Errorw("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	cl := &client{conn: conn}

	h.mu.Lock()
	if existing, reconnect := h.connections[actorID]; reconnect && existing != nil {
		existing.conn.Close()
		h.logger.Infow("closing old connection for reconnecting client", "actor_id", actorID)
	}
	h.connections[actorID] = cl
	h.mu.Unlock()

	h.logger.Infow("dashboard client connected", "actor_id", actorID)

	defer func() {
		h.mu.Lock()
		if h.connections[actorID] == cl {
			delete(h.connections, actorID)
		}
		h.mu.Unlock()
		h.logger.Infow("dashboard client disconnected", "actor_id", actorID)
	}()

	conn.SetReadDeadline(time.Now().Add(h.readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.readTimeout))
		return nil
	})

	done := make(chan struct{})
	go h.pingLoop(cl, done)
	defer close(done)

	// Drain control frames; any read error ends the session.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) pingLoop(cl *client, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := cl.writePing(h.writeTimeout); err != nil {
				return
			}
		}
	}
}

// PublishVideoEvent sends the event to every connected client. Slow or
// broken connections are dropped rather than blocking the publisher.
func (h *Hub) PublishVideoEvent(event ports.VideoEvent) {
	h.mu.RLock()
	clients := make(map[domain.ActorID]*client, len(h.connections))
	for id, cl := range h.connections {
		clients[id] = cl
	}
	h.mu.RUnlock()

	for actorID, cl := range clients {
		if err := cl.writeEvent(event, h.writeTimeout); err != nil {
			h.logger.Warnw("dropping dashboard client after write failure",
				"actor_id", actorID,
				"error", err,
			)
			cl.conn.Close()
			h.mu.Lock()
			if h.connections[actorID] == cl {
				delete(h.connections, actorID)
			}
			h.mu.Unlock()
		}
	}
}

// ClientCount reports how many dashboard clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

// Close terminates every connection, typically during shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, cl := range h.connections {
		cl.conn.Close()
		delete(h.connections, id)
	}
}
