package live

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 16
)

// client owns one connection. Only writePump writes to it; everyone else
// queues messages on send.
type client struct {
	conn *websocket.Conn
	send chan any
	done chan struct{}
	once sync.Once
}

func newClient(conn *websocket.Conn) *client {
	return &client{
		conn: conn,
		send: make(chan any, sendBuffer),
		done: make(chan struct{}),
	}
}

// enqueue never blocks. It reports false when the client is gone or too far
// behind.
func (c *client) enqueue(msg any) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer c.close()

	for {
		select {
		case <-c.done:
			return
		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Hub fans incident change events out to the websocket clients watching that
// incident.
type Hub struct {
	mu       sync.RWMutex
	clients  map[uint]map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewHub(allowedOrigins []string, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return &Hub{
		clients: make(map[uint]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		logger: logger,
	}
}

// IncidentChanged tells every watcher of the incident to refresh.
func (h *Hub) IncidentChanged(incidentID uint) {
	h.mu.RLock()
	watchers := make([]*client, 0, len(h.clients[incidentID]))
	for c := range h.clients[incidentID] {
		watchers = append(watchers, c)
	}
	h.mu.RUnlock()

	msg := map[string]any{
		"type":        "refresh",
		"message":     "Incident data updated",
		"incident_id": incidentID,
	}
	for _, c := range watchers {
		if !c.enqueue(msg) {
			h.logger.Warn("Dropping slow websocket client", zap.Uint("incident_id", incidentID))
			h.remove(incidentID, c)
			c.close()
		}
	}
}

func (h *Hub) Watchers(incidentID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[incidentID])
}

func (h *Hub) add(incidentID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[incidentID] == nil {
		h.clients[incidentID] = make(map[*client]struct{})
	}
	h.clients[incidentID][c] = struct{}{}
}

func (h *Hub) remove(incidentID uint, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if watchers, ok := h.clients[incidentID]; ok {
		delete(watchers, c)
		if len(watchers) == 0 {
			delete(h.clients, incidentID)
		}
	}
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away.
func (h *Hub) Serve(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("incident_id"), 10, 32)
	if err != nil || id == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid incident ID"})
		return
	}
	incidentID := uint(id)

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	c := newClient(conn)
	h.add(incidentID, c)

	defer func() {
		h.remove(incidentID, c)
		c.close()
		h.logger.Debug("WebSocket connection closed", zap.Uint("incident_id", incidentID))
	}()

	c.enqueue(map[string]any{
		"type":        "connected",
		"message":     "WebSocket connection established",
		"incident_id": incidentID,
	})
	go c.writePump()

	for {
		if err := conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			break
		}

		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Warn("WebSocket error", zap.Error(err), zap.Uint("incident_id", incidentID))
			}
			break
		}
	}
}
