package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	writeWait      = 5 * time.Second
	broadcastQueue = 256
)

// Hub maintains the set of active websocket clients and broadcasts messages.
type Hub struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	broadcast chan []byte
	mutex     sync.Mutex
	gauge     prometheus.Gauge
}

// NewHub creates a hub accepting upgrades from allowedOrigins (nil = any).
// gauge, when set, tracks the number of connected clients.
func NewHub(allowedOrigins []string, gauge prometheus.Gauge) *Hub {
	h := &Hub{
		broadcast: make(chan []byte, broadcastQueue),
		clients:   make(map[*websocket.Conn]bool),
		gauge:     gauge,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || originAllowed(allowedOrigins, origin)
		},
	}
	return h
}

// Run fans queued messages out to every client until the queue is closed.
func (h *Hub) Run() {
	for message := range h.broadcast {
		h.mutex.Lock()
		for client := range h.clients {
			// Set write deadline to prevent blocked clients from hanging the hub
			_ = client.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
				logrus.WithError(err).Warn("[Stream] Websocket write error, dropping client")
				client.Close()
				h.removeLocked(client)
			}
		}
		h.mutex.Unlock()
	}
}

// Close stops Run and disconnects every client.
func (h *Hub) Close() {
	close(h.broadcast)
	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		_ = client.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		client.Close()
		h.removeLocked(client)
	}
}

// Subscribe handles incoming websocket connections
func (h *Hub) Subscribe(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.WithError(err).Warn("[Stream] Failed to upgrade websocket")
		return
	}

	h.mutex.Lock()
	h.clients[conn] = true
	total := len(h.clients)
	if h.gauge != nil {
		h.gauge.Set(float64(total))
	}
	h.mutex.Unlock()

	logrus.WithField("clients", total).Info("[Stream] Client connected")

	// Only the server pushes, but reading is required to notice disconnects.
	go func() {
		defer func() {
			h.mutex.Lock()
			h.removeLocked(conn)
			total := len(h.clients)
			h.mutex.Unlock()
			conn.Close()
			logrus.WithField("clients", total).Info("[Stream] Client disconnected")
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					logrus.WithError(err).Warn("[Stream] Websocket read error")
				}
				return
			}
		}
	}()
}

// Broadcast queues data for every connected client. When the queue is full
// the message is dropped rather than stalling the caller.
func (h *Hub) Broadcast(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		logrus.Warn("[Stream] Broadcast queue full, dropping event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) removeLocked(conn *websocket.Conn) {
	delete(h.clients, conn)
	if h.gauge != nil {
		h.gauge.Set(float64(len(h.clients)))
	}
}
