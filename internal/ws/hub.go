package ws

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Send buffer size per client.
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// frame is one broadcast payload addressed to a watchlist group.
type frame struct {
	group   string
	payload []byte
}

// Hub manages WebSocket subscribers of the signal stream, grouped by
// the watchlist each client subscribed to.
type Hub struct {
	clients      map[*client]bool
	register     chan *client
	unregister   chan *client
	broadcast    chan frame
	defaultGroup string
	validGroup   func(string) bool
	mu           sync.RWMutex
	logger       *zap.Logger
}

// NewHub creates a hub. validGroup gates subscription requests;
// defaultGroup is used when a client does not name a watchlist.
func NewHub(defaultGroup string, validGroup func(string) bool, logger *zap.Logger) *Hub {
	return &Hub{
		clients:      make(map[*client]bool),
		register:     make(chan *client),
		unregister:   make(chan *client),
		broadcast:    make(chan frame, 64),
		defaultGroup: defaultGroup,
		validGroup:   validGroup,
		logger:       logger,
	}
}

// Run processes hub events. Call this in a goroutine.
// Returns when context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.logger.Info("signal hub shutting down")
			h.shutdown()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Debug("client registered",
				zap.String("connID", c.connID),
				zap.String("group", c.group),
			)

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			h.logger.Debug("client unregistered", zap.String("connID", c.connID))

		case f := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				if c.group != f.group {
					continue
				}
				select {
				case c.send <- f.payload:
				default:
					// Slow consumer: drop the frame rather than block the hub.
					h.logger.Debug("dropping frame for slow client", zap.String("connID", c.connID))
				}
			}
			h.mu.RUnlock()
		}
	}
}

// ActiveGroups returns the distinct watchlists with at least one
// subscriber, sorted.
func (h *Hub) ActiveGroups() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[string]bool)
	for c := range h.clients {
		seen[c.group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}

// Broadcast queues a payload for every client subscribed to group.
func (h *Hub) Broadcast(group string, payload []byte) {
	select {
	case h.broadcast <- frame{group: group, payload: payload}:
	default:
		h.logger.Warn("broadcast queue full, dropping frame", zap.String("group", group))
	}
}

// HandleUpgrade upgrades an HTTP request to a stream subscription. The
// watchlist query parameter selects the group; unknown watchlists are
// rejected before the upgrade.
func (h *Hub) HandleUpgrade(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("watchlist")
	if group == "" {
		group = h.defaultGroup
	}
	if h.validGroup != nil && !h.validGroup(group) {
		http.Error(w, "unknown watchlist: "+group, http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		hub:    h,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		connID: uuid.New().String(),
		group:  group,
		logger: h.logger,
	}

	h.register <- c

	go c.writePump()
	go c.readPump()
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		_ = c.conn.Close()
	}
	h.clients = make(map[*client]bool)
}
