package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/smartfactory/sentinel/server/internal/api"
	"github.com/smartfactory/sentinel/server/internal/fleet"
	"github.com/smartfactory/sentinel/server/internal/store"
)

// Event names carried in Message.Event.
const (
	EventSnapshot = "snapshot"
	EventDataset  = "dataset"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 8192,
	// Origins are not checked here; restrict them at the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON envelope sent to clients.
type Message struct {
	Event string               `json:"event"`
	Data  api.SnapshotResponse `json:"data"`
}

// Hub keeps the set of dashboard connections and pushes the fleet snapshot
// to each of them on every tick and whenever a new dataset is installed.
type Hub struct {
	store    *store.Store
	alerts   api.AlertLister
	interval time.Duration

	// replaced is signalled by DatasetReplaced; capacity 1 coalesces bursts.
	replaced chan struct{}

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// New creates a Hub that reads from st and al and broadcasts every interval.
// al may be nil.
func New(st *store.Store, al api.AlertLister, interval time.Duration) *Hub {
	return &Hub{
		store:    st,
		alerts:   al,
		interval: interval,
		replaced: make(chan struct{}, 1),
		clients:  make(map[*client]struct{}),
	}
}

// DatasetReplaced schedules an out-of-band "dataset" broadcast. It matches
// store.Listener so it can be passed to Store.OnReplace and never blocks.
func (h *Hub) DatasetReplaced(*fleet.Dataset) {
	select {
	case h.replaced <- struct{}{}:
	default:
	}
}

// Run starts the broadcast loop. It blocks until ctx is cancelled, then
// closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	t := time.NewTicker(h.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-t.C:
			h.broadcast(EventSnapshot)
		case <-h.replaced:
			h.broadcast(EventDataset)
		}
	}
}

// ServeHTTP upgrades the connection, sends the current snapshot immediately,
// then streams broadcasts until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := newClient(conn)
	// Queue the first message before registering so it is always delivered first.
	if data, err := h.buildMessage(EventSnapshot); err == nil {
		c.send <- data
	}
	h.register(c)
	defer h.unregister(c)

	go c.writeLoop()
	c.readLoop()
}

// Count returns the number of currently connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	slog.Debug("ws: client connected", "remote", c.conn.RemoteAddr().String())
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) broadcast(event string) {
	data, err := h.buildMessage(event)
	if err != nil {
		slog.Warn("ws: encode snapshot failed", "err", err)
		return
	}

	// Sends happen under the read lock so unregister cannot close a channel
	// mid-send. Clients with a full buffer are dropped afterwards.
	var slow []*client
	h.mu.RLock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("ws: dropping slow client", "remote", c.conn.RemoteAddr().String())
		h.unregister(c)
	}
}

func (h *Hub) buildMessage(event string) ([]byte, error) {
	return json.Marshal(Message{
		Event: event,
		Data:  api.BuildSnapshot(h.store, h.alerts),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
