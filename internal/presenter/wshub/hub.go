package wshub

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/redlitmus-in/metersquare-notify/internal/notify"
	logx "github.com/redlitmus-in/metersquare-notify/pkg/logx"
)

const (
	writeWait      = 5 * time.Second
	pongWait       = 60 * time.Second
	pingInterval   = 45 * time.Second
	clientBuf      = 16
	maxInboundSize = 512
)

// Hub is the in-app presenter: it pushes delivered notifications to every
// connected frontend client over a websocket. Clients report their focus
// state on the same connection, which makes the hub double as the
// dispatcher's visibility probe ("foregrounded" means at least one client
// currently has the panel in view).
type Hub struct {
	log      logx.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn    *websocket.Conn
	send    chan notify.Event
	visible bool
}

// focusReport is the only message clients send.
type focusReport struct {
	Visible bool `json:"visible"`
}

func New(log logx.Logger) *Hub {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Hub{
		log:     log.With(logx.String("comp", "presenter.ws")),
		clients: map[*client]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The daemon sits behind the app's own origin checks.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Show broadcasts ev to all connected clients. It never blocks: a client
// whose buffer is full loses this notice (the store keeps the durable copy).
func (h *Hub) Show(ctx context.Context, ev notify.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- ev:
		default:
			h.log.Debug("client buffer full; notice skipped", logx.String("id", ev.ID))
		}
	}
}

// IsForegrounded reports whether any connected client has the surface in
// view right now.
func (h *Hub) IsForegrounded() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.visible {
			return true
		}
	}
	return false
}

// ClientCount reports connected clients (for /healthz).
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeHTTP upgrades the request and runs the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", logx.Err(err))
		return
	}

	// A fresh connection is assumed foregrounded: the user just opened or
	// refreshed the panel. The client corrects this on blur.
	c := &client{conn: conn, send: make(chan notify.Event, clientBuf), visible: true}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.log.Debug("client connected", logx.Int("clients", n))

	go h.writePump(c)
	h.readPump(c)
}

func (h *Hub) readPump(c *client) {
	defer h.drop(c)
	c.conn.SetReadLimit(maxInboundSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var rep focusReport
		if err := c.conn.ReadJSON(&rep); err != nil {
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		h.mu.Lock()
		c.visible = rep.Visible
		h.mu.Unlock()
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case ev, ok := <-c.send:
			if !ok {
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(ev); err != nil {
				h.drop(c)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(c)
				return
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, present := h.clients[c]
	if present {
		delete(h.clients, c)
		close(c.send)
	}
	n := len(h.clients)
	h.mu.Unlock()
	_ = c.conn.Close()
	if present {
		h.log.Debug("client disconnected", logx.Int("clients", n))
	}
}
