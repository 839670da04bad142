package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hrvoice-go/internal/logger"
	"hrvoice-go/internal/types"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 32
)

// FeedClient is one dashboard connection to the live session feed.
type FeedClient struct {
	Conn *websocket.Conn
	// InterviewID limits the feed to one campaign; empty means all.
	InterviewID string
	Send        chan []byte
	hub         *Hub
}

// Hub fans session changes out to connected dashboards.
type Hub struct {
	clients map[*FeedClient]bool

	Register   chan *FeedClient
	Unregister chan *FeedClient
	done       chan struct{}

	mutex sync.RWMutex
	log   *logger.Logger
}

func NewHub(log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*FeedClient]bool),
		Register:   make(chan *FeedClient),
		Unregister: make(chan *FeedClient),
		done:       make(chan struct{}),
		log:        log.Component("feed"),
	}
}

// Run serves register and unregister requests until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case c := <-h.Register:
			h.mutex.Lock()
			h.clients[c] = true
			h.mutex.Unlock()
		case c := <-h.Unregister:
			h.mutex.Lock()
			h.drop(c)
			h.mutex.Unlock()
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.clients {
				h.drop(c)
			}
			h.mutex.Unlock()
			return
		}
	}
}

// drop removes c and closes its send channel. Callers hold the write lock.
func (h *Hub) drop(c *FeedClient) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
	}
}

func (h *Hub) Clients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// Publish implements the campaign notifier. Slow clients are disconnected
// rather than blocking the writer.
func (h *Hub) Publish(change types.SessionChange) {
	data, err := json.Marshal(change)
	if err != nil {
		h.log.WithError(err).Error("marshal session change")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for c := range h.clients {
		if c.InterviewID != "" && c.InterviewID != change.InterviewID {
			continue
		}
		select {
		case c.Send <- data:
		default:
			h.log.Warn("feed client buffer full, disconnecting")
			h.drop(c)
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Serve upgrades r and streams session changes until the client leaves.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &FeedClient{
		Conn:        conn,
		InterviewID: r.URL.Query().Get("interview"),
		Send:        make(chan []byte, sendBuffer),
		hub:         h,
	}
	select {
	case h.Register <- c:
	case <-h.done:
		conn.Close()
		return errors.New("feed is shut down")
	}
	go c.writePump()
	go c.readPump()
	return nil
}

// readPump discards inbound frames and unregisters on disconnect.
func (c *FeedClient) readPump() {
	defer func() {
		select {
		case c.hub.Unregister <- c:
		case <-c.hub.done:
		}
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(512)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *FeedClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// the hub closed the channel
				_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
