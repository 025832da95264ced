// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/relabs-tech/drone_dashboard/internal/dashboard"
	"github.com/relabs-tech/drone_dashboard/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for local development
	},
}

const (
	viewClientBuffer = 8
	viewWriteTimeout = 2 * time.Second
)

// ViewHub fans rendered views out to websocket clients. A client that
// falls behind loses views rather than slowing the poller.
type ViewHub struct {
	log *slog.Logger

	mu      sync.Mutex
	clients map[*viewClient]struct{}
	last    []byte
}

type viewClient struct {
	conn *websocket.Conn
	send chan []byte
}

func NewViewHub(log *slog.Logger) *ViewHub {
	return &ViewHub{log: log, clients: make(map[*viewClient]struct{})}
}

// Render implements dashboard.Renderer.
func (h *ViewHub) Render(v dashboard.View) {
	payload, err := json.Marshal(v)
	if err != nil {
		h.log.Error("hub: view marshal error", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.last = payload
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.log.Debug("hub: client behind, view dropped")
		}
	}
}

// Clients returns the number of connected websocket clients.
func (h *ViewHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// ServeWS streams every view to the client, starting with the latest one.
func (h *ViewHub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("hub: websocket upgrade error", "error", err)
		return
	}
	c := &viewClient{conn: conn, send: make(chan []byte, viewClientBuffer)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	if h.last != nil {
		c.send <- h.last
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.ViewSubscribers.Set(float64(n))
	h.log.Info("hub: client connected", "remote", conn.RemoteAddr(), "clients", n)

	done := make(chan struct{})
	go h.writeLoop(c, done)

	// Read loop only notices the close; clients never send anything useful.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("hub: websocket error", "error", err)
			}
			break
		}
	}

	close(done)
	h.mu.Lock()
	delete(h.clients, c)
	n = len(h.clients)
	h.mu.Unlock()
	metrics.ViewSubscribers.Set(float64(n))
	conn.Close()
	h.log.Info("hub: client disconnected", "remote", conn.RemoteAddr(), "clients", n)
}

func (h *ViewHub) writeLoop(c *viewClient, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(viewWriteTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.log.Debug("hub: websocket write error", "error", err)
				c.conn.Close()
				return
			}
		}
	}
}
