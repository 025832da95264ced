// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dashboard

import (
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/relabs-tech/drone_dashboard/internal/metrics"
)

type ConnState int

const (
	Disconnected ConnState = iota
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connected:
		return "connected"
	case Disconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// Connection owns the connected/disconnected state of the dashboard.
// It starts Disconnected and only changes through MarkConnected and
// MarkDisconnected.
type Connection struct {
	log   *slog.Logger
	clock clockwork.Clock

	mu    sync.RWMutex
	state ConnState
	since time.Time
}

func NewConnection(log *slog.Logger, clock clockwork.Clock) *Connection {
	metrics.Connected.Set(0)
	return &Connection{
		log:   log,
		clock: clock,
		state: Disconnected,
		since: clock.Now(),
	}
}

func (c *Connection) State() ConnState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Connection) Connected() bool {
	return c.State() == Connected
}

// Since returns when the current state was entered.
func (c *Connection) Since() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.since
}

// MarkConnected moves to Connected and reports whether the state changed.
func (c *Connection) MarkConnected() bool {
	return c.transition(Connected)
}

// MarkDisconnected moves to Disconnected and reports whether the state changed.
func (c *Connection) MarkDisconnected() bool {
	return c.transition(Disconnected)
}

func (c *Connection) transition(to ConnState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == to {
		return false
	}
	from := c.state
	now := c.clock.Now()
	held := now.Sub(c.since)
	c.state = to
	c.since = now

	if to == Connected {
		metrics.Connected.Set(1)
	} else {
		metrics.Connected.Set(0)
	}
	metrics.ConnectionTransitionsTotal.WithLabelValues(to.String()).Inc()
	c.log.Info("dashboard: connection state changed", "from", from, "to", to, "held", held)
	return true
}
