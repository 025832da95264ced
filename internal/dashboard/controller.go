// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/relabs-tech/drone_dashboard/internal/metrics"
	"github.com/relabs-tech/drone_dashboard/internal/request"
	"github.com/relabs-tech/drone_dashboard/internal/telemetry"
)

const (
	DefaultPingInterval      = time.Second
	DefaultTelemetryInterval = 100 * time.Millisecond

	PingEndpoint      = "/ping"
	TelemetryEndpoint = "/simulation-info"
)

var errMissingCalledAt = errors.New("ping response has no calledAt")

// Requester is satisfied by *request.Client.
type Requester interface {
	Request(ctx context.Context, endpoint, method string, body any, onSuccess func(json.RawMessage), onError request.ErrorHandler)
}

// Renderer receives every new View. Render is called with the controller's
// lock held and must not block.
type Renderer interface {
	Render(View)
}

type RendererFunc func(View)

func (f RendererFunc) Render(v View) { f(v) }

type Config struct {
	Logger    *slog.Logger
	Clock     clockwork.Clock
	Requester Requester
	Renderers []Renderer

	PingInterval      time.Duration
	TelemetryInterval time.Duration
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Clock == nil {
		return errors.New("clock is required")
	}
	if cfg.Requester == nil {
		return errors.New("requester is required")
	}
	if cfg.PingInterval <= 0 {
		return errors.New("ping interval must be greater than 0")
	}
	if cfg.TelemetryInterval <= 0 {
		return errors.New("telemetry interval must be greater than 0")
	}
	return nil
}

// Controller polls the simulator for ping and telemetry and keeps the View in
// step with the answers.
type Controller struct {
	log  *slog.Logger
	cfg  *Config
	conn *Connection

	mu        sync.Mutex
	view      View
	renderers []Renderer
}

func New(cfg *Config) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Controller{
		log:       cfg.Logger,
		cfg:       cfg,
		conn:      NewConnection(cfg.Logger, cfg.Clock),
		view:      DisconnectedView(cfg.Clock.Now()),
		renderers: append([]Renderer(nil), cfg.Renderers...),
	}, nil
}

// AddRenderer registers r and immediately renders the current View to it.
func (c *Controller) AddRenderer(r Renderer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.renderers = append(c.renderers, r)
	r.Render(c.view)
}

// View returns the latest View.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) Connection() *Connection {
	return c.conn
}

// Run drives both tickers until ctx is done. The first ping goes out one
// PingInterval after Run starts.
func (c *Controller) Run(ctx context.Context) error {
	c.log.Info("dashboard: polling",
		"pingInterval", c.cfg.PingInterval,
		"telemetryInterval", c.cfg.TelemetryInterval)

	c.mu.Lock()
	c.render()
	c.mu.Unlock()

	pingTicker := c.cfg.Clock.NewTicker(c.cfg.PingInterval)
	defer pingTicker.Stop()
	telemetryTicker := c.cfg.Clock.NewTicker(c.cfg.TelemetryInterval)
	defer telemetryTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			c.log.Info("dashboard: stopped polling")
			return nil
		case <-pingTicker.Chan():
			c.PingTick(ctx)
		case <-telemetryTicker.Chan():
			c.TelemetryTick(ctx)
		}
	}
}

// PingTick sends one ping carrying the current time. The echoed calledAt
// gives the round-trip latency.
func (c *Controller) PingTick(ctx context.Context) {
	body := telemetry.PingSample{CalledAt: telemetry.MillisOf(c.cfg.Clock.Now())}
	onError := c.failed(PingEndpoint)
	c.cfg.Requester.Request(ctx, PingEndpoint, http.MethodGet, body,
		request.Into(func(p telemetry.PingSample) {
			if p.CalledAt == 0 {
				onError(errMissingCalledAt)
				return
			}
			c.pinged(p)
		}, onError),
		onError)
}

// TelemetryTick fetches one sample, but only while connected.
func (c *Controller) TelemetryTick(ctx context.Context) {
	if !c.conn.Connected() {
		metrics.TelemetryTicksSkippedTotal.Inc()
		return
	}
	onError := c.failed(TelemetryEndpoint)
	c.cfg.Requester.Request(ctx, TelemetryEndpoint, http.MethodGet, nil, request.Into(c.sampled, onError), onError)
}

func (c *Controller) pinged(p telemetry.PingSample) {
	now := c.cfg.Clock.Now()
	latency := time.Duration(telemetry.MillisOf(now)-p.CalledAt) * time.Millisecond
	metrics.PingLatency.Observe(float64(latency.Milliseconds()))

	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.MarkConnected()
	c.view = c.view.withPing(latency)
	c.view.UpdatedAt = now
	c.render()
}

func (c *Controller) sampled(s telemetry.Sample) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = c.view.withSample(s)
	c.view.UpdatedAt = c.cfg.Clock.Now()
	c.render()
}

func (c *Controller) failed(endpoint string) request.ErrorHandler {
	logErr := request.LogErrors(c.log.With("endpoint", endpoint))
	return func(err error) {
		logErr(err)

		c.mu.Lock()
		defer c.mu.Unlock()
		c.conn.MarkDisconnected()
		c.view = DisconnectedView(c.cfg.Clock.Now())
		c.render()
	}
}

// render must be called with c.mu held.
func (c *Controller) render() {
	for _, r := range c.renderers {
		r.Render(c.view)
	}
}
