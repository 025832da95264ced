// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/relabs-tech/drone_dashboard/internal/config"
	"github.com/relabs-tech/drone_dashboard/internal/dashboard"
	"github.com/relabs-tech/drone_dashboard/internal/request"
)

// newController wires the poller to the configured simulation endpoint.
func newController(log *slog.Logger, cfg *config.Config, renderers ...dashboard.Renderer) (*dashboard.Controller, *request.Client, error) {
	client, err := request.New(log, &request.Config{BaseURL: cfg.SimBaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("request client: %w", err)
	}
	ctrl, err := dashboard.New(&dashboard.Config{
		Logger:            log,
		Clock:             clockwork.NewRealClock(),
		Requester:         client,
		Renderers:         renderers,
		PingInterval:      cfg.PingPeriod(),
		TelemetryInterval: cfg.TelemetryPeriod(),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dashboard: %w", err)
	}
	return ctrl, client, nil
}

// RunDashboard polls the simulator and serves the dashboard page until ctx
// is done. With MQTT_BROKER set every view is also published to TOPIC_VIEW.
func RunDashboard(ctx context.Context, log *slog.Logger) error {
	cfg := config.Get()

	hub := NewViewHub(log)
	renderers := []dashboard.Renderer{hub}
	var pub *viewPublisher

	if cfg.MQTTBroker != "" {
		client, err := connectMQTT(log, cfg.MQTTBroker, cfg.MQTTClientIDDashboard)
		if err != nil {
			return err
		}
		defer client.Disconnect(mqttDisconnectQuiesce)
		pub = newViewPublisher(log, client, cfg.TopicView)
		renderers = append(renderers, pub)
	} else {
		log.Info("dashboard: MQTT_BROKER not set, view publishing disabled")
	}

	ctrl, client, err := newController(log, cfg, renderers...)
	if err != nil {
		return err
	}
	log.Info("dashboard: polling simulator", "baseURL", client.BaseURL())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ctrl.Run(ctx)
	})
	if pub != nil {
		g.Go(func() error {
			return pub.run(ctx)
		})
	}
	g.Go(func() error {
		addr := fmt.Sprintf(":%d", cfg.WebServerPort)
		return runWebServer(ctx, log, addr, newWebHandler(log, ctrl, hub))
	})
	err = g.Wait()

	client.Wait()
	return err
}
