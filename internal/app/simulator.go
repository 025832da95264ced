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
	"github.com/relabs-tech/drone_dashboard/internal/simulator"
)

// newSimulatorSource builds the position source selected by SIM_SOURCE.
func newSimulatorSource(log *slog.Logger, cfg *config.Config, clock clockwork.Clock) (simulator.Source, error) {
	switch cfg.SimSource {
	case config.SourceMock:
		return simulator.NewMockSource(clock), nil
	case config.SourceNMEAFile:
		return simulator.NewReplaySource(&simulator.ReplayConfig{
			Logger:   log,
			Clock:    clock,
			Path:     cfg.SimNMEAFile,
			Interval: cfg.ReplayPeriod(),
		})
	case config.SourceNMEASerial:
		return simulator.NewSerialSource(&simulator.SerialConfig{
			Logger:   log,
			PortName: cfg.GPSSerialPort,
			BaudRate: uint(cfg.GPSBaudRate),
		})
	default:
		return nil, fmt.Errorf("unknown simulator source %q", cfg.SimSource)
	}
}

// RunSimulator serves /ping and /simulation-info on SIM_PORT until ctx is done.
func RunSimulator(ctx context.Context, log *slog.Logger) error {
	cfg := config.Get()

	src, err := newSimulatorSource(log, cfg, clockwork.NewRealClock())
	if err != nil {
		return fmt.Errorf("simulator source: %w", err)
	}
	srv, err := simulator.NewServer(&simulator.Config{Logger: log, Source: src})
	if err != nil {
		return err
	}
	log.Info("simulator: source ready", "source", cfg.SimSource)

	g, ctx := errgroup.WithContext(ctx)
	if runner, ok := src.(simulator.Runner); ok {
		g.Go(func() error {
			return runner.Run(ctx)
		})
	}
	g.Go(func() error {
		return runWebServer(ctx, log, fmt.Sprintf(":%d", cfg.SimPort), srv.Handler())
	})
	return g.Wait()
}
