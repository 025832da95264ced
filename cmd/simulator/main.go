// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	flag "github.com/spf13/pflag"

	"github.com/relabs-tech/drone_dashboard/internal/app"
	"github.com/relabs-tech/drone_dashboard/internal/config"
	"github.com/relabs-tech/drone_dashboard/internal/logging"
)

func main() {
	if err := run(); err != nil {
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.StringP("config", "c", "drone_config.txt", "path to the KEY=VALUE config file")
	verbose := flag.BoolP("verbose", "v", false, "enable debug logging")
	flag.Parse()

	log := logging.New(*verbose)
	log.Info("starting drone simulator")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Error("failed to load config", "path", *configPath, "error", err)
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunSimulator(ctx, log); err != nil {
		log.Error("simulator failed", "error", err)
		return err
	}
	return nil
}
