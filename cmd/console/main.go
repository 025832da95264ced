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

	// Logs go to stderr so stdout carries only view lines.
	log := logging.NewWithWriter(os.Stderr, *verbose)
	log.Info("starting drone console (polling simulator)")

	if err := config.InitGlobal(*configPath); err != nil {
		log.Error("failed to load config", "path", *configPath, "error", err)
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := app.RunConsole(ctx, log, os.Stdout); err != nil {
		log.Error("console failed", "error", err)
		return err
	}
	return nil
}
