// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/drone_dashboard/internal/dashboard"
)

//go:embed static
var staticFiles embed.FS

// viewSource is satisfied by *dashboard.Controller.
type viewSource interface {
	View() dashboard.View
}

// newWebHandler serves the dashboard page, the latest view as JSON, the
// websocket view stream and the Prometheus metrics.
func newWebHandler(log *slog.Logger, views viewSource, hub *ViewHub) http.Handler {
	mux := http.NewServeMux()

	// 1) JSON API endpoint: latest view
	mux.HandleFunc("/api/view", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(views.View()); err != nil {
			log.Warn("web: json encode error", "error", err)
		}
	})

	// 2) Live view stream
	mux.HandleFunc("/ws", hub.ServeWS)

	// 3) Metrics
	mux.Handle("/metrics", promhttp.Handler())

	// 4) Static page as the root
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err) // embedded directory is always present
	}
	mux.Handle("/", http.FileServer(http.FS(static)))

	return mux
}

// runWebServer serves handler on addr until ctx is done.
func runWebServer(ctx context.Context, log *slog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("web: server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	}
}
