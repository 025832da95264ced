// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package simulator

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/relabs-tech/drone_dashboard/internal/metrics"
)

const (
	PingPath = "/ping"
	InfoPath = "/simulation-info"
)

type Config struct {
	Logger *slog.Logger
	Source Source
}

func (cfg *Config) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Source == nil {
		return errors.New("source is required")
	}
	return nil
}

// Server answers the two endpoints the dashboard polls.
type Server struct {
	log *slog.Logger
	cfg *Config
}

func NewServer(cfg *Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Server{log: cfg.Logger, cfg: cfg}, nil
}

// Handler returns the routes with CORS headers and request counting applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(PingPath, s.endpoint(PingPath, http.MethodGet, s.handlePing))
	mux.Handle(InfoPath, s.endpoint(InfoPath, http.MethodGet, s.handleInfo))
	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// endpoint wraps h with the method check, the CORS headers and the request
// counter shared by every route.
func (s *Server) endpoint(path, method string, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Headers", "x-prototype-version,x-requested-with")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST")
		w.Header().Set("Access-Control-Allow-Origin", "*")

		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			metrics.SimulatorRequestsTotal.WithLabelValues(path, strconv.Itoa(rec.code)).Inc()
		}()

		if r.Method == http.MethodOptions {
			rec.WriteHeader(http.StatusNoContent)
			return
		}
		if r.Method != method {
			writeJSON(rec, http.StatusMethodNotAllowed, errorBody(fmt.Sprintf("Wrong request method: %s should be %s", r.Method, method)))
			return
		}
		h(rec, r)
	})
}

// handlePing echoes the query parameters back as a JSON object of strings.
// calledAt is required.
func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if !query.Has("calledAt") {
		writeJSON(w, http.StatusOK, errorBody("Ping request did not have proper body. See Documentation"))
		return
	}
	echo := make(map[string]string, len(query))
	for k := range query {
		echo[k] = query.Get(k)
	}
	writeJSON(w, http.StatusOK, echo)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	sample, ok := s.cfg.Source.Sample()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("No position available yet"))
		return
	}
	writeJSON(w, http.StatusOK, sample)
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
