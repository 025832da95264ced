// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package simulator

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	serial "github.com/jacobsa/go-serial/serial"
	"github.com/jonboulle/clockwork"

	"github.com/relabs-tech/drone_dashboard/internal/gps"
	"github.com/relabs-tech/drone_dashboard/internal/telemetry"
)

// tracker turns a stream of NMEA lines into the latest local-frame sample.
type tracker struct {
	log *slog.Logger

	mu     sync.RWMutex
	fix    gps.Fix
	frame  gps.Frame
	latest telemetry.Sample
	ok     bool
}

func (t *tracker) Sample() (telemetry.Sample, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.latest, t.ok
}

// feed applies one raw line and reports whether it completed a fix.
func (t *tracker) feed(line string) bool {
	sentence, err := gps.ParseLine(line)
	if err != nil {
		if !errors.Is(err, gps.ErrNotSentence) {
			t.log.Debug("simulator: nmea parse error", "error", err, "line", line)
		}
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.fix.Apply(sentence) {
		return false
	}
	// A void fix keeps the last known position.
	if s, ok := t.frame.Project(t.fix); ok {
		t.latest = s
		t.ok = true
	}
	return true
}

type ReplayConfig struct {
	Logger   *slog.Logger
	Clock    clockwork.Clock
	Path     string
	Interval time.Duration
}

func (cfg *ReplayConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.Clock == nil {
		return errors.New("clock is required")
	}
	if cfg.Path == "" {
		return errors.New("nmea file path is required")
	}
	if cfg.Interval <= 0 {
		return errors.New("replay interval must be greater than 0")
	}
	return nil
}

// ReplaySource plays back a recorded NMEA log, one fix per Interval, looping
// at the end of the file.
type ReplaySource struct {
	tracker
	cfg   *ReplayConfig
	lines []string
	next  int
}

func NewReplaySource(cfg *ReplayConfig) (*ReplaySource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open nmea file: %w", err)
	}
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return nil, fmt.Errorf("read nmea file: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("nmea file %s is empty", cfg.Path)
	}

	r := &ReplaySource{
		tracker: tracker{log: cfg.Logger},
		cfg:     cfg,
		lines:   lines,
	}
	// Start with a position so the first /simulation-info has one.
	r.Step()
	return r, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

// Step feeds lines until one fix completes or one full pass of the file
// found none.
func (r *ReplaySource) Step() {
	for range r.lines {
		line := r.lines[r.next]
		r.next = (r.next + 1) % len(r.lines)
		if r.feed(line) {
			return
		}
	}
}

func (r *ReplaySource) Run(ctx context.Context) error {
	r.cfg.Logger.Info("simulator: replaying nmea log", "path", r.cfg.Path, "lines", len(r.lines), "interval", r.cfg.Interval)

	ticker := r.cfg.Clock.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			r.Step()
		}
	}
}

type SerialConfig struct {
	Logger   *slog.Logger
	PortName string
	BaudRate uint
}

func (cfg *SerialConfig) Validate() error {
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.PortName == "" {
		return errors.New("serial port name is required")
	}
	if cfg.BaudRate == 0 {
		return errors.New("baud rate must be greater than 0")
	}
	return nil
}

// SerialSource reads live NMEA from a GPS receiver.
type SerialSource struct {
	tracker
	cfg *SerialConfig
}

func NewSerialSource(cfg *SerialConfig) (*SerialSource, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &SerialSource{tracker: tracker{log: cfg.Logger}, cfg: cfg}, nil
}

func (s *SerialSource) Run(ctx context.Context) error {
	serialOpts := serial.OpenOptions{
		PortName:              s.cfg.PortName,
		BaudRate:              s.cfg.BaudRate,
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(serialOpts)
	if err != nil {
		return fmt.Errorf("open gps serial port: %w", err)
	}
	s.cfg.Logger.Info("simulator: gps serial port opened", "port", serialOpts.PortName, "baud", serialOpts.BaudRate)

	// Closing the port unblocks the read below.
	stop := context.AfterFunc(ctx, func() { _ = port.Close() })
	defer func() {
		if stop() {
			_ = port.Close()
		}
	}()

	err = s.consume(port)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

// consume feeds every line from r until it fails.
func (s *SerialSource) consume(r io.Reader) error {
	reader := bufio.NewReader(r)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			s.feed(line)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("gps serial port closed: %w", err)
			}
			return fmt.Errorf("gps read: %w", err)
		}
	}
}
