// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package simulator

import (
	"context"
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/relabs-tech/drone_dashboard/internal/telemetry"
)

// Source is anything that can tell where the drone is right now.
// Sample returns ok=false until a position is known.
type Source interface {
	Sample() (telemetry.Sample, bool)
}

// Runner is implemented by sources that need a background loop (file replay,
// serial receivers). Run blocks until ctx is done or the source fails.
type Runner interface {
	Run(ctx context.Context) error
}

// Mock flight: a circle of radius 8 m around the origin, one lap per
// mockLapPeriod, bobbing between 2 m and 8 m of altitude.
const (
	mockRadius    = 8.0
	mockLapPeriod = 30 * time.Second
	mockAltMid    = 5.0
	mockAltSwing  = 3.0
)

type mockSource struct {
	clock clockwork.Clock
	start time.Time
}

// NewMockSource creates a source that flies a smooth, endless loop.
func NewMockSource(clock clockwork.Clock) Source {
	return &mockSource{clock: clock, start: clock.Now()}
}

func (m *mockSource) Sample() (telemetry.Sample, bool) {
	elapsed := m.clock.Since(m.start).Seconds()
	theta := 2 * math.Pi * elapsed / mockLapPeriod.Seconds()

	// Counter-clockwise from east; the heading is the tangent, measured
	// clockwise from north.
	heading := math.Mod(360-theta*180/math.Pi, 360)
	if heading < 0 {
		heading += 360
	}
	return telemetry.Sample{
		X: mockRadius * math.Cos(theta),
		Y: mockRadius * math.Sin(theta),
		Z: mockAltMid + mockAltSwing*math.Sin(elapsed*0.5),
		A: heading,
	}, true
}
