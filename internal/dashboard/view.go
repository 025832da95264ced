// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package dashboard

import (
	"fmt"
	"strconv"
	"time"

	"github.com/relabs-tech/drone_dashboard/internal/telemetry"
)

// NotConnectedText is shown in place of the ping latency while disconnected.
const NotConnectedText = "Not Connected"

// View is everything the dashboard shows: the latency label, the four
// coordinate labels and the two position indicators.
type View struct {
	Connected bool   `json:"connected"`
	Ping      string `json:"ping"` // "12 ms" or NotConnectedText

	// Indicator visibility: the 2D position marker and the altitude bar.
	PositionVisible bool `json:"position_visible"`
	AltitudeVisible bool `json:"altitude_visible"`

	// Coordinate labels, e.g. "5.0 m", "90.0 deg". Empty while disconnected.
	X string `json:"x"`
	Y string `json:"y"`
	Z string `json:"z"`
	A string `json:"a"`

	// Indicator placement in percent of the drawing area (unrounded).
	Left           float64 `json:"left"`
	Bottom         float64 `json:"bottom"`
	AltitudeBottom float64 `json:"altitude_bottom"`
	Heading        float64 `json:"heading"` // degrees, rotates the 2D marker

	UpdatedAt time.Time `json:"updated_at"`
}

// DisconnectedView is the view shown before the first successful ping and
// after every failed request.
func DisconnectedView(at time.Time) View {
	return View{
		Connected: false,
		Ping:      NotConnectedText,
		UpdatedAt: at,
	}
}

// withPing returns v with the latency label set.
func (v View) withPing(latency time.Duration) View {
	v.Ping = FormatLatency(latency)
	v.Connected = true
	return v
}

// withSample returns v with the coordinate labels and indicators set from s.
func (v View) withSample(s telemetry.Sample) View {
	v.PositionVisible = true
	v.AltitudeVisible = true
	v.X = FormatMeters(s.X)
	v.Y = FormatMeters(s.Y)
	v.Z = FormatMeters(s.Z)
	v.A = FormatDegrees(s.A)
	v.Left = telemetry.PositionPercent(s.X)
	v.Bottom = telemetry.PositionPercent(s.Y)
	v.AltitudeBottom = telemetry.AltitudePercent(s.Z)
	v.Heading = s.A
	return v
}

func FormatLatency(d time.Duration) string {
	return fmt.Sprintf("%d ms", d.Milliseconds())
}

func FormatMeters(v float64) string {
	return formatOneDecimal(v) + " m"
}

func FormatDegrees(v float64) string {
	return formatOneDecimal(v) + " deg"
}

func formatOneDecimal(v float64) string {
	return strconv.FormatFloat(telemetry.Round(v, 1), 'f', 1, 64)
}
