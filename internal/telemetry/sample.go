// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Sample is one positional reading of the simulated drone, as served by
// GET /simulation-info.
type Sample struct {
	X float64 `json:"x"` // meters
	Y float64 `json:"y"` // meters
	Z float64 `json:"z"` // meters, altitude
	A float64 `json:"a"` // heading, degrees
}

// PingSample is the body echoed back by GET /ping.
type PingSample struct {
	CalledAt Millis `json:"calledAt"`
}

// Millis is a Unix epoch timestamp in milliseconds.
//
// The simulator echoes query parameters back verbatim, so calledAt arrives
// as a JSON string ("1733400000000") as often as a JSON number. Both decode.
type Millis int64

// MillisOf returns t as epoch milliseconds.
func MillisOf(t time.Time) Millis {
	return Millis(t.UnixMilli())
}

// Time converts m back to a time.Time.
func (m Millis) Time() time.Time {
	return time.UnixMilli(int64(m))
}

func (m *Millis) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("millis: null value")
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("millis: %w", err)
		}
		data = []byte(s)
	}
	// Accept "1733400000000" as well as "1.7334e12".
	if v, err := strconv.ParseInt(string(data), 10, 64); err == nil {
		*m = Millis(v)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil || math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("millis: invalid value %q", data)
	}
	*m = Millis(int64(f))
	return nil
}

func (m Millis) MarshalJSON() ([]byte, error) {
	return strconv.AppendInt(nil, int64(m), 10), nil
}
