// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"errors"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
)

var ErrNotSentence = errors.New("gps: line is not an NMEA sentence")

// Fix is the running combination of RMC and GGA data from one receiver.
type Fix struct {
	Time       string  `json:"time"`        // e.g. "12:34:56.0000"
	Date       string  `json:"date"`        // e.g. "06/12/25"
	Latitude   float64 `json:"lat"`         // decimal degrees
	Longitude  float64 `json:"lon"`         // decimal degrees
	Altitude   float64 `json:"alt"`         // meters above mean sea level, from GGA
	SpeedKnots float64 `json:"speed_knots"` // speed over ground
	CourseDeg  float64 `json:"course_deg"`  // course over ground
	Validity   string  `json:"validity"`    // "A" (valid) / "V" (void)
}

// Valid reports whether the last RMC sentence carried a usable position.
func (f Fix) Valid() bool {
	return f.Validity == nmea.ValidRMC
}

// ParseLine parses one raw line from a receiver or a log file.
// Blank lines and lines not starting with '$' return ErrNotSentence.
func ParseLine(line string) (nmea.Sentence, error) {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "$") {
		return nil, ErrNotSentence
	}
	return nmea.Parse(line)
}

// Apply folds s into f. It returns true when s was an RMC sentence, which
// completes one fix; GGA only refreshes the altitude.
func (f *Fix) Apply(s nmea.Sentence) bool {
	switch m := s.(type) {
	case nmea.RMC:
		f.Time = m.Time.String()
		f.Date = m.Date.String()
		f.Latitude = m.Latitude
		f.Longitude = m.Longitude
		f.SpeedKnots = m.Speed
		f.CourseDeg = m.Course
		f.Validity = m.Validity
		return true
	case nmea.GGA:
		if m.FixQuality != nmea.Invalid {
			f.Altitude = m.Altitude
		}
	}
	return false
}
