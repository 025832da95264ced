// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package telemetry

import "math"

// Position domains of the dashboard indicators. Horizontal and vertical
// position span [-10, 10] m, altitude spans [0, 10] m; both are drawn on a
// 0-100 % scale.
const (
	PositionMin = -10.0
	PositionMax = 10.0
	AltitudeMin = 0.0
	AltitudeMax = 10.0
	PercentMin  = 0.0
	PercentMax  = 100.0
)

// Round rounds v to the given number of decimals. Halves round toward
// positive infinity on the scaled value, so Round(2.35, 1) == 2.4 and
// Round(-1.25, 1) == -1.2.
func Round(v float64, decimals int) float64 {
	scalar := math.Pow(10, float64(decimals))
	x := v * scalar
	r := math.Floor(x)
	// Compare the fraction instead of adding 0.5, which can itself round.
	if x-r >= 0.5 {
		r++
	}
	r /= scalar
	if r == 0 {
		// Drop the sign of -0 so it never renders as "-0.0".
		return 0
	}
	return r
}

// MapRanges linearly maps v from [inMin, inMax] onto [outMin, outMax].
// Values outside the input domain extrapolate.
func MapRanges(v, inMin, inMax, outMin, outMax float64) float64 {
	return (v-inMin)*(outMax-outMin)/(inMax-inMin) + outMin
}

// PositionPercent maps a horizontal or vertical position onto 0-100 %.
func PositionPercent(v float64) float64 {
	return MapRanges(v, PositionMin, PositionMax, PercentMin, PercentMax)
}

// AltitudePercent maps an altitude onto 0-100 %.
func AltitudePercent(z float64) float64 {
	return MapRanges(z, AltitudeMin, AltitudeMax, PercentMin, PercentMax)
}
