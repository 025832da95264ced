package gps

import (
	"math"

	"github.com/relabs-tech/drone_dashboard/internal/telemetry"
)

const earthRadius = 6371000.0 // meters

// Frame projects fixes onto a flat local frame anchored at the first valid
// fix it sees: x grows east, y grows north, z is height above the origin.
// Equirectangular projection, good for the few hundred meters a drone covers.
type Frame struct {
	origin Fix
	set    bool
}

// Origin returns the anchor fix and whether one has been set.
func (fr *Frame) Origin() (Fix, bool) {
	return fr.origin, fr.set
}

func (fr *Frame) Reset() {
	fr.set = false
}

// Project converts f to a telemetry sample. Invalid fixes return ok=false
// and never become the origin.
func (fr *Frame) Project(f Fix) (s telemetry.Sample, ok bool) {
	if !f.Valid() {
		return telemetry.Sample{}, false
	}
	if !fr.set {
		fr.origin = f
		fr.set = true
	}
	lat0 := radians(fr.origin.Latitude)
	dLat := radians(f.Latitude - fr.origin.Latitude)
	dLon := radians(f.Longitude - fr.origin.Longitude)

	return telemetry.Sample{
		X: earthRadius * dLon * math.Cos(lat0),
		Y: earthRadius * dLat,
		Z: f.Altitude - fr.origin.Altitude,
		A: f.CourseDeg,
	}, true
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
