// Package types holds the geodetic value types shared by the grid builders.
package types

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Position is a geodetic position in degrees. Grid geometry always has Alt == 0.
type Position struct {
	Lat float64
	Lon float64
	Alt float64
}

// NewPosition creates a ground-level position.
func NewPosition(lat, lon float64) Position {
	return Position{Lat: lat, Lon: lon}
}

// PositionFromPoint converts an orb point (lon, lat) to a ground-level position.
func PositionFromPoint(p orb.Point) Position {
	return Position{Lat: p.Lat(), Lon: p.Lon()}
}

// Point returns the position as an orb.Point (lon, lat).
func (p Position) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Valid reports whether latitude and longitude are finite and in range.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

func (p Position) String() string {
	return fmt.Sprintf("(%.6f, %.6f)", p.Lat, p.Lon)
}

// NormalizeLon maps a longitude into [-180, 180).
func NormalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// CameraPose is a snapshot of the map camera. It is always passed by value so
// the grid builders never observe a camera that is being mutated.
type CameraPose struct {
	Lat     float64
	Lon     float64
	Alt     float64 // meters
	Heading float64 // degrees clockwise from north
	Tilt    float64 // degrees
	Roll    float64 // degrees
}

// View is everything a grid renderer needs for one recompute.
type View struct {
	Bounds BoundingBox
	Camera CameraPose
	Width  int // viewport width in pixels
	Height int // viewport height in pixels
}

// MetersPerPixel returns the ground resolution across the center of the view.
// A viewport without width yields +Inf so no label ever fits.
func (v View) MetersPerPixel() float64 {
	if v.Width <= 0 {
		return math.Inf(1)
	}
	return v.Bounds.WidthAcrossCenter() / float64(v.Width)
}
