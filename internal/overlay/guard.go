package overlay

import (
	"math"

	"github.com/MeKo-Tech/mapgrid/internal/types"
)

// Camera movement below all of these leaves the grid as it is.
const (
	guardLonDegrees = 3.0
	guardLatDegrees = 4.0
	guardAltMeters  = 1000.0
	guardTiltDegree = 2.0
)

// ShouldRedraw reports whether the camera moved enough since prev to warrant a
// recompute. It returns false only when the longitude, latitude, altitude and
// tilt changes are all below their thresholds.
func ShouldRedraw(prev, next types.CameraPose) bool {
	dLon := math.Abs(next.Lon - prev.Lon)
	if dLon > 180 {
		dLon = 360 - dLon
	}
	dLat := math.Abs(next.Lat - prev.Lat)
	dAlt := math.Abs(next.Alt - prev.Alt)
	dTilt := math.Abs(next.Tilt - prev.Tilt)

	still := dLon < guardLonDegrees &&
		dLat < guardLatDegrees &&
		dAlt <= guardAltMeters &&
		dTilt <= guardTiltDegree
	return !still
}
