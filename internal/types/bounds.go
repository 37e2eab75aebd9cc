package types

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// BoundingBox represents a geographic bounding box in WGS84 (EPSG:4326).
// West is greater than East when the box crosses the antimeridian.
type BoundingBox struct {
	North float64 // Northern edge (degrees)
	South float64 // Southern edge (degrees)
	East  float64 // Eastern edge (degrees)
	West  float64 // Western edge (degrees)
}

// NewBoundingBox builds a box from its four edges.
func NewBoundingBox(north, south, east, west float64) BoundingBox {
	return BoundingBox{North: north, South: south, East: east, West: west}
}

// Valid reports whether the box has finite edges inside ±90/±180 and south <= north.
func (b BoundingBox) Valid() bool {
	for _, v := range [4]float64{b.North, b.South, b.East, b.West} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	if b.South > b.North || b.South < -90 || b.North > 90 {
		return false
	}
	if b.West < -180 || b.West > 180 || b.East < -180 || b.East > 180 {
		return false
	}
	return true
}

// Wraps reports whether the box crosses the antimeridian.
func (b BoundingBox) Wraps() bool {
	return b.West > b.East
}

// LonSpan returns the east-west extent in degrees, in [0, 360].
func (b BoundingBox) LonSpan() float64 {
	if b.Wraps() {
		return b.East + 360 - b.West
	}
	return b.East - b.West
}

// LatSpan returns the north-south extent in degrees.
func (b BoundingBox) LatSpan() float64 {
	return b.North - b.South
}

// Empty reports whether the box has no area.
func (b BoundingBox) Empty() bool {
	return b.LonSpan() <= 0 || b.LatSpan() <= 0
}

// CenterLat returns the latitude halfway between south and north.
func (b BoundingBox) CenterLat() float64 {
	return (b.North + b.South) / 2
}

// CenterLon returns the longitude halfway between west and east, following the
// box across the antimeridian when it wraps.
func (b BoundingBox) CenterLon() float64 {
	return NormalizeLon(b.West + b.LonSpan()/2)
}

// WidthAcrossCenter returns the east-west extent in meters measured along the
// center latitude. The distance is taken in two halves so spans wider than 180
// degrees are not folded back.
func (b BoundingBox) WidthAcrossCenter() float64 {
	lat := b.CenterLat()
	half := b.LonSpan() / 2

	west := orb.Point{b.West, lat}
	mid := orb.Point{b.West + half, lat}
	east := orb.Point{b.West + 2*half, lat}

	return geo.Distance(west, mid) + geo.Distance(mid, east)
}

// HeightAcrossCenter returns the north-south extent in meters measured along
// the center longitude.
func (b BoundingBox) HeightAcrossCenter() float64 {
	lon := b.CenterLon()
	return geo.Distance(orb.Point{lon, b.South}, orb.Point{lon, b.North})
}

// Contains reports whether the position lies inside the box (edges included).
func (b BoundingBox) Contains(lat, lon float64) bool {
	if lat < b.South || lat > b.North {
		return false
	}

	// -180 and 180 are the same meridian.
	if lon == -180 && b.East == 180 || lon == 180 && b.West == -180 {
		return true
	}

	if b.Wraps() {
		return lon >= b.West || lon <= b.East
	}
	return lon >= b.West && lon <= b.East
}

// ContainsBox reports whether other lies entirely inside b.
func (b BoundingBox) ContainsBox(other BoundingBox) bool {
	inter, ok := b.Intersection(other)
	if !ok {
		return false
	}
	return inter.South == other.South && inter.North == other.North &&
		math.Abs(inter.LonSpan()-other.LonSpan()) < 1e-9
}

// Intersection returns the overlap of two boxes. The comparison is done in
// unwrapped longitude space, shifting other by ±360 degrees, so boxes on either
// side of the antimeridian intersect correctly. When two disjoint overlaps
// exist the wider one is returned.
func (b BoundingBox) Intersection(other BoundingBox) (BoundingBox, bool) {
	south := math.Max(b.South, other.South)
	north := math.Min(b.North, other.North)
	if south > north {
		return BoundingBox{}, false
	}

	bw, be := b.West, b.West+b.LonSpan()
	ow, oe := other.West, other.West+other.LonSpan()

	var bestW, bestE float64
	found := false
	for _, shift := range [3]float64{-360, 0, 360} {
		w := math.Max(bw, ow+shift)
		e := math.Min(be, oe+shift)
		if w > e {
			continue
		}
		if !found || e-w > bestE-bestW {
			bestW, bestE = w, e
			found = true
		}
	}
	if !found {
		return BoundingBox{}, false
	}

	width := bestE - bestW
	if width >= 360 {
		return BoundingBox{North: north, South: south, East: 180, West: -180}, true
	}

	west := NormalizeLon(bestW)
	east := west + width
	if east > 180 {
		east -= 360
	}

	return BoundingBox{North: north, South: south, East: east, West: west}, true
}

// Bound returns the box as an orb.Bound. Boxes crossing the antimeridian are
// unwrapped so Max.Lon may exceed 180.
func (b BoundingBox) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.West + b.LonSpan(), b.North},
	}
}

// String returns a human-readable representation of the bounding box
func (b BoundingBox) String() string {
	return fmt.Sprintf("bbox(n=%.6f,s=%.6f,e=%.6f,w=%.6f)", b.North, b.South, b.East, b.West)
}
