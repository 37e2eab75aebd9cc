// Package resolution selects the grid density for a view width.
package resolution

import (
	"math"
)

// Tier is a grid density, ordered from finest to coarsest.
type Tier int

const (
	Tier1m Tier = iota
	Tier10m
	Tier100m
	Tier1km
	Tier10km
	Tier100km
	TierZoneOnly
	TierNone
)

// Multipliers of the grid size at which a tier gives way to the next one.
const (
	subZoneFactor  = 20
	hundredKFactor = 18
	zoneOnlyFactor = 50
)

var tierNames = map[Tier]string{
	Tier1m:       "1m",
	Tier10m:      "10m",
	Tier100m:     "100m",
	Tier1km:      "1km",
	Tier10km:     "10km",
	Tier100km:    "100km",
	TierZoneOnly: "zone",
	TierNone:     "none",
}

// String returns a short name such as "1km".
func (t Tier) String() string {
	if name, ok := tierNames[t]; ok {
		return name
	}
	return "unknown"
}

// GridSize returns the line spacing of the tier in meters. TierZoneOnly and
// TierNone have no sub-zone lines and return 0.
func (t Tier) GridSize() float64 {
	if t < Tier1m || t > Tier100km {
		return 0
	}
	return math.Pow10(int(t))
}

// SubZone reports whether the tier draws lines inside grid zones.
func (t Tier) SubZone() bool {
	return t >= Tier1m && t <= Tier100km
}

// Select returns the tier for a view width in meters. The width is floored
// first. NaN and negative widths select TierNone.
func Select(viewWidth float64) Tier {
	if math.IsNaN(viewWidth) || viewWidth < 0 {
		return TierNone
	}
	w := math.Floor(viewWidth)

	for t := Tier1m; t < Tier100km; t++ {
		if w <= t.GridSize()*subZoneFactor {
			return t
		}
	}
	if w <= Tier100km.GridSize()*hundredKFactor {
		return Tier100km
	}
	if w <= Tier100km.GridSize()*zoneOnlyFactor {
		return TierZoneOnly
	}
	return TierNone
}

// ParseTier converts a name produced by String back to a Tier.
func ParseTier(name string) (Tier, bool) {
	for t, n := range tierNames {
		if n == name {
			return t, true
		}
	}
	return TierNone, false
}
