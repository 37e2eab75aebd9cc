// Package grid builds UTM and MGRS grid overlays as lists of line and label
// features for a host renderer to draw.
package grid

import (
	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/mapgrid/internal/style"
	"github.com/MeKo-Tech/mapgrid/internal/types"
)

// Feature is a drawable grid element: a Path or a Label.
type Feature interface {
	// StyleKey names the style category of the feature.
	StyleKey() style.Key
	// ZoneNumber is the UTM zone the feature belongs to, or 0.
	ZoneNumber() int

	feature()
}

// Path is a grid line. Line holds (lon, lat) vertices at ground level.
type Path struct {
	Line  orb.LineString
	Style style.Key
	Zone  int
}

// Label is a piece of text anchored at a ground position. Azimuth is the text
// rotation in degrees, already compensated for the camera heading.
type Label struct {
	Position types.Position
	Text     string
	Style    style.Key
	Azimuth  float64
	Zone     int
}

func (p Path) StyleKey() style.Key  { return p.Style }
func (l Label) StyleKey() style.Key { return l.Style }
func (p Path) ZoneNumber() int      { return p.Zone }
func (l Label) ZoneNumber() int     { return l.Zone }
func (Path) feature()               {}
func (Label) feature()              {}

// Positions returns the path vertices as geodetic positions.
func (p Path) Positions() []types.Position {
	out := make([]types.Position, len(p.Line))
	for i, pt := range p.Line {
		out[i] = types.PositionFromPoint(pt)
	}
	return out
}

// Counts returns the number of paths and labels in a feature list.
func Counts(features []Feature) (paths, labels int) {
	for _, f := range features {
		switch f.(type) {
		case Path:
			paths++
		case Label:
			labels++
		}
	}
	return paths, labels
}
