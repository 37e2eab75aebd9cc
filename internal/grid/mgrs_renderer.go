package grid

import (
	"math"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"

	"github.com/MeKo-Tech/mapgrid/internal/mgrs"
	"github.com/MeKo-Tech/mapgrid/internal/resolution"
	"github.com/MeKo-Tech/mapgrid/internal/style"
	"github.com/MeKo-Tech/mapgrid/internal/types"
	"github.com/MeKo-Tech/mapgrid/internal/utm"
)

const (
	squareSize = 100000.0

	// lineSegments is the number of segments a grid line is sampled with.
	lineSegments = 32
	// outlineSamples is the number of points per edge used to find the
	// projected extent of a grid zone cell.
	outlineSamples = 8
	// maxLinesPerAxis bounds the lines drawn in one direction of one cell.
	maxLinesPerAxis = 500
	// maxSquaresPerAxis bounds the 100 km squares visited in one direction.
	maxSquaresPerAxis = 100
)

// lineClass is the styling category of a grid line.
type lineClass int

const (
	classMinor lineClass = iota
	classMajor
	classBox
)

// classify returns the coarsest category a line value belongs to.
func classify(value, gridSize float64) lineClass {
	switch {
	case math.Mod(value, squareSize) == 0:
		return classBox
	case math.Mod(value, gridSize*10) == 0:
		return classMajor
	default:
		return classMinor
	}
}

func (l lineClass) meridianKey() style.Key {
	switch l {
	case classBox:
		return style.BoxMeridian
	case classMajor:
		return style.MajorMeridian
	default:
		return style.MinorMeridian
	}
}

func (l lineClass) parallelKey() style.Key {
	switch l {
	case classBox:
		return style.BoxParallels
	case classMajor:
		return style.MajorParallels
	default:
		return style.MinorParallels
	}
}

// extent is the easting/northing range of a cell's visible part.
type extent struct {
	minE, maxE float64
	minN, maxN float64
}

// MGRSRenderer draws the MGRS grid for sub-zone tiers: zone boundaries, 100 km
// squares and finer grid lines with their identifiers and values.
type MGRSRenderer struct {
	styles         *style.Registry
	pixelsPerPoint float64
}

// NewMGRSRenderer creates an MGRS grid renderer.
func NewMGRSRenderer(cfg Config) *MGRSRenderer {
	return &MGRSRenderer{
		styles:         cfg.styles(),
		pixelsPerPoint: cfg.PixelsPerPoint,
	}
}

// Compute returns the MGRS grid for a view, or nil when the view is too wide
// for sub-zone lines.
func (r *MGRSRenderer) Compute(view types.View) []Feature {
	if !view.Bounds.Valid() {
		return nil
	}
	return r.ComputeTier(view, resolution.Select(view.Bounds.WidthAcrossCenter()))
}

// ComputeTier returns the MGRS grid for a view at a given tier.
func (r *MGRSRenderer) ComputeTier(view types.View, tier resolution.Tier) []Feature {
	b := view.Bounds
	if !b.Valid() || !tier.SubZone() {
		return nil
	}
	// Views centred on a pole would need UPS.
	if utm.ZoneNumber(b.CenterLat(), b.CenterLon()) == 0 {
		return nil
	}
	minLat, maxLat, ok := latRange(b)
	if !ok {
		return nil
	}

	c := newCollector(r.styles, r.pixelsPerPoint, view)
	zoneBoundaries(c, b, mgrsZoneKeys)

	gridSize := tier.GridSize()
	for _, cell := range zoneCells(b, minLat, maxLat) {
		r.gridZone(c, cell, gridSize)
	}

	return c.features()
}

// StyleFor returns the styles registered for key.
func (r *MGRSRenderer) StyleFor(key style.Key) (style.Stroke, style.Label, bool) {
	return r.styles.Lookup(key)
}

// gridZone draws one grid zone cell: lines first, then labels.
func (r *MGRSRenderer) gridZone(c *collector, cell zoneCell, gridSize float64) {
	northern := cell.letter >= 'N'
	ext, ok := projectedExtent(cell.visible, cell.zone, northern)
	if !ok {
		return
	}

	r.parallels(c, cell, ext, gridSize)
	r.meridians(c, cell, ext, gridSize)
	r.labels(c, cell, ext, gridSize)
}

// parallels draws lines of constant northing.
func (r *MGRSRenderer) parallels(c *collector, cell zoneCell, ext extent, gridSize float64) {
	northern := cell.letter >= 'N'
	margin := gridSize + (ext.maxE-ext.minE)*0.01
	from, to := ext.minE-margin, ext.maxE+margin

	n := math.Ceil(ext.minN/gridSize) * gridSize
	for i := 0; i < maxLinesPerAxis && n <= ext.maxN; i++ {
		northing := n
		line := sampleLine(cell, func(t float64) types.Position {
			return utm.ToLatLon(cell.zone, northern, from+(to-from)*t, northing)
		})
		r.addClipped(c, cell, line, classify(northing, gridSize).parallelKey())
		n += gridSize
	}
}

// meridians draws lines of constant easting.
func (r *MGRSRenderer) meridians(c *collector, cell zoneCell, ext extent, gridSize float64) {
	northern := cell.letter >= 'N'
	margin := gridSize + (ext.maxN-ext.minN)*0.01
	from, to := ext.minN-margin, ext.maxN+margin

	e := math.Ceil(ext.minE/gridSize) * gridSize
	for i := 0; i < maxLinesPerAxis && e <= ext.maxE; i++ {
		easting := e
		line := sampleLine(cell, func(t float64) types.Position {
			return utm.ToLatLon(cell.zone, northern, easting, from+(to-from)*t)
		})
		r.addClipped(c, cell, line, classify(easting, gridSize).meridianKey())
		e += gridSize
	}
}

// addClipped clips a line to the visible part of the cell, which also confines
// it to the cell's own zone.
func (r *MGRSRenderer) addClipped(c *collector, cell zoneCell, line orb.LineString, key style.Key) {
	if len(line) < 2 {
		return
	}
	for _, part := range clip.LineString(cell.visible.Bound(), line) {
		c.addPath(part, key, cell.zone)
	}
}

// labels places the grid zone label, the 100 km square identifiers and, for
// tiers finer than 100 km, the grid values.
func (r *MGRSRenderer) labels(c *collector, cell zoneCell, ext extent, gridSize float64) {
	v := cell.visible
	if c.fits(v.WidthAcrossCenter(), v.HeightAcrossCenter(), style.ZoneLabel, 2) {
		c.addLabel(types.NewPosition(v.CenterLat(), v.CenterLon()), cell.name(), style.ZoneLabel, 0, cell.zone, priorityZone)
	}

	northern := cell.letter >= 'N'
	firstCol := math.Floor(ext.minE / squareSize)
	firstRow := math.Floor(ext.minN / squareSize)

	for row := firstRow; row*squareSize <= ext.maxN && row-firstRow < maxSquaresPerAxis; row++ {
		for col := firstCol; col*squareSize <= ext.maxE && col-firstCol < maxSquaresPerAxis; col++ {
			e0, n0 := col*squareSize, row*squareSize

			section, ok := squareSection(cell, northern, e0, n0)
			if !ok {
				continue
			}

			if c.fits(section.WidthAcrossCenter(), section.HeightAcrossCenter(), style.SquareLabel, 2) {
				id := mgrs.Get100kID(e0, n0, cell.zone)
				c.addLabel(types.NewPosition(section.CenterLat(), section.CenterLon()), id, style.SquareLabel, 0, cell.zone, prioritySquare)
			}

			if gridSize < squareSize && c.tallEnough(section.HeightAcrossCenter(), style.SquareLabel, 3) {
				r.values(c, cell, ext, section, e0, n0, gridSize)
			}
		}
	}
}

// values labels the northing lines along the west edge and the easting lines
// along the south edge of one 100 km square section.
func (r *MGRSRenderer) values(c *collector, cell zoneCell, ext extent, section types.BoundingBox, e0, n0, gridSize float64) {
	northern := cell.letter >= 'N'
	ref := cell.bounds.CenterLon()

	n := math.Max(n0, math.Ceil(ext.minN/gridSize)*gridSize)
	for i := 0; i < maxLinesPerAxis && n < n0+squareSize && n <= ext.maxN; i++ {
		p := utm.ToLatLon(cell.zone, northern, e0, n)
		lon := math.Max(unwrapNear(p.Lon, ref), section.West)
		if section.Contains(p.Lat, lon) {
			text := strconv.Itoa(int(math.Floor((n - n0) / gridSize)))
			c.addLabel(types.NewPosition(p.Lat, lon), text, style.NorthValues, 0, cell.zone, priorityValue)
		}
		n += gridSize
	}

	e := math.Max(e0, math.Ceil(ext.minE/gridSize)*gridSize)
	for i := 0; i < maxLinesPerAxis && e < e0+squareSize && e <= ext.maxE; i++ {
		p := utm.ToLatLon(cell.zone, northern, e, n0)
		lat := math.Max(p.Lat, section.South)
		lon := unwrapNear(p.Lon, ref)
		if section.Contains(lat, lon) {
			text := strconv.Itoa(int(math.Floor((e - e0) / gridSize)))
			c.addLabel(types.NewPosition(lat, lon), text, style.EastValues, -90, cell.zone, priorityValue)
		}
		e += gridSize
	}
}

// squareSection returns the geographic extent of a 100 km square clipped to
// the visible part of the cell.
func squareSection(cell zoneCell, northern bool, e0, n0 float64) (types.BoundingBox, bool) {
	ref := cell.bounds.CenterLon()
	south, north := math.Inf(1), math.Inf(-1)
	west, east := math.Inf(1), math.Inf(-1)

	for _, fe := range [3]float64{0, 0.5, 1} {
		for _, fn := range [3]float64{0, 0.5, 1} {
			p := utm.ToLatLon(cell.zone, northern, e0+fe*squareSize, n0+fn*squareSize)
			if !finite(p.Lat) || !finite(p.Lon) {
				continue
			}
			lon := unwrapNear(p.Lon, ref)
			south, north = math.Min(south, p.Lat), math.Max(north, p.Lat)
			west, east = math.Min(west, lon), math.Max(east, lon)
		}
	}

	v := cell.visible
	s := types.NewBoundingBox(
		math.Min(north, v.North),
		math.Max(south, v.South),
		math.Min(east, v.East),
		math.Max(west, v.West),
	)
	if !(s.South < s.North && s.West < s.East) {
		return types.BoundingBox{}, false
	}
	return s, true
}

// projectedExtent samples the outline of a visible cell in its zone's
// projection.
func projectedExtent(b types.BoundingBox, zone int, northern bool) (extent, bool) {
	ext := extent{
		minE: math.Inf(1), maxE: math.Inf(-1),
		minN: math.Inf(1), maxN: math.Inf(-1),
	}

	add := func(lat, lon float64) {
		e, n := utm.Project(lat, lon, zone, northern)
		if !finite(e) || !finite(n) {
			return
		}
		ext.minE, ext.maxE = math.Min(ext.minE, e), math.Max(ext.maxE, e)
		ext.minN, ext.maxN = math.Min(ext.minN, n), math.Max(ext.maxN, n)
	}

	for i := 0; i <= outlineSamples; i++ {
		t := float64(i) / outlineSamples
		lat := b.South + (b.North-b.South)*t
		lon := b.West + (b.East-b.West)*t
		add(lat, b.West)
		add(lat, b.East)
		add(b.South, lon)
		add(b.North, lon)
	}

	if ext.minE > ext.maxE || ext.minN > ext.maxN {
		return extent{}, false
	}
	return ext, true
}

// sampleLine builds a polyline from lineSegments+1 samples. Vertices that come
// out non-finite are replaced by the previous valid vertex, or dropped when
// there is none yet.
func sampleLine(cell zoneCell, at func(t float64) types.Position) orb.LineString {
	ref := cell.bounds.CenterLon()
	line := make(orb.LineString, 0, lineSegments+1)
	for i := 0; i <= lineSegments; i++ {
		p := at(float64(i) / lineSegments)
		if !finite(p.Lat) || !finite(p.Lon) {
			if len(line) > 0 {
				line = append(line, line[len(line)-1])
			}
			continue
		}
		line = append(line, orb.Point{unwrapNear(p.Lon, ref), p.Lat})
	}
	return line
}

// unwrapNear shifts lon by a full turn so it lies within 180° of ref.
func unwrapNear(lon, ref float64) float64 {
	switch {
	case lon-ref > 180:
		return lon - 360
	case lon-ref < -180:
		return lon + 360
	}
	return lon
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
