package grid

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/mapgrid/internal/style"
	"github.com/MeKo-Tech/mapgrid/internal/types"
	"github.com/MeKo-Tech/mapgrid/internal/utm"
)

// zoneKeys are the style keys used for grid zone boundaries and labels.
type zoneKeys struct {
	meridian  style.Key
	parallels style.Key
	label     style.Key
}

var (
	utmZoneKeys  = zoneKeys{style.UTMZoneMeridian, style.UTMZoneParallels, style.UTMZoneLabel}
	mgrsZoneKeys = zoneKeys{style.ZoneMeridian, style.ZoneParallels, style.ZoneLabel}
)

// upsLabels marks the polar regions beyond UTM coverage. Only the letters are
// drawn; there is no UPS grid.
var upsLabels = []struct {
	lat, lon float64
	text     string
}{
	{-85, -90, "A"},
	{-85, 90, "B"},
	{87, -90, "Y"},
	{87, 90, "Z"},
}

// meridianSegment is one straight piece of a zone boundary.
type meridianSegment struct {
	lon      float64
	from, to float64
}

// meridianSegments splits the zone boundary at lon into the pieces bent by the
// Norway and Svalbard exceptions, clipped to [minLat, maxLat].
func meridianSegments(lon, minLat, maxLat float64) []meridianSegment {
	var raw []meridianSegment
	switch {
	case lon < 6 || lon > 36:
		raw = []meridianSegment{{lon, utm.MinLat, utm.MaxLat}}
	case lon == 6:
		raw = []meridianSegment{
			{6, utm.MinLat, 56},
			{3, 56, 64},
			{6, 64, 72},
			{9, 72, utm.MaxLat},
		}
	case lon == 18 || lon == 30:
		raw = []meridianSegment{
			{lon, utm.MinLat, 72},
			{lon + 3, 72, utm.MaxLat},
		}
	default:
		// 12, 24 and 36 end at band X where zones 32, 34 and 36 vanish.
		raw = []meridianSegment{{lon, utm.MinLat, 72}}
	}

	out := raw[:0]
	for _, s := range raw {
		s.from = math.Max(s.from, minLat)
		s.to = math.Min(s.to, maxLat)
		if s.from < s.to {
			out = append(out, s)
		}
	}
	return out
}

// zoneSpan is the range of zone boundaries covering a view.
type zoneSpan struct {
	start int // index of the first boundary, 0..59
	count int // number of zones covered
}

func newZoneSpan(b types.BoundingBox) zoneSpan {
	east := b.West + b.LonSpan()
	start := int(math.Floor((b.West + 180) / 6))
	end := int(math.Ceil((east + 180) / 6))

	count := end - start
	if count < 1 {
		count = 1
	}
	if count > 60 {
		count = 60
	}
	return zoneSpan{start: ((start % 60) + 60) % 60, count: count}
}

// zone returns the zone number k zones east of the first one.
func (s zoneSpan) zone(k int) int {
	return ((s.start+k)%60+60)%60 + 1
}

// latRange clamps a view to UTM latitudes on whole degrees. ok is false for
// views entirely inside a polar cap.
func latRange(b types.BoundingBox) (minLat, maxLat float64, ok bool) {
	minLat = math.Max(math.Floor(b.South), utm.MinLat)
	maxLat = math.Min(math.Ceil(b.North), utm.MaxLat)
	if minLat >= utm.MaxLat || maxLat <= utm.MinLat {
		return 0, 0, false
	}
	return minLat, maxLat, true
}

// zoneBoundaries emits the zone meridians and band parallels covering the view.
func zoneBoundaries(c *collector, b types.BoundingBox, keys zoneKeys) {
	minLat, maxLat, ok := latRange(b)
	if !ok {
		return
	}
	span := newZoneSpan(b)

	// Boundary k is the west edge of zone k; the last one closes the last zone.
	last := span.count
	if span.count == 60 {
		last = 59
	}
	for k := 0; k <= last; k++ {
		idx := (span.start + k) % 60
		lon := float64(idx*6 - 180)
		zone := idx + 1
		if k == span.count {
			zone = span.zone(k - 1)
		}
		if k == span.count && lon == -180 {
			lon = 180
		}
		for _, s := range meridianSegments(lon, minLat, maxLat) {
			c.addPath(orb.LineString{{s.lon, s.from}, {s.lon, s.to}}, keys.meridian, zone)
		}
	}

	westLon := float64(span.start*6 - 180)
	for row := 0; row < len(utm.Letters); row++ {
		lat := utm.BandSouth(utm.Letters[row])
		if lat < minLat || lat > maxLat {
			continue
		}
		for _, line := range parallel(lat, westLon, span.count) {
			c.addPath(line, keys.parallels, 0)
		}
	}
	if maxLat >= utm.MaxLat && minLat < utm.MaxLat {
		for _, line := range parallel(utm.MaxLat, westLon, span.count) {
			c.addPath(line, keys.parallels, 0)
		}
	}
}

// parallel builds a line of latitude across count zones starting at westLon,
// with a vertex on every zone boundary, split where it crosses 180°.
func parallel(lat, westLon float64, count int) []orb.LineString {
	var west, wrapped orb.LineString
	for k := 0; k <= count; k++ {
		lon := westLon + float64(6*k)
		if lon <= 180 {
			west = append(west, orb.Point{lon, lat})
		}
		if lon >= 180 && westLon+float64(6*count) > 180 {
			wrapped = append(wrapped, orb.Point{lon - 360, lat})
		}
	}

	var lines []orb.LineString
	if len(west) >= 2 {
		lines = append(lines, west)
	}
	if len(wrapped) >= 2 {
		lines = append(lines, wrapped)
	}
	return lines
}

// zoneCells returns the grid zone cells intersecting the view. Zones one step
// outside the span are included so widened exception cells are not missed.
func zoneCells(b types.BoundingBox, minLat, maxLat float64) []zoneCell {
	span := newZoneSpan(b)

	seen := make(map[int]bool)
	var cells []zoneCell
	for k := -1; k <= span.count; k++ {
		zone := span.zone(k)
		if seen[zone] {
			continue
		}
		seen[zone] = true

		for letter := utm.Letters[0]; letter != 0; letter = utm.NextLetter(letter) {
			south := utm.BandSouth(letter)
			north := south + utm.BandHeight(letter)
			if north <= minLat || south >= maxLat {
				continue
			}
			width := utm.ZoneWidth(zone, letter)
			if width == 0 {
				continue
			}
			west := utm.ZoneWest(zone, letter)
			cell := types.NewBoundingBox(north, south, west+width, west)

			visible, ok := cell.Intersection(b)
			if !ok || visible.Empty() {
				continue
			}
			cells = append(cells, zoneCell{zone: zone, letter: letter, bounds: cell, visible: visible})
		}
	}
	return cells
}

// zoneCell is one zone/band cell and the part of it inside the view.
type zoneCell struct {
	zone    int
	letter  byte
	bounds  types.BoundingBox
	visible types.BoundingBox
}

func (z zoneCell) name() string {
	return fmt.Sprintf("%d%c", z.zone, z.letter)
}

// upsLetters labels the visible polar regions.
func upsLetters(c *collector, b types.BoundingBox, key style.Key) {
	for _, u := range upsLabels {
		if b.Contains(u.lat, u.lon) {
			c.addLabel(types.NewPosition(u.lat, u.lon), u.text, key, 0, 0, priorityZone)
		}
	}
}
