package grid

import (
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"

	"github.com/MeKo-Tech/mapgrid/internal/style"
	"github.com/MeKo-Tech/mapgrid/internal/types"
)

// DefaultPixelsPerPoint converts label point sizes to screen pixels at 160 dpi.
const DefaultPixelsPerPoint = 160.0 / 72.0

const metersPerDegree = 111320.0

// Label priorities. Lower values win overlaps.
const (
	priorityZone = iota
	prioritySquare
	priorityValue
)

// pendingLabel is a label waiting for overlap resolution.
type pendingLabel struct {
	label    Label
	priority int
	order    int
	rect     rtreego.Rect
}

func (p *pendingLabel) Bounds() rtreego.Rect {
	return p.rect
}

// collector accumulates the features of one compute. Paths are kept as
// emitted; labels are held back so overlapping labels can be dropped, coarser
// categories first.
type collector struct {
	styles         *style.Registry
	pixelsPerPoint float64
	metersPerPixel float64
	heading        float64

	paths  []Feature
	labels []*pendingLabel
}

func newCollector(styles *style.Registry, pixelsPerPoint float64, view types.View) *collector {
	if pixelsPerPoint <= 0 {
		pixelsPerPoint = DefaultPixelsPerPoint
	}
	return &collector{
		styles:         styles,
		pixelsPerPoint: pixelsPerPoint,
		metersPerPixel: view.MetersPerPixel(),
		heading:        view.Camera.Heading,
	}
}

// charPixels returns the on-screen size of one character of a label style.
func (c *collector) charPixels(key style.Key) float64 {
	size := 12.0
	if l, ok := c.styles.Label(key); ok && l.Size > 0 {
		size = l.Size
	}
	return size * c.pixelsPerPoint
}

// fits reports whether a region of the given ground size can hold n characters
// of the style in both directions.
func (c *collector) fits(widthMeters, heightMeters float64, key style.Key, n float64) bool {
	need := c.charPixels(key) * n
	return widthMeters/c.metersPerPixel >= need && heightMeters/c.metersPerPixel >= need
}

// tallEnough reports whether a region of the given ground height can hold n
// characters of the style vertically.
func (c *collector) tallEnough(heightMeters float64, key style.Key, n float64) bool {
	return heightMeters/c.metersPerPixel >= c.charPixels(key)*n
}

func (c *collector) addPath(line orb.LineString, key style.Key, zone int) {
	if len(line) < 2 {
		return
	}
	c.paths = append(c.paths, Path{Line: line, Style: key, Zone: zone})
}

func (c *collector) addLabel(pos types.Position, text string, key style.Key, baseAzimuth float64, zone, priority int) {
	if !pos.Valid() || text == "" {
		return
	}

	lbl := Label{
		Position: types.NewPosition(pos.Lat, pos.Lon),
		Text:     text,
		Style:    key,
		Azimuth:  labelAzimuth(baseAzimuth, c.heading),
		Zone:     zone,
	}

	c.labels = append(c.labels, &pendingLabel{
		label:    lbl,
		priority: priority,
		order:    len(c.labels),
		rect:     c.footprint(lbl),
	})
}

// footprint estimates the ground area covered by a label in degrees.
func (c *collector) footprint(l Label) rtreego.Rect {
	px := c.charPixels(l.Style)
	mpp := c.metersPerPixel
	if math.IsInf(mpp, 0) || math.IsNaN(mpp) {
		mpp = 0
	}

	w := float64(len(l.Text)) * px * mpp
	h := px * mpp

	cosLat := math.Cos(l.Position.Lat * math.Pi / 180)
	if cosLat < 0.01 {
		cosLat = 0.01
	}
	dLat := math.Max(h/metersPerDegree, 1e-9)
	dLon := math.Max(w/(metersPerDegree*cosLat), 1e-9)

	minLon := l.Position.Lon - dLon/2
	if ls, ok := c.styles.Label(l.Style); ok {
		switch ls.Justification {
		case style.JustifyLeft:
			minLon = l.Position.Lon
		case style.JustifyRight:
			minLon = l.Position.Lon - dLon
		}
	}

	rect, _ := rtreego.NewRect(rtreego.Point{minLon, l.Position.Lat - dLat/2}, []float64{dLon, dLat})
	return rect
}

// features resolves label overlaps and returns the final list: paths in
// emission order followed by the accepted labels.
func (c *collector) features() []Feature {
	sorted := make([]*pendingLabel, len(c.labels))
	copy(sorted, c.labels)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].priority < sorted[j].priority
	})

	tree := rtreego.NewTree(2, 25, 50)
	accepted := make([]*pendingLabel, 0, len(sorted))
	for _, p := range sorted {
		if len(tree.SearchIntersect(p.rect)) > 0 {
			continue
		}
		tree.Insert(p)
		accepted = append(accepted, p)
	}
	sort.Slice(accepted, func(i, j int) bool { return accepted[i].order < accepted[j].order })

	out := make([]Feature, 0, len(c.paths)+len(accepted))
	out = append(out, c.paths...)
	for _, p := range accepted {
		out = append(out, p.label)
	}
	return out
}

// labelAzimuth rotates a label against the camera heading, keeping the result
// in [-360, 360].
func labelAzimuth(base, heading float64) float64 {
	return math.Mod(base-heading, 360)
}
