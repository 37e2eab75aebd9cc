package grid

import (
	"github.com/MeKo-Tech/mapgrid/internal/style"
	"github.com/MeKo-Tech/mapgrid/internal/types"
)

// MaxUTMAltitude is the camera altitude in meters above which the UTM-only
// grid is not drawn.
const MaxUTMAltitude = 5e7

// Config configures a renderer.
type Config struct {
	// Styles is the complete style registry. Nil selects style.Default().
	Styles *style.Registry
	// PixelsPerPoint converts label sizes to screen pixels. Zero selects
	// DefaultPixelsPerPoint.
	PixelsPerPoint float64
}

func (c Config) styles() *style.Registry {
	if c.Styles == nil {
		return style.Default()
	}
	return c.Styles
}

// UTMRenderer draws grid zone boundaries, one label per visible grid zone and
// the UPS region letters.
type UTMRenderer struct {
	styles         *style.Registry
	pixelsPerPoint float64
	keys           zoneKeys
	// labelChars is how many characters a cell must be tall for its label.
	labelChars float64
}

// NewUTMRenderer creates the zone renderer of the UTM grid.
func NewUTMRenderer(cfg Config) *UTMRenderer {
	return &UTMRenderer{
		styles:         cfg.styles(),
		pixelsPerPoint: cfg.PixelsPerPoint,
		keys:           utmZoneKeys,
		labelChars:     1,
	}
}

// NewMGRSZoneRenderer creates the zone renderer used by the MGRS grid when the
// view is too wide for 100 km squares. It uses the MGRS zone styles.
func NewMGRSZoneRenderer(cfg Config) *UTMRenderer {
	r := NewUTMRenderer(cfg)
	r.keys = mgrsZoneKeys
	return r
}

// Compute returns the zone grid for a view.
func (r *UTMRenderer) Compute(view types.View) []Feature {
	if !view.Bounds.Valid() {
		return nil
	}

	c := newCollector(r.styles, r.pixelsPerPoint, view)
	minLat, maxLat, ok := latRange(view.Bounds)
	if !ok {
		// Polar-only view: no zones, but the UPS letters may still be visible.
		upsLetters(c, view.Bounds, r.keys.label)
		return c.features()
	}

	zoneBoundaries(c, view.Bounds, r.keys)

	for _, cell := range zoneCells(view.Bounds, minLat, maxLat) {
		if !c.tallEnough(cell.visible.HeightAcrossCenter(), r.keys.label, r.labelChars) {
			continue
		}
		pos := types.NewPosition(cell.visible.CenterLat(), cell.visible.CenterLon())
		c.addLabel(pos, cell.name(), r.keys.label, 0, cell.zone, priorityZone)
	}

	upsLetters(c, view.Bounds, r.keys.label)

	return c.features()
}

// StyleFor returns the styles registered for key.
func (r *UTMRenderer) StyleFor(key style.Key) (style.Stroke, style.Label, bool) {
	return r.styles.Lookup(key)
}
