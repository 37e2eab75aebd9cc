// Package style maps grid line and label categories to their visual style.
//
// A Registry is built once per renderer and never modified afterwards, so it
// can be shared freely between the worker and readers of published features.
package style

import (
	"image/color"
	"math"
	"sort"
)

// Key names a semantic line or label category.
type Key string

// Keys used by the UTM zone renderer.
const (
	UTMZoneMeridian  Key = "UTMBase.gridzone.meridian"
	UTMZoneParallels Key = "UTMBase.gridzone.parallels"
	UTMZoneLabel     Key = "UTMBase.gridzone.label"
)

// Keys used by the MGRS renderer.
const (
	ZoneMeridian   Key = "gridzone.meridian"
	ZoneParallels  Key = "gridzone.parallels"
	ZoneLabel      Key = "gridzone.label"
	BoxMeridian    Key = "MGRS.gridbox.meridian"
	BoxParallels   Key = "MGRS.gridbox.parallels"
	MajorMeridian  Key = "MGRS.gridline.major.meridian"
	MajorParallels Key = "MGRS.gridline.major.parallels"
	MinorMeridian  Key = "MGRS.gridline.minor.meridian"
	MinorParallels Key = "MGRS.gridline.minor.parallels"
	SquareLabel    Key = "MGRS.label.centered"
	NorthValues    Key = "MGRS.north.values"
	EastValues     Key = "MGRS.east.values"
)

// Justification is the horizontal anchoring of a label.
type Justification string

const (
	JustifyLeft   Justification = "left"
	JustifyCenter Justification = "center"
	JustifyRight  Justification = "right"
)

// Typeface is the font weight of a label.
type Typeface string

const (
	Regular Typeface = "regular"
	Bold    Typeface = "bold"
	Italic  Typeface = "italic"
)

// Stroke is the style of a path.
type Stroke struct {
	Color color.NRGBA
	Width float64
}

// Label is the style of a text label. Size is in points.
type Label struct {
	Color         color.NRGBA
	Size          float64
	Justification Justification
	FontFamily    string
	Typeface      Typeface
}

// Registry is an immutable set of styles.
type Registry struct {
	strokes map[Key]Stroke
	labels  map[Key]Label
}

// NewRegistry copies the given maps into a new registry.
func NewRegistry(strokes map[Key]Stroke, labels map[Key]Label) *Registry {
	r := &Registry{
		strokes: make(map[Key]Stroke, len(strokes)),
		labels:  make(map[Key]Label, len(labels)),
	}
	for k, v := range strokes {
		r.strokes[k] = v
	}
	for k, v := range labels {
		r.labels[k] = v
	}
	return r
}

// Stroke returns the stroke style for key.
func (r *Registry) Stroke(key Key) (Stroke, bool) {
	if r == nil {
		return Stroke{}, false
	}
	s, ok := r.strokes[key]
	return s, ok
}

// Label returns the label style for key.
func (r *Registry) Label(key Key) (Label, bool) {
	if r == nil {
		return Label{}, false
	}
	l, ok := r.labels[key]
	return l, ok
}

// Lookup returns whichever styles exist for key. ok is false when neither does.
func (r *Registry) Lookup(key Key) (Stroke, Label, bool) {
	s, sok := r.Stroke(key)
	l, lok := r.Label(key)
	return s, l, sok || lok
}

// Keys returns every key in the registry, sorted.
func (r *Registry) Keys() []Key {
	if r == nil {
		return nil
	}
	seen := make(map[Key]struct{}, len(r.strokes)+len(r.labels))
	for k := range r.strokes {
		seen[k] = struct{}{}
	}
	for k := range r.labels {
		seen[k] = struct{}{}
	}

	keys := make([]Key, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Merge returns a new registry with other's entries layered over r's.
func (r *Registry) Merge(other *Registry) *Registry {
	out := NewRegistry(nil, nil)
	if r != nil {
		out = NewRegistry(r.strokes, r.labels)
	}
	if other == nil {
		return out
	}
	for k, v := range other.strokes {
		out.strokes[k] = v
	}
	for k, v := range other.labels {
		out.labels[k] = v
	}
	return out
}

// rgba builds a colour from an alpha fraction and 8-bit channels.
func rgba(alpha float64, r, g, b uint8) color.NRGBA {
	return color.NRGBA{R: r, G: g, B: b, A: uint8(math.Round(alpha * 255))}
}

var (
	zoneStroke = Stroke{Color: rgba(0.6, 255, 255, 0), Width: 3}
	zoneLabel  = Label{
		Color:         rgba(1.0, 255, 255, 0),
		Size:          12,
		Justification: JustifyCenter,
		FontFamily:    "Arial",
		Typeface:      Regular,
	}
	valueLabel = Label{
		Color:         rgba(1.0, 0, 0, 0),
		Size:          8,
		Justification: JustifyLeft,
		FontFamily:    "Arial",
		Typeface:      Regular,
	}
)

// Default returns the UTM and MGRS styles in one registry.
func Default() *Registry {
	return DefaultUTM().Merge(DefaultMGRS())
}

// DefaultUTM returns the styles of the UTM zone renderer.
func DefaultUTM() *Registry {
	return NewRegistry(
		map[Key]Stroke{
			UTMZoneMeridian:  zoneStroke,
			UTMZoneParallels: zoneStroke,
		},
		map[Key]Label{
			UTMZoneLabel: zoneLabel,
		},
	)
}

// DefaultMGRS returns the styles of the MGRS renderer.
func DefaultMGRS() *Registry {
	box := Stroke{Color: rgba(0.7, 0, 0, 255), Width: 4}
	major := Stroke{Color: rgba(0.5, 75, 75, 255), Width: 3}
	minor := Stroke{Color: rgba(0.5, 150, 150, 255), Width: 1}

	return NewRegistry(
		map[Key]Stroke{
			ZoneMeridian:   zoneStroke,
			ZoneParallels:  zoneStroke,
			BoxMeridian:    box,
			BoxParallels:   box,
			MajorMeridian:  major,
			MajorParallels: major,
			MinorMeridian:  minor,
			MinorParallels: minor,
		},
		map[Key]Label{
			ZoneLabel: zoneLabel,
			SquareLabel: {
				Color:         rgba(0.7, 100, 100, 255),
				Size:          12,
				Justification: JustifyCenter,
				FontFamily:    "Arial",
				Typeface:      Bold,
			},
			NorthValues: valueLabel,
			EastValues:  valueLabel,
		},
	)
}
