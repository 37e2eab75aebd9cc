package geojson

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/MeKo-Tech/mapgrid/internal/grid"
	"github.com/MeKo-Tech/mapgrid/internal/style"
)

// Feature kinds written to the "kind" property.
const (
	KindLine  = "line"
	KindLabel = "label"
)

// FromFeatures converts grid features to a GeoJSON FeatureCollection. Paths
// become LineStrings and labels Points. When styles is non-nil the resolved
// stroke or label style is added to the properties.
func FromFeatures(features []grid.Feature, styles *style.Registry) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, f := range features {
		switch v := f.(type) {
		case grid.Path:
			if len(v.Line) < 2 {
				continue
			}
			gf := geojson.NewFeature(v.Line)
			gf.Properties["kind"] = KindLine
			gf.Properties["style"] = string(v.Style)
			if v.Zone != 0 {
				gf.Properties["zone"] = v.Zone
			}
			if s, ok := styles.Stroke(v.Style); ok {
				gf.Properties["stroke"] = style.FormatColor(s.Color)
				gf.Properties["stroke-width"] = s.Width
			}
			fc.Append(gf)

		case grid.Label:
			gf := geojson.NewFeature(v.Position.Point())
			gf.Properties["kind"] = KindLabel
			gf.Properties["style"] = string(v.Style)
			gf.Properties["text"] = v.Text
			gf.Properties["azimuth"] = v.Azimuth
			if v.Zone != 0 {
				gf.Properties["zone"] = v.Zone
			}
			if l, ok := styles.Label(v.Style); ok {
				gf.Properties["color"] = style.FormatColor(l.Color)
				gf.Properties["size"] = l.Size
				gf.Properties["justification"] = string(l.Justification)
				gf.Properties["font"] = l.FontFamily
				gf.Properties["typeface"] = string(l.Typeface)
			}
			fc.Append(gf)
		}
	}

	return fc
}

// Marshal converts features to GeoJSON bytes, indented when indent is set.
func Marshal(features []grid.Feature, styles *style.Registry, indent bool) ([]byte, error) {
	fc := FromFeatures(features, styles)

	var (
		data []byte
		err  error
	)
	if indent {
		data, err = json.MarshalIndent(fc, "", "  ")
	} else {
		data, err = json.Marshal(fc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GeoJSON: %w", err)
	}
	return data, nil
}

// Summary describes a feature list in one line.
func Summary(features []grid.Feature) string {
	paths, labels := grid.Counts(features)
	return fmt.Sprintf("Paths: %d, Labels: %d (Total: %d)", paths, labels, len(features))
}
