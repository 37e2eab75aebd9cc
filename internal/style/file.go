package style

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// File is the on-disk form of a style override file:
//
//	[stroke."MGRS.gridbox.meridian"]
//	color = "#0000FFB3"
//	width = 4
//
//	[label."MGRS.label.centered"]
//	color = "#6464FFB3"
//	size = 14
//	typeface = "bold"
type File struct {
	Stroke map[string]StrokeDef `toml:"stroke"`
	Label  map[string]LabelDef  `toml:"label"`
}

// StrokeDef overrides fields of a stroke. Empty fields keep the base value.
type StrokeDef struct {
	Color string  `toml:"color"`
	Width float64 `toml:"width"`
}

// LabelDef overrides fields of a label style. Empty fields keep the base value.
type LabelDef struct {
	Color         string  `toml:"color"`
	Size          float64 `toml:"size"`
	Justification string  `toml:"justification"`
	Font          string  `toml:"font"`
	Typeface      string  `toml:"typeface"`
}

// LoadFile reads a TOML style file and applies it on top of base.
func LoadFile(path string, base *Registry) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read style file: %w", err)
	}
	return Parse(data, base)
}

// Parse applies TOML style overrides on top of base and returns a new registry.
func Parse(data []byte, base *Registry) (*Registry, error) {
	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse style file: %w", err)
	}

	out := base.Merge(nil)

	for name, def := range f.Stroke {
		key := Key(name)
		s := out.strokes[key]
		if def.Color != "" {
			c, err := ParseColor(def.Color)
			if err != nil {
				return nil, fmt.Errorf("stroke %q: %w", name, err)
			}
			s.Color = c
		}
		if def.Width > 0 {
			s.Width = def.Width
		}
		out.strokes[key] = s
	}

	for name, def := range f.Label {
		key := Key(name)
		l := out.labels[key]
		if def.Color != "" {
			c, err := ParseColor(def.Color)
			if err != nil {
				return nil, fmt.Errorf("label %q: %w", name, err)
			}
			l.Color = c
		}
		if def.Size > 0 {
			l.Size = def.Size
		}
		if def.Justification != "" {
			l.Justification = Justification(strings.ToLower(def.Justification))
		}
		if def.Font != "" {
			l.FontFamily = def.Font
		}
		if def.Typeface != "" {
			l.Typeface = Typeface(strings.ToLower(def.Typeface))
		}
		out.labels[key] = l
	}

	return out, nil
}

// ParseColor parses "#RRGGBB" or "#RRGGBBAA".
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 && len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}

	return color.NRGBA{
		R: uint8(v >> 24),
		G: uint8(v >> 16),
		B: uint8(v >> 8),
		A: uint8(v),
	}, nil
}

// FormatColor renders c as "#rrggbbaa".
func FormatColor(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
