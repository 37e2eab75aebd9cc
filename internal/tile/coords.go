package tile

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"github.com/MeKo-Tech/mapgrid/internal/types"
)

// MaxZoom is the deepest zoom level accepted for grid tiles.
const MaxZoom = 22

// Coords represents a tile coordinate in the Web Mercator tile system (z/x/y)
type Coords struct {
	Z uint32 // Zoom level (0-22)
	X uint32 // X coordinate (column)
	Y uint32 // Y coordinate (row)
}

// String returns the tile coordinate as a string in format "z{zoom}_x{x}_y{y}"
func (c Coords) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y)
}

// Path returns the file path for this tile
func (c Coords) Path(extension string) string {
	return fmt.Sprintf("%s.%s", c.String(), extension)
}

// Tile returns the maptile.Tile for this coordinate
func (c Coords) Tile() maptile.Tile {
	return maptile.New(c.X, c.Y, maptile.Zoom(c.Z))
}

// Valid reports whether the coordinate exists at its zoom level.
func (c Coords) Valid() bool {
	if c.Z > MaxZoom {
		return false
	}
	n := uint32(1) << c.Z
	return c.X < n && c.Y < n
}

// Bounds returns the geographic bounding box of the tile in WGS84.
func (c Coords) Bounds() types.BoundingBox {
	bound := c.Tile().Bound()
	return types.NewBoundingBox(bound.Max.Lat(), bound.Min.Lat(), bound.Max.Lon(), bound.Min.Lon())
}

// Center returns the center point of the tile in WGS84 (lon, lat)
func (c Coords) Center() (float64, float64) {
	b := c.Bounds()
	return b.CenterLon(), b.CenterLat()
}

// View returns the map view of the tile rendered at size×size pixels with a
// north-up camera over its centre.
func (c Coords) View(size int) types.View {
	b := c.Bounds()
	return types.View{
		Bounds: b,
		Camera: types.CameraPose{Lat: b.CenterLat(), Lon: b.CenterLon()},
		Width:  size,
		Height: size,
	}
}

// NewCoords creates a new Coords from zoom, x, y values
func NewCoords(z, x, y uint32) Coords {
	return Coords{Z: z, X: x, Y: y}
}

// ParseCoords parses a tile string like "z13_x4297_y2754" into Coords
func ParseCoords(s string) (Coords, error) {
	var c Coords
	_, err := fmt.Sscanf(s, "z%d_x%d_y%d", &c.Z, &c.X, &c.Y)
	if err != nil {
		return c, fmt.Errorf("invalid tile coordinate format: %s", s)
	}
	if !c.Valid() {
		return c, fmt.Errorf("tile %s does not exist", c)
	}
	return c, nil
}

// ParseZXY parses the separate path segments of a /z/x/y URL.
func ParseZXY(z, x, y string) (Coords, error) {
	var vals [3]uint32
	for i, s := range [3]string{z, x, y} {
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return Coords{}, fmt.Errorf("invalid tile coordinate %q: %w", s, err)
		}
		vals[i] = uint32(v)
	}

	c := NewCoords(vals[0], vals[1], vals[2])
	if !c.Valid() {
		return Coords{}, fmt.Errorf("tile %d/%d/%d does not exist", c.Z, c.X, c.Y)
	}
	return c, nil
}

// tileSpan returns the x and y tile ranges covering a box at one zoom level.
// A box crossing the antimeridian yields minX > maxX.
func tileSpan(bbox types.BoundingBox, zoom maptile.Zoom) (minX, maxX, minY, maxY uint32) {
	nw := maptile.At(orb.Point{bbox.West, bbox.North}, zoom)
	se := maptile.At(orb.Point{bbox.East, bbox.South}, zoom)

	// Longitude 180 lands one column past the last.
	last := (uint32(1) << zoom) - 1
	return min(nw.X, last), min(se.X, last), min(nw.Y, last), min(se.Y, last)
}

// xCount is the number of columns from minX to maxX, wrapping around the
// antimeridian.
func xCount(minX, maxX uint32, zoom maptile.Zoom) uint32 {
	if minX <= maxX {
		return maxX - minX + 1
	}
	return (uint32(1) << zoom) - minX + maxX + 1
}

// TilesInBBox returns all tile coordinates within a bounding box across a zoom range.
// Calculates correct tile coordinates at each zoom level independently. Boxes
// crossing the antimeridian wrap around.
func TilesInBBox(bbox types.BoundingBox, zoomMin, zoomMax int) []Coords {
	tiles := make([]Coords, 0, TileCount(bbox, zoomMin, zoomMax))

	for z := zoomMin; z <= zoomMax; z++ {
		zoom := maptile.Zoom(z)
		minX, maxX, minY, maxY := tileSpan(bbox, zoom)
		n := uint32(1) << zoom

		cols := xCount(minX, maxX, zoom)
		for i := uint32(0); i < cols; i++ {
			x := (minX + i) % n
			for y := minY; y <= maxY; y++ {
				tiles = append(tiles, NewCoords(uint32(z), x, y))
			}
		}
	}

	return tiles
}

// TileCount returns the number of tiles in a bounding box across a zoom range.
// This is useful for progress estimation without allocating the full tile list.
func TileCount(bbox types.BoundingBox, zoomMin, zoomMax int) int {
	count := 0
	for z := zoomMin; z <= zoomMax; z++ {
		zoom := maptile.Zoom(z)
		minX, maxX, minY, maxY := tileSpan(bbox, zoom)
		count += int(xCount(minX, maxX, zoom)) * int(maxY-minY+1)
	}
	return count
}
