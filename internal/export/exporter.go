// Package export writes the grid of map tiles to GeoJSON files.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/MeKo-Tech/mapgrid/internal/geojson"
	"github.com/MeKo-Tech/mapgrid/internal/grid"
	"github.com/MeKo-Tech/mapgrid/internal/style"
	"github.com/MeKo-Tech/mapgrid/internal/tile"
	"github.com/MeKo-Tech/mapgrid/internal/worker"
)

// DefaultTileSize is the viewport edge in pixels a tile is computed for.
const DefaultTileSize = 256

// Folder layouts.
const (
	LayoutFlat   = "flat"   // z{z}_x{x}_y{y}.geojson
	LayoutNested = "nested" // {z}/{x}/{y}.geojson
)

// Config configures a TileExporter.
type Config struct {
	Renderer  grid.Renderer
	Styles    *style.Registry
	Logger    *slog.Logger
	OutputDir string
	Layout    string
	TileSize  int
	Indent    bool
}

// TileExporter computes the grid of one tile and writes it as GeoJSON.
type TileExporter struct {
	renderer  grid.Renderer
	styles    *style.Registry
	logger    *slog.Logger
	outputDir string
	layout    string
	tileSize  int
	indent    bool
}

var _ worker.Exporter = (*TileExporter)(nil)

// New creates a TileExporter.
func New(cfg Config) (*TileExporter, error) {
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("export: renderer is required")
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "./grid"
	}
	switch cfg.Layout {
	case "":
		cfg.Layout = LayoutFlat
	case LayoutFlat, LayoutNested:
	default:
		return nil, fmt.Errorf("invalid layout %q: must be %q or %q", cfg.Layout, LayoutFlat, LayoutNested)
	}
	if cfg.TileSize <= 0 {
		cfg.TileSize = DefaultTileSize
	}
	if cfg.Styles == nil {
		cfg.Styles = style.Default()
	}

	return &TileExporter{
		renderer:  cfg.Renderer,
		styles:    cfg.Styles,
		logger:    cfg.Logger,
		outputDir: cfg.OutputDir,
		layout:    cfg.Layout,
		tileSize:  cfg.TileSize,
		indent:    cfg.Indent,
	}, nil
}

// PathFor returns the file a tile is written to.
func (e *TileExporter) PathFor(coords tile.Coords) string {
	if e.layout == LayoutNested {
		return filepath.Join(e.outputDir,
			strconv.FormatUint(uint64(coords.Z), 10),
			strconv.FormatUint(uint64(coords.X), 10),
			strconv.FormatUint(uint64(coords.Y), 10)+".geojson")
	}
	return filepath.Join(e.outputDir, coords.Path("geojson"))
}

// Export computes the grid for coords and writes it. An existing file is kept
// unless force is set.
func (e *TileExporter) Export(ctx context.Context, coords tile.Coords, force bool) (worker.Output, error) {
	finalPath := e.PathFor(coords)
	if !force {
		if _, err := os.Stat(finalPath); err == nil {
			e.log().Debug("Tile already exists; skipping", "coords", coords.String(), "path", finalPath)
			return worker.Output{Path: finalPath, Skipped: true}, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return worker.Output{}, err
	}

	features, data, err := e.Render(coords)
	if err != nil {
		return worker.Output{}, err
	}

	if err := os.MkdirAll(filepath.Dir(finalPath), 0755); err != nil {
		return worker.Output{}, fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(finalPath, data, 0644); err != nil {
		return worker.Output{}, fmt.Errorf("failed to write tile %s: %w", coords, err)
	}

	e.log().Debug("Tile exported", "coords", coords.String(), "path", finalPath, "features", features)
	return worker.Output{Path: finalPath, Features: features}, nil
}

// Render computes the grid of a tile and encodes it without touching disk.
// It returns the feature count and the GeoJSON document.
func (e *TileExporter) Render(coords tile.Coords) (int, []byte, error) {
	if !coords.Valid() {
		return 0, nil, fmt.Errorf("tile %s does not exist", coords)
	}

	features := e.renderer.Compute(coords.View(e.tileSize))
	data, err := geojson.Marshal(features, e.styles, e.indent)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode tile %s: %w", coords, err)
	}
	return len(features), data, nil
}

func (e *TileExporter) log() *slog.Logger {
	if e.logger != nil {
		return e.logger
	}
	return slog.Default()
}
