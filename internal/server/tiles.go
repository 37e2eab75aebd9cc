package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/mapgrid/internal/export"
	"github.com/MeKo-Tech/mapgrid/internal/tile"
)

// TilesConfig configures on-demand grid tiles.
type TilesConfig struct {
	// CacheControl is sent with every tile (default: "no-store").
	CacheControl string
	// MaxConcurrent bounds simultaneous tile computations (default: 1).
	MaxConcurrent int
	// Timeout bounds the wait for a computation slot (default: 30s).
	Timeout time.Duration
	// Cache writes computed tiles through the exporter and serves them from
	// disk on later requests. Without it tiles are computed in memory.
	Cache bool
}

// GridTiles serves the grid of web map tiles as GeoJSON.
type GridTiles struct {
	exporter *export.TileExporter
	logger   *slog.Logger
	sem      chan struct{}
	locks    sync.Map
	cfg      TilesConfig

	activeRenders  atomic.Int32
	totalRendered  atomic.Int64
	totalFailed    atomic.Int64
	totalFromCache atomic.Int64
}

// TileStatus reports tile computation counters.
type TileStatus struct {
	ActiveRenders  int   `json:"active_renders"`
	TotalRendered  int64 `json:"total_rendered"`
	TotalFailed    int64 `json:"total_failed"`
	TotalFromCache int64 `json:"total_from_cache"`
	MaxConcurrent  int   `json:"max_concurrent"`
}

// NewGridTiles creates the tile handler.
func NewGridTiles(exporter *export.TileExporter, cfg TilesConfig, logger *slog.Logger) *GridTiles {
	if cfg.CacheControl == "" {
		cfg.CacheControl = "no-store"
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 1
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &GridTiles{
		exporter: exporter,
		logger:   logger,
		sem:      make(chan struct{}, cfg.MaxConcurrent),
		cfg:      cfg,
	}
}

// Status returns the current counters.
func (t *GridTiles) Status() TileStatus {
	return TileStatus{
		ActiveRenders:  int(t.activeRenders.Load()),
		TotalRendered:  t.totalRendered.Load(),
		TotalFailed:    t.totalFailed.Load(),
		TotalFromCache: t.totalFromCache.Load(),
		MaxConcurrent:  t.cfg.MaxConcurrent,
	}
}

// StatusHandler serves Status as JSON.
func (t *GridTiles) StatusHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		if err := json.NewEncoder(w).Encode(t.Status()); err != nil {
			t.log().Error("failed to encode status", "error", err)
		}
	})
}

// Handler serves GET /tiles/{z}/{x}/{y}.geojson.
func (t *GridTiles) Handler() http.Handler {
	return http.HandlerFunc(t.serveTile)
}

func (t *GridTiles) serveTile(w http.ResponseWriter, r *http.Request) {
	y, ok := strings.CutSuffix(r.PathValue("y"), ".geojson")
	if !ok {
		http.NotFound(w, r)
		return
	}
	coords, err := tile.ParseZXY(r.PathValue("z"), r.PathValue("x"), y)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Cache-Control", t.cfg.CacheControl)

	if t.cfg.Cache {
		mu := t.getLock(coords.String())
		mu.Lock()
		defer mu.Unlock()

		if fileExists(t.exporter.PathFor(coords)) {
			t.totalFromCache.Add(1)
			t.serveFile(w, r, coords)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), t.cfg.Timeout)
	defer cancel()

	select {
	case t.sem <- struct{}{}:
		defer func() { <-t.sem }()
	case <-ctx.Done():
		http.Error(w, "request cancelled", http.StatusServiceUnavailable)
		return
	}

	start := time.Now()
	t.activeRenders.Add(1)
	data, features, err := t.compute(ctx, coords)
	t.activeRenders.Add(-1)

	if err != nil {
		t.totalFailed.Add(1)
		t.log().Error("failed to compute tile", "coords", coords.String(), "error", err)
		http.Error(w, fmt.Sprintf("failed to compute tile %s: %v", coords, err), http.StatusInternalServerError)
		return
	}
	t.totalRendered.Add(1)
	t.log().Debug("tile computed on-demand", "coords", coords.String(), "features", features, "ms", time.Since(start).Milliseconds())

	if data == nil {
		t.serveFile(w, r, coords)
		return
	}
	w.Header().Set("Content-Type", geoJSONContentType)
	_, _ = w.Write(data)
}

// compute renders a tile. With the cache enabled the tile is written to disk
// and data is nil.
func (t *GridTiles) compute(ctx context.Context, coords tile.Coords) ([]byte, int, error) {
	if t.cfg.Cache {
		out, err := t.exporter.Export(ctx, coords, false)
		return nil, out.Features, err
	}
	features, data, err := t.exporter.Render(coords)
	return data, features, err
}

func (t *GridTiles) serveFile(w http.ResponseWriter, r *http.Request, coords tile.Coords) {
	w.Header().Set("Content-Type", geoJSONContentType)
	http.ServeFile(w, r, t.exporter.PathFor(coords))
}

func (t *GridTiles) getLock(key string) *sync.Mutex {
	if v, ok := t.locks.Load(key); ok {
		return v.(*sync.Mutex)
	}
	mu := &sync.Mutex{}
	actual, _ := t.locks.LoadOrStore(key, mu)
	return actual.(*sync.Mutex)
}

func (t *GridTiles) log() *slog.Logger {
	if t.logger != nil {
		return t.logger
	}
	return slog.Default()
}
