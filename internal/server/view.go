package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MeKo-Tech/mapgrid/internal/geojson"
	"github.com/MeKo-Tech/mapgrid/internal/overlay"
	"github.com/MeKo-Tech/mapgrid/internal/style"
	"github.com/MeKo-Tech/mapgrid/internal/types"
)

const maxViewBody = 64 << 10

// BoundsJSON is the wire form of a bounding box.
type BoundsJSON struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// CameraJSON is the wire form of a camera pose.
type CameraJSON struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Alt     float64 `json:"alt"`
	Heading float64 `json:"heading"`
	Tilt    float64 `json:"tilt"`
	Roll    float64 `json:"roll"`
}

// ViewRequest is the body of POST /view. Null bounds or camera clear the grid.
type ViewRequest struct {
	Bounds *BoundsJSON `json:"bounds"`
	Camera *CameraJSON `json:"camera"`
	Width  int         `json:"width"`
	Height int         `json:"height"`
}

// ViewResponse acknowledges a view change.
type ViewResponse struct {
	State string `json:"state"`
}

// Overlay exposes a live overlay.Generator over HTTP.
type Overlay struct {
	gen    *overlay.Generator
	styles *style.Registry
	logger *slog.Logger
}

// NewOverlay wraps a started generator.
func NewOverlay(gen *overlay.Generator, styles *style.Registry, logger *slog.Logger) *Overlay {
	if styles == nil {
		styles = style.Default()
	}
	return &Overlay{gen: gen, styles: styles, logger: logger}
}

// ViewHandler serves POST /view.
func (o *Overlay) ViewHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ViewRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxViewBody))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("invalid view: %v", err), http.StatusBadRequest)
			return
		}

		bounds, camera := req.view()
		o.gen.MapViewChange(bounds, camera, req.Width, req.Height)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusAccepted)
		if err := json.NewEncoder(w).Encode(ViewResponse{State: o.gen.State().String()}); err != nil {
			o.log().Error("failed to encode view response", "error", err)
		}
	})
}

// FeaturesHandler serves GET /features: the latest published grid as GeoJSON.
func (o *Overlay) FeaturesHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snap := o.gen.Snapshot()
		etag := `"` + strconv.FormatUint(snap.Fingerprint, 16) + `"`

		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("ETag", etag)
		w.Header().Set("X-Grid-Tier", snap.Tier.String())
		if !snap.Updated.IsZero() {
			w.Header().Set("Last-Modified", snap.Updated.UTC().Format(http.TimeFormat))
		}
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		data, err := geojson.Marshal(snap.Features, o.styles, false)
		if err != nil {
			o.log().Error("failed to encode features", "error", err)
			http.Error(w, "failed to encode features", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", geoJSONContentType)
		_, _ = w.Write(data)
	})
}

func (req ViewRequest) view() (*types.BoundingBox, *types.CameraPose) {
	var (
		bounds *types.BoundingBox
		camera *types.CameraPose
	)
	if b := req.Bounds; b != nil {
		bb := types.NewBoundingBox(b.North, b.South, b.East, b.West)
		bounds = &bb
	}
	if c := req.Camera; c != nil {
		camera = &types.CameraPose{
			Lat: c.Lat, Lon: c.Lon, Alt: c.Alt,
			Heading: c.Heading, Tilt: c.Tilt, Roll: c.Roll,
		}
	}
	return bounds, camera
}

func (o *Overlay) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}
