// Package server exposes grid tiles and a live grid overlay over HTTP.
package server

import (
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MeKo-Tech/mapgrid/internal/metrics"
)

const geoJSONContentType = "application/geo+json"

// Config wires the HTTP handlers. Tiles and Overlay are optional; their
// routes are only registered when set.
type Config struct {
	Tiles    *GridTiles
	Overlay  *Overlay
	Gatherer prometheus.Gatherer
}

// NewMux builds the routes:
//
//	GET  /healthz
//	GET  /metrics
//	GET  /status
//	GET  /tiles/{z}/{x}/{y}.geojson
//	POST /view
//	GET  /features
func NewMux(cfg Config) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if cfg.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(cfg.Gatherer))
	}
	if cfg.Tiles != nil {
		mux.Handle("GET /status", cfg.Tiles.StatusHandler())
		mux.Handle("GET /tiles/{z}/{x}/{y}", WithCORS(cfg.Tiles.Handler()))
		mux.Handle("OPTIONS /tiles/{z}/{x}/{y}", WithCORS(http.NotFoundHandler()))
	}
	if cfg.Overlay != nil {
		mux.Handle("POST /view", WithCORS(cfg.Overlay.ViewHandler()))
		mux.Handle("GET /features", WithCORS(cfg.Overlay.FeaturesHandler()))
		mux.Handle("OPTIONS /view", WithCORS(http.NotFoundHandler()))
	}
	return mux
}

// WithCORS allows browser map clients on other origins.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, If-None-Match")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	if err != nil {
		return false
	}
	return !st.IsDir()
}
