package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/mapgrid/internal/export"
	"github.com/MeKo-Tech/mapgrid/internal/grid"
	"github.com/MeKo-Tech/mapgrid/internal/metrics"
	"github.com/MeKo-Tech/mapgrid/internal/overlay"
)

func newTiles(t *testing.T, cfg TilesConfig, dir string) *GridTiles {
	t.Helper()
	exp, err := export.New(export.Config{
		Renderer:  grid.NewPipeline(grid.KindMGRS, grid.Config{}),
		OutputDir: dir,
	})
	require.NoError(t, err)
	return NewGridTiles(exp, cfg, nil)
}

func newOverlayServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	gen := overlay.New(overlay.Config{
		Renderer: grid.NewPipeline(grid.KindMGRS, grid.Config{}),
		Metrics:  metrics.New(reg),
	})
	gen.Start()
	t.Cleanup(gen.Shutdown)

	srv := httptest.NewServer(NewMux(Config{
		Overlay:  NewOverlay(gen, nil, nil),
		Gatherer: reg,
	}))
	t.Cleanup(srv.Close)
	return srv
}

type featureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

func getFeatures(t *testing.T, url string) featureCollection {
	t.Helper()
	resp, err := http.Get(url + "/features")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var fc featureCollection
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fc))
	return fc
}

func postView(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url+"/view", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

const equatorView = `{
	"bounds": {"north": 1, "south": -1, "east": 1, "west": -1},
	"camera": {"lat": 0, "lon": 0, "alt": 500000},
	"width": 1000,
	"height": 1000
}`

func TestHealthz(t *testing.T) {
	rec := httptest.NewRecorder()
	NewMux(Config{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestTileHandler(t *testing.T) {
	mux := NewMux(Config{Tiles: newTiles(t, TilesConfig{}, t.TempDir())})

	tests := []struct {
		name string
		path string
		code int
	}{
		{"manhattan", "/tiles/12/1205/1539.geojson", http.StatusOK},
		{"out of range", "/tiles/2/9/0.geojson", http.StatusBadRequest},
		{"not a number", "/tiles/a/1/1.geojson", http.StatusBadRequest},
		{"wrong extension", "/tiles/12/1205/1539.png", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tiles/12/1205/1539.geojson", nil))
	assert.Equal(t, geoJSONContentType, rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var fc featureCollection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	assert.NotEmpty(t, fc.Features)
}

func TestTileHandlerCache(t *testing.T) {
	tiles := newTiles(t, TilesConfig{Cache: true}, t.TempDir())
	mux := NewMux(Config{Tiles: tiles})

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tiles/12/1205/1539.geojson", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "FeatureCollection")
	}

	status := tiles.Status()
	assert.Equal(t, int64(1), status.TotalRendered)
	assert.Equal(t, int64(1), status.TotalFromCache)
	assert.Zero(t, status.ActiveRenders)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	assert.Contains(t, rec.Body.String(), `"total_from_cache":1`)
}

func TestOverlayViewAndFeatures(t *testing.T) {
	srv := newOverlayServer(t)

	assert.Empty(t, getFeatures(t, srv.URL).Features)

	resp := postView(t, srv.URL, equatorView)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	require.Eventually(t, func() bool {
		return len(getFeatures(t, srv.URL).Features) > 0
	}, 5*time.Second, 10*time.Millisecond)

	resp = postView(t, srv.URL, `{"bounds": null, "camera": null, "width": 1000, "height": 1000}`)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Empty(t, getFeatures(t, srv.URL).Features)
}

func TestOverlayFeaturesNotModified(t *testing.T) {
	srv := newOverlayServer(t)

	resp, err := http.Get(srv.URL + "/features")
	require.NoError(t, err)
	resp.Body.Close()
	etag := resp.Header.Get("ETag")
	require.NotEmpty(t, etag)
	assert.Equal(t, "none", resp.Header.Get("X-Grid-Tier"))

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/features", nil)
	require.NoError(t, err)
	req.Header.Set("If-None-Match", etag)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotModified, resp.StatusCode)
}

func TestOverlayRejectsBadView(t *testing.T) {
	srv := newOverlayServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "bounds"},
		{"unknown field", `{"zoom": 3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postView(t, srv.URL, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newOverlayServer(t)

	scrape := func() string {
		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return string(body)
	}

	postView(t, srv.URL, equatorView)
	require.Eventually(t, func() bool {
		return strings.Contains(scrape(), `mapgrid_recomputes_total{tier="100km"} 1`)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCORSPreflight(t *testing.T) {
	srv := newOverlayServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/view", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
}
