package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.ObserveRecompute("10km", 3*time.Millisecond, 120)
	r.ObserveRecompute("10km", time.Millisecond, 80)
	r.ObserveRecompute("zone", time.Millisecond, 20)
	r.Skipped(ReasonGuard)
	r.Coalesced()
	r.Coalesced()

	families := gather(t, reg)

	recomputes := families["mapgrid_recomputes_total"]
	require.NotNil(t, recomputes)
	byTier := make(map[string]float64)
	for _, m := range recomputes.GetMetric() {
		byTier[m.GetLabel()[0].GetValue()] = m.GetCounter().GetValue()
	}
	assert.Equal(t, map[string]float64{"10km": 2, "zone": 1}, byTier)

	assert.Equal(t, uint64(3), families["mapgrid_recompute_duration_seconds"].GetMetric()[0].GetHistogram().GetSampleCount())
	assert.Equal(t, 20.0, families["mapgrid_features"].GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, 1.0, families["mapgrid_requests_skipped_total"].GetMetric()[0].GetCounter().GetValue())
	assert.Equal(t, 2.0, families["mapgrid_requests_coalesced_total"].GetMetric()[0].GetCounter().GetValue())

	r.Published(0)
	assert.Equal(t, 0.0, gather(t, reg)["mapgrid_features"].GetMetric()[0].GetGauge().GetValue())
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveRecompute("1km", time.Second, 1)
		r.Published(1)
		r.Skipped(ReasonNoView)
		r.Coalesced()
	})
}

func TestNewWithoutRegistry(t *testing.T) {
	// Two recorders on private registries must not collide.
	assert.NotPanics(t, func() {
		New(nil)
		New(nil)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg).Coalesced()

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "mapgrid_requests_coalesced_total 1"))
}
