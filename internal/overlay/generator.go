// Package overlay recomputes a grid overlay in the background whenever the
// host's map view changes and publishes the latest result for lock-free
// reading.
package overlay

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/mapgrid/internal/grid"
	"github.com/MeKo-Tech/mapgrid/internal/metrics"
	"github.com/MeKo-Tech/mapgrid/internal/resolution"
	"github.com/MeKo-Tech/mapgrid/internal/types"
)

// Renderer computes the grid for a view. *grid.Pipeline implements it.
type Renderer interface {
	Render(view types.View) ([]grid.Feature, resolution.Tier)
	Tier(view types.View) resolution.Tier
}

// Redrawer is the host hook asking for a repaint. It is a hint and may be
// called when nothing changed.
type Redrawer interface {
	ScheduleRedraw()
}

// RedrawFunc adapts a function to Redrawer.
type RedrawFunc func()

// ScheduleRedraw calls f.
func (f RedrawFunc) ScheduleRedraw() { f() }

// State is the scheduler state of a Generator.
type State int32

const (
	StateIdle State = iota
	StatePending
	StateComputing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateComputing:
		return "computing"
	default:
		return "unknown"
	}
}

// Config configures a Generator.
type Config struct {
	// Renderer computes the features. Required.
	Renderer Renderer
	// Redrawer is notified after every publish. Optional.
	Redrawer Redrawer
	// Logger for recompute diagnostics (default: slog.Default()).
	Logger *slog.Logger
	// Metrics records recompute statistics. Optional.
	Metrics *metrics.Recorder
	// Now returns the publish time (default: time.Now).
	Now func() time.Time
}

// request is one accepted view change.
type request struct {
	view types.View
	tier resolution.Tier
	seq  uint64
	// clears is the generator's clear count when the request was accepted.
	clears uint64
}

// Generator runs the grid pipeline on a single worker goroutine. View changes
// only latch the newest request and wake the worker; a burst of changes
// collapses into one recompute of the last view.
type Generator struct {
	cfg Config

	mu       sync.Mutex
	pending  *request
	accepted *request // newest request handed to the worker
	seq      uint64
	clears   uint64

	wake      chan struct{}
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
	stopped   atomic.Bool

	state    atomic.Int32
	snapshot atomic.Pointer[Snapshot]
}

// New creates a generator. Call Start to run the worker.
func New(cfg Config) *Generator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := &Generator{
		cfg:    cfg,
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
	}
	g.snapshot.Store(&Snapshot{Tier: resolution.TierNone, Fingerprint: Fingerprint(nil)})
	return g
}

// Start launches the worker. Further calls do nothing.
func (g *Generator) Start() {
	g.startOnce.Do(func() {
		if g.stopped.Load() {
			return
		}
		g.wg.Add(1)
		go g.run()
	})
}

// Shutdown stops the worker and waits for it. A compute in progress finishes
// first. Safe to call more than once.
func (g *Generator) Shutdown() {
	g.stopOnce.Do(func() {
		g.stopped.Store(true)
		g.cancel()
		g.wg.Wait()

		g.mu.Lock()
		g.pending = nil
		g.mu.Unlock()
		g.state.Store(int32(StateIdle))
		g.cfg.Logger.Debug("grid generator stopped")
	})
}

// MapViewChange hands the host's current view to the generator. It never
// computes on the caller's goroutine. Nil or invalid bounds, or a nil camera,
// clear the grid and request a redraw.
func (g *Generator) MapViewChange(bounds *types.BoundingBox, camera *types.CameraPose, width, height int) {
	if g.stopped.Load() {
		g.cfg.Metrics.Skipped(metrics.ReasonStopped)
		return
	}
	if bounds == nil || camera == nil || !bounds.Valid() {
		g.clear()
		return
	}

	view := types.View{Bounds: *bounds, Camera: *camera, Width: width, Height: height}
	tier := g.cfg.Renderer.Tier(view)

	g.mu.Lock()
	if g.unchanged(view, tier) {
		g.mu.Unlock()
		g.cfg.Metrics.Skipped(metrics.ReasonGuard)
		return
	}
	if g.pending != nil {
		g.cfg.Metrics.Coalesced()
	}
	g.seq++
	req := &request{view: view, tier: tier, seq: g.seq, clears: g.clears}
	g.pending = req
	g.accepted = req
	if State(g.state.Load()) == StateIdle {
		g.state.Store(int32(StatePending))
	}
	g.mu.Unlock()

	select {
	case g.wake <- struct{}{}:
	default:
	}
}

// unchanged reports whether view can reuse the newest accepted request's
// grid: the camera barely moved, the tier and viewport are the same and the
// new bounds lie inside the old ones. Caller holds mu.
func (g *Generator) unchanged(view types.View, tier resolution.Tier) bool {
	last := g.accepted
	if last == nil {
		return false
	}
	return !ShouldRedraw(last.view.Camera, view.Camera) &&
		tier == last.tier &&
		view.Width == last.view.Width &&
		view.Height == last.view.Height &&
		last.view.Bounds.ContainsBox(view.Bounds)
}

// clear drops pending work, publishes an empty grid and requests a redraw.
func (g *Generator) clear() {
	g.mu.Lock()
	g.clears++ // a compute in flight is now stale
	g.pending = nil
	g.accepted = nil
	g.snapshot.Store(g.snapshot.Load().next(nil, resolution.TierNone, g.cfg.Now()))
	if State(g.state.Load()) == StatePending {
		g.state.Store(int32(StateIdle))
	}
	g.mu.Unlock()

	g.cfg.Metrics.Skipped(metrics.ReasonNoView)
	g.cfg.Metrics.Published(0)
	g.redraw()
}

// GridFeatures returns the published features. The slice is shared and must
// not be modified.
func (g *Generator) GridFeatures() []grid.Feature {
	return g.snapshot.Load().Features
}

// LastUpdated returns when the published features last changed.
func (g *Generator) LastUpdated() time.Time {
	return g.snapshot.Load().Updated
}

// Snapshot returns the published grid.
func (g *Generator) Snapshot() Snapshot {
	return *g.snapshot.Load()
}

// State returns the scheduler state.
func (g *Generator) State() State {
	return State(g.state.Load())
}

func (g *Generator) run() {
	defer g.wg.Done()
	log := g.cfg.Logger.With("component", "grid_generator")
	log.Debug("grid generator started")

	for {
		select {
		case <-g.ctx.Done():
			return
		case <-g.wake:
		}

		req, ok := g.take()
		if !ok {
			continue
		}
		g.compute(log, req)
	}
}

// take moves the pending request to the worker.
func (g *Generator) take() (request, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.pending == nil || g.ctx.Err() != nil {
		return request{}, false
	}
	req := *g.pending
	g.pending = nil
	g.state.Store(int32(StateComputing))
	return req, true
}

func (g *Generator) compute(log *slog.Logger, req request) {
	start := time.Now()
	features, tier := g.cfg.Renderer.Render(req.view)
	elapsed := time.Since(start)

	// A finished grid is published even when newer views are pending, so a
	// steady stream of changes still shows progress. Only a clear since the
	// request was accepted voids it.
	g.mu.Lock()
	current := req.clears == g.clears
	if current {
		g.snapshot.Store(g.snapshot.Load().next(features, tier, g.cfg.Now()))
	}
	if g.pending != nil {
		g.state.Store(int32(StatePending))
	} else {
		g.state.Store(int32(StateIdle))
	}
	g.mu.Unlock()

	if !current {
		log.Debug("discarding grid computed before clear", "seq", req.seq, "tier", tier.String())
		return
	}

	paths, labels := grid.Counts(features)
	g.cfg.Metrics.ObserveRecompute(tier.String(), elapsed, len(features))
	log.Debug("grid recomputed",
		"tier", tier.String(),
		"paths", paths,
		"labels", labels,
		"duration_ms", elapsed.Milliseconds(),
	)
	g.redraw()
}

func (g *Generator) redraw() {
	if g.cfg.Redrawer != nil {
		g.cfg.Redrawer.ScheduleRedraw()
	}
}
