package grid

import (
	"fmt"
	"strings"

	"github.com/MeKo-Tech/mapgrid/internal/resolution"
	"github.com/MeKo-Tech/mapgrid/internal/style"
	"github.com/MeKo-Tech/mapgrid/internal/types"
)

// Renderer computes grid features for a view.
type Renderer interface {
	Compute(view types.View) []Feature
	StyleFor(key style.Key) (style.Stroke, style.Label, bool)
}

// TierRenderer is a Renderer that can draw a given tier instead of the one
// selected from the view width.
type TierRenderer interface {
	ComputeTier(view types.View, tier resolution.Tier) []Feature
}

// Kind selects which grid a pipeline draws.
type Kind string

const (
	KindMGRS Kind = "mgrs"
	KindUTM  Kind = "utm"
)

// ParseKind converts "mgrs" or "utm" (any case) to a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindMGRS, KindUTM:
		return k, nil
	}
	return "", fmt.Errorf("unknown grid kind %q (want mgrs or utm)", s)
}

// Pipeline picks a renderer for each view from its resolution tier.
//
// For KindMGRS the zone renderer handles TierZoneOnly and the MGRS renderer
// every finer tier. For KindUTM the zone renderer handles every tier up to
// TierNone as long as the camera is below MaxUTMAltitude.
type Pipeline struct {
	UTM  Renderer
	MGRS Renderer
	Kind Kind
}

// NewPipeline creates the renderers for a grid kind.
func NewPipeline(kind Kind, cfg Config) *Pipeline {
	p := &Pipeline{
		MGRS: NewMGRSRenderer(cfg),
		Kind: kind,
	}
	if kind == KindUTM {
		p.UTM = NewUTMRenderer(cfg)
	} else {
		p.UTM = NewMGRSZoneRenderer(cfg)
	}
	return p
}

// Tier returns the resolution tier for a view.
func (p *Pipeline) Tier(view types.View) resolution.Tier {
	if !view.Bounds.Valid() {
		return resolution.TierNone
	}
	return resolution.Select(view.Bounds.WidthAcrossCenter())
}

// Render computes the features for a view and reports the tier used.
func (p *Pipeline) Render(view types.View) ([]Feature, resolution.Tier) {
	return p.RenderTier(view, p.Tier(view))
}

// RenderTier computes the features for a view at a forced tier.
func (p *Pipeline) RenderTier(view types.View, tier resolution.Tier) ([]Feature, resolution.Tier) {
	switch {
	case tier == resolution.TierNone || !view.Bounds.Valid():
		return nil, tier
	case p.Kind == KindUTM:
		if view.Camera.Alt > MaxUTMAltitude {
			return nil, tier
		}
		return p.UTM.Compute(view), tier
	case tier == resolution.TierZoneOnly:
		return p.UTM.Compute(view), tier
	default:
		if tr, ok := p.MGRS.(TierRenderer); ok {
			return tr.ComputeTier(view, tier), tier
		}
		return p.MGRS.Compute(view), tier
	}
}

// Compute implements Renderer.
func (p *Pipeline) Compute(view types.View) []Feature {
	features, _ := p.Render(view)
	return features
}

// StyleFor implements Renderer, preferring the MGRS styles.
func (p *Pipeline) StyleFor(key style.Key) (style.Stroke, style.Label, bool) {
	if s, l, ok := p.MGRS.StyleFor(key); ok {
		return s, l, true
	}
	return p.UTM.StyleFor(key)
}
