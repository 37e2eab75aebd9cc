package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func almostEqual(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestBoundingBoxValid(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		want bool
	}{
		{"regular", NewBoundingBox(10, -10, 20, -20), true},
		{"wrapping", NewBoundingBox(10, -10, -170, 170), true},
		{"south above north", NewBoundingBox(-10, 10, 20, -20), false},
		{"latitude out of range", NewBoundingBox(91, 0, 20, -20), false},
		{"longitude out of range", NewBoundingBox(10, 0, 181, -20), false},
		{"nan", NewBoundingBox(math.NaN(), 0, 20, -20), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.box.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBoundingBoxCenterAndSpan(t *testing.T) {
	b := NewBoundingBox(10, -10, -170, 170)

	assert.True(t, b.Wraps())
	assert.InDelta(t, 20.0, b.LonSpan(), 1e-9)
	assert.InDelta(t, 0.0, b.CenterLat(), 1e-9)
	assert.InDelta(t, -180.0, b.CenterLon(), 1e-9)

	plain := NewBoundingBox(52, 50, 12, 8)
	assert.False(t, plain.Wraps())
	assert.InDelta(t, 10.0, plain.CenterLon(), 1e-9)
	assert.InDelta(t, 51.0, plain.CenterLat(), 1e-9)
}

func TestBoundingBoxDistances(t *testing.T) {
	b := NewBoundingBox(1, -1, 1, -1)

	// One degree at the equator on a 6378137 m sphere.
	oneDegree := 6378137.0 * math.Pi / 180

	if !almostEqual(b.WidthAcrossCenter(), 2*oneDegree, 1) {
		t.Errorf("WidthAcrossCenter() = %.2f, want %.2f", b.WidthAcrossCenter(), 2*oneDegree)
	}
	if !almostEqual(b.HeightAcrossCenter(), 2*oneDegree, 1) {
		t.Errorf("HeightAcrossCenter() = %.2f, want %.2f", b.HeightAcrossCenter(), 2*oneDegree)
	}

	// A box spanning 300 degrees must not be folded into 60.
	wide := NewBoundingBox(1, -1, 150, -150)
	assert.InDelta(t, 300*oneDegree, wide.WidthAcrossCenter(), 10)

	// Width shrinks with latitude.
	north := NewBoundingBox(61, 59, 1, -1)
	assert.InDelta(t, 2*oneDegree*math.Cos(60*math.Pi/180), north.WidthAcrossCenter(), 10)
}

func TestBoundingBoxContains(t *testing.T) {
	wrapping := NewBoundingBox(10, -10, -170, 170)

	assert.True(t, wrapping.Contains(0, 179))
	assert.True(t, wrapping.Contains(0, -179))
	assert.True(t, wrapping.Contains(0, 180))
	assert.False(t, wrapping.Contains(0, 0))
	assert.False(t, wrapping.Contains(11, 179))

	edge := NewBoundingBox(10, -10, 180, 170)
	assert.True(t, edge.Contains(0, -180), "-180 and 180 are the same meridian")
}

func TestBoundingBoxIntersection(t *testing.T) {
	tests := []struct {
		name  string
		a, b  BoundingBox
		want  BoundingBox
		found bool
	}{
		{
			name:  "overlapping",
			a:     NewBoundingBox(10, 0, 10, 0),
			b:     NewBoundingBox(20, 5, 20, 5),
			want:  NewBoundingBox(10, 5, 10, 5),
			found: true,
		},
		{
			name:  "disjoint",
			a:     NewBoundingBox(10, 0, 10, 0),
			b:     NewBoundingBox(10, 0, 30, 20),
			found: false,
		},
		{
			name:  "disjoint latitudes",
			a:     NewBoundingBox(10, 0, 10, 0),
			b:     NewBoundingBox(30, 20, 10, 0),
			found: false,
		},
		{
			name:  "wrapping with east side",
			a:     NewBoundingBox(10, -10, -170, 170),
			b:     NewBoundingBox(20, 0, 180, 175),
			want:  NewBoundingBox(10, 0, 180, 175),
			found: true,
		},
		{
			name:  "wrapping with west side",
			a:     NewBoundingBox(10, -10, -170, 170),
			b:     NewBoundingBox(20, -20, -175, -180),
			want:  NewBoundingBox(10, -10, -175, -180),
			found: true,
		},
		{
			name:  "both wrapping",
			a:     NewBoundingBox(10, -10, -170, 170),
			b:     NewBoundingBox(10, -10, -160, 175),
			want:  NewBoundingBox(10, -10, -170, 175),
			found: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.a.Intersection(tt.b)
			require.Equal(t, tt.found, ok)
			if !ok {
				return
			}
			assert.InDelta(t, tt.want.North, got.North, 1e-9)
			assert.InDelta(t, tt.want.South, got.South, 1e-9)
			assert.InDelta(t, tt.want.East, got.East, 1e-9)
			assert.InDelta(t, tt.want.West, got.West, 1e-9)
		})
	}
}

func TestBoundingBoxContainsBox(t *testing.T) {
	outer := NewBoundingBox(10, -10, -170, 170)

	assert.True(t, outer.ContainsBox(NewBoundingBox(5, -5, 179, 175)))
	assert.True(t, outer.ContainsBox(NewBoundingBox(5, -5, -175, 175)))
	assert.False(t, outer.ContainsBox(NewBoundingBox(5, -5, -160, 175)))
	assert.False(t, outer.ContainsBox(NewBoundingBox(15, -5, 179, 175)))
}

func TestNormalizeLon(t *testing.T) {
	tests := []struct{ in, want float64 }{
		{0, 0},
		{180, -180},
		{-180, -180},
		{190, -170},
		{-190, 170},
		{540, -180},
	}
	for _, tt := range tests {
		if got := NormalizeLon(tt.in); !almostEqual(got, tt.want, 1e-9) {
			t.Errorf("NormalizeLon(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestViewMetersPerPixel(t *testing.T) {
	v := View{Bounds: NewBoundingBox(1, -1, 1, -1), Width: 1000, Height: 1000}
	assert.InDelta(t, v.Bounds.WidthAcrossCenter()/1000, v.MetersPerPixel(), 1e-9)

	v.Width = 0
	assert.True(t, math.IsInf(v.MetersPerPixel(), 1))
}
