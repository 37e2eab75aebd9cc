package resolution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectThresholds(t *testing.T) {
	tests := []struct {
		width float64
		want  Tier
	}{
		{0, Tier1m},
		{20, Tier1m},
		{20.9, Tier1m},
		{21, Tier10m},
		{200, Tier10m},
		{201, Tier100m},
		{2000, Tier100m},
		{2001, Tier1km},
		{20000, Tier1km},
		{20001, Tier10km},
		{200000, Tier10km},
		{200001, Tier100km},
		{1800000, Tier100km},
		{1800001, TierZoneOnly},
		{5000000, TierZoneOnly},
		{5000001, TierNone},
		{math.Inf(1), TierNone},
		{math.NaN(), TierNone},
		{-1, TierNone},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, Select(tt.width), "width %v", tt.width)
		})
	}
}

func TestSelectMonotonic(t *testing.T) {
	prev := Select(0)
	for w := 1.0; w < 2e7; w *= 1.05 {
		got := Select(w)
		if got < prev {
			t.Fatalf("Select(%v) = %v is finer than %v for a narrower view", w, got, prev)
		}
		prev = got
	}
}

func TestGridSize(t *testing.T) {
	assert.Equal(t, 1.0, Tier1m.GridSize())
	assert.Equal(t, 1000.0, Tier1km.GridSize())
	assert.Equal(t, 100000.0, Tier100km.GridSize())
	assert.Equal(t, 0.0, TierZoneOnly.GridSize())
	assert.Equal(t, 0.0, TierNone.GridSize())

	assert.True(t, Tier100km.SubZone())
	assert.False(t, TierZoneOnly.SubZone())
}

func TestParseTier(t *testing.T) {
	for tier := Tier1m; tier <= TierNone; tier++ {
		got, ok := ParseTier(tier.String())
		assert.True(t, ok)
		assert.Equal(t, tier, got)
	}
	_, ok := ParseTier("5km")
	assert.False(t, ok)
}
