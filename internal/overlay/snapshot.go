package overlay

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/MeKo-Tech/mapgrid/internal/grid"
	"github.com/MeKo-Tech/mapgrid/internal/resolution"
)

// Snapshot is one published grid. It is never modified after publication.
type Snapshot struct {
	Features    []grid.Feature
	Updated     time.Time
	Tier        resolution.Tier
	Fingerprint uint64
}

// Fingerprint hashes the drawable content of a feature list. Lists that draw
// the same thing hash the same.
func Fingerprint(features []grid.Feature) uint64 {
	d := xxhash.New()
	var buf [8]byte

	putFloat := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = d.Write(buf[:])
	}
	putInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		_, _ = d.Write(buf[:])
	}

	for _, f := range features {
		switch v := f.(type) {
		case grid.Path:
			_, _ = d.WriteString("P")
			_, _ = d.WriteString(string(v.Style))
			putInt(v.Zone)
			putInt(len(v.Line))
			for _, pt := range v.Line {
				putFloat(pt[0])
				putFloat(pt[1])
			}
		case grid.Label:
			_, _ = d.WriteString("L")
			_, _ = d.WriteString(string(v.Style))
			putInt(v.Zone)
			putInt(len(v.Text))
			_, _ = d.WriteString(v.Text)
			putFloat(v.Position.Lat)
			putFloat(v.Position.Lon)
			putFloat(v.Azimuth)
		}
	}
	return d.Sum64()
}

// next builds the snapshot that follows prev. Updated moves only when the
// content changed and never goes backwards, even if the clock does.
func (prev *Snapshot) next(features []grid.Feature, tier resolution.Tier, now time.Time) *Snapshot {
	fp := Fingerprint(features)
	updated := prev.Updated
	if fp != prev.Fingerprint {
		if now.After(updated) {
			updated = now
		} else {
			updated = updated.Add(time.Nanosecond)
		}
	}
	return &Snapshot{
		Features:    features,
		Updated:     updated,
		Tier:        tier,
		Fingerprint: fp,
	}
}
