package utm

import (
	"errors"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromLatLonKnownPoints(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		zone     int
		letter   byte
		easting  float64
		northing float64
	}{
		{"central meridian on equator", 0, 3, 31, 'N', 500000, 0},
		{"null island", 0, 0, 31, 'N', 166021.443, 0},
		{"southern hemisphere origin", -1e-9, 3, 31, 'M', 500000, 10000000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := FromLatLon(tt.lat, tt.lon)
			require.NoError(t, err)
			assert.Equal(t, tt.zone, c.Zone)
			assert.Equal(t, string(tt.letter), string(c.Letter))
			assert.InDelta(t, tt.easting, c.Easting, 0.01)
			assert.InDelta(t, tt.northing, c.Northing, 0.01)
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for lat := -80.0; lat <= 84.0; lat += 4 {
		for lon := -180.0; lon < 180.0; lon += 7 {
			c, err := FromLatLon(lat, lon)
			require.NoError(t, err, "lat=%v lon=%v", lat, lon)

			back := c.LatLon()
			d := geo.Distance(orb.Point{lon, lat}, back.Point())
			if d > 1 {
				t.Errorf("round trip of (%v, %v) via %s is off by %.3f m", lat, lon, c, d)
			}
		}
	}
}

func TestRoundTripOutsideZone(t *testing.T) {
	// Builders project a zone's widened cells through its regular central meridian.
	c, err := FromLatLonInZone(78, 20.9, 33)
	require.NoError(t, err)

	back := c.LatLon()
	assert.InDelta(t, 78, back.Lat, 1e-5)
	assert.InDelta(t, 20.9, back.Lon, 1e-5)
}

func TestRoundTripWidenedZones(t *testing.T) {
	// Svalbard and south-west Norway cells reach up to 6° from their zone's
	// central meridian.
	check := func(lat, lon float64) {
		t.Helper()
		c, err := FromLatLon(lat, lon)
		require.NoError(t, err)
		back := c.LatLon()
		if d := geo.Distance(orb.Point{lon, lat}, back.Point()); d > 1 {
			t.Errorf("round trip of (%v, %v) via %s is off by %.3f m", lat, lon, c, d)
		}
	}

	for lat := 72.0; lat <= 84.0; lat += 1.5 {
		for lon := 0.0; lon < 42.0; lon += 0.75 {
			check(lat, lon)
		}
	}
	for lat := 56.0; lat < 64.0; lat += 1 {
		for lon := 3.0; lon < 12.0; lon += 0.5 {
			check(lat, lon)
		}
	}
}

func TestProjectAcrossAntimeridian(t *testing.T) {
	// Zone 60 projected a little east of 180° keeps a continuous easting.
	west, _ := Project(10, 179.9, 60, true)
	east, _ := Project(10, -179.9, 60, true)
	assert.Greater(t, east, west)
	assert.InDelta(t, 2*0.1*111000*math.Cos(10*math.Pi/180), east-west, 200)

	back := ToLatLon(60, true, east, 1105000)
	assert.True(t, back.Lon < -179 || back.Lon > 179, "longitude normalized, got %v", back.Lon)
}

func TestNotRepresentable(t *testing.T) {
	for _, lat := range []float64{-80.01, 84.01, 90, -90, math.NaN()} {
		_, err := FromLatLon(lat, 10)
		if !errors.Is(err, ErrNotRepresentable) {
			t.Errorf("FromLatLon(%v, 10) error = %v, want ErrNotRepresentable", lat, err)
		}
		assert.Equal(t, 0, ZoneNumber(lat, 10))
		assert.Equal(t, byte(0), ZoneLetter(lat))
	}

	_, err := FromLatLonInZone(10, 10, 61)
	assert.ErrorIs(t, err, ErrInvalidZone)
}

func TestZoneNumber(t *testing.T) {
	tests := []struct {
		name     string
		lat, lon float64
		want     int
	}{
		{"first zone", 0, -180, 1},
		{"antimeridian", 0, 180, 60},
		{"greenwich", 0, 0, 31},
		{"west of greenwich", 0, -0.5, 30},
		{"new york", 40.7, -74, 18},
		{"norway exception", 60, 5, 32},
		{"norway west of exception", 60, 2.9, 31},
		{"norway exception ends at 64", 64, 5, 31},
		{"norway exception starts at 56", 56, 3, 32},
		{"south of norway", 55.9, 5, 31},
		{"svalbard 31", 75, 8.9, 31},
		{"svalbard 33 low", 75, 9, 33},
		{"svalbard 33 high", 75, 20.9, 33},
		{"svalbard 35", 75, 21, 35},
		{"svalbard 37", 75, 33, 37},
		{"svalbard east", 75, 42, 38},
		{"svalbard west", 75, -1, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ZoneNumber(tt.lat, tt.lon))
		})
	}
}

func TestZoneLetter(t *testing.T) {
	tests := []struct {
		lat  float64
		want byte
	}{
		{-80, 'C'},
		{-72.1, 'C'},
		{-0.1, 'M'},
		{0, 'N'},
		{40.7, 'T'},
		{71.9, 'W'},
		{72, 'X'},
		{84, 'X'},
	}
	for _, tt := range tests {
		if got := ZoneLetter(tt.lat); got != tt.want {
			t.Errorf("ZoneLetter(%v) = %q, want %q", tt.lat, got, tt.want)
		}
	}
}

func TestBandGeometry(t *testing.T) {
	assert.Equal(t, -80.0, BandSouth('C'))
	assert.Equal(t, 0.0, BandSouth('N'))
	assert.Equal(t, 72.0, BandSouth('X'))
	assert.Equal(t, 12.0, BandHeight('X'))
	assert.Equal(t, 8.0, BandHeight('N'))

	assert.Equal(t, byte('P'), NextLetter('N'))
	assert.Equal(t, byte(0), NextLetter('X'))
	assert.Equal(t, byte('M'), PreviousLetter('N'))
	assert.Equal(t, byte(0), PreviousLetter('C'))
}

func TestZoneExceptionCells(t *testing.T) {
	tests := []struct {
		zone   int
		letter byte
		west   float64
		width  float64
	}{
		{31, 'V', 0, 3},
		{32, 'V', 3, 9},
		{33, 'V', 12, 6},
		{31, 'X', 0, 9},
		{32, 'X', 6, 0},
		{33, 'X', 9, 12},
		{34, 'X', 18, 0},
		{35, 'X', 21, 12},
		{36, 'X', 30, 0},
		{37, 'X', 33, 9},
		{38, 'X', 42, 6},
		{18, 'T', -78, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.west, ZoneWest(tt.zone, tt.letter), "west of %d%c", tt.zone, tt.letter)
		assert.Equal(t, tt.width, ZoneWidth(tt.zone, tt.letter), "width of %d%c", tt.zone, tt.letter)
	}
}

func TestMaxNorthing(t *testing.T) {
	c, err := FromLatLon(40.7, -75)
	require.NoError(t, err)
	require.Equal(t, byte('T'), c.Letter)

	// Band T ends at 48°N; a sweep above this northing belongs to band U.
	maxN := c.MaxNorthing()
	top, err := FromLatLonInZone(48, CentralMeridian(18), 18)
	require.NoError(t, err)
	assert.InDelta(t, top.Northing, maxN, 1e-6)
	assert.Greater(t, maxN, c.Northing)

	south, err := FromLatLon(-10, -75)
	require.NoError(t, err)
	// Band L ends at 8°S.
	assert.Less(t, south.MaxNorthing(), 10000000.0)
	assert.Greater(t, south.MaxNorthing(), south.Northing)
}

func TestProjectKeepsHemisphere(t *testing.T) {
	_, n := Project(0, 3, 31, false)
	assert.InDelta(t, 10000000, n, 1e-6)

	_, n = Project(0, 3, 31, true)
	assert.InDelta(t, 0, n, 1e-6)

	back := ToLatLon(31, false, 500000, 10000000)
	assert.InDelta(t, 0, back.Lat, 1e-9)
	assert.InDelta(t, 3, back.Lon, 1e-9)
}
