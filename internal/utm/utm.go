// Package utm converts between WGS84 geodetic coordinates and Universal
// Transverse Mercator grid coordinates.
//
// The projection math is done by github.com/ctessum/geom/proj; this package
// owns the zone and band rules and keeps one transformer pair per zone and
// hemisphere. The grid builders rely on the round trip staying below a meter
// when they sweep a zone's projection across its widened Norway/Svalbard
// extent.
package utm

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/ctessum/geom/proj"

	"github.com/MeKo-Tech/mapgrid/internal/types"
)

const (
	// MinLat and MaxLat bound the latitudes UTM covers. The caps beyond belong to UPS.
	MinLat = -80.0
	MaxLat = 84.0

	wgs84 = "+proj=longlat +datum=WGS84 +no_defs"
)

var (
	// ErrNotRepresentable is returned for positions outside the UTM latitude range.
	ErrNotRepresentable = errors.New("position not representable in UTM")
	// ErrInvalidZone is returned for zone numbers outside 1..60.
	ErrInvalidZone = errors.New("invalid UTM zone")
)

// zoneProj holds the forward and inverse transforms of one zone and hemisphere.
type zoneProj struct {
	forward proj.Transformer
	inverse proj.Transformer
}

type projKey struct {
	zone     int
	northern bool
}

var (
	projMu    sync.Mutex
	projCache = map[projKey]*zoneProj{}
)

// transforms returns the cached transformer pair for a zone and hemisphere.
func transforms(zone int, northern bool) (*zoneProj, error) {
	if zone < 1 || zone > 60 {
		return nil, fmt.Errorf("zone %d: %w", zone, ErrInvalidZone)
	}
	key := projKey{zone: zone, northern: northern}

	projMu.Lock()
	defer projMu.Unlock()
	if zp, ok := projCache[key]; ok {
		return zp, nil
	}

	geoSR, err := proj.Parse(wgs84)
	if err != nil {
		return nil, fmt.Errorf("utm: while parsing geographic projection: %w", err)
	}
	def := fmt.Sprintf("+proj=utm +zone=%d +datum=WGS84 +units=m +no_defs", zone)
	if !northern {
		def = fmt.Sprintf("+proj=utm +zone=%d +south +datum=WGS84 +units=m +no_defs", zone)
	}
	utmSR, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("utm: while parsing %q: %w", def, err)
	}

	forward, err := geoSR.NewTransform(utmSR)
	if err != nil {
		return nil, fmt.Errorf("utm: while creating forward transform for zone %d: %w", zone, err)
	}
	inverse, err := utmSR.NewTransform(geoSR)
	if err != nil {
		return nil, fmt.Errorf("utm: while creating inverse transform for zone %d: %w", zone, err)
	}

	zp := &zoneProj{forward: forward, inverse: inverse}
	projCache[key] = zp
	return zp, nil
}

// Coordinate is a position on the UTM grid.
type Coordinate struct {
	Zone     int     // 1..60
	Letter   byte    // latitude band, one of Letters
	Easting  float64 // metres
	Northing float64 // metres, 10 000 km false northing in the south
}

// Northern reports whether the coordinate uses the northern hemisphere convention.
func (c Coordinate) Northern() bool {
	return c.Letter >= 'N'
}

// String formats the coordinate as "18T 583960 4507523".
func (c Coordinate) String() string {
	return fmt.Sprintf("%d%c %.0f %.0f", c.Zone, c.Letter, math.Floor(c.Easting), math.Floor(c.Northing))
}

// LatLon converts the coordinate back to a ground-level geodetic position.
func (c Coordinate) LatLon() types.Position {
	return ToLatLon(c.Zone, c.Northern(), c.Easting, c.Northing)
}

// MaxNorthing returns the northing of the band's northern edge on the central
// meridian. MGRS decoding uses it to reject squares north of the band.
func (c Coordinate) MaxNorthing() float64 {
	north := BandSouth(c.Letter) + BandHeight(c.Letter)
	_, n := Project(north, CentralMeridian(c.Zone), c.Zone, c.Northern())
	return n
}

// FromLatLon projects a geodetic position into its own UTM zone.
func FromLatLon(lat, lon float64) (Coordinate, error) {
	if !inRange(lat, lon) {
		return Coordinate{}, fmt.Errorf("%.6f,%.6f: %w", lat, lon, ErrNotRepresentable)
	}
	return FromLatLonInZone(lat, lon, ZoneNumber(lat, lon))
}

// FromLatLonInZone projects a geodetic position into the given zone, which need
// not be the zone the position falls in.
func FromLatLonInZone(lat, lon float64, zone int) (Coordinate, error) {
	if !inRange(lat, lon) {
		return Coordinate{}, fmt.Errorf("%.6f,%.6f: %w", lat, lon, ErrNotRepresentable)
	}
	if zone < 1 || zone > 60 {
		return Coordinate{}, fmt.Errorf("zone %d: %w", zone, ErrInvalidZone)
	}

	e, n, err := project(lat, lon, zone, lat >= 0)
	if err != nil {
		return Coordinate{}, err
	}
	return Coordinate{
		Zone:     zone,
		Letter:   ZoneLetter(lat),
		Easting:  e,
		Northing: n,
	}, nil
}

// Project runs the forward projection for a zone and hemisphere without range
// checks. Sweeps along a band edge at the equator use it to stay in the band's
// hemisphere. It returns NaN when the projection fails.
func Project(lat, lon float64, zone int, northern bool) (easting, northing float64) {
	e, n, err := project(lat, lon, zone, northern)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	return e, n
}

// ToLatLon inverts the projection for a zone and hemisphere. The result is not
// range checked; eastings far outside the zone produce meaningless positions,
// and a failed inversion yields NaN.
func ToLatLon(zone int, northern bool, easting, northing float64) types.Position {
	zp, err := transforms(zone, northern)
	if err != nil {
		return types.NewPosition(math.NaN(), math.NaN())
	}
	lon, lat, err := zp.inverse(easting, northing)
	if err != nil {
		return types.NewPosition(math.NaN(), math.NaN())
	}
	if lon < -180 || lon > 180 {
		lon = types.NormalizeLon(lon)
	}
	return types.NewPosition(lat, lon)
}

// project runs the forward transform for a zone, returning easting and northing.
func project(lat, lon float64, zone int, northern bool) (float64, float64, error) {
	zp, err := transforms(zone, northern)
	if err != nil {
		return 0, 0, err
	}
	// Keep the longitude continuous with the central meridian across the antimeridian.
	dLon := lon - CentralMeridian(zone)
	if dLon > 180 {
		lon -= 360
	} else if dLon < -180 {
		lon += 360
	}
	e, n, err := zp.forward(lon, lat)
	if err != nil {
		return 0, 0, fmt.Errorf("utm: projecting %.6f,%.6f into zone %d: %w", lat, lon, zone, err)
	}
	return e, n, nil
}

func inRange(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= MinLat && lat <= MaxLat && lon >= -180 && lon <= 180
}
