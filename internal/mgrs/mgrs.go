// Package mgrs encodes Military Grid Reference System square identifiers.
package mgrs

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/MeKo-Tech/mapgrid/internal/utm"
)

const (
	// columnLetters is the 24-letter easting alphabet (no I, no O).
	columnLetters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	// Row alphabets alternate between odd and even zones.
	rowLettersOdd  = "ABCDEFGHJKLMNPQRSTUV"
	rowLettersEven = "FGHJKLMNPQRSTUVABCDE"

	squareSize = 100000.0
)

// columnOrigin is the index in columnLetters of the first column of each of
// the six repeating sets: A, J, S, A, J, S.
var columnOrigin = [6]int{0, 8, 16, 0, 8, 16}

var (
	// ErrPrecision is returned for a precision outside 0..5 digits.
	ErrPrecision = errors.New("mgrs precision must be between 0 and 5 digits")
	// ErrInvalidReference is returned by Parse for malformed or inconsistent references.
	ErrInvalidReference = errors.New("invalid mgrs reference")
)

// rowCycle is the northing after which the row letters repeat.
const rowCycle = 20 * squareSize

// Get100kID returns the two-letter 100 km square identifier for a UTM
// position. Column 1 of a zone is the first letter of the zone's set; rows
// repeat every 2 000 km.
func Get100kID(easting, northing float64, zone int) string {
	set := ((zone-1)%6+6)%6 + 1

	column := int(math.Floor(easting / squareSize))
	row := int(math.Floor(northing/squareSize)) % 20
	if row < 0 {
		row += 20
	}

	colIdx := (columnOrigin[set-1] + column - 1) % len(columnLetters)
	if colIdx < 0 {
		colIdx += len(columnLetters)
	}

	rows := rowLettersOdd
	if zone%2 == 0 {
		rows = rowLettersEven
	}

	return string([]byte{columnLetters[colIdx], rows[row]})
}

// Format renders a full MGRS reference such as "18TWL8395907350" with the
// given number of digits per axis.
func Format(lat, lon float64, digits int) (string, error) {
	if digits < 0 || digits > 5 {
		return "", fmt.Errorf("%d: %w", digits, ErrPrecision)
	}

	c, err := utm.FromLatLon(lat, lon)
	if err != nil {
		return "", err
	}

	id := Get100kID(c.Easting, c.Northing, c.Zone)
	if digits == 0 {
		return fmt.Sprintf("%d%c%s", c.Zone, c.Letter, id), nil
	}

	div := math.Pow10(5 - digits)
	e := int(math.Floor(math.Mod(c.Easting, squareSize) / div))
	n := int(math.Floor(math.Mod(c.Northing, squareSize) / div))

	return fmt.Sprintf("%d%c%s%0*d%0*d", c.Zone, c.Letter, id, digits, e, digits, n), nil
}

// Parse decodes a reference such as "18TWL8395907350" to the UTM coordinate of
// the south-west corner of the square it names. Spaces are ignored and letters
// may be lower case.
func Parse(ref string) (utm.Coordinate, error) {
	s := strings.ToUpper(strings.ReplaceAll(ref, " ", ""))
	invalid := func(reason string) (utm.Coordinate, error) {
		return utm.Coordinate{}, fmt.Errorf("%q: %s: %w", ref, reason, ErrInvalidReference)
	}

	i := 0
	for i < len(s) && i < 2 && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || len(s) < i+3 {
		return invalid("expected zone, band and square letters")
	}
	zone := 0
	for _, d := range s[:i] {
		zone = zone*10 + int(d-'0')
	}
	if zone < 1 || zone > 60 {
		return invalid(fmt.Sprintf("zone %d out of range", zone))
	}

	letter := s[i]
	if utm.LetterIndex(letter) < 0 {
		return invalid(fmt.Sprintf("band %q", letter))
	}

	col, row := s[i+1], s[i+2]
	easting, ok := columnEasting(col, zone)
	if !ok {
		return invalid(fmt.Sprintf("column letter %q not used in zone %d", col, zone))
	}
	rows := rowLettersOdd
	if zone%2 == 0 {
		rows = rowLettersEven
	}
	rowIdx := strings.IndexByte(rows, row)
	if rowIdx < 0 {
		return invalid(fmt.Sprintf("row letter %q", row))
	}

	digits := s[i+3:]
	if len(digits)%2 != 0 || len(digits) > 10 {
		return invalid("expected an even number of up to 10 digits")
	}
	var e, n float64
	if half := len(digits) / 2; half > 0 {
		scale := math.Pow10(5 - half)
		for j := 0; j < half; j++ {
			de, dn := digits[j], digits[half+j]
			if de < '0' || de > '9' || dn < '0' || dn > '9' {
				return invalid("non-digit in numeric part")
			}
			e = e*10 + float64(de-'0')
			n = n*10 + float64(dn-'0')
		}
		e *= scale
		n *= scale
	}

	c := utm.Coordinate{Zone: zone, Letter: letter, Easting: easting + e}
	northing := float64(rowIdx)*squareSize + n
	// Rows repeat every 2 000 km; pick the cycle that lands in the band. The
	// margins cover parallels bending away from the central meridian.
	_, bandSouth := utm.Project(utm.BandSouth(letter), utm.CentralMeridian(zone), zone, c.Northern())
	minNorthing := math.Floor(bandSouth/squareSize)*squareSize - squareSize
	for northing < minNorthing {
		northing += rowCycle
	}
	if northing > c.MaxNorthing()+squareSize {
		return invalid(fmt.Sprintf("square %c%c lies outside band %c", col, row, letter))
	}
	c.Northing = northing

	// A truncated reference may point just south of its band.
	got := utm.ZoneLetter(c.LatLon().Lat)
	if got != letter && got != utm.PreviousLetter(letter) {
		return invalid(fmt.Sprintf("position falls in band %q", got))
	}
	return c, nil
}

// columnEasting returns the easting of the west edge of a column letter in a zone.
func columnEasting(col byte, zone int) (float64, bool) {
	idx := strings.IndexByte(columnLetters, col)
	if idx < 0 {
		return 0, false
	}
	set := ((zone-1)%6+6)%6 + 1
	column := (idx-columnOrigin[set-1]+len(columnLetters))%len(columnLetters) + 1
	if column > 8 {
		return 0, false
	}
	return float64(column) * squareSize, true
}
