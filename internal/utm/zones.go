package utm

import (
	"math"
	"strings"
)

// Letters is the latitude band alphabet from 80°S northwards. I and O are not used.
const Letters = "CDEFGHJKLMNPQRSTUVWX"

// ZoneNumber returns the UTM zone for a position, honouring the south-west
// Norway and Svalbard exceptions. It returns 0 outside the UTM latitude range.
func ZoneNumber(lat, lon float64) int {
	if !inRange(lat, lon) {
		return 0
	}

	if lat >= 56 && lat < 64 && lon >= 3 && lon < 12 {
		return 32
	}

	if lat >= 72 && lon >= 0 && lon < 42 {
		switch {
		case lon < 9:
			return 31
		case lon < 21:
			return 33
		case lon < 33:
			return 35
		default:
			return 37
		}
	}

	zone := int(math.Floor((lon+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	return zone
}

// ZoneLetter returns the latitude band letter, or 0 outside the UTM range.
// Band X is 12 degrees tall and ends at 84°N.
func ZoneLetter(lat float64) byte {
	if math.IsNaN(lat) || lat < MinLat || lat > MaxLat {
		return 0
	}
	idx := int(math.Floor((lat - MinLat) / 8))
	if idx >= len(Letters) {
		idx = len(Letters) - 1
	}
	return Letters[idx]
}

// LetterIndex returns the position of letter in Letters, or -1.
func LetterIndex(letter byte) int {
	return strings.IndexByte(Letters, letter)
}

// NextLetter returns the band north of letter, or 0 past X.
func NextLetter(letter byte) byte {
	idx := LetterIndex(letter)
	if idx < 0 || idx+1 >= len(Letters) {
		return 0
	}
	return Letters[idx+1]
}

// PreviousLetter returns the band south of letter, or 0 before C.
func PreviousLetter(letter byte) byte {
	idx := LetterIndex(letter)
	if idx <= 0 {
		return 0
	}
	return Letters[idx-1]
}

// BandSouth returns the southern latitude of a band.
func BandSouth(letter byte) float64 {
	return MinLat + 8*float64(LetterIndex(letter))
}

// BandHeight returns the height of a band in degrees.
func BandHeight(letter byte) float64 {
	if letter == 'X' {
		return 12
	}
	return 8
}

// CentralMeridian returns the central meridian of a zone in degrees. Zones
// widened by the exceptions keep the central meridian of their regular span.
func CentralMeridian(zone int) float64 {
	return float64(zone-1)*6 - 180 + 3
}

// ZoneWest returns the western longitude of a grid zone cell.
func ZoneWest(zone int, letter byte) float64 {
	switch letter {
	case 'V':
		if zone == 32 {
			return 3
		}
	case 'X':
		switch zone {
		case 33:
			return 9
		case 35:
			return 21
		case 37:
			return 33
		}
	}
	return float64(zone-1)*6 - 180
}

// ZoneWidth returns the width of a grid zone cell in degrees. Zones 32, 34 and
// 36 do not exist in band X and report 0.
func ZoneWidth(zone int, letter byte) float64 {
	switch letter {
	case 'V':
		switch zone {
		case 31:
			return 3
		case 32:
			return 9
		}
	case 'X':
		switch zone {
		case 31, 37:
			return 9
		case 33, 35:
			return 12
		case 32, 34, 36:
			return 0
		}
	}
	return 6
}
