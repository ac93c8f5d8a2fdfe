package flights

import "math"

// sectorCities holds one fallback city per 45 degree compass sector, starting at north
// and moving clockwise. The cities sit roughly in that direction from Helsinki.
var sectorCities = [8]string{
	"Rovaniemi",      // N
	"Joensuu",        // NE
	"St. Petersburg", // E
	"Moscow",         // SE
	"Tallinn",        // S
	"Berlin",         // SW
	"Stockholm",      // W
	"Tampere",        // NW
}

// InferDestination guesses a destination from the direction of travel.
// It is a game heuristic only; nil heading yields no guess.
func InferDestination(heading *float64) (string, bool) {
	if heading == nil || math.IsNaN(*heading) || math.IsInf(*heading, 0) {
		return "", false
	}
	h := normalizeHeading(*heading)
	sector := int(math.Floor((h+22.5)/45)) % len(sectorCities)
	return sectorCities[sector], true
}

// normalizeHeading folds any angle into [0, 360)
func normalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h = 0
	}
	return h
}
