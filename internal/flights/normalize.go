package flights

import (
	"math"
	"strings"

	"github.com/yegors/skyguess/internal/feed"
)

const (
	feetPerMeter        = 3.28084
	knotsPerMeterPerSec = 1.94384
	fpmPerMeterPerSec   = 196.85
)

// Normalize converts a provider record into a Flight.
// It reports false when either coordinate is missing. On-ground records are
// normalized like any other; filtering them is the caller's decision.
func Normalize(raw feed.RawRecord) (Flight, bool) {
	if raw.Lat == nil || raw.Lon == nil {
		return Flight{}, false
	}

	callsign := strings.TrimSpace(raw.Callsign)
	if callsign == "" {
		callsign = NoCallsign
	}

	var heading float64
	if raw.Heading != nil && !math.IsNaN(*raw.Heading) && !math.IsInf(*raw.Heading, 0) {
		heading = normalizeHeading(*raw.Heading)
	}

	return Flight{
		ID:              raw.ICAO24,
		ICAO24:          raw.ICAO24,
		Callsign:        callsign,
		Lat:             *raw.Lat,
		Lon:             *raw.Lon,
		VelocityKts:     velocityKnots(raw.Velocity, raw.VelocityUnit),
		Heading:         heading,
		AltitudeFt:      altitudeFeet(raw.Altitude, raw.AltitudeUnit),
		VerticalRateFpm: verticalRateFpm(raw.VerticalRate, raw.VerticalRateUnit),
		OnGround:        raw.OnGround,
		Destination:     strings.TrimSpace(raw.Destination),
		OriginCountry:   raw.OriginCountry,
		Category:        CategoryName(raw.Category),
		DestinationIATA: raw.DestinationIATA,
		OriginAirport:   raw.OriginIATA,
		AircraftCode:    raw.AircraftCode,
		FlightNumber:    raw.FlightNumber,
	}, true
}

// velocityKnots truncates toward zero; a missing value reads as 0
func velocityKnots(v *float64, unit feed.SpeedUnit) int {
	if v == nil {
		return 0
	}
	if unit == feed.MetersPerSecond {
		return int(*v * knotsPerMeterPerSec)
	}
	return int(*v)
}

// altitudeFeet truncates toward zero; a missing value reads as 0
func altitudeFeet(a *float64, unit feed.AltitudeUnit) int {
	if a == nil {
		return 0
	}
	if unit == feed.Meters {
		return int(*a * feetPerMeter)
	}
	return int(*a)
}

// verticalRateFpm truncates toward zero; a missing value reads as 0
func verticalRateFpm(r *float64, unit feed.SpeedUnit) int {
	if r == nil {
		return 0
	}
	if unit == feed.MetersPerSecond {
		return int(*r * fpmPerMeterPerSec)
	}
	return int(*r)
}
