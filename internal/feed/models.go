package feed

import (
	"context"
	"fmt"
)

// Provider names
const (
	ProviderOpenSky     = "opensky"
	ProviderFlightRadar = "flightradar"
)

// Provider abstracts an upstream live-position source
type Provider interface {
	Name() string
	Fetch(ctx context.Context, bbox BoundingBox) ([]RawRecord, error)
}

// BoundingBox is a rectangular lat/lon region used to scope an upstream query
type BoundingBox struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// NewBoundingBox derives a box of +/- radiusDeg around the center point.
// The radius is applied in plain degrees on both axes.
func NewBoundingBox(lat, lon, radiusDeg float64) BoundingBox {
	return BoundingBox{
		LatMin: lat - radiusDeg,
		LatMax: lat + radiusDeg,
		LonMin: lon - radiusDeg,
		LonMax: lon + radiusDeg,
	}
}

// Validate checks the box is well formed
func (b BoundingBox) Validate() error {
	if b.LatMin >= b.LatMax {
		return fmt.Errorf("lat_min (%f) must be less than lat_max (%f)", b.LatMin, b.LatMax)
	}
	if b.LonMin >= b.LonMax {
		return fmt.Errorf("lon_min (%f) must be less than lon_max (%f)", b.LonMin, b.LonMax)
	}
	return nil
}

// SpeedUnit is the unit a provider reports velocity in
type SpeedUnit int

const (
	MetersPerSecond SpeedUnit = iota
	Knots
	FeetPerMinute
)

// AltitudeUnit is the unit a provider reports altitude in
type AltitudeUnit int

const (
	Meters AltitudeUnit = iota
	Feet
)

// RawRecord is one aircraft as reported by a provider, before normalization.
// Pointer fields are nil when the provider omitted the value.
type RawRecord struct {
	Provider      string
	ICAO24        string
	Callsign      string
	OriginCountry string

	Lat      *float64
	Lon      *float64
	OnGround bool

	Velocity     *float64
	VelocityUnit SpeedUnit
	Heading      *float64
	VerticalRate     *float64
	VerticalRateUnit SpeedUnit
	Altitude     *float64
	AltitudeUnit AltitudeUnit

	Category *int

	Destination     string // destination city when the provider supplies one directly
	DestinationIATA string
	OriginIATA      string
	AircraftCode    string
	FlightNumber    string
}
