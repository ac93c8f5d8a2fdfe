package flights

// NoCallsign replaces a missing or blank callsign
const NoCallsign = "N/A"

// Flight is the canonical, provider-independent aircraft record returned to callers.
// A Flight always carries both coordinates; heading is in [0, 360).
type Flight struct {
	ID              string  `json:"id"`
	ICAO24          string  `json:"icao24"`
	Callsign        string  `json:"callsign"`
	Lat             float64 `json:"lat"`
	Lon             float64 `json:"lon"`
	VelocityKts     int     `json:"velocity_kts"`
	Heading         float64 `json:"heading"`
	AltitudeFt      int     `json:"altitude_ft"`
	VerticalRateFpm int     `json:"vertical_rate_fpm"`
	OnGround        bool    `json:"on_ground"`
	Destination     string  `json:"destination,omitempty"`
	OriginCountry   string  `json:"origin_country,omitempty"`
	Category        string  `json:"category"`

	// Populated by providers that report airport and airframe metadata
	DestinationIATA string `json:"destination_iata,omitempty"`
	OriginAirport   string `json:"origin_airport,omitempty"`
	AircraftCode    string `json:"aircraft_code,omitempty"`
	FlightNumber    string `json:"flight_number,omitempty"`
}
