package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/yegors/skyguess/internal/jsonx"
	"github.com/yegors/skyguess/internal/upstream"
	"github.com/yegors/skyguess/pkg/logger"
)

const defaultFlightRadarFeedURL = "https://data-cloud.flightradar24.com/zones/fcgi/feed.js"

// FlightRadar24 feed array offsets
const (
	frICAO24          = 0
	frLatitude        = 1
	frLongitude       = 2
	frHeading         = 3
	frAltitude        = 4
	frGroundSpeed     = 5
	frAircraftCode    = 8
	frOriginIATA      = 11
	frDestinationIATA = 12
	frFlightNumber    = 13
	frOnGround        = 14
	frVerticalSpeed   = 15
	frCallsign        = 16
)

// FlightRadarConfig configures the flight-object provider
type FlightRadarConfig struct {
	FeedURL   string
	UserAgent string
	Timeout   time.Duration
}

// FlightRadarProvider fetches live flights from a FlightRadar24-style zone feed
type FlightRadarProvider struct {
	client  *upstream.Client
	feedURL string
	headers map[string][]string
	logger  *logger.Logger
}

// NewFlightRadarProvider creates the provider
func NewFlightRadarProvider(cfg FlightRadarConfig, log *logger.Logger) *FlightRadarProvider {
	if cfg.FeedURL == "" {
		cfg.FeedURL = defaultFlightRadarFeedURL
	}

	headers := map[string][]string{"Accept": {"application/json"}}
	if cfg.UserAgent != "" {
		headers["User-Agent"] = []string{cfg.UserAgent}
	}

	return &FlightRadarProvider{
		client:  upstream.NewClient(cfg.Timeout, log),
		feedURL: cfg.FeedURL,
		headers: headers,
		logger:  log.Named("feed-flightradar"),
	}
}

// Name returns the provider name
func (p *FlightRadarProvider) Name() string {
	return ProviderFlightRadar
}

// BoundsParam formats the box the way the feed expects: lat_max,lat_min,lon_min,lon_max
func BoundsParam(bbox BoundingBox) string {
	return fmt.Sprintf("%.4f,%.4f,%.4f,%.4f", bbox.LatMax, bbox.LatMin, bbox.LonMin, bbox.LonMax)
}

// Fetch queries the zone feed for the bounding box.
// Entries whose value is not an array are housekeeping (full_count, version, stats) and are ignored.
func (p *FlightRadarProvider) Fetch(ctx context.Context, bbox BoundingBox) ([]RawRecord, error) {
	urlStr := fmt.Sprintf("%s?bounds=%s&faa=1&satellite=1&mlat=1&flarm=1&adsb=1&gnd=1&air=1&vehicles=0&estimated=1&maxage=14400&gliders=1&stats=0",
		p.feedURL, BoundsParam(bbox))

	p.logger.Debug("Fetching FlightRadar feed", logger.String("url", urlStr))

	body, err := p.client.Get(ctx, urlStr, p.headers)
	if err != nil {
		return nil, err
	}

	entries, err := jsonx.ObjectEntries(body)
	if err != nil {
		p.logger.Error("Failed to decode FlightRadar response", logger.Error(err))
		return nil, fmt.Errorf("%w: failed to parse flightradar JSON: %v", upstream.ErrMalformed, err)
	}

	records := make([]RawRecord, 0, len(entries))
	for _, e := range entries {
		v, ok := decodeVector(e.Value)
		if !ok {
			continue
		}
		records = append(records, flightObjectRecord(e.Key, v))
	}

	p.logger.Debug("Successfully fetched FlightRadar feed",
		logger.Int("aircraft_count", len(records)))

	return records, nil
}

func flightObjectRecord(id string, v vector) RawRecord {
	icao := v.str(frICAO24)
	if icao == "" {
		icao = id
	}

	return RawRecord{
		Provider:         ProviderFlightRadar,
		ICAO24:           strings.ToLower(icao),
		Callsign:         v.str(frCallsign),
		Lat:              v.float(frLatitude),
		Lon:              v.float(frLongitude),
		OnGround:         v.boolean(frOnGround),
		Velocity:         v.float(frGroundSpeed),
		VelocityUnit:     Knots,
		Heading:          v.float(frHeading),
		VerticalRate:     v.float(frVerticalSpeed),
		VerticalRateUnit: FeetPerMinute,
		Altitude:         v.float(frAltitude),
		AltitudeUnit:     Feet,
		DestinationIATA:  v.str(frDestinationIATA),
		OriginIATA:       v.str(frOriginIATA),
		AircraftCode:     v.str(frAircraftCode),
		FlightNumber:     v.str(frFlightNumber),
	}
}
