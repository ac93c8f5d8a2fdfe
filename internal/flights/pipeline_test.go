package flights

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/skyguess/internal/airports"
	"github.com/yegors/skyguess/internal/feed"
	"github.com/yegors/skyguess/internal/metrics"
	"github.com/yegors/skyguess/internal/upstream"
	"github.com/yegors/skyguess/pkg/logger"
)

type stubProvider struct {
	records []feed.RawRecord
	err     error
	gotBBox feed.BoundingBox
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Fetch(_ context.Context, bbox feed.BoundingBox) ([]feed.RawRecord, error) {
	s.gotBBox = bbox
	return s.records, s.err
}

type stubLookup struct {
	cities map[string]string
	calls  int
}

func (l *stubLookup) LookupCity(_ context.Context, code string) (string, error) {
	l.calls++
	if city, ok := l.cities[code]; ok {
		return city, nil
	}
	return "", upstream.ErrNotFound
}

func TestPipelineEndToEnd(t *testing.T) {
	provider := &stubProvider{records: []feed.RawRecord{
		{ICAO24: "aaa111", Callsign: "GND1", Lat: fp(60.31), Lon: fp(24.96), OnGround: true, DestinationIATA: "ARN"},
		{ICAO24: "bbb222", Callsign: "AY5", Lat: fp(60.5), Lon: fp(25.3), Heading: fp(250), DestinationIATA: "JFK",
			Velocity: fp(450), VelocityUnit: feed.Knots, Altitude: fp(34000), AltitudeUnit: feed.Feet},
	}}

	cache := airports.NewCache(logger.NewNop())
	cache.Set("JFK", "New York")
	lookup := &stubLookup{}
	resolver := airports.NewResolver(cache, lookup, nil, logger.NewNop())

	m := metrics.NewMetrics("test")
	p := NewPipeline(provider, resolver, m, logger.NewNop())

	got, err := p.FetchFlights(context.Background(), 60.3172, 24.9633, 1.0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bbb222", got[0].ICAO24)
	assert.Equal(t, "New York", got[0].Destination)
	assert.Equal(t, 0, lookup.calls)

	assert.InDelta(t, 59.3172, provider.gotBBox.LatMin, 1e-9)
	assert.InDelta(t, 25.9633, provider.gotBBox.LonMax, 1e-9)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.FlightsEmitted))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FlightsDropped.WithLabelValues("on_ground")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProviderFetches.WithLabelValues("stub", "success")))
}

func TestPipelineDropsAndOrdering(t *testing.T) {
	provider := &stubProvider{records: []feed.RawRecord{
		{ICAO24: "c1", Lat: fp(1), Lon: fp(1)},
		{ICAO24: "c2", Lat: fp(1)},
		{ICAO24: "c3", Lat: fp(2), Lon: fp(2), OnGround: true},
		{ICAO24: "c4", Lat: fp(3), Lon: fp(3)},
		{ICAO24: "c5", Lon: fp(3)},
		{ICAO24: "c6", Lat: fp(4), Lon: fp(4)},
	}}
	p := NewPipeline(provider, nil, nil, logger.NewNop())

	got, err := p.Fetch(context.Background(), feed.NewBoundingBox(0, 0, 5))
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, f := range got {
		assert.False(t, f.OnGround)
		ids = append(ids, f.ICAO24)
	}
	assert.Equal(t, []string{"c1", "c4", "c6"}, ids)
}

func TestPipelineDestinationPriority(t *testing.T) {
	provider := &stubProvider{records: []feed.RawRecord{
		// provider-native destination wins over everything
		{ICAO24: "p1", Lat: fp(1), Lon: fp(1), Destination: "Oslo", DestinationIATA: "JFK", Heading: fp(0)},
		// airport lookup
		{ICAO24: "p2", Lat: fp(1), Lon: fp(1), DestinationIATA: "JFK", Heading: fp(0)},
		// unresolvable code falls back to heading
		{ICAO24: "p3", Lat: fp(1), Lon: fp(1), DestinationIATA: "ZZZ", Heading: fp(180)},
		// no code, heading only
		{ICAO24: "p4", Lat: fp(1), Lon: fp(1), Heading: fp(90)},
		// nothing to go on
		{ICAO24: "p5", Lat: fp(1), Lon: fp(1), DestinationIATA: "N/A"},
	}}
	lookup := &stubLookup{cities: map[string]string{"JFK": "New York"}}
	resolver := airports.NewResolver(airports.NewCache(logger.NewNop()), lookup, nil, logger.NewNop())
	p := NewPipeline(provider, resolver, nil, logger.NewNop())

	got, err := p.Fetch(context.Background(), feed.NewBoundingBox(0, 0, 5))
	require.NoError(t, err)
	require.Len(t, got, 5)

	assert.Equal(t, "Oslo", got[0].Destination)
	assert.Equal(t, "New York", got[1].Destination)
	assert.Equal(t, "Tallinn", got[2].Destination)
	assert.Equal(t, "St. Petersburg", got[3].Destination)
	assert.Empty(t, got[4].Destination)

	// JFK once, ZZZ once
	assert.Equal(t, 2, lookup.calls)
}

func TestPipelineUpstreamFailure(t *testing.T) {
	provider := &stubProvider{err: errors.New("boom")}
	m := metrics.NewMetrics("test")
	p := NewPipeline(provider, nil, m, logger.NewNop())

	got, err := p.Fetch(context.Background(), feed.NewBoundingBox(0, 0, 1))
	require.Error(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProviderFetches.WithLabelValues("stub", "failure")))
}

func TestPipelineInvalidBoundingBox(t *testing.T) {
	provider := &stubProvider{}
	p := NewPipeline(provider, nil, nil, logger.NewNop())

	got, err := p.FetchFlights(context.Background(), 60, 25, 0)
	require.Error(t, err)
	assert.Empty(t, got)
}

func TestPipelineEmptySnapshot(t *testing.T) {
	p := NewPipeline(&stubProvider{}, nil, nil, logger.NewNop())
	got, err := p.Fetch(context.Background(), feed.NewBoundingBox(0, 0, 1))
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, "stub", p.Provider())
}
