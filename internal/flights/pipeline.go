package flights

import (
	"context"
	"time"

	"github.com/yegors/skyguess/internal/feed"
	"github.com/yegors/skyguess/internal/metrics"
	"github.com/yegors/skyguess/pkg/logger"
)

// CityResolver resolves an airport code to a city
type CityResolver interface {
	ResolveCity(ctx context.Context, code string) (string, bool)
}

// Pipeline fetches a snapshot from a provider and turns it into enriched flights
type Pipeline struct {
	provider feed.Provider
	cities   CityResolver
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

// NewPipeline creates a pipeline. cities and m may be nil.
func NewPipeline(provider feed.Provider, cities CityResolver, m *metrics.Metrics, log *logger.Logger) *Pipeline {
	return &Pipeline{
		provider: provider,
		cities:   cities,
		metrics:  m,
		logger:   log.Named("pipeline"),
	}
}

// Provider returns the name of the upstream provider in use
func (p *Pipeline) Provider() string {
	return p.provider.Name()
}

// FetchFlights fetches airborne flights within radiusDeg of the given center
func (p *Pipeline) FetchFlights(ctx context.Context, lat, lon, radiusDeg float64) ([]Flight, error) {
	return p.Fetch(ctx, feed.NewBoundingBox(lat, lon, radiusDeg))
}

// Fetch returns the airborne flights inside bbox in provider order.
// On failure the result is an empty, non-nil slice together with the cause.
func (p *Pipeline) Fetch(ctx context.Context, bbox feed.BoundingBox) ([]Flight, error) {
	if err := bbox.Validate(); err != nil {
		return []Flight{}, err
	}

	start := time.Now()
	records, err := p.provider.Fetch(ctx, bbox)
	p.observeFetch(time.Since(start), err)
	if err != nil {
		p.logger.Warn("Provider fetch failed",
			logger.String("provider", p.provider.Name()),
			logger.Error(err))
		return []Flight{}, err
	}

	result := make([]Flight, 0, len(records))
	var grounded, incomplete int
	for _, raw := range records {
		f, ok := Normalize(raw)
		if !ok {
			incomplete++
			continue
		}
		if f.OnGround {
			grounded++
			continue
		}
		if f.Destination == "" {
			f.Destination = p.resolveDestination(ctx, raw)
		}
		result = append(result, f)
	}

	if p.metrics != nil {
		p.metrics.FlightsEmitted.Add(float64(len(result)))
		p.metrics.FlightsDropped.WithLabelValues("on_ground").Add(float64(grounded))
		p.metrics.FlightsDropped.WithLabelValues("no_position").Add(float64(incomplete))
	}

	p.logger.Debug("Built flight snapshot",
		logger.String("provider", p.provider.Name()),
		logger.Int("raw_count", len(records)),
		logger.Int("flight_count", len(result)),
		logger.Int("on_ground", grounded),
		logger.Int("no_position", incomplete),
		logger.Duration("duration", time.Since(start)))

	return result, nil
}

// resolveDestination applies the fallbacks after the provider's own destination:
// airport city lookup, then the heading heuristic
func (p *Pipeline) resolveDestination(ctx context.Context, raw feed.RawRecord) string {
	if p.cities != nil && raw.DestinationIATA != "" {
		if city, ok := p.cities.ResolveCity(ctx, raw.DestinationIATA); ok {
			return city
		}
	}
	if city, ok := InferDestination(raw.Heading); ok {
		return city
	}
	return ""
}

func (p *Pipeline) observeFetch(d time.Duration, err error) {
	if p.metrics == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	name := p.provider.Name()
	p.metrics.ProviderFetches.WithLabelValues(name, outcome).Inc()
	p.metrics.ProviderLatency.WithLabelValues(name).Observe(d.Seconds())
}
