package airports

import (
	"context"
	"strings"

	"github.com/yegors/skyguess/internal/metrics"
	"github.com/yegors/skyguess/pkg/logger"
)

// NoCode is the placeholder providers use when an airport is not known
const NoCode = "N/A"

// Lookup resolves a single airport code against an upstream source
type Lookup interface {
	LookupCity(ctx context.Context, code string) (string, error)
}

// Resolver turns IATA codes into city names, consulting the cache first.
// Only successful lookups are cached, so codes that fail are retried on the next call.
type Resolver struct {
	cache   *Cache
	lookup  Lookup
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewResolver creates a resolver. m may be nil.
func NewResolver(cache *Cache, lookup Lookup, m *metrics.Metrics, log *logger.Logger) *Resolver {
	return &Resolver{
		cache:   cache,
		lookup:  lookup,
		metrics: m,
		logger:  log.Named("airports"),
	}
}

// ResolveCity returns the city for code, or false when it cannot be resolved
func (r *Resolver) ResolveCity(ctx context.Context, code string) (string, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" || code == NoCode {
		return "", false
	}

	if city, ok := r.cache.Get(code); ok {
		r.count("hit")
		return city, true
	}

	r.count("miss")
	city, err := r.lookup.LookupCity(ctx, code)
	if err != nil {
		r.count("failure")
		r.logger.Warn("Airport lookup failed",
			logger.String("iata", code),
			logger.Error(err))
		return "", false
	}
	if city == "" {
		r.count("failure")
		return "", false
	}

	r.cache.Set(code, city)
	return city, true
}

func (r *Resolver) count(result string) {
	if r.metrics != nil {
		r.metrics.AirportLookups.WithLabelValues(result).Inc()
	}
}
