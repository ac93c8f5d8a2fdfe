package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all prometheus metrics for the service.
// Collectors live on a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	ProviderFetches *prometheus.CounterVec
	ProviderLatency *prometheus.HistogramVec
	FlightsEmitted  prometheus.Counter
	FlightsDropped  *prometheus.CounterVec
	AirportLookups  *prometheus.CounterVec
	DeepResolutions *prometheus.CounterVec
}

// NewMetrics creates new prometheus metrics
func NewMetrics(namespace string) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ProviderFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provider_fetches_total",
			Help:      "The total number of upstream provider fetches",
		}, []string{"provider", "outcome"}),
		ProviderLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "provider_fetch_duration_seconds",
			Help:      "Time taken to fetch a snapshot from the upstream provider",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		FlightsEmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_emitted_total",
			Help:      "The total number of enriched flights returned to callers",
		}),
		FlightsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flights_dropped_total",
			Help:      "The total number of raw records dropped during normalization",
		}, []string{"reason"}),
		AirportLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "airport_lookups_total",
			Help:      "Airport city resolutions by result",
		}, []string{"result"}),
		DeepResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "deep_resolutions_total",
			Help:      "Tracking page resolutions by outcome",
		}, []string{"outcome"}),
	}
}

// Handler exposes the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
