package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/yegors/skyguess/internal/metrics"
	"github.com/yegors/skyguess/internal/upstream"
	"github.com/yegors/skyguess/pkg/logger"
)

const (
	// DefaultPageURL is the tracking page template; %s is the callsign
	DefaultPageURL = "https://www.flightaware.com/live/flight/%s"
	// DefaultUserAgent identifies as a desktop browser
	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// HiddenOrigin replaces the origin when it has become the answer
	HiddenOrigin = "Hidden"
)

// DefaultHomeSubstrings identify the observer's home airport
var DefaultHomeSubstrings = []string{"Vantaa", "Helsinki"}

// DeepResolution is the destination/origin/model triple for one flight.
// When the true destination is home, Destination carries the origin instead and
// Origin is HiddenOrigin.
type DeepResolution struct {
	Destination     string `json:"destination"`
	RealDestination string `json:"real_destination"`
	Model           string `json:"model"`
	Origin          string `json:"origin"`
}

// Config configures the resolver
type Config struct {
	PageURL        string
	UserAgent      string
	Extraction     Extraction
	HomeSubstrings []string
	Timeout        time.Duration
}

// Resolver scrapes a flight tracking page for the latest leg of a flight
type Resolver struct {
	client  *upstream.Client
	config  Config
	header  http.Header
	metrics *metrics.Metrics
	logger  *logger.Logger
}

// NewResolver creates a resolver, filling unset config fields with defaults. m may be nil.
func NewResolver(cfg Config, m *metrics.Metrics, log *logger.Logger) *Resolver {
	if cfg.PageURL == "" {
		cfg.PageURL = DefaultPageURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Extraction == "" {
		cfg.Extraction = ExtractRegex
	}
	if cfg.HomeSubstrings == nil {
		cfg.HomeSubstrings = DefaultHomeSubstrings
	}

	return &Resolver{
		client:  upstream.NewClient(cfg.Timeout, log),
		config:  cfg,
		header:  upstream.BrowserHeaders(cfg.UserAgent),
		metrics: m,
		logger:  log.Named("tracker"),
	}
}

// Resolve returns the deep resolution for callsign, or false when none could be
// produced. Failures are logged here and never returned.
func (r *Resolver) Resolve(ctx context.Context, callsign string) (*DeepResolution, bool) {
	res, err := r.Lookup(ctx, callsign)
	if err != nil {
		outcome := "unavailable"
		switch {
		case errors.Is(err, upstream.ErrNotFound):
			outcome = "not_found"
			r.logger.Info("No flight details found",
				logger.String("callsign", callsign),
				logger.Error(err))
		case errors.Is(err, upstream.ErrMalformed):
			outcome = "malformed"
			r.logger.Warn("Tracking page could not be parsed",
				logger.String("callsign", callsign),
				logger.Error(err))
		default:
			r.logger.Warn("Failed to fetch tracking page",
				logger.String("callsign", callsign),
				logger.Error(err))
		}
		r.count(outcome)
		return nil, false
	}

	r.count("resolved")
	return res, true
}

// Lookup is Resolve with the failure cause exposed. Errors wrap one of the
// upstream sentinels.
func (r *Resolver) Lookup(ctx context.Context, callsign string) (*DeepResolution, error) {
	callsign = strings.TrimSpace(callsign)
	if callsign == "" {
		return nil, fmt.Errorf("%w: empty callsign", upstream.ErrNotFound)
	}

	pageURL := fmt.Sprintf(r.config.PageURL, url.PathEscape(callsign))
	r.logger.Debug("Resolving flight via tracking page",
		logger.String("callsign", callsign),
		logger.String("url", pageURL))

	body, err := r.client.Get(ctx, pageURL, r.header)
	if err != nil {
		return nil, err
	}

	obj, ok := ExtractBootstrap(string(body), r.config.Extraction)
	if !ok {
		return nil, fmt.Errorf("%w: no %s assignment in page", upstream.ErrNotFound, bootstrapIdent)
	}

	leg, err := LatestLeg([]byte(obj))
	if err != nil {
		return nil, err
	}

	return r.obfuscate(leg), nil
}

// obfuscate swaps origin into the answer when the real destination is home
func (r *Resolver) obfuscate(leg Leg) *DeepResolution {
	res := &DeepResolution{
		Destination:     leg.Destination,
		RealDestination: leg.Destination,
		Model:           leg.Model,
		Origin:          leg.Origin,
	}
	if r.isHome(leg.Destination) {
		res.Destination = leg.Origin
		res.Origin = HiddenOrigin
	}
	return res
}

func (r *Resolver) isHome(destination string) bool {
	if destination == "" {
		return false
	}
	for _, s := range r.config.HomeSubstrings {
		if s != "" && strings.Contains(destination, s) {
			return true
		}
	}
	return false
}

func (r *Resolver) count(outcome string) {
	if r.metrics != nil {
		r.metrics.DeepResolutions.WithLabelValues(outcome).Inc()
	}
}
