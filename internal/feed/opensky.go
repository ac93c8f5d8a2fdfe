package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/yegors/skyguess/internal/upstream"
	"github.com/yegors/skyguess/pkg/logger"
)

const (
	defaultOpenSkyBaseURL  = "https://opensky-network.org/api"
	defaultOpenSkyTokenURL = "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token"
)

// OpenSky state vector offsets
const (
	svICAO24        = 0
	svCallsign      = 1
	svOriginCountry = 2
	svLongitude     = 5
	svLatitude      = 6
	svBaroAltitude  = 7
	svOnGround      = 8
	svVelocity      = 9
	svTrueTrack     = 10
	svVerticalRate  = 11
	svGeoAltitude   = 13
	svCategory      = 17
)

// OpenSkyConfig configures the state-vector provider
type OpenSkyConfig struct {
	BaseURL         string
	TokenURL        string
	ClientID        string
	ClientSecret    string
	CredentialsPath string
	Timeout         time.Duration
}

// OpenSkyProvider fetches state vectors from the OpenSky REST API
type OpenSkyProvider struct {
	client  *upstream.Client
	baseURL string
	logger  *logger.Logger
}

// NewOpenSkyProvider creates the provider.
//
// Authentication:
// - explicit client id/secret use the OAuth2 client-credentials flow
// - otherwise a credentials file may hold access_token or client_id/client_secret
// - with neither, requests are anonymous (rate limits apply)
func NewOpenSkyProvider(cfg OpenSkyConfig, log *logger.Logger) (*OpenSkyProvider, error) {
	l := log.Named("feed-opensky")

	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultOpenSkyBaseURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultOpenSkyTokenURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = upstream.DefaultTimeout
	}

	src, err := openSkyTokenSource(cfg, l)
	if err != nil {
		return nil, err
	}

	var client *upstream.Client
	if src == nil {
		client = upstream.NewClient(cfg.Timeout, log)
	} else {
		httpClient := &http.Client{
			Timeout: cfg.Timeout,
			Transport: &oauth2.Transport{
				Source: oauth2.ReuseTokenSource(nil, src),
				Base:   http.DefaultTransport,
			},
		}
		client = upstream.NewClientWithHTTP(httpClient, log)
	}

	return &OpenSkyProvider{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  l,
	}, nil
}

// openSkyTokenSource returns nil when no credentials are configured
func openSkyTokenSource(cfg OpenSkyConfig, log *logger.Logger) (oauth2.TokenSource, error) {
	clientID, clientSecret, tokenURL := cfg.ClientID, cfg.ClientSecret, cfg.TokenURL
	var accessToken string

	if (clientID == "" || clientSecret == "") && cfg.CredentialsPath != "" {
		b, err := os.ReadFile(cfg.CredentialsPath)
		switch {
		case os.IsNotExist(err):
			log.Warn("OpenSky credentials file not found - proceeding as anonymous (rate limits may apply)",
				logger.String("path", cfg.CredentialsPath))
		case err != nil:
			return nil, fmt.Errorf("failed to read opensky credentials: %w", err)
		default:
			var credMap map[string]interface{}
			if err := json.Unmarshal(b, &credMap); err != nil {
				return nil, fmt.Errorf("invalid opensky credentials JSON: %w", err)
			}
			accessToken = firstString(credMap, "access_token", "access-token", "accessToken")
			clientID = firstString(credMap, "client_id", "client-id", "clientId")
			clientSecret = firstString(credMap, "client_secret", "client-secret", "clientSecret")
			if u := firstString(credMap, "token_url", "token-url", "tokenUrl"); u != "" {
				tokenURL = u
			}
			if accessToken == "" && (clientID == "" || clientSecret == "") {
				return nil, fmt.Errorf("opensky credentials must contain access_token or client_id+client_secret")
			}
		}
	}

	if accessToken != "" {
		log.Info("Using OpenSky access token from credentials file")
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}), nil
	}

	if clientID != "" && clientSecret != "" {
		log.Info("Using OpenSky OAuth2 client credentials",
			logger.String("token_url", tokenURL))
		cc := &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
		return cc.TokenSource(tokenCtx), nil
	}

	return nil, nil
}

// firstString picks the first non-empty string value among several key spellings
func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Name returns the provider name
func (p *OpenSkyProvider) Name() string {
	return ProviderOpenSky
}

// Fetch queries /states/all for the bounding box.
// A state that cannot be decoded is skipped; a body that cannot be decoded fails the fetch.
func (p *OpenSkyProvider) Fetch(ctx context.Context, bbox BoundingBox) ([]RawRecord, error) {
	urlStr := fmt.Sprintf("%s/states/all?lamin=%f&lomin=%f&lamax=%f&lomax=%f&extended=1",
		p.baseURL, bbox.LatMin, bbox.LonMin, bbox.LatMax, bbox.LonMax)

	p.logger.Debug("Fetching OpenSky state vectors", logger.String("url", urlStr))

	body, err := p.client.Get(ctx, urlStr, nil)
	if err != nil {
		return nil, err
	}

	var osResp struct {
		Time   int64             `json:"time"`
		States []json.RawMessage `json:"states"`
	}
	if err := json.Unmarshal(body, &osResp); err != nil {
		p.logger.Error("Failed to decode OpenSky response", logger.Error(err))
		return nil, fmt.Errorf("%w: failed to parse opensky JSON: %v", upstream.ErrMalformed, err)
	}

	records := make([]RawRecord, 0, len(osResp.States))
	skipped := 0
	for _, raw := range osResp.States {
		s, ok := decodeVector(raw)
		if !ok {
			skipped++
			continue
		}
		records = append(records, stateVectorRecord(s))
	}

	if skipped > 0 {
		p.logger.Warn("Skipped malformed OpenSky state vectors",
			logger.Int("skipped", skipped),
			logger.Int("kept", len(records)))
	}

	p.logger.Debug("Successfully fetched OpenSky state vectors",
		logger.Int("aircraft_count", len(records)),
		logger.Int64("time", osResp.Time))

	return records, nil
}

func stateVectorRecord(s vector) RawRecord {
	altitude := s.float(svBaroAltitude)
	if altitude == nil {
		altitude = s.float(svGeoAltitude)
	}

	return RawRecord{
		Provider:         ProviderOpenSky,
		ICAO24:           s.str(svICAO24),
		Callsign:         s.str(svCallsign),
		OriginCountry:    s.str(svOriginCountry),
		Lat:              s.float(svLatitude),
		Lon:              s.float(svLongitude),
		OnGround:         s.boolean(svOnGround),
		Velocity:         s.float(svVelocity),
		VelocityUnit:     MetersPerSecond,
		Heading:          s.float(svTrueTrack),
		VerticalRate:     s.float(svVerticalRate),
		VerticalRateUnit: MetersPerSecond,
		Altitude:         altitude,
		AltitudeUnit:     Meters,
		Category:         s.integer(svCategory),
	}
}
