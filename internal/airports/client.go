package airports

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/yegors/skyguess/internal/upstream"
	"github.com/yegors/skyguess/pkg/logger"
)

const defaultAirportURL = "https://api.flightradar24.com/common/v1/airport.json"

// airportResponse is the subset of the airport detail document we read
type airportResponse struct {
	Result struct {
		Response struct {
			Airport struct {
				PluginData struct {
					Details struct {
						Name     string `json:"name"`
						Position struct {
							Region struct {
								City *string `json:"city"`
							} `json:"region"`
						} `json:"position"`
					} `json:"details"`
				} `json:"pluginData"`
			} `json:"airport"`
		} `json:"response"`
	} `json:"result"`
}

// Client looks airports up on the FlightRadar24 airport endpoint
type Client struct {
	client    *upstream.Client
	baseURL   string
	userAgent string
	logger    *logger.Logger
}

// NewClient creates an airport lookup client. An empty baseURL selects the public endpoint.
func NewClient(baseURL, userAgent string, timeout time.Duration, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultAirportURL
	}
	return &Client{
		client:    upstream.NewClient(timeout, log),
		baseURL:   baseURL,
		userAgent: userAgent,
		logger:    log.Named("airport-client"),
	}
}

// LookupCity fetches the city served by the airport with the given IATA code.
// A document without a city wraps upstream.ErrNotFound.
func (c *Client) LookupCity(ctx context.Context, code string) (string, error) {
	urlStr := fmt.Sprintf("%s?code=%s", c.baseURL, url.QueryEscape(code))

	var header map[string][]string
	if c.userAgent != "" {
		header = map[string][]string{"User-Agent": {c.userAgent}}
	}

	body, err := c.client.Get(ctx, urlStr, header)
	if err != nil {
		return "", err
	}

	var resp airportResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%w: failed to parse airport JSON: %v", upstream.ErrMalformed, err)
	}

	city := resp.Result.Response.Airport.PluginData.Details.Position.Region.City
	if city == nil || strings.TrimSpace(*city) == "" {
		return "", fmt.Errorf("%w: no city for airport %s", upstream.ErrNotFound, code)
	}

	c.logger.Debug("Resolved airport",
		logger.String("iata", code),
		logger.String("name", resp.Result.Response.Airport.PluginData.Details.Name),
		logger.String("city", *city))

	return strings.TrimSpace(*city), nil
}
