package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yegors/skyguess/internal/config"
	"github.com/yegors/skyguess/internal/flights"
	"github.com/yegors/skyguess/internal/metrics"
	"github.com/yegors/skyguess/internal/storage/sqlite"
	"github.com/yegors/skyguess/internal/tracker"
	"github.com/yegors/skyguess/pkg/logger"
)

type fakeFlights struct {
	flights []flights.Flight
	err     error
	gotLat  float64
	gotLon  float64
	gotRad  float64
}

func (f *fakeFlights) FetchFlights(_ context.Context, lat, lon, radiusDeg float64) ([]flights.Flight, error) {
	f.gotLat, f.gotLon, f.gotRad = lat, lon, radiusDeg
	if f.err != nil {
		return []flights.Flight{}, f.err
	}
	return f.flights, nil
}

func (f *fakeFlights) Provider() string { return "fake" }

type fakeResolver map[string]*tracker.DeepResolution

func (f fakeResolver) Resolve(_ context.Context, callsign string) (*tracker.DeepResolution, bool) {
	res, ok := f[callsign]
	return res, ok
}

type fakeCities map[string]string

func (f fakeCities) ResolveCity(_ context.Context, code string) (string, bool) {
	city, ok := f[code]
	return city, ok
}

type testEnv struct {
	server  *httptest.Server
	flights *fakeFlights
	dest    *sqlite.DestinationStorage
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "api.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	scores, err := sqlite.NewScoreStorage(db, 3, logger.NewNop())
	require.NoError(t, err)
	users, err := sqlite.NewUserStorage(db, logger.NewNop())
	require.NoError(t, err)
	dest, err := sqlite.NewDestinationStorage(db, logger.NewNop())
	require.NoError(t, err)

	staticDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(staticDir, "index.html"), []byte("<html>skyguess</html>"), 0o644))

	cfg := &config.Config{}
	cfg.Server.StaticFilesDir = staticDir
	cfg.Station.Latitude = 60.3172
	cfg.Station.Longitude = 24.9633
	cfg.Metrics.Enabled = true
	require.NoError(t, cfg.Validate())

	ff := &fakeFlights{flights: []flights.Flight{
		{ID: "4ca7b5", ICAO24: "4ca7b5", Callsign: "FIN5", Lat: 60.5, Lon: 25.1, Destination: "New York", Category: "Unknown"},
	}}
	resolver := fakeResolver{
		"FIN5": {Destination: "New York, NY", RealDestination: "Helsinki-Vantaa", Model: "Airbus A350-900", Origin: tracker.HiddenOrigin},
		"SAS1": {Destination: "Oslo", RealDestination: "Oslo", Model: "Boeing 737-800", Origin: "Helsinki-Vantaa"},
	}

	h := NewHandler(ff, resolver, fakeCities{"JFK": "New York"}, scores, users, dest, cfg, logger.NewNop())
	router := NewRouter(h, metrics.NewMetrics("test").Handler(), cfg, logger.NewNop())

	srv := httptest.NewServer(router.Routes())
	t.Cleanup(srv.Close)

	return &testEnv{server: srv, flights: ff, dest: dest}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, e.server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestGetFlights(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/flights", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got []flights.Flight
	decode(t, resp, &got)
	require.Len(t, got, 1)
	assert.Equal(t, "New York", got[0].Destination)

	assert.Equal(t, 60.3172, env.flights.gotLat)
	assert.Equal(t, 24.9633, env.flights.gotLon)
	assert.Equal(t, 1.0, env.flights.gotRad)
}

func TestGetFlightsUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	env.flights.err = errors.New("upstream unavailable")

	resp := env.do(t, http.MethodGet, "/api/flights", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []flights.Flight
	decode(t, resp, &got)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestResolveFlight(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/resolve/FIN5", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got tracker.DeepResolution
	decode(t, resp, &got)
	assert.Equal(t, "New York, NY", got.Destination)
	assert.Equal(t, "Helsinki-Vantaa", got.RealDestination)
	assert.Equal(t, tracker.HiddenOrigin, got.Origin)

	cities, err := env.dest.Destinations()
	require.NoError(t, err)
	assert.Equal(t, []string{"Helsinki-Vantaa"}, cities)
}

func TestResolveFlightNotFound(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/resolve/NOPE1", "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "Could not resolve details", body["error"])
}

func TestGetAirport(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/airports/jfk", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "JFK", body["iata"])
	assert.Equal(t, "New York", body["city"])

	resp = env.do(t, http.MethodGet, "/api/airports/ZZZ", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestScores(t *testing.T) {
	env := newTestEnv(t)

	for _, body := range []string{
		`{"name": "anna", "score": 700, "date": "2026-10-01"}`,
		`{"name": "bo", "score": 900}`,
		`{"name": "cy", "score": 300}`,
		`{"name": "di", "score": 800}`,
	} {
		resp := env.do(t, http.MethodPost, "/api/scores", body)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := env.do(t, http.MethodGet, "/api/scores", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got struct {
		HighScores []sqlite.ScoreEntry `json:"high_scores"`
		UserStats  []sqlite.UserStats  `json:"user_stats"`
	}
	decode(t, resp, &got)
	require.Len(t, got.HighScores, 3)
	assert.Equal(t, "bo", got.HighScores[0].Name)
	assert.NotEmpty(t, got.HighScores[0].Date)
	assert.Equal(t, "di", got.HighScores[1].Name)
	assert.Equal(t, "anna", got.HighScores[2].Name)
	assert.Equal(t, "2026-10-01", got.HighScores[2].Date)
	assert.NotNil(t, got.UserStats)
}

func TestPostScoreBadBody(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodPost, "/api/scores", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/users/anna", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user sqlite.UserStats
	decode(t, resp, &user)
	assert.Equal(t, sqlite.UserStats{Name: "anna"}, user)

	env.do(t, http.MethodPost, "/api/users/anna", `{"score": 400}`)
	resp = env.do(t, http.MethodPost, "/api/users/anna", `{"score": 900}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &user)
	assert.Equal(t, 2, user.GamesPlayed)
	assert.Equal(t, 1300, user.TotalScore)
	assert.Equal(t, 900, user.BestScore)

	resp = env.do(t, http.MethodGet, "/api/scores", "")
	var board struct {
		UserStats []sqlite.UserStats `json:"user_stats"`
	}
	decode(t, resp, &board)
	require.Len(t, board.UserStats, 1)
	assert.Equal(t, 65, board.UserStats[0].PerformancePercent)

	resp = env.do(t, http.MethodDelete, "/api/users/anna", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/api/users/anna", "")
	decode(t, resp, &user)
	assert.Equal(t, 0, user.GamesPlayed)
}

func TestUserNameIsUnescaped(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodPost, "/api/users/Anna%20K", `{"score": 100}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user sqlite.UserStats
	decode(t, resp, &user)
	assert.Equal(t, "Anna K", user.Name)
}

func TestGetDestinations(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/destinations", "")
	var cities []string
	decode(t, resp, &cities)
	assert.Equal(t, DefaultDestinations, cities)

	env.do(t, http.MethodGet, "/api/resolve/SAS1", "")
	resp = env.do(t, http.MethodGet, "/api/destinations", "")
	decode(t, resp, &cities)
	assert.Equal(t, []string{"Oslo"}, cities)
}

func TestGetConfigAndHealth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/api/config", "")
	var cfg map[string]interface{}
	decode(t, resp, &cfg)
	assert.Equal(t, 60.3172, cfg["lat"])
	assert.Equal(t, 24.9633, cfg["lon"])
	assert.Equal(t, "fake", cfg["provider"])

	resp = env.do(t, http.MethodGet, "/api/health", "")
	var health map[string]string
	decode(t, resp, &health)
	assert.Equal(t, "ok", health["status"])
}

func TestMetricsAndStatic(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "no-cache, no-store, must-revalidate", resp.Header.Get("Cache-Control"))

	resp = env.do(t, http.MethodGet, "/missing.js", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
