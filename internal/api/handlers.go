package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/yegors/skyguess/internal/config"
	"github.com/yegors/skyguess/internal/flights"
	"github.com/yegors/skyguess/internal/storage/sqlite"
	"github.com/yegors/skyguess/internal/tracker"
	"github.com/yegors/skyguess/pkg/logger"
)

// DefaultDestinations seed the answer choices before any flight has been resolved
var DefaultDestinations = []string{"London", "Paris", "Berlin", "Helsinki", "Tokyo", "New York", "Dubai", "Rome"}

// FlightSource produces the current flight snapshot
type FlightSource interface {
	FetchFlights(ctx context.Context, lat, lon, radiusDeg float64) ([]flights.Flight, error)
	Provider() string
}

// DeepResolver resolves a callsign against a tracking page
type DeepResolver interface {
	Resolve(ctx context.Context, callsign string) (*tracker.DeepResolution, bool)
}

// CityResolver resolves an airport code to a city
type CityResolver interface {
	ResolveCity(ctx context.Context, code string) (string, bool)
}

// ScoreStore is the leaderboard
type ScoreStore interface {
	AddScore(entry sqlite.ScoreEntry) ([]sqlite.ScoreEntry, error)
	HighScores() ([]sqlite.ScoreEntry, error)
}

// UserStore holds per-player statistics
type UserStore interface {
	GetUser(name string) (sqlite.UserStats, error)
	RecordGame(name string, score int) (sqlite.UserStats, error)
	DeleteUser(name string) error
	Stats() ([]sqlite.UserStats, error)
}

// DestinationStore remembers cities seen as real destinations
type DestinationStore interface {
	SaveDestination(city string) error
	Destinations() ([]string, error)
}

// Handler contains the API handlers
type Handler struct {
	flights      FlightSource
	resolver     DeepResolver
	cities       CityResolver
	scores       ScoreStore
	users        UserStore
	destinations DestinationStore
	config       *config.Config
	logger       *logger.Logger
}

// NewHandler creates a new API handler
func NewHandler(flightSource FlightSource, resolver DeepResolver, cities CityResolver, scores ScoreStore, users UserStore, destinations DestinationStore, cfg *config.Config, log *logger.Logger) *Handler {
	return &Handler{
		flights:      flightSource,
		resolver:     resolver,
		cities:       cities,
		scores:       scores,
		users:        users,
		destinations: destinations,
		config:       cfg,
		logger:       log.Named("api-handler"),
	}
}

// GetFlights returns the airborne flights around the station.
// Upstream failures yield an empty list; the cause is logged.
func (h *Handler) GetFlights(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	st := h.config.Station

	result, err := h.flights.FetchFlights(r.Context(), st.Latitude, st.Longitude, st.RadiusDeg)
	if err != nil {
		h.logger.Warn("Serving empty flight list after upstream failure",
			logger.String("provider", h.flights.Provider()),
			logger.Error(err))
		result = []flights.Flight{}
	}

	h.logger.Debug("GetFlights completed",
		logger.Int("flight_count", len(result)),
		logger.Duration("duration", time.Since(start)))

	WriteJSON(w, http.StatusOK, result)
}

// ResolveFlight returns destination, origin and model for a callsign
func (h *Handler) ResolveFlight(w http.ResponseWriter, r *http.Request) {
	callsign := urlParam(r, "callsign")
	if callsign == "" {
		WriteError(w, http.StatusBadRequest, "Callsign is required")
		return
	}

	res, ok := h.resolver.Resolve(r.Context(), callsign)
	if !ok {
		WriteError(w, http.StatusNotFound, "Could not resolve details")
		return
	}

	if err := h.destinations.SaveDestination(res.RealDestination); err != nil {
		h.logger.Error("Failed to record destination",
			logger.String("callsign", callsign),
			logger.Error(err))
	}

	WriteJSON(w, http.StatusOK, res)
}

// GetAirport returns the city for an IATA code
func (h *Handler) GetAirport(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(urlParam(r, "code"))

	city, ok := h.cities.ResolveCity(r.Context(), code)
	if !ok {
		WriteError(w, http.StatusNotFound, "Airport not found")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"iata": code,
		"city": city,
	})
}

// GetScores returns the leaderboard together with per-player statistics
func (h *Handler) GetScores(w http.ResponseWriter, r *http.Request) {
	highScores, err := h.scores.HighScores()
	if err != nil {
		h.logger.Error("Failed to load high scores", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	userStats, err := h.users.Stats()
	if err != nil {
		h.logger.Error("Failed to load user stats", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"high_scores": highScores,
		"user_stats":  userStats,
	})
}

// PostScore adds an entry to the leaderboard
func (h *Handler) PostScore(w http.ResponseWriter, r *http.Request) {
	var entry sqlite.ScoreEntry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if entry.Date == "" {
		entry.Date = time.Now().Format("2006-01-02")
	}

	scores, err := h.scores.AddScore(entry)
	if err != nil {
		h.logger.Error("Failed to save score", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"scores":  scores,
	})
}

// GetUser returns a player's statistics; unknown players have zero stats
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "username")

	user, err := h.users.GetUser(name)
	if err != nil {
		h.logger.Error("Failed to load user", logger.String("name", name), logger.Error(err))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// PostUserGame records a finished game for a player
func (h *Handler) PostUserGame(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "username")

	var req struct {
		Score int `json:"score"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, err := h.users.RecordGame(name, req.Score)
	if err != nil {
		h.logger.Error("Failed to record game", logger.String("name", name), logger.Error(err))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// DeleteUser removes a player's statistics
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "username")

	if err := h.users.DeleteUser(name); err != nil {
		h.logger.Error("Failed to delete user", logger.String("name", name), logger.Error(err))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// GetDestinations returns known destination cities, or the defaults when none are known yet
func (h *Handler) GetDestinations(w http.ResponseWriter, r *http.Request) {
	cities, err := h.destinations.Destinations()
	if err != nil {
		h.logger.Error("Failed to load destinations", logger.Error(err))
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(cities) == 0 {
		cities = DefaultDestinations
	}

	WriteJSON(w, http.StatusOK, cities)
}

// GetConfig exposes the station location to the front end
func (h *Handler) GetConfig(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"lat":        h.config.Station.Latitude,
		"lon":        h.config.Station.Longitude,
		"radius_deg": h.config.Station.RadiusDeg,
		"provider":   h.flights.Provider(),
	})
}

// GetHealth reports liveness
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// urlParam returns the unescaped route parameter
func urlParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if v, err := url.PathUnescape(raw); err == nil {
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(raw)
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// WriteError writes a JSON error body
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}
