package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/yegors/skyguess/internal/airports"
	"github.com/yegors/skyguess/internal/api"
	"github.com/yegors/skyguess/internal/config"
	"github.com/yegors/skyguess/internal/feed"
	"github.com/yegors/skyguess/internal/flights"
	"github.com/yegors/skyguess/internal/metrics"
	"github.com/yegors/skyguess/internal/storage/sqlite"
	"github.com/yegors/skyguess/internal/tracker"
	"github.com/yegors/skyguess/pkg/logger"
)

var (
	// Version is injected at build time
	Version = "dev"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file (optional - will search in configs/ and root directory)")
	flag.Parse()

	// Load configuration with fallback logic
	cfg, err := config.LoadWithFallback(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Create logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting skyguess server",
		logger.String("version", Version),
		logger.String("config_path", *configPath),
		logger.Float64("lat", cfg.Station.Latitude),
		logger.Float64("lon", cfg.Station.Longitude),
		logger.Float64("radius_deg", cfg.Station.RadiusDeg),
	)

	m := metrics.NewMetrics(cfg.Metrics.Namespace)

	// Live position provider
	provider, err := newProvider(cfg, log)
	if err != nil {
		log.Error("Failed to create provider", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Using provider", logger.String("provider", provider.Name()))

	// Airport city resolution
	airportResolver := airports.NewResolver(
		airports.NewCache(log),
		airports.NewClient(cfg.Airports.LookupURL, cfg.Airports.UserAgent, cfg.Airports.Timeout(), log),
		m,
		log,
	)

	pipeline := flights.NewPipeline(provider, airportResolver, m, log)

	// Deep resolution
	extraction, err := tracker.ParseExtraction(cfg.Tracker.Extraction)
	if err != nil {
		log.Error("Invalid tracker configuration", logger.Error(err))
		os.Exit(1)
	}
	deepResolver := tracker.NewResolver(tracker.Config{
		PageURL:        cfg.Tracker.PageURL,
		UserAgent:      cfg.Tracker.UserAgent,
		Extraction:     extraction,
		HomeSubstrings: cfg.Station.HomeSubstrings,
		Timeout:        cfg.Tracker.Timeout(),
	}, m, log)

	// Ensure the database directory exists
	dbDir := filepath.Dir(cfg.Storage.SQLitePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		log.Error("Failed to create database directory", logger.Error(err), logger.String("path", dbDir))
		os.Exit(1)
	}

	db, err := sqlite.Open(cfg.Storage.SQLitePath, log)
	if err != nil {
		log.Error("Failed to open SQLite database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()

	scoreStorage, err := sqlite.NewScoreStorage(db, cfg.Storage.LeaderboardSize, log)
	if err != nil {
		log.Error("Failed to create score storage", logger.Error(err))
		os.Exit(1)
	}
	userStorage, err := sqlite.NewUserStorage(db, log)
	if err != nil {
		log.Error("Failed to create user storage", logger.Error(err))
		os.Exit(1)
	}
	destinationStorage, err := sqlite.NewDestinationStorage(db, log)
	if err != nil {
		log.Error("Failed to create destination storage", logger.Error(err))
		os.Exit(1)
	}

	// Create API router
	handler := api.NewHandler(pipeline, deepResolver, airportResolver, scoreStorage, userStorage, destinationStorage, cfg, log)
	router := api.NewRouter(handler, m.Handler(), cfg, log)
	routes := router.Routes()

	// --- Setup for multiple HTTP servers ---
	var servers []*http.Server
	allPorts := append([]int{cfg.Server.Port}, cfg.Server.AdditionalPorts...)

	log.Info("Configured listener ports", logger.Any("ports", allPorts))

	for _, port := range allPorts {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, port)
		server := &http.Server{
			Addr:         addr,
			Handler:      routes,
			ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSecs) * time.Second,
			WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSecs) * time.Second,
			IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSecs) * time.Second,
		}
		servers = append(servers, server)

		go func(s *http.Server) {
			log.Info("Starting HTTP server", logger.String("addr", s.Addr))
			if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("HTTP server error on startup", logger.String("addr", s.Addr), logger.Error(err))
			}
		}(server)
	}

	// Wait for interrupt signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("Shutting down HTTP servers...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(srv *http.Server) {
			defer wg.Done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error("HTTP server shutdown error", logger.String("addr", srv.Addr), logger.Error(err))
			} else {
				log.Info("HTTP server shutdown complete", logger.String("addr", srv.Addr))
			}
		}(s)
	}
	wg.Wait()

	log.Info("Server fully stopped")
}

// newProvider builds the configured live position provider
func newProvider(cfg *config.Config, log *logger.Logger) (feed.Provider, error) {
	switch cfg.Provider.SourceType {
	case config.SourceFlightRadar:
		return feed.NewFlightRadarProvider(feed.FlightRadarConfig{
			FeedURL:   cfg.Provider.FlightRadarFeedURL,
			UserAgent: cfg.Provider.FlightRadarUserAgent,
			Timeout:   cfg.Provider.Timeout(),
		}, log), nil
	case config.SourceOpenSky:
		p, err := feed.NewOpenSkyProvider(feed.OpenSkyConfig{
			BaseURL:         cfg.Provider.OpenSkyBaseURL,
			TokenURL:        cfg.Provider.OpenSkyTokenURL,
			ClientID:        cfg.Provider.OpenSkyClientID,
			ClientSecret:    cfg.Provider.OpenSkyClientSecret,
			CredentialsPath: cfg.Provider.OpenSkyCredentialsPath,
			Timeout:         cfg.Provider.Timeout(),
		}, log)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider.SourceType)
	}
}
