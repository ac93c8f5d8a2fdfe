package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/yegors/skyguess/internal/config"
	"github.com/yegors/skyguess/pkg/logger"
)

// Router wires the handlers, metrics and static files onto a chi mux
type Router struct {
	handler *Handler
	static  http.Handler
	metrics http.Handler
	config  *config.Config
	logger  *logger.Logger
}

// NewRouter creates a new router. metricsHandler may be nil.
func NewRouter(handler *Handler, metricsHandler http.Handler, cfg *config.Config, log *logger.Logger) *Router {
	return &Router{
		handler: handler,
		static:  NewStaticFileHandler(cfg.Server.StaticFilesDir, log),
		metrics: metricsHandler,
		config:  cfg,
		logger:  log.Named("api-router"),
	}
}

// Routes returns the root handler
func (rt *Router) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(rt.logger),
		middleware.Recoverer,
	)
	if secs := rt.config.Server.RequestTimeoutSecs; secs > 0 {
		r.Use(middleware.Timeout(time.Duration(secs) * time.Second))
	}

	h := rt.handler
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.GetHealth)
		r.Get("/config", h.GetConfig)
		r.Get("/flights", h.GetFlights)
		r.Get("/resolve/{callsign}", h.ResolveFlight)
		r.Get("/airports/{code}", h.GetAirport)
		r.Get("/destinations", h.GetDestinations)

		r.Get("/scores", h.GetScores)
		r.Post("/scores", h.PostScore)

		r.Get("/users/{username}", h.GetUser)
		r.Post("/users/{username}", h.PostUserGame)
		r.Delete("/users/{username}", h.DeleteUser)
	})

	if rt.metrics != nil && rt.config.Metrics.Enabled {
		r.Handle(rt.config.Metrics.Path, rt.metrics)
	}

	r.Handle("/*", rt.static)

	return r
}

// requestLogger logs each request through the service logger
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			log.Debug("HTTP request",
				logger.String("method", r.Method),
				logger.String("path", r.URL.Path),
				logger.Int("status", ww.Status()),
				logger.Int("bytes", ww.BytesWritten()),
				logger.String("request_id", middleware.GetReqID(r.Context())),
				logger.Duration("duration", time.Since(start)))
		})
	}
}
