// Package server provides the HTTP server and routing for the payoff
// dashboard backend.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/askourtis/payoff/internal/config"
	"github.com/askourtis/payoff/internal/events"
	analysishandlers "github.com/askourtis/payoff/internal/modules/analysis/handlers"
	positionshandlers "github.com/askourtis/payoff/internal/modules/positions/handlers"
	pricinghandlers "github.com/askourtis/payoff/internal/modules/pricing/handlers"
)

// Config holds server configuration
type Config struct {
	Port              int
	Log               zerolog.Logger
	Cfg               *config.Config
	EventBus          *events.Bus
	PositionsHandlers *positionshandlers.Handler
	AnalysisHandlers  *analysishandlers.Handler
	PricingHandlers   *pricinghandlers.Handler
}

// Server represents the HTTP server
type Server struct {
	router  *chi.Mux
	server  *http.Server
	log     zerolog.Logger
	started time.Time
}

// New creates a new HTTP server with all routes wired
func New(cfg Config) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		log:     cfg.Log.With().Str("component", "server").Logger(),
		started: time.Now(),
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(requestLogger(s.log))

	allowedOrigins := []string{"http://localhost:*", "http://127.0.0.1:*"}
	if cfg.Cfg != nil && cfg.Cfg.DevMode {
		allowedOrigins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	systemHandlers := NewSystemHandlers(s.started, s.log)
	eventsHandler := NewEventsHandler(cfg.EventBus, s.log)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", systemHandlers.HandleHealth)
		r.Get("/system/status", systemHandlers.HandleStatus)
		r.Get("/events", eventsHandler.HandleStream)

		r.Route("/positions", func(r chi.Router) {
			r.Post("/import", cfg.PositionsHandlers.HandleImport)
			r.Get("/", cfg.PositionsHandlers.HandleGetPositions)
		})

		r.Route("/analysis", func(r chi.Router) {
			r.Get("/", cfg.AnalysisHandlers.HandleGetAll)
			r.Get("/{ticker}", cfg.AnalysisHandlers.HandleGetTicker)
		})

		r.Route("/pricing", func(r chi.Router) {
			r.Post("/price", cfg.PricingHandlers.HandlePrice)
			r.Post("/greeks", cfg.PricingHandlers.HandleGreeks)
		})
	})

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Router exposes the chi router, used by httptest in integration tests
func (s *Server) Router() http.Handler {
	return s.router
}

// requestLogger logs each request at debug level with timing
func requestLogger(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("Request handled")
		})
	}
}
