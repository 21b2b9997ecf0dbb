// Package server provides the HTTP server and routing for the Boru API.
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

	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/clients/ibkr"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/config"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/events"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/mode"
	modehandlers "github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/mode/handlers"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/orders"
	orderhandlers "github.com/mustafaesen111/esentrader-boru-api-v2/internal/modules/orders/handlers"
	"github.com/mustafaesen111/esentrader-boru-api-v2/internal/reliability"
)

// Config holds server configuration
type Config struct {
	Log           zerolog.Logger
	Config        *config.Config
	Port          int
	DevMode       bool
	ModeStore     *mode.Store
	Journal       *orders.Journal
	OrderRouter   *orders.Router
	BrokerClient  *ibkr.Client
	BackupService *reliability.BackupService
	EventBus      *events.Bus
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	modeStore      *mode.Store
	journal        *orders.Journal
	orderRouter    *orders.Router
	brokerClient   *ibkr.Client
	backupService  *reliability.BackupService
	eventBus       *events.Bus
	systemHandlers *SystemHandlers
	statusMonitor  *StatusMonitor
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		log:           cfg.Log.With().Str("component", "server").Logger(),
		cfg:           cfg.Config,
		modeStore:     cfg.ModeStore,
		journal:       cfg.Journal,
		orderRouter:   cfg.OrderRouter,
		brokerClient:  cfg.BrokerClient,
		backupService: cfg.BackupService,
		eventBus:      cfg.EventBus,
	}

	s.systemHandlers = NewSystemHandlers(cfg.ModeStore, cfg.BrokerClient, cfg.Log)
	s.statusMonitor = NewStatusMonitor(cfg.EventBus, cfg.BrokerClient, cfg.Log)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes(cfg.Config.LiveTrading)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router returns the chi router (for tests)
func (s *Server) Router() http.Handler {
	return s.router
}

// StatusMonitor returns the broker status monitor
func (s *Server) StatusMonitor() *StatusMonitor {
	return s.statusMonitor
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(liveTrading bool) {
	// Health check (plain path for systemd and load balancers)
	s.router.Get("/health", s.handleHealth)

	modeH := modehandlers.NewModeHandlers(s.modeStore, s.log)
	orderH := orderhandlers.NewOrderHandlers(s.orderRouter, s.journal, liveTrading, s.log)
	brokerH := NewBrokerHandlers(s.brokerClient, s.modeStore, s.log)
	eventsWS := NewEventsWSHandler(s.eventBus, s.log)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.systemHandlers.HandleStatus)
		r.Get("/events/ws", eventsWS.ServeHTTP)

		orderH.RegisterRoutes(r)
		modeH.RegisterRoutes(r)
		brokerH.RegisterRoutes(r)

		if s.backupService != nil {
			backupH := NewBackupHandlers(s.backupService, s.log)
			backupH.RegisterRoutes(r)
		}
	})

	s.router.Route("/admin/api", func(r chi.Router) {
		orderH.RegisterAdminRoutes(r)
	})
}

// loggingMiddleware logs each request with its duration
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration_ms", time.Since(start)).
			Msg("Request")
	})
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
