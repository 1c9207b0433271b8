// Package api exposes the FrameMark review-session server over HTTP.
// Routes are registered through huma on top of a chi router; every
// response body travels in the versioned envelope.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/framemarkapp/framemark-server/internal/config"
	"github.com/framemarkapp/framemark-server/internal/sse"
)

// Server is the HTTP API server.
type Server struct {
	services        *Services
	router          *chi.Mux
	api             huma.API
	sseHandler      *sse.Handler
	sseManager      *sse.Manager
	logger          *slog.Logger
	httpServer      *http.Server
	authRateLimiter *RateLimiter
}

// NewServer creates the HTTP server with all routes configured.
func NewServer(cfg *config.Config, services *Services, sseManager *sse.Manager, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	corsOrigins := cfg.Server.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authLimiter := NewRateLimiter(20, time.Minute, 10)
	router.Use(RateLimitMiddleware(authLimiter, logger, "/api/v1/auth/"))
	router.Use(authMiddleware(services.Auth))

	humaConfig := huma.DefaultConfig("FrameMark API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	api := humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s := &Server{
		services:        services,
		router:          router,
		api:             api,
		sseHandler:      sse.NewHandler(sseManager, logger),
		sseManager:      sseManager,
		logger:          logger,
		authRateLimiter: authLimiter,
	}

	s.registerHealthRoutes()
	s.registerAuthRoutes()
	s.registerSessionRoutes()
	s.registerTransportRoutes()
	s.registerMarkerRoutes()
	s.registerExportRoutes()
	s.registerSummaryRoutes()

	// SSE streams outside huma; the envelope does not apply to event frames.
	router.Get("/api/v1/events/stream", s.sseHandler.ServeHTTP)

	// WriteTimeout stays zero: SSE streams are long-lived and the handler
	// sets its own per-event write deadlines.
	s.httpServer = &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     router,
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start begins listening. Blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.authRateLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}
