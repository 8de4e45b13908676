package server

import (
	"net/http"

	"github.com/agentstation/waypoint/internal/server/handlers"
	"github.com/agentstation/waypoint/internal/server/middleware"
)

// setupRouter creates the HTTP handler with routes and middleware.
func (s *Server) setupRouter() http.Handler {
	mux := http.NewServeMux()

	h := handlers.New(
		s.client,
		s.tombstones,
		s.wsHub,
		s.sseBroadcaster,
		s.upgrader,
		s.logger,
		s.version,
		s.startTime,
	)

	s.registerRoutes(mux, h)

	return s.applyMiddleware(mux)
}

// registerRoutes registers all HTTP routes.
func (s *Server) registerRoutes(mux *http.ServeMux, h *handlers.Handlers) {
	prefix := s.config.PathPrefix

	// Favicon handler (return 204 No Content to avoid 404 logs)
	mux.HandleFunc("GET /favicon.ico", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Public health endpoints (no auth required)
	mux.HandleFunc("GET /health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/health", h.HandleHealth)
	mux.HandleFunc("GET "+prefix+"/ready", h.HandleReady)

	// Subscriptions
	mux.HandleFunc("GET "+prefix+"/subscriptions", h.HandleListSubscriptions)
	mux.HandleFunc("POST "+prefix+"/subscriptions", h.HandleCreateSubscription)
	mux.HandleFunc("GET "+prefix+"/subscriptions/{id}", h.HandleGetSubscription)
	mux.HandleFunc("DELETE "+prefix+"/subscriptions/{id}", h.HandleStopSubscription)
	mux.HandleFunc("POST "+prefix+"/subscriptions/{id}/start", h.HandleStartSubscription)
	mux.HandleFunc("POST "+prefix+"/subscriptions/{id}/pause", h.HandlePauseSubscription)

	// Producer feed
	mux.HandleFunc("POST "+prefix+"/visits", h.HandleDeliverVisit)
	mux.HandleFunc("POST "+prefix+"/failures", h.HandleReportFailure)

	// Real-time endpoints
	mux.HandleFunc("GET "+prefix+"/events/ws", h.HandleWebSocket)
	mux.HandleFunc("GET "+prefix+"/events/stream", h.HandleSSE)
}

// applyMiddleware wraps handler with the middleware chain. Recovery runs
// outermost.
func (s *Server) applyMiddleware(handler http.Handler) http.Handler {
	cfg := s.config

	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.Logger(s.logger),
	}

	if cfg.CORSEnabled {
		corsConfig := middleware.DefaultCORSConfig()
		if len(cfg.CORSOrigins) > 0 {
			corsConfig.AllowedOrigins = cfg.CORSOrigins
		} else {
			corsConfig.AllowAll = true
		}
		chain = append(chain, middleware.CORS(corsConfig))
	}

	if cfg.AuthEnabled {
		authConfig := middleware.DefaultAuthConfig(cfg.PathPrefix)
		authConfig.Enabled = true
		authConfig.APIKey = cfg.APIKey
		authConfig.HeaderName = cfg.AuthHeader
		chain = append(chain, middleware.Auth(authConfig, s.logger))
	}

	if s.rateLimiter != nil {
		chain = append(chain, middleware.RateLimit(s.rateLimiter))
	}

	return middleware.Chain(chain...)(handler)
}
