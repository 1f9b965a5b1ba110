// Package server assembles the HTTP API: routing, middleware, and lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/clawlabs/arenabot/internal/server/handler"
	"github.com/clawlabs/arenabot/internal/server/middleware"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port        int
	CORSOrigins []string
	APIKey      string // if empty, authentication is disabled

	// VerifyClawToken gates POST /api/decision separately from the API
	// key; nil leaves the endpoint open.
	VerifyClawToken func(token string) bool
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health      *handler.HealthHandler
	Portfolio   *handler.PortfolioHandler
	Tick        *handler.TickHandler
	Decision    *handler.DecisionHandler
	Bot         *handler.BotHandler
	Leaderboard *handler.LeaderboardHandler
}

// Server is the headless HTTP API server for the trading arena.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux
// and wires up middleware (logging, CORS, auth).
func NewServer(cfg Config, handlers Handlers, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)

	mux.HandleFunc("GET /api/portfolio", handlers.Portfolio.GetPortfolio)
	mux.HandleFunc("GET /api/trades", handlers.Portfolio.ListTrades)
	mux.HandleFunc("GET /api/equity", handlers.Portfolio.EquityHistory)
	mux.HandleFunc("GET /api/thoughts", handlers.Portfolio.Thoughts)

	mux.HandleFunc("POST /api/tick", handlers.Tick.Trigger)

	mux.HandleFunc("GET /api/bot", handlers.Bot.GetBot)
	mux.HandleFunc("PUT /api/bot", handlers.Bot.UpdateBot)
	mux.HandleFunc("POST /api/bot/train", handlers.Bot.Train)

	// The decision endpoint carries its own credential so external
	// controllers never hold the admin API key.
	clawAuth := middleware.ClawAuth(cfg.VerifyClawToken)
	mux.Handle("POST /api/decision", clawAuth(http.HandlerFunc(handlers.Decision.Submit)))

	mux.HandleFunc("GET /api/leaderboard", handlers.Leaderboard.List)
	mux.HandleFunc("POST /api/leaderboard", handlers.Leaderboard.Register)

	var h http.Handler = mux
	h = middleware.Auth(cfg.APIKey)(h)
	h = middleware.Logging(logger)(h)
	h = corsMiddleware(cfg.CORSOrigins)(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Handler returns the full middleware-wrapped handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// corsMiddleware returns middleware that sets CORS headers for the allowed
// origins. If no origins are specified, it defaults to allowing all origins.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			if origin != "" {
				allowed := len(allowedOrigins) == 0
				for _, o := range allowedOrigins {
					if strings.EqualFold(o, "*") || strings.EqualFold(o, origin) {
						allowed = true
						break
					}
				}

				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
					w.Header().Set("Access-Control-Max-Age", "86400")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
