// Package server is the composition root: it opens the store, builds the
// services and handlers, wires the chi router and runs the HTTP server.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → openStore → repository.Directory
//	Directory → UserService / TodoService → UserHandler / TodoHandler
//
// Each layer only receives what it needs: services get the Directory
// interface (not the concrete store), handlers get services.
package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/todo-api/internal/auth"
	"github.com/sakif/todo-api/internal/config"
	"github.com/sakif/todo-api/internal/handler"
	"github.com/sakif/todo-api/internal/middleware"
	"github.com/sakif/todo-api/internal/repository"
	"github.com/sakif/todo-api/internal/repository/memory"
	sqliteRepo "github.com/sakif/todo-api/internal/repository/sqlite"
	"github.com/sakif/todo-api/internal/service"
)

// store is what the server needs from a backend: the directory itself plus
// a health probe. Both memory.Store and sqlite.DB qualify.
type store interface {
	repository.Directory
	repository.Pinger
}

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store. If the store holds resources (the SQLite
// connection), closer releases them on shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  store
	closer io.Closer
}

// New creates a Server from cfg. Nothing listens until Start is called, so
// tests can drive Handler() with httptest instead.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, closer, err := openStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  st,
		closer: closer,
	}

	if err := s.setupRoutes(); err != nil {
		s.close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openStore picks the Directory implementation named by the config.
func openStore(cfg config.StoreConfig) (store, io.Closer, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil, nil
	case config.DriverSQLite:
		db, err := sqliteRepo.New(cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return db, db, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /users               → register a user
// GET    /todos               → list todos            (username header)
// POST   /todos               → create todo           (username header)
// PUT    /todos/{id}          → update title/deadline (username header)
// PATCH  /todos/{id}/done     → mark done             (username header)
// DELETE /todos/{id}          → delete todo           (username header)
// GET    /health              → store health
// GET    /metrics             → Prometheus (if enabled)
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns unique ID to each request (for tracing)
// 2. RealIP: extracts real client IP from proxy headers (rate limiter keys on it)
// 3. Logger: logs each request with timing info
// 4. Recoverer: catches panics and returns 500 instead of crashing
// 5. Metrics, security headers, CORS, rate limit
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	if s.config.HTTP.Metrics {
		s.router.Use(middleware.Prometheus)
	}
	s.router.Use(middleware.NewSecure(middleware.SecureOptions(s.config.HTTP.Development)))
	s.router.Use(middleware.CORS(s.config.HTTP.AllowedOrigins))

	rateLimit, err := middleware.NewIPRateLimiter(s.config.HTTP.RateLimit)
	if err != nil {
		return fmt.Errorf("parsing RATE_LIMIT %q: %w", s.config.HTTP.RateLimit, err)
	}
	s.router.Use(rateLimit)

	s.router.Method(http.MethodGet, "/health", handler.NewHealthHandler(s.store))
	if s.config.HTTP.Metrics {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	// The handler never touches the store directly and the service never
	// touches HTTP.
	userService := service.NewUserService(s.store, s.logger)
	todoService := service.NewTodoService(s.store, s.logger)
	userHandler := handler.NewUserHandler(userService, s.logger)
	todoHandler := handler.NewTodoHandler(todoService, s.logger)

	s.router.Post("/users", userHandler.HandleCreate)

	// Resolve-then-authorize: RequireUser runs before every todo handler
	// and answers 404 itself when the username header names nobody.
	s.router.Route("/todos", func(r chi.Router) {
		r.Use(auth.RequireUser(userService, handler.ErrorWriter(s.logger)))
		r.Get("/", todoHandler.HandleList)
		r.Post("/", todoHandler.HandleCreate)
		r.Put("/{id}", todoHandler.HandleUpdate)
		r.Patch("/{id}/done", todoHandler.HandleComplete)
		r.Delete("/{id}", todoHandler.HandleDelete)
	})

	return nil
}

// Handler exposes the fully wired router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the store. Safe to call on a server that never started.
func (s *Server) Close() error {
	return s.close()
}

func (s *Server) close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the store (the SQLite connection, if any)
func (s *Server) Start() error {
	defer s.close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("store", s.config.Store.Driver),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
