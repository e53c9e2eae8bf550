// Package server is the composition root: it opens the database, builds
// services and handlers, and mounts them on a chi router.
//
// Routes:
//
//	GET    /healthz                 → liveness + database ping
//	POST   /oauth/token             → client-credentials token endpoint
//	POST   /compiler/execute        → run code, plain-text result
//	GET    /api/languages           → supported languages
//	POST   /api/execute             → run code, JSON result
//	GET    /api/snippets            → list saved snippets
//	POST   /api/snippets            → save a snippet
//	GET    /api/snippets/{id}       → fetch one
//	PUT    /api/snippets/{id}       → update (owner only)
//	DELETE /api/snippets/{id}       → delete (owner only)
//	POST   /api/snippets/{id}/run   → run a saved snippet
//
// With a JWT secret configured, /compiler and /api require a bearer token.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/code-compiler/internal/auth"
	"github.com/sakif/code-compiler/internal/executor"
	"github.com/sakif/code-compiler/internal/handler"
	"github.com/sakif/code-compiler/internal/middleware"
	sqliteRepo "github.com/sakif/code-compiler/internal/repository/sqlite"
	"github.com/sakif/code-compiler/internal/service"
)

type Config struct {
	Port   int
	DBPath string

	// JWTSecret turns on bearer-token auth. Empty leaves the API open.
	JWTSecret string
	TokenTTL  time.Duration
	// ClientID and ClientSecret, when set, are registered at startup so
	// there is always one client able to obtain tokens.
	ClientID     string
	ClientSecret string
	// BcryptCost for client secrets. Zero means the auth package default.
	BcryptCost int

	// WriteTimeout bounds a whole request, execution included. Zero means
	// two minutes; compiling Java or C# cold can take tens of seconds.
	WriteTimeout time.Duration
}

type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	exec   executor.Executor
	hasher *auth.SecretHasher
}

// New opens the database and wires every route around exec.
func New(cfg Config, logger *slog.Logger, exec executor.Executor) (*Server, error) {
	if exec == nil {
		return nil, errors.New("server: executor is required")
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		exec:   exec,
		hasher: auth.NewSecretHasher(),
	}
	if cfg.BcryptCost > 0 {
		s.hasher = auth.NewSecretHasherWithCost(cfg.BcryptCost)
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Close() error {
	return s.db.Close()
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	executeHandler := handler.NewExecuteHandler(s.exec, s.logger)
	snippetHandler := handler.NewSnippetHandler(
		service.NewSnippetService(s.db, s.exec, s.logger), s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	s.router.Get("/healthz", healthHandler.HandleHealth)

	// protect is a no-op unless auth is configured.
	protect := func(next http.Handler) http.Handler { return next }

	if s.config.JWTSecret != "" {
		tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
		if err != nil {
			return err
		}
		clients := service.NewClientService(s.db.Clients(), s.hasher, tokens, s.logger)

		if s.config.ClientID != "" {
			if err := clients.EnsureClient(context.Background(), s.config.ClientID, s.config.ClientSecret); err != nil {
				return fmt.Errorf("registering bootstrap client: %w", err)
			}
		}

		s.router.Post("/oauth/token", handler.NewTokenHandler(clients, s.logger).HandleToken)
		protect = auth.RequireAuth(tokens)
	} else {
		s.logger.Warn("JWT secret not set, API authentication is disabled")
	}

	s.router.With(protect).Post("/compiler/execute", executeHandler.HandleCompile)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(protect)
		r.Get("/languages", executeHandler.HandleLanguages)
		r.Post("/execute", executeHandler.HandleExecute)

		r.Get("/snippets", snippetHandler.HandleList)
		r.Post("/snippets", snippetHandler.HandleCreate)
		r.Get("/snippets/{id}", snippetHandler.HandleGetByID)
		r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
		r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
		r.Post("/snippets/{id}/run", snippetHandler.HandleRun)
	})

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	writeTimeout := s.config.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Minute
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
			slog.Bool("auth", s.config.JWTSecret != ""),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
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
