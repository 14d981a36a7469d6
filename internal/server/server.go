// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: main.go hands it config, and New
// builds the whole dependency chain in one place:
//
//	sqlite.DB → services → handlers → routes
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing below the handler layer
// ever sees an *http.Request.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sakif/notekeeper/internal/auth"
	"github.com/sakif/notekeeper/internal/handler"
	"github.com/sakif/notekeeper/internal/metrics"
	"github.com/sakif/notekeeper/internal/middleware"
	sqliteRepo "github.com/sakif/notekeeper/internal/repository/sqlite"
	"github.com/sakif/notekeeper/internal/service"
)

// Config holds server configuration, loaded from the environment by main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string
}

// Server owns the router, the database connection, and the background
// pieces (rate limiter cleanup). Start blocks until shutdown; the DB and
// limiter are released on the way out.
type Server struct {
	router       *chi.Mux
	config       Config
	logger       *slog.Logger
	db           *sqliteRepo.DB
	loginLimiter *middleware.LoginLimiter
}

// New creates a Server with the full dependency graph wired.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:       chi.NewRouter(),
		config:       cfg,
		logger:       logger,
		db:           db,
		loginLimiter: middleware.NewLoginLimiter(middleware.DefaultLoginLimiterConfig()),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		s.loginLimiter.Stop()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	POST   /auth/register              create an account
//	POST   /auth/login                 exchange credentials for a token (rate-limited)
//	GET    /auth/profile               caller's identity                [guarded]
//	GET    /auth/users                 paginated user directory         [guarded]
//	GET    /auth/search                user search                      [guarded]
//	GET    /api/notes                  all notes, unscoped              [guarded]
//	POST   /api/notes                  create a note for the caller     [guarded]
//	DELETE /api/notes                  delete all of the caller's notes [guarded]
//	GET    /api/notes/mine             caller's notes, newest first     [guarded]
//	GET    /api/notes/mine/sorted      ?sortBy=&order=                  [guarded]
//	GET    /api/notes/mine/date-range  ?from=&to=                       [guarded]
//	GET    /api/notes/mine/paginated   ?page=&pageSize=                 [guarded]
//	GET    /api/notes/mine/search      ?search=                         [guarded]
//	GET    /api/notes/mine/{id}        caller's note by id              [guarded]
//	GET    /api/notes/{id}             any note by id, unscoped         [guarded]
//	PATCH  /api/notes/{id}             partial update of caller's note  [guarded]
//	DELETE /api/notes/{id}             delete caller's note             [guarded]
//	GET    /healthz                    liveness probe
//	GET    /metrics                    Prometheus scrape
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	userService := service.NewUserService(s.db.Users(), s.logger)
	noteService := service.NewNoteService(s.db.Notes(), s.logger)

	authHandler := handler.NewAuthHandler(authService, userService, s.logger)
	noteHandler := handler.NewNoteHandler(noteService, s.logger)

	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	// Global middleware, in execution order. RealIP must run before the
	// login rate limiter so the limiter keys on the real client address.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(collector.Middleware)

	requireAuth := auth.RequireAuth(tokens)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.With(s.loginLimiter.Middleware).Post("/login", authHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/profile", authHandler.HandleProfile)
			r.Get("/users", authHandler.HandleListUsers)
			r.Get("/search", authHandler.HandleSearchUsers)
		})
	})

	s.router.Route("/api/notes", func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/", noteHandler.HandleListAll)
		r.Post("/", noteHandler.HandleCreate)
		r.Delete("/", noteHandler.HandleDeleteAll)

		// Static segments before the {id} wildcard. chi matches most
		// specific first, but keeping them grouped makes the intent clear.
		r.Get("/mine", noteHandler.HandleListMine)
		r.Get("/mine/sorted", noteHandler.HandleSorted)
		r.Get("/mine/date-range", noteHandler.HandleDateRange)
		r.Get("/mine/paginated", noteHandler.HandlePaginated)
		r.Get("/mine/search", noteHandler.HandleSearch)
		r.Get("/mine/{id}", noteHandler.HandleGetMine)

		r.Get("/{id}", noteHandler.HandleGetOne)
		r.Patch("/{id}", noteHandler.HandleUpdate)
		r.Delete("/{id}", noteHandler.HandleDelete)
	})

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	s.router.Method(http.MethodGet, "/metrics", metrics.Handler(prometheus.DefaultGatherer))

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// On SIGINT/SIGTERM: stop accepting connections, give in-flight requests 30
// seconds to finish, then close the database (flushes the WAL and releases
// the file lock) and stop the rate limiter's cleanup goroutine.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.loginLimiter.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
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
