// Package server is the composition root: it picks the storage and rate
// limit backends from config, wires services into handlers, mounts routes,
// and runs the HTTP server with graceful shutdown.
//
// Route map:
//
//	GET  /healthz
//	POST /api/submissions
//	GET  /api/tools
//	GET  /api/tools/{id}
//	GET  /api/tools/{id}/ratings
//	POST /api/tools/{id}/ratings
//	POST /api/tools/{id}/events
//	GET  /api/categories
//	POST /api/admin/session
//	GET  /api/admin/submissions                (moderator)
//	GET  /api/admin/submissions/{id}           (moderator)
//	POST /api/admin/submissions/{id}/approve   (moderator)
//	POST /api/admin/submissions/{id}/reject    (moderator)
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/wellness-directory/internal/auth"
	"github.com/sakif/wellness-directory/internal/config"
	"github.com/sakif/wellness-directory/internal/handler"
	"github.com/sakif/wellness-directory/internal/middleware"
	"github.com/sakif/wellness-directory/internal/ratelimit"
	"github.com/sakif/wellness-directory/internal/repository"
	"github.com/sakif/wellness-directory/internal/repository/disabled"
	"github.com/sakif/wellness-directory/internal/repository/postgres"
	sqliteRepo "github.com/sakif/wellness-directory/internal/repository/sqlite"
	"github.com/sakif/wellness-directory/internal/service"
	"github.com/sakif/wellness-directory/internal/validation"
)

// Server owns the router and every resource that must be released on
// shutdown.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	store  repository.Store
	rdb    *redis.Client // nil when the in-process limiter is used
}

// New builds a Server from cfg. Storage that cannot be opened is an error;
// storage that is not configured runs the soft-disabled store instead.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
	}

	limiter, err := s.openLimiter()
	if err != nil {
		s.Close()
		return nil, err
	}

	if err := s.setupRoutes(limiter); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (repository.Store, error) {
	switch cfg.StorageDriver() {
	case config.DriverSQLite:
		if cfg.DB.Path != ":memory:" {
			dir := filepath.Dir(cfg.DB.Path)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory %s: %w", dir, err)
			}
		}
		db, err := sqliteRepo.New(cfg.DB.Path)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		logger.Info("storage ready", slog.String("driver", "sqlite"), slog.String("path", cfg.DB.Path))
		return db, nil

	case config.DriverPostgres:
		db, err := postgres.New(cfg.DB.URL, cfg.DB.MaxOpenConns)
		if err != nil {
			return nil, fmt.Errorf("opening postgres: %w", err)
		}
		logger.Info("storage ready", slog.String("driver", "postgres"))
		return db, nil

	default:
		logger.Warn("storage is not configured, writes will be refused",
			slog.String("db_driver", cfg.DB.Driver),
		)
		return disabled.Store{}, nil
	}
}

func (s *Server) openLimiter() (ratelimit.Limiter, error) {
	cooldown := s.config.Limits.SubmissionCooldown
	if s.config.Redis.URL == "" {
		return ratelimit.NewMemory(cooldown, ratelimit.WithMaxEntries(s.config.Limits.MaxEntries)), nil
	}

	rdb, err := ratelimit.NewRedisClient(s.config.Redis.URL)
	if err != nil {
		return nil, err
	}
	s.rdb = rdb

	// An unreachable Redis at boot is logged, not fatal: the limiter fails
	// open per request until it comes back.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		s.logger.Warn("redis unreachable at startup", slog.String("error", err.Error()))
	}
	s.logger.Info("rate limiter ready", slog.String("backend", "redis"))
	return ratelimit.NewRedis(rdb, cooldown), nil
}

func (s *Server) newAuthService() (*service.AuthService, error) {
	secret := s.config.Admin.SessionSecret
	if secret == "" {
		generated, err := auth.RandomSecret()
		if err != nil {
			return nil, err
		}
		secret = generated
		if s.config.Admin.Password != "" {
			s.logger.Warn("SESSION_SECRET not set, sessions will not survive a restart")
		}
	}

	tokens, err := auth.NewTokenService(secret, s.config.Admin.SessionTTL)
	if err != nil {
		return nil, err
	}
	passwords := auth.NewPasswordService(s.config.Admin.BcryptCost)

	authSvc, err := service.NewAuthService(s.config.Admin.Password, tokens, passwords, s.logger)
	if err != nil {
		return nil, err
	}
	if !authSvc.Configured() {
		s.logger.Warn("ADMIN_PASSWORD not set, moderation API is disabled")
	}
	return authSvc, nil
}

func (s *Server) setupRoutes(limiter ratelimit.Limiter) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	authSvc, err := s.newAuthService()
	if err != nil {
		return fmt.Errorf("creating auth service: %w", err)
	}

	timeout := s.config.DB.Timeout
	v := validation.New()

	submissions := service.NewSubmissionService(s.store, limiter, v, s.logger, timeout)
	reviews := service.NewReviewService(s.store, s.logger, timeout)
	tools := service.NewToolService(s.store, s.logger, timeout)
	ratings := service.NewRatingService(s.store, s.store, v, s.logger, timeout)

	submissionHandler := handler.NewSubmissionHandler(submissions, s.logger)
	toolHandler := handler.NewToolHandler(tools, ratings, s.logger)
	adminHandler := handler.NewAdminHandler(authSvc, reviews, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, authSvc.Configured())

	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/submissions", submissionHandler.HandleCreate)

		r.Get("/tools", toolHandler.HandleList)
		r.Get("/tools/{id}", toolHandler.HandleGet)
		r.Get("/tools/{id}/ratings", toolHandler.HandleListRatings)
		r.Post("/tools/{id}/ratings", toolHandler.HandleRate)
		r.Post("/tools/{id}/events", toolHandler.HandleEvent)
		r.Get("/categories", toolHandler.HandleCategories)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/session", adminHandler.HandleLogin)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireModerator(authSvc))
				r.Get("/submissions", adminHandler.HandleListPending)
				r.Get("/submissions/{id}", adminHandler.HandleGetSubmission)
				r.Post("/submissions/{id}/approve", adminHandler.HandleApprove)
				r.Post("/submissions/{id}/reject", adminHandler.HandleReject)
			})
		})
	})

	return nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases storage and the Redis client.
func (s *Server) Close() error {
	var errs []error
	if s.rdb != nil {
		errs = append(errs, s.rdb.Close())
	}
	if s.store != nil {
		errs = append(errs, s.store.Close())
	}
	return errors.Join(errs...)
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes storage.
func (s *Server) Start() error {
	defer s.Close()

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
			slog.String("storage", s.config.StorageDriver()),
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
