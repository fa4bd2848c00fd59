// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: New opens the stores, builds the services
// and handlers, and mounts them on a chi router. Start runs the listener
// and shuts it down gracefully on SIGINT/SIGTERM.
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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	red "github.com/redis/go-redis/v9"

	"github.com/MehvishSheikh/attendance-webapp/internal/auth"
	"github.com/MehvishSheikh/attendance-webapp/internal/config"
	"github.com/MehvishSheikh/attendance-webapp/internal/handler"
	"github.com/MehvishSheikh/attendance-webapp/internal/middleware"
	"github.com/MehvishSheikh/attendance-webapp/internal/repository"
	redisRepo "github.com/MehvishSheikh/attendance-webapp/internal/repository/redis"
	sqliteRepo "github.com/MehvishSheikh/attendance-webapp/internal/repository/sqlite"
	"github.com/MehvishSheikh/attendance-webapp/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection and, when configured, the Redis
// client. Both are closed by Close, which Start calls on the way out.
type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	redis    *red.Client
	registry *prometheus.Registry

	authService *service.AuthService
}

// New creates a new Server with the given config.
//
// Wiring order:
//  1. sqlite.DB (users, locations, attendance, default denylist)
//  2. optional Redis denylist
//  3. token + password services → AuthService, AttendanceService, AdminService
//  4. handlers → routes
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		registry: prometheus.NewRegistry(),
	}

	var denylist repository.TokenDenylist = db
	if cfg.RedisAddr != "" {
		client, err := redisRepo.Connect(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		s.redis = client
		denylist = redisRepo.NewDenylist(client, "")
		logger.Info("token denylist backed by redis", slog.String("addr", cfg.RedisAddr))
	}

	if err := s.setupRoutes(denylist); err != nil {
		s.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
// POST   /api/auth/register                  → create account, set cookie
// POST   /api/auth/login                     → verify password, set cookie
// POST   /api/auth/logout                    → revoke token, clear cookie
// GET    /api/auth/me, /api/auth/user        → current user          [token]
// GET    /api/attendance/status              → today's state         [user]
// POST   /api/attendance/checkin             → open today's session  [user]
// POST   /api/attendance/checkout            → close it              [user]
// GET    /api/attendance/history             → own records           [user]
// GET    /api/locations                      → office list
// GET    /api/health                         → liveness + DB ping
// GET    /api/admin/users[/{id}]             → user directory        [admin]
// DELETE /api/admin/users/{id}               → cascade delete        [admin]
// GET    /api/admin/attendance[/{id}]        → attendance records    [admin]
// GET    /api/admin/attendance/export/{id}   → monthly CSV           [admin]
// GET    /metrics                            → Prometheus scrape
//
// Admin routes only require a resolved user here; the admin check itself
// happens in AdminService so a non-admin gets 403 before any validation.
func (s *Server) setupRoutes(denylist repository.TokenDenylist) error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	cookies := auth.Cookies{Secure: s.config.CookieSecure}
	zone := s.config.Location

	s.authService = service.NewAuthService(s.db, denylist, tokens, auth.NewPasswordService(), s.logger)
	geo := service.NewGeoResolver(s.db)
	ledger := service.NewAttendanceService(s.db, s.db, geo, zone, s.logger)
	admin := service.NewAdminService(s.db, s.db, zone, s.logger)

	gate := auth.NewGate(s.authService, cookies)
	authHandler := handler.NewAuthHandler(s.authService, cookies, s.logger)
	attendanceHandler := handler.NewAttendanceHandler(ledger, s.logger)
	adminHandler := handler.NewAdminHandler(admin, zone, s.logger)
	healthHandler := handler.NewHealthHandler(s.db, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.CORS(s.config.CORSAllowedOrigins))

	if s.config.MetricsEnabled {
		metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: s.registry})
		if err != nil {
			return fmt.Errorf("creating http metrics: %w", err)
		}
		s.router.Use(metrics.Handler)
		s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HandleHealth)
		r.Get("/locations", attendanceHandler.HandleLocations)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)

			r.Group(func(r chi.Router) {
				r.Use(gate.RequireToken)
				r.Get("/me", authHandler.HandleMe)
				r.Get("/user", authHandler.HandleMe)
			})
		})

		r.Route("/attendance", func(r chi.Router) {
			r.Use(gate.RequireUser)
			r.Get("/status", attendanceHandler.HandleStatus)
			r.Post("/checkin", attendanceHandler.HandleCheckIn)
			r.Post("/checkout", attendanceHandler.HandleCheckOut)
			r.Get("/history", attendanceHandler.HandleHistory)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(gate.RequireUser)
			r.Get("/users", adminHandler.HandleListUsers)
			r.Get("/users/{id}", adminHandler.HandleGetUser)
			r.Delete("/users/{id}", adminHandler.HandleDeleteUser)
			r.Get("/attendance", adminHandler.HandleListAttendance)
			r.Get("/attendance/{id}", adminHandler.HandleUserAttendance)
			r.Get("/attendance/export/{id}", adminHandler.HandleExport)
		})
	})

	// === Static Files ===
	// Optional: the front-end bundle can be served from the same origin.
	if s.config.StaticDir != "" {
		s.router.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}

	return nil
}

// Handler returns the fully wired router. Tests drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SeedAdmin creates the configured admin account if it does not exist yet.
func (s *Server) SeedAdmin(ctx context.Context) error {
	return s.authService.SeedAdmin(ctx, s.config.AdminName, s.config.AdminEmail, s.config.AdminPassword)
}

// Close releases the database and Redis connections.
func (s *Server) Close() error {
	var errs []error
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", err))
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing database: %w", err))
	}
	return errors.Join(errs...)
}

// Start starts the HTTP server and handles graceful shutdown.
//
// On SIGINT/SIGTERM it stops accepting connections, waits up to 30s for
// in-flight requests, then closes the stores.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("closing resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("timezone", s.config.Location.String()),
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

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
