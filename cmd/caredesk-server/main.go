package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/caredesk/caredesk/internal/config"
	"github.com/caredesk/caredesk/internal/domain/appointment"
	"github.com/caredesk/caredesk/internal/domain/directory"
	"github.com/caredesk/caredesk/internal/domain/identity"
	"github.com/caredesk/caredesk/internal/domain/timetable"
	"github.com/caredesk/caredesk/internal/platform/apperr"
	"github.com/caredesk/caredesk/internal/platform/auth"
	"github.com/caredesk/caredesk/internal/platform/db"
	"github.com/caredesk/caredesk/internal/platform/middleware"
)

// directoryAdapter exposes the directory service under the small
// interfaces the appointment ledger and timetable resolver depend on,
// avoiding circular imports between the domain packages.
type directoryAdapter struct {
	svc *directory.Service
}

func (a *directoryAdapter) DoctorExists(ctx context.Context, doctorID uuid.UUID) error {
	_, err := a.svc.Get(ctx, doctorID)
	return err
}

func (a *directoryAdapter) DoctorForUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	d, err := a.svc.GetByLinkedUser(ctx, userID)
	if err != nil {
		return uuid.Nil, err
	}
	return d.ID, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "caredesk-server",
		Short: "Appointment booking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			count, err := migrator.Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			migrator := db.NewMigrator(pool, dir)
			statuses, err := migrator.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				state, applied := "pending", "-"
				if s.Applied {
					state = "applied"
				}
				if s.AppliedAt != nil {
					applied = s.AppliedAt.Format(time.RFC3339)
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, state, applied)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func runServer() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler(logger)

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RateLimit(ctx, middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Repositories and services
	apptRepo := appointment.NewRepoPG(pool)
	dirRepo := directory.NewRepoPG(pool)
	userRepo := identity.NewRepoPG(pool)

	dirSvc := directory.NewService(dirRepo, apptRepo)
	resolver := &directoryAdapter{svc: dirSvc}

	policy := appointment.AnyTransition
	if cfg.StrictStatusTransitions {
		policy = appointment.StrictTransitions
	}
	apptSvc := appointment.NewService(apptRepo, resolver, policy, nil)

	ttResolver := timetable.NewResolver(timetable.NewStorePG(pool), resolver,
		cfg.TimetableRetentionDays, nil)

	jwtTTL := time.Duration(cfg.JWTTTLMinutes) * time.Minute
	idSvc := identity.NewService(userRepo, dirSvc, cfg.JWTSecret, jwtTTL, logger)

	// Route groups: public has no token check; the rest require a JWT.
	jwt := auth.JWTMiddleware(cfg.JWTSecret)
	public := e.Group("/api/v1")
	api := e.Group("/api/v1", jwt)
	doctorGroup := e.Group("/api/v1/doctor", jwt)
	adminGroup := e.Group("/api/v1/admin", jwt)

	identity.NewHandler(idSvc).RegisterRoutes(public, api)
	directory.NewHandler(dirSvc).RegisterRoutes(public, adminGroup)
	appointment.NewHandler(apptSvc, ttResolver).RegisterRoutes(api, doctorGroup, adminGroup)
	timetable.NewHandler(ttResolver).RegisterRoutes(public, doctorGroup)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"success": true, "status": "ok"})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// httpErrorHandler renders every error as the {success, message}
// envelope. Unexpected errors keep a generic message and get logged in
// full.
func httpErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := apperr.Status(err)
		msg := apperr.Message(err)
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			if m, ok := he.Message.(string); ok {
				msg = m
			}
		}
		if code >= http.StatusInternalServerError {
			logger.Error().Err(err).
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, echo.Map{"success": false, "message": msg})
	}
}
