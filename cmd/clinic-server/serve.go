package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/smarthealth/clinic/internal/config"
	"github.com/smarthealth/clinic/internal/domain/availability"
	"github.com/smarthealth/clinic/internal/domain/booking"
	"github.com/smarthealth/clinic/internal/domain/directory"
	"github.com/smarthealth/clinic/internal/domain/symptom"
	"github.com/smarthealth/clinic/internal/platform/auth"
	"github.com/smarthealth/clinic/internal/platform/cache"
	"github.com/smarthealth/clinic/internal/platform/db"
	"github.com/smarthealth/clinic/internal/platform/middleware"
	"github.com/smarthealth/clinic/internal/platform/notification"
	"github.com/smarthealth/clinic/internal/platform/validate"
)

const version = "0.1.0"

const reminderRunTimeout = 5 * time.Minute

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the clinic API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

// services are the domain entry points the HTTP layer routes to.
type services struct {
	directory    *directory.Service
	availability *availability.Service
	booking      *booking.Engine
	appointments booking.Repository
	symptoms     *symptom.Service
}

// wireServices builds the domain layer on top of pool. store may be nil.
func wireServices(cfg *config.Config, logger zerolog.Logger, pool *pgxpool.Pool, store cache.Store, loc *time.Location) services {
	dir := directory.NewService(
		directory.NewUserRepoPG(pool),
		directory.NewDoctorRepoPG(pool),
		directory.NewPatientRepoPG(pool),
		func(ctx context.Context, fn func(context.Context) error) error { return db.RunInTx(ctx, pool, fn) },
	)

	apptRepo := booking.NewRepoPG(pool)
	if store != nil {
		apptRepo = booking.WithBookedSlotCache(apptRepo, store, logger)
	}
	engine := booking.NewEngine(apptRepo, dir,
		booking.WithClock(booking.NewClock(loc, nil)),
		booking.WithWindowDays(cfg.BookingWindowDays),
	)

	analyzer := symptom.NewAnalyzer(symptom.LoadKnowledgeBase(cfg.SymptomsPath, logger))

	return services{
		directory:    dir,
		availability: availability.NewService(availability.NewRepoPG(pool)),
		booking:      engine,
		appointments: apptRepo,
		symptoms:     symptom.NewService(analyzer, symptom.NewRepoPG(pool), dir, logger),
	}
}

// newServer assembles the echo instance: middleware stack, health endpoints
// and the /api/v1 routes.
func newServer(cfg *config.Config, logger zerolog.Logger, svc services, dbHealth echo.HandlerFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.EchoValidator{}

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
	}))
	e.Use(middleware.SecurityHeaders())
	e.Use(echomw.BodyLimit("1M"))
	e.Use(middleware.RequestTimeout(cfg.RequestTimeout))

	// Auth middleware
	if cfg.IsDev() {
		e.Use(auth.DevAuthMiddleware())
	} else {
		e.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": version,
		})
	})
	if dbHealth != nil {
		e.GET("/health/db", dbHealth)
	}

	apiV1 := e.Group("/api/v1")
	rateLimitCfg := middleware.DefaultRateLimitConfig()
	if cfg.RateLimitRPS > 0 {
		rateLimitCfg.RequestsPerSecond = cfg.RateLimitRPS
	}
	if cfg.RateLimitBurst > 0 {
		rateLimitCfg.BurstSize = cfg.RateLimitBurst
	}
	apiV1.Use(middleware.RateLimit(rateLimitCfg))

	directory.NewHandler(svc.directory).RegisterRoutes(apiV1)
	availability.NewHandler(svc.availability, svc.directory).RegisterRoutes(apiV1)
	booking.NewHandler(svc.booking, svc.directory).RegisterRoutes(apiV1)
	symptom.NewHandler(svc.symptoms).RegisterRoutes(apiV1)

	return e
}

// startReminders schedules the reminder job when SMTP is configured. The
// returned stop function is never nil.
func startReminders(cfg *config.Config, logger zerolog.Logger, svc services, loc *time.Location) (func(), error) {
	if !cfg.SMTPEnabled() {
		logger.Info().Msg("SMTP not configured, appointment reminders disabled")
		return func() {}, nil
	}

	sender := notification.NewSMTPSender(notification.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	mgr := notification.NewManager(sender, notification.NewTemplateEngine())

	job := booking.NewReminderJob(svc.appointments, svc.directory, svc.directory, mgr, svc.booking.Clock(), logger)

	c := cron.New(cron.WithLocation(loc))
	if _, err := job.Schedule(c, cfg.ReminderCron, reminderRunTimeout); err != nil {
		return nil, fmt.Errorf("schedule reminders: %w", err)
	}
	c.Start()
	logger.Info().Str("schedule", cfg.ReminderCron).Msg("appointment reminders scheduled")

	return func() { <-c.Stop().Done() }, nil
}

func runServer() error {
	logger := newLogger()

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.IsDev() {
		logger.Warn().Msg("ENV=development: identity is taken from X-Dev-User-ID / X-Dev-Role headers, do not expose this server")
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid clinic timezone")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Optional Redis cache for booked-slot lookups
	var store cache.Store
	checks := map[string]db.Checker{}
	if cfg.RedisURL != "" {
		rs, err := cache.NewRedisStore(ctx, cfg.RedisURL, "clinic:")
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, booked-slot cache disabled")
		} else {
			defer rs.Close()
			store = rs
			checks["redis"] = rs.Ping
			logger.Info().Msg("connected to redis")
		}
	}

	svc := wireServices(cfg, logger, pool, store, loc)
	e := newServer(cfg, logger, svc, db.HealthHandler(pool, checks))

	stopReminders, err := startReminders(cfg, logger, svc, loc)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to start reminders")
	}

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Str("version", version).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	stopReminders()
	logger.Info().Msg("server stopped")
	return nil
}
