package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/cache"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/events"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/screening"
	"github.com/ahmetcoskunkizilkaya/signal-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	level := logging.ParseLevel(cfg.AppEnv)
	stdout := logging.Setup(level)

	if cfg.JWTSecret == "" && cfg.JWTJWKSURL == "" {
		slog.Error("JWT_SECRET or JWT_JWKS_URL environment variable is required")
		os.Exit(1)
	}
	if cfg.DBDriver == "postgres" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// Database log sink (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(database.DB, stdout, 2*time.Second)
	logging.Setup(level, dbLogHandler)

	// System log retention
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	retention := logging.NewRetention(ctx, database.DB, cfg.LogRetentionDays)
	if err := retention.Start("0 30 3 * * *"); err != nil {
		slog.Error("log retention schedule failed", "error", err)
		os.Exit(1)
	}

	// Content screener
	rules, err := screening.LoadRules(cfg.ScreenerRulesPath)
	if err != nil {
		slog.Error("failed to load screener rules", "path", cfg.ScreenerRulesPath, "error", err)
		os.Exit(1)
	}
	screener, err := screening.New(rules)
	if err != nil {
		slog.Error("failed to build screener", "error", err)
		os.Exit(1)
	}

	reg := metrics.NewRegistry()

	// Profile cache
	var profileCache cache.ProfileCache
	switch cfg.CacheDriver {
	case "redis":
		rc, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.ProfileCacheTTL)
		if err != nil {
			slog.Error("redis connection failed", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		profileCache = rc
	default:
		profileCache = cache.NewMemoryCache(cfg.ProfileCacheTTL)
	}
	loader := cache.NewLoader(profileCache)

	// Moderation transition hooks
	hooks := []events.TransitionHook{reg}
	var publisher *events.NATSPublisher
	if cfg.NATSURL != "" {
		publisher, err = events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			slog.Error("nats connection failed", "url", cfg.NATSURL, "error", err)
			os.Exit(1)
		}
		hooks = append(hooks, publisher)
	}

	// Services
	signalService := services.NewSignalService(database.DB, cfg, screener, reg, hooks...)
	engagementService := services.NewEngagementService(database.DB, cfg, screener, reg)
	queryService := services.NewQueryService(database.X, cfg.DBQueryTimeout)
	settingsService := services.NewSettingsService(database.DB, cfg)
	statsService := services.NewStatsService(database.DB, database.X, cfg.DBQueryTimeout)
	inviteService := services.NewInviteService(database.DB, cfg, loader, reg, settingsService)
	reportService := services.NewReportService(signalService)
	profileService := services.NewProfileService(database.DB, cfg, loader)

	bootstrapAdmins(ctx, profileService, cfg.BootstrapAdminIDs)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})
	app.Use(reg.Middleware())

	// Routes
	routes.Setup(app, cfg, reg, profileService, routes.Handlers{
		Health:     handlers.NewHealthHandler(database.DB),
		Screen:     handlers.NewScreenHandler(screener, reg),
		Signal:     handlers.NewSignalHandler(signalService, engagementService, queryService),
		Engagement: handlers.NewEngagementHandler(engagementService),
		Invite:     handlers.NewInviteHandler(inviteService),
		Report:     handlers.NewReportHandler(reportService),
		Moderation: handlers.NewModerationHandler(signalService),
		Profile:    handlers.NewProfileHandler(profileService),
		Admin:      handlers.NewAdminHandler(statsService, settingsService),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	retention.Stop()
	if publisher != nil {
		publisher.Close()
	}
	if err := profileCache.Close(); err != nil {
		slog.Error("cache close error", "error", err)
	}
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// bootstrapAdmins seeds BOOTSTRAP_ADMIN_IDS on every start. Bad ids are
// logged and skipped.
func bootstrapAdmins(ctx context.Context, profiles *services.ProfileService, raw []string) {
	if len(raw) == 0 {
		return
	}
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			slog.Warn("skipping invalid bootstrap admin id", "value", s)
			continue
		}
		ids = append(ids, id)
	}
	if _, err := profiles.BootstrapAdmins(ctx, ids, ""); err != nil {
		slog.Error("admin bootstrap failed", "error", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
