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

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/ai"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/services"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	cfg := config.Load()

	// Structured logging (JSON to stdout)
	logging.Setup(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// Storage
	st, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("database connection failed", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch) and 30-day retention
	var pgLogHandler *logging.PGHandler
	cleanupDone := make(chan struct{})
	if cfg.DBDriver == config.DriverPostgres {
		pgLogHandler = logging.NewPGHandler(database.DB)
		slog.SetDefault(slog.New(logging.NewMultiHandler(
			logging.NewStdoutHandler(cfg.AppEnv),
			pgLogHandler,
		)))
		logging.StartCleanup(database.DB, logging.DefaultRetention, cleanupDone)
	}

	// Shared rate limiter state
	var limiterStorage fiber.Storage
	rdb, err := database.ConnectRedis(ctx, cfg)
	if err != nil {
		slog.Warn("redis unavailable, rate limits are per instance", "error", err)
	} else if rdb != nil {
		limiterStorage = middleware.NewRedisStorage(rdb)
	}

	// AI provider
	if cfg.GroqAPIKey == "" {
		slog.Warn("GROQ_API_KEY is not set; /api/analyze will fail")
	}
	groq := ai.NewGroqClient(cfg)

	// Services
	authService := services.NewAuthService(st.users, cfg)
	diagnosisService := services.NewDiagnosisService(st.diagnoses, groq)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	diagnosisHandler := handlers.NewDiagnosisHandler(diagnosisService, cfg.RequireAuth)
	healthHandler := handlers.NewHealthHandler(st.pinger)

	if !cfg.RequireAuth {
		slog.Warn("REQUIRE_AUTH is off; diagnosis endpoints accept any userId")
	}

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
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path} | ${locals:requestid}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Routes
	routes.Setup(app, cfg, limiterStorage, authHandler, diagnosisHandler, healthHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "driver", cfg.DBDriver, "model", groq.Model())
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	if pgLogHandler != nil {
		pgLogHandler.Stop()
	}
	sentry.Flush(2 * time.Second)

	if rdb != nil {
		if err := rdb.Close(); err != nil {
			slog.Error("redis close error", "error", err)
		}
	}

	closeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := st.close(closeCtx); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
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

	return c.Status(code).JSON(dto.ErrorResponse{Error: message})
}
