package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	limiterStorage fiber.Storage,
	authHandler *handlers.AuthHandler,
	diagnosisHandler *handlers.DiagnosisHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return "api:" + c.IP() },
		Storage:           limiterStorage,
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return "auth:" + c.IP() },
		Storage:           limiterStorage,
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	// With REQUIRE_AUTH off the analyze endpoints accept any userId.
	analyze := api.Group("/analyze")
	if cfg.RequireAuth {
		analyze.Use(middleware.JWTProtected(cfg))
	}
	analyze.Post("/", diagnosisHandler.Analyze)
	analyze.Get("/history/:userId", diagnosisHandler.History)
}
