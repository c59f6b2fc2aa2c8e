package middleware

import (
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/config"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func CORS(cfg *config.Config) fiber.Handler {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, " + LegacyTokenHeader,
		AllowMethods:     "GET, POST, OPTIONS",
		ExposeHeaders:    LegacyTokenHeader,
		AllowCredentials: false,
	})
}
