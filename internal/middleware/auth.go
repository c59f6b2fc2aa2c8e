package middleware

import (
	"errors"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/dto"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// LegacyTokenHeader is the header login responses carry the token in. Older
// clients send it back unchanged instead of using Authorization.
const LegacyTokenHeader = "auth-token"

func JWTProtected(cfg *config.Config) fiber.Handler {
	verify := jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(cfg.JWTSecret)},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: "Unauthorized: invalid or expired token",
				Kind:  string(apperr.KindUnauthorized),
			})
		},
	})

	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			if legacy := c.Get(LegacyTokenHeader); legacy != "" {
				c.Request().Header.Set(fiber.HeaderAuthorization, "Bearer "+legacy)
			}
		}
		return verify(c)
	}
}

// GetUserID extracts the subject of the verified token stored by JWTProtected.
func GetUserID(c *fiber.Ctx) (string, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return "", errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", errors.New("missing sub claim")
	}
	return sub, nil
}
