package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/repositories"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	store repositories.Pinger
}

func NewHealthHandler(store repositories.Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if h.store != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			slog.Error("health check: store ping failed", "request_id", requestID(c), "error", err.Error())
			dbStatus = "unhealthy"
		}
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
	})
}
