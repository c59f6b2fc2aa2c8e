package handlers

import (
	"strings"
	"unicode/utf8"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/services"
	"github.com/gofiber/fiber/v2"
)

const maxSymptomsLength = 4000

type DiagnosisHandler struct {
	diagnosisService *services.DiagnosisService
	requireAuth      bool
}

func NewDiagnosisHandler(diagnosisService *services.DiagnosisService, requireAuth bool) *DiagnosisHandler {
	return &DiagnosisHandler{diagnosisService: diagnosisService, requireAuth: requireAuth}
}

func (h *DiagnosisHandler) Analyze(c *fiber.Ctx) error {
	var req dto.AnalyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if utf8.RuneCountInString(req.Symptoms) > maxSymptomsLength {
		return badRequest(c, "Symptoms text is too long")
	}
	req.UserID = strings.TrimSpace(req.UserID)

	if err := h.authorize(c, req.UserID); err != nil {
		return writeError(c, err)
	}

	resp, err := h.diagnosisService.Analyze(c.UserContext(), req.UserID, req.Symptoms)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(resp)
}

func (h *DiagnosisHandler) History(c *fiber.Ctx) error {
	userID := strings.TrimSpace(c.Params("userId"))

	if err := h.authorize(c, userID); err != nil {
		return writeError(c, err)
	}

	history, err := h.diagnosisService.History(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(history)
}

// authorize requires the verified token subject to match userID. An empty
// userID is left for the service to reject as a validation error.
func (h *DiagnosisHandler) authorize(c *fiber.Ctx, userID string) error {
	if !h.requireAuth || userID == "" {
		return nil
	}
	sub, err := middleware.GetUserID(c)
	if err != nil {
		return apperr.Wrap(apperr.KindUnauthorized, "Unauthorized", err)
	}
	if sub != userID {
		return apperr.New(apperr.KindForbidden, "Token does not belong to this user")
	}
	return nil
}
