package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/ai"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/apperr"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/repositories"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const recordTimeout = 5 * time.Second

var ErrMissingAnalyzeInput = apperr.New(apperr.KindValidation, "Missing userId or symptoms")

type DiagnosisService struct {
	diagnoses repositories.DiagnosisRepository
	ai        ai.Diagnoser
	now       func() time.Time
}

func NewDiagnosisService(diagnoses repositories.DiagnosisRepository, diagnoser ai.Diagnoser) *DiagnosisService {
	return &DiagnosisService{diagnoses: diagnoses, ai: diagnoser, now: time.Now}
}

// Analyze asks the AI collaborator for a diagnosis and returns it. Saving the
// result is best-effort: a failed write is logged and never reaches the caller.
func (s *DiagnosisService) Analyze(ctx context.Context, userID, symptoms string) (*dto.AnalyzeResponse, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || strings.TrimSpace(symptoms) == "" {
		return nil, ErrMissingAnalyzeInput
	}

	start := s.now()
	diagnosis, err := s.ai.Diagnose(ctx, symptoms)
	if err != nil {
		slog.Error("AI diagnosis failed",
			"user_id", userID,
			"action", "analyze",
			"error", err.Error(),
			"latency_ms", float64(s.now().Sub(start).Milliseconds()),
		)
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.KindAIService, "AI request failed", err)
	}

	if err := s.recordBestEffort(ctx, userID, symptoms, diagnosis); err != nil {
		slog.Warn("diagnosis not saved", "user_id", userID, "action", "analyze", "error", err.Error())
	}

	return &dto.AnalyzeResponse{
		Disease:     diagnosis.Disease,
		Probability: diagnosis.Probability,
		Advice:      diagnosis.Advice,
		Medicines:   diagnosis.Medicines,
	}, nil
}

// recordBestEffort persists the result detached from the request's
// cancellation, so a client hanging up does not drop the record.
func (s *DiagnosisService) recordBestEffort(ctx context.Context, userID, symptoms string, d *ai.Diagnosis) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()

	raw := []byte(d.Raw)
	if !json.Valid(raw) {
		raw, _ = json.Marshal(d.Result)
	}

	return s.diagnoses.Create(ctx, &models.Diagnosis{
		ID:               uuid.New(),
		UserID:           userID,
		Symptoms:         symptoms,
		PredictedDisease: d.Disease,
		ConfidenceScore:  d.Probability,
		Advice:           d.Advice,
		Medicines:        d.Medicines,
		Model:            d.Model,
		RawResponse:      datatypes.JSON(raw),
		Date:             s.now(),
	})
}

// History lists a user's diagnoses, most recent first. No records is an
// empty slice, not an error.
func (s *DiagnosisService) History(ctx context.Context, userID string) ([]models.Diagnosis, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, apperr.New(apperr.KindValidation, "Missing userId")
	}

	history, err := s.diagnoses.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindStoreUnavailable, "Failed to fetch history", err)
	}
	if history == nil {
		history = []models.Diagnosis{}
	}
	return history, nil
}
