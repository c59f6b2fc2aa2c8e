package repositories

import (
	"context"
	"fmt"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/models"
	"gorm.io/gorm"
)

type GormDiagnosisRepository struct {
	db *gorm.DB
}

func NewGormDiagnosisRepository(db *gorm.DB) *GormDiagnosisRepository {
	return &GormDiagnosisRepository{db: db}
}

func (r *GormDiagnosisRepository) Create(ctx context.Context, d *models.Diagnosis) error {
	if err := r.db.WithContext(ctx).Create(d).Error; err != nil {
		return fmt.Errorf("failed to create diagnosis: %w", err)
	}
	return nil
}

func (r *GormDiagnosisRepository) ListByUser(ctx context.Context, userID string) ([]models.Diagnosis, error) {
	history := make([]models.Diagnosis, 0)
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&history).Error; err != nil {
		return nil, fmt.Errorf("failed to list diagnoses: %w", err)
	}
	return history, nil
}

// Ping checks the underlying sql.DB.
func (r *GormDiagnosisRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
