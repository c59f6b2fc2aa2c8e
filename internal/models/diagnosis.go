package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Diagnosis is one persisted AI consultation. UserID is a weak reference to
// User: it is not validated on write and may point at nothing.
type Diagnosis struct {
	ID               uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"_id"`
	UserID           string         `gorm:"size:64;not null;index:idx_diagnoses_user_date,priority:1" json:"userId"`
	Symptoms         string         `gorm:"type:text" json:"symptoms"`
	PredictedDisease string         `gorm:"size:255" json:"predictedDisease"`
	ConfidenceScore  string         `gorm:"size:64" json:"confidenceScore"`
	Advice           string         `gorm:"type:text" json:"advice"`
	Medicines        string         `gorm:"type:text" json:"medicines"`
	Model            string         `gorm:"size:100" json:"-"`
	RawResponse      datatypes.JSON `gorm:"type:jsonb;default:'{}'" json:"-"`
	Date             time.Time      `gorm:"not null;index:idx_diagnoses_user_date,priority:2,sort:desc" json:"date"`
}

func (Diagnosis) TableName() string {
	return "diagnoses"
}
