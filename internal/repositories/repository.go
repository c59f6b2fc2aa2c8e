// Package repositories holds the Credential Store and Diagnosis Store
// contracts and their postgres (gorm), mongo and in-memory implementations.
package repositories

import (
	"context"
	"errors"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type DiagnosisRepository interface {
	Create(ctx context.Context, d *models.Diagnosis) error
	// ListByUser returns the user's diagnoses, newest first.
	ListByUser(ctx context.Context, userID string) ([]models.Diagnosis, error)
}

// Pinger is implemented by stores that can report connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}
