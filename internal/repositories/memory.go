package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/models"
)

// MemoryStore keeps users and diagnoses in process memory. It backs
// DB_DRIVER=memory for local runs and is used by tests.
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]models.User
	diagnoses []models.Diagnosis
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]models.User)}
}

func (s *MemoryStore) Users() *MemoryUserRepository {
	return &MemoryUserRepository{s: s}
}

func (s *MemoryStore) Diagnoses() *MemoryDiagnosisRepository {
	return &MemoryDiagnosisRepository{s: s}
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

type MemoryUserRepository struct {
	s *MemoryStore
}

func (r *MemoryUserRepository) Create(_ context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.users[user.Email]; ok {
		return ErrDuplicate
	}
	r.s.users[user.Email] = *user
	return nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	user, ok := r.s.users[email]
	if !ok {
		return nil, ErrNotFound
	}
	return &user, nil
}

type MemoryDiagnosisRepository struct {
	s *MemoryStore
}

func (r *MemoryDiagnosisRepository) Create(_ context.Context, d *models.Diagnosis) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.diagnoses = append(r.s.diagnoses, *d)
	return nil
}

func (r *MemoryDiagnosisRepository) ListByUser(_ context.Context, userID string) ([]models.Diagnosis, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	history := make([]models.Diagnosis, 0)
	for _, d := range r.s.diagnoses {
		if d.UserID == userID {
			history = append(history, d)
		}
	}
	sort.SliceStable(history, func(i, j int) bool {
		return history[i].Date.After(history[j].Date)
	})
	return history, nil
}
