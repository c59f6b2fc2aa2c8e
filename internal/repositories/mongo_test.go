package repositories

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestUserDocument_RoundTrip(t *testing.T) {
	u := &models.User{ID: uuid.New(), Username: "ravi", Email: "ravi@example.com", Password: "hash", CreatedAt: time.Unix(100, 0).UTC()}

	got, err := toUserDocument(u).toModel()
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, u.Email, got.Email)
	assert.Equal(t, u.Password, got.Password)

	_, err = userDocument{ID: "not-a-uuid"}.toModel()
	assert.Error(t, err)
}

func TestDiagnosisDocument_RoundTrip(t *testing.T) {
	d := &models.Diagnosis{
		ID:               uuid.New(),
		UserID:           "u1",
		Symptoms:         "cough",
		PredictedDisease: "Common Cold",
		ConfidenceScore:  "85%",
		Medicines:        "Paracetamol, Cetirizine",
		RawResponse:      []byte(`{"disease":"Common Cold"}`),
		Date:             time.Unix(200, 0).UTC(),
	}

	got, err := toDiagnosisDocument(d).toModel()
	require.NoError(t, err)
	assert.Equal(t, *d, got)
}

func TestDiagnosisDocument_InvalidID(t *testing.T) {
	// An ObjectId hex string is not a uuid and must not decode to the zero id.
	_, err := diagnosisDocument{ID: "65f1c2a9e4b0a1b2c3d4e5f6", UserID: "u1"}.toModel()
	assert.Error(t, err)
}

func TestMongoDocuments_UseCamelCaseFields(t *testing.T) {
	raw, err := bson.Marshal(toDiagnosisDocument(&models.Diagnosis{ID: uuid.New(), UserID: "u1", Date: time.Unix(200, 0).UTC()}))
	require.NoError(t, err)
	var diag bson.M
	require.NoError(t, bson.Unmarshal(raw, &diag))
	for _, key := range []string{"_id", "userId", "symptoms", "predictedDisease", "confidenceScore", "advice", "medicines", "date"} {
		assert.Contains(t, diag, key)
	}
	assert.NotContains(t, diag, "user_id")

	raw, err = bson.Marshal(toUserDocument(&models.User{ID: uuid.New(), Username: "ravi", Email: "ravi@example.com"}))
	require.NoError(t, err)
	var user bson.M
	require.NoError(t, bson.Unmarshal(raw, &user))
	for _, key := range []string{"_id", "username", "email", "password"} {
		assert.Contains(t, user, key)
	}
}
