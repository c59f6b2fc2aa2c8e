package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/medai-backend/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection     = "users"
	diagnosesCollection = "diagnoses"
)

// Field names follow the camelCase layout of the earlier mongoose collections.
// Ids are uuid strings, so a database holding ObjectId ids must be migrated
// before it is used here.
type userDocument struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	CreatedAt time.Time `bson:"createdAt,omitempty"`
	UpdatedAt time.Time `bson:"updatedAt,omitempty"`
}

type diagnosisDocument struct {
	ID               string    `bson:"_id"`
	UserID           string    `bson:"userId"`
	Symptoms         string    `bson:"symptoms"`
	PredictedDisease string    `bson:"predictedDisease"`
	ConfidenceScore  string    `bson:"confidenceScore"`
	Advice           string    `bson:"advice"`
	Medicines        string    `bson:"medicines"`
	Model            string    `bson:"model,omitempty"`
	RawResponse      string    `bson:"rawResponse,omitempty"`
	Date             time.Time `bson:"date"`
}

func toUserDocument(u *models.User) userDocument {
	return userDocument{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Password:  u.Password,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (d userDocument) toModel() (*models.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", d.ID, err)
	}
	return &models.User{
		ID:        id,
		Username:  d.Username,
		Email:     d.Email,
		Password:  d.Password,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}, nil
}

func toDiagnosisDocument(d *models.Diagnosis) diagnosisDocument {
	return diagnosisDocument{
		ID:               d.ID.String(),
		UserID:           d.UserID,
		Symptoms:         d.Symptoms,
		PredictedDisease: d.PredictedDisease,
		ConfidenceScore:  d.ConfidenceScore,
		Advice:           d.Advice,
		Medicines:        d.Medicines,
		Model:            d.Model,
		RawResponse:      string(d.RawResponse),
		Date:             d.Date,
	}
}

func (d diagnosisDocument) toModel() (models.Diagnosis, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return models.Diagnosis{}, fmt.Errorf("invalid diagnosis id %q: %w", d.ID, err)
	}
	return models.Diagnosis{
		ID:               id,
		UserID:           d.UserID,
		Symptoms:         d.Symptoms,
		PredictedDisease: d.PredictedDisease,
		ConfidenceScore:  d.ConfidenceScore,
		Advice:           d.Advice,
		Medicines:        d.Medicines,
		Model:            d.Model,
		RawResponse:      []byte(d.RawResponse),
		Date:             d.Date,
	}, nil
}

type MongoUserRepository struct {
	coll *mongo.Collection
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: db.Collection(usersCollection)}
}

func (r *MongoUserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, toUserDocument(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return doc.toModel()
}

type MongoDiagnosisRepository struct {
	coll   *mongo.Collection
	client *mongo.Client
}

func NewMongoDiagnosisRepository(db *mongo.Database) *MongoDiagnosisRepository {
	return &MongoDiagnosisRepository{coll: db.Collection(diagnosesCollection), client: db.Client()}
}

func (r *MongoDiagnosisRepository) Create(ctx context.Context, d *models.Diagnosis) error {
	if _, err := r.coll.InsertOne(ctx, toDiagnosisDocument(d)); err != nil {
		return fmt.Errorf("failed to create diagnosis: %w", err)
	}
	return nil
}

func (r *MongoDiagnosisRepository) ListByUser(ctx context.Context, userID string) ([]models.Diagnosis, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list diagnoses: %w", err)
	}

	var docs []diagnosisDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode diagnoses: %w", err)
	}

	history := make([]models.Diagnosis, 0, len(docs))
	for _, doc := range docs {
		d, err := doc.toModel()
		if err != nil {
			slog.Warn("skipping unreadable diagnosis", "user_id", userID, "action", "history", "error", err.Error())
			continue
		}
		history = append(history, d)
	}
	return history, nil
}

func (r *MongoDiagnosisRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// EnsureMongoIndexes creates the unique email index and the history index.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}
	if _, err := db.Collection(diagnosesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create diagnoses index: %w", err)
	}
	return nil
}
