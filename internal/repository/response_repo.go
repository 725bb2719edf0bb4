package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
)

// ResponseRepository stores survey submissions. Each submission is one
// document holding all of its answers.
type ResponseRepository interface {
	Create(ctx context.Context, response *model.SurveyResponse) error
	ListByPurchase(ctx context.Context, purchaseID string) ([]model.SurveyResponse, error)
	CountByPurchase(ctx context.Context, purchaseID string) (int64, error)
	EnsureIndexes(ctx context.Context) error
}

type responseRepository struct {
	collection *mongo.Collection
}

func NewResponseRepository(db *mongo.Database) ResponseRepository {
	return &responseRepository{
		collection: db.Collection("responses"),
	}
}

func (r *responseRepository) EnsureIndexes(ctx context.Context) error {
	return createIndex(ctx, r.collection, bson.D{
		{Key: "purchaseId", Value: 1},
		{Key: "createdAt", Value: 1},
	}, false)
}

func (r *responseRepository) Create(ctx context.Context, response *model.SurveyResponse) error {
	// Set creation timestamp if not set
	if response.CreatedAt.IsZero() {
		response.CreatedAt = time.Now()
	}
	response.ID = ""

	result, err := r.collection.InsertOne(ctx, response)
	if err != nil {
		return err
	}

	response.ID = insertedHex(result)
	return nil
}

// ListByPurchase returns submissions in the order they were made
func (r *responseRepository) ListByPurchase(ctx context.Context, purchaseID string) ([]model.SurveyResponse, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "createdAt", Value: 1},
		{Key: "_id", Value: 1},
	})
	cursor, err := r.collection.Find(ctx, bson.M{"purchaseId": purchaseID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []model.SurveyResponse
	if err = cursor.All(ctx, &responses); err != nil {
		return nil, err
	}

	return responses, nil
}

func (r *responseRepository) CountByPurchase(ctx context.Context, purchaseID string) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"purchaseId": purchaseID})
}
