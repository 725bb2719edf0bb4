package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
)

// ErrCodeUnavailable means the code does not exist for the survey or has no uses left
var ErrCodeUnavailable = errors.New("purchase code unavailable")

type PurchaseCodeRepo interface {
	Create(ctx context.Context, code *model.PurchaseCode) error
	ListBySurvey(ctx context.Context, surveyID string) ([]*model.PurchaseCode, error)
	Redeem(ctx context.Context, surveyID, code string) (*model.PurchaseCode, error)
	Release(ctx context.Context, surveyID, code string) error
	EnsureIndexes(ctx context.Context) error
}

type purchaseCodeRepo struct {
	collection *mongo.Collection
}

func NewPurchaseCodeRepo(db *mongo.Database) PurchaseCodeRepo {
	return &purchaseCodeRepo{
		collection: db.Collection("purchase_codes"),
	}
}

func (r *purchaseCodeRepo) EnsureIndexes(ctx context.Context) error {
	return createIndex(ctx, r.collection, bson.D{
		{Key: "surveyId", Value: 1},
		{Key: "code", Value: 1},
	}, true)
}

func (r *purchaseCodeRepo) Create(ctx context.Context, code *model.PurchaseCode) error {
	code.ID = ""
	code.CreatedAt = time.Now()

	result, err := r.collection.InsertOne(ctx, code)
	if err != nil {
		return err
	}

	code.ID = insertedHex(result)
	return nil
}

func (r *purchaseCodeRepo) ListBySurvey(ctx context.Context, surveyID string) ([]*model.PurchaseCode, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"surveyId": surveyID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	codes := []*model.PurchaseCode{}
	if err := cursor.All(ctx, &codes); err != nil {
		return nil, err
	}
	return codes, nil
}

// Redeem consumes one use in a single conditional update, so concurrent
// redemptions can never take a code below zero.
func (r *purchaseCodeRepo) Redeem(ctx context.Context, surveyID, code string) (*model.PurchaseCode, error) {
	filter := bson.M{
		"surveyId":      surveyID,
		"code":          code,
		"usesRemaining": bson.M{"$gt": 0},
	}
	update := bson.M{"$inc": bson.M{"usesRemaining": -1}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var redeemed model.PurchaseCode
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&redeemed)
	if err == mongo.ErrNoDocuments {
		return nil, ErrCodeUnavailable
	}
	if err != nil {
		return nil, err
	}
	return &redeemed, nil
}

// Release gives back a use taken by Redeem
func (r *purchaseCodeRepo) Release(ctx context.Context, surveyID, code string) error {
	filter := bson.M{"surveyId": surveyID, "code": code}
	update := bson.M{"$inc": bson.M{"usesRemaining": 1}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrCodeUnavailable
	}
	return nil
}
