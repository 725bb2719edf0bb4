package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Marysia-Software-Limited/multilingual-mezzanine/internal/model"
)

type PurchaseRepo interface {
	Create(ctx context.Context, purchase *model.Purchase) error
	GetByPublicID(ctx context.Context, publicID string) (*model.Purchase, error)
	ListByPurchaser(ctx context.Context, purchaserID string, status model.PurchaseStatus) ([]*model.Purchase, error)
	HasSurvey(ctx context.Context, surveyID string) (bool, error)
	EnsureIndexes(ctx context.Context) error
}

type purchaseRepo struct {
	collection *mongo.Collection
}

func NewPurchaseRepo(db *mongo.Database) PurchaseRepo {
	return &purchaseRepo{
		collection: db.Collection("purchases"),
	}
}

func (r *purchaseRepo) EnsureIndexes(ctx context.Context) error {
	if err := createIndex(ctx, r.collection, bson.D{{Key: "publicId", Value: 1}}, true); err != nil {
		return err
	}
	if err := createIndex(ctx, r.collection, bson.D{{Key: "surveyId", Value: 1}}, false); err != nil {
		return err
	}
	return createIndex(ctx, r.collection, bson.D{
		{Key: "purchaserId", Value: 1},
		{Key: "createdAt", Value: -1},
	}, false)
}

// Create assigns the public ID and timestamps, then inserts the purchase
func (r *purchaseRepo) Create(ctx context.Context, purchase *model.Purchase) error {
	if purchase.PublicID == "" {
		purchase.PublicID = uuid.New().String()
	}
	purchase.ID = ""
	purchase.CreatedAt = time.Now()
	purchase.UpdatedAt = purchase.CreatedAt

	result, err := r.collection.InsertOne(ctx, purchase)
	if err != nil {
		return err
	}

	purchase.ID = insertedHex(result)
	return nil
}

func (r *purchaseRepo) GetByPublicID(ctx context.Context, publicID string) (*model.Purchase, error) {
	var purchase model.Purchase
	err := r.collection.FindOne(ctx, bson.M{"publicId": publicID}).Decode(&purchase)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil // Purchase not found
		}
		return nil, err
	}

	return &purchase, nil
}

// ListByPurchaser returns the newest purchases first
func (r *purchaseRepo) ListByPurchaser(ctx context.Context, purchaserID string, status model.PurchaseStatus) ([]*model.Purchase, error) {
	filter := bson.M{"purchaserId": purchaserID}
	switch status {
	case model.PurchaseStatusOpen:
		filter["reportGenerated"] = nil
	case model.PurchaseStatusClosed:
		filter["reportGenerated"] = bson.M{"$ne": nil}
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	purchases := []*model.Purchase{}
	if err := cursor.All(ctx, &purchases); err != nil {
		return nil, err
	}
	return purchases, nil
}

// HasSurvey reports whether any purchase of the survey exists
func (r *purchaseRepo) HasSurvey(ctx context.Context, surveyID string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})
	err := r.collection.FindOne(ctx, bson.M{"surveyId": surveyID}, opts).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
