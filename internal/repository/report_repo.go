package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// StoredReport is the report state kept on a purchase
type StoredReport struct {
	PublicID    string     `bson:"publicId"`
	SurveyID    string     `bson:"surveyId"`
	PurchaserID string     `bson:"purchaserId"`
	Report      string     `bson:"reportCache"`
	GeneratedAt *time.Time `bson:"reportGenerated,omitempty"`
}

// ReportRepo handles MongoDB operations for generated reports
type ReportRepo interface {
	Save(ctx context.Context, publicID, report string, generatedAt time.Time) error
	Get(ctx context.Context, publicID string) (*StoredReport, error)
}

type reportRepo struct {
	purchases *mongo.Collection
}

// NewReportRepo creates a new report repository
func NewReportRepo(db *mongo.Database) ReportRepo {
	return &reportRepo{
		purchases: db.Collection("purchases"),
	}
}

// Save writes the serialized report and its timestamp in one update, so
// readers never see one without the other.
func (r *reportRepo) Save(ctx context.Context, publicID, report string, generatedAt time.Time) error {
	update := bson.M{"$set": bson.M{
		"reportCache":     report,
		"reportGenerated": generatedAt,
		"updatedAt":       generatedAt,
	}}
	result, err := r.purchases.UpdateOne(ctx, bson.M{"publicId": publicID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *reportRepo) Get(ctx context.Context, publicID string) (*StoredReport, error) {
	opts := options.FindOne().SetProjection(bson.M{
		"publicId":        1,
		"surveyId":        1,
		"purchaserId":     1,
		"reportCache":     1,
		"reportGenerated": 1,
	})

	var stored StoredReport
	err := r.purchases.FindOne(ctx, bson.M{"publicId": publicID}, opts).Decode(&stored)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
