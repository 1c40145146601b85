package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/bluefin/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUsageRepository implements domain.UsageRepository
type MongoUsageRepository struct {
	collection *mongo.Collection
}

func NewMongoUsageRepository(db *mongo.Database) *MongoUsageRepository {
	coll := db.Collection("usage")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}},
	})

	return &MongoUsageRepository{
		collection: coll,
	}
}

func (r *MongoUsageRepository) Create(ctx context.Context, usage *domain.Usage) error {
	if usage.Date.IsZero() {
		usage.Date = time.Now().UTC()
	}
	if usage.TestType == "" {
		usage.TestType = domain.UsageTestAutomatic
	}
	objID := primitive.NewObjectID()

	doc := bson.M{
		"_id":            objID,
		"user_id":        usage.UserID,
		"date":           usage.Date,
		"data_used":      usage.DataUsed,
		"upload_speed":   usage.UploadSpeed,
		"download_speed": usage.DownloadSpeed,
		"ping":           usage.Ping,
		"test_type":      usage.TestType,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to record usage: %w", err)
	}
	usage.ID = objID.Hex()
	return nil
}

// GetRecentByUserID returns up to limit samples, newest first
func (r *MongoUsageRepository) GetRecentByUserID(ctx context.Context, userID string, limit int64) ([]*domain.Usage, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}}).
		SetLimit(limit)
	return r.find(ctx, bson.M{"user_id": userID}, opts)
}

// GetSince returns every sample at or after since
func (r *MongoUsageRepository) GetSince(ctx context.Context, userID string, since time.Time) ([]*domain.Usage, error) {
	filter := bson.M{
		"user_id": userID,
		"date":    bson.M{"$gte": since},
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
}

func (r *MongoUsageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Usage, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list usage: %w", err)
	}
	defer cursor.Close(ctx)

	samples := []*domain.Usage{}
	if err := cursor.All(ctx, &samples); err != nil {
		return nil, fmt.Errorf("failed to decode usage: %w", err)
	}
	return samples, nil
}
