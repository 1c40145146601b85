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

// MongoNotificationRepository implements domain.NotificationRepository
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	coll := db.Collection("notifications")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "read", Value: 1}}},
	})

	return &MongoNotificationRepository{
		collection: coll,
	}
}

func notificationDoc(n *domain.Notification, id primitive.ObjectID) bson.M {
	if n.Type == "" {
		n.Type = domain.NotificationTypeInfo
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	return bson.M{
		"_id":        id,
		"user_id":    n.UserID,
		"title":      n.Title,
		"message":    n.Message,
		"type":       n.Type,
		"link":       n.Link,
		"read":       false,
		"created_at": n.CreatedAt,
	}
}

func (r *MongoNotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	objID := primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, notificationDoc(n, objID)); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	n.ID = objID.Hex()
	n.Read = false
	return nil
}

func (r *MongoNotificationRepository) CreateMany(ctx context.Context, ns []*domain.Notification) error {
	if len(ns) == 0 {
		return nil
	}

	ids := make([]primitive.ObjectID, len(ns))
	docs := make([]interface{}, len(ns))
	for i, n := range ns {
		ids[i] = primitive.NewObjectID()
		docs[i] = notificationDoc(n, ids[i])
	}

	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	for i, n := range ns {
		n.ID = ids[i].Hex()
		n.Read = false
	}
	return nil
}

func (r *MongoNotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrNotificationNotFound
	}

	var n domain.Notification
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&n); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}
	return &n, nil
}

// GetRecentByUserID returns up to limit notifications, newest first
func (r *MongoNotificationRepository) GetRecentByUserID(ctx context.Context, userID string, limit int64) ([]*domain.Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer cursor.Close(ctx)

	notifications := []*domain.Notification{}
	if err := cursor.All(ctx, &notifications); err != nil {
		return nil, fmt.Errorf("failed to decode notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead is idempotent; marking an already-read notification succeeds
func (r *MongoNotificationRepository) MarkRead(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrNotificationNotFound
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": bson.M{"read": true}})
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (r *MongoNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result, err := r.collection.UpdateMany(ctx,
		bson.M{"user_id": userID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return result.ModifiedCount, nil
}

func (r *MongoNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
