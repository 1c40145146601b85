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

// MongoPaymentRepository implements domain.PaymentRepository
type MongoPaymentRepository struct {
	collection *mongo.Collection
}

// NewMongoPaymentRepository creates the payments repository.
// The partial unique index enforces at most one pending payment per (user, plan).
func NewMongoPaymentRepository(db *mongo.Database) *MongoPaymentRepository {
	coll := db.Collection("payments")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "plan_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_pending_user_plan").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": domain.PaymentStatusPending}),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "submitted_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "submitted_at", Value: -1}}},
	})

	return &MongoPaymentRepository{
		collection: coll,
	}
}

func (r *MongoPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if payment.SubmittedAt.IsZero() {
		payment.SubmittedAt = time.Now().UTC()
	}
	payment.Status = domain.PaymentStatusPending
	objID := primitive.NewObjectID()

	doc := bson.M{
		"_id":            objID,
		"user_id":        payment.UserID,
		"plan_id":        payment.PlanID,
		"amount":         payment.Amount,
		"screenshot":     payment.Screenshot,
		"screenshot_key": payment.ScreenshotKey,
		"status":         payment.Status,
		"admin_notes":    "",
		"submitted_at":   payment.SubmittedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicatePendingPayment
		}
		return fmt.Errorf("failed to create payment: %w", err)
	}
	payment.ID = objID.Hex()
	return nil
}

func (r *MongoPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPaymentNotFound
	}
	return r.findOne(ctx, bson.M{"_id": objID})
}

func (r *MongoPaymentRepository) GetPendingByUserAndPlan(ctx context.Context, userID, planID string) (*domain.Payment, error) {
	return r.findOne(ctx, bson.M{
		"user_id": userID,
		"plan_id": planID,
		"status":  domain.PaymentStatusPending,
	})
}

func (r *MongoPaymentRepository) findOne(ctx context.Context, filter bson.M) (*domain.Payment, error) {
	var raw bson.M
	if err := r.collection.FindOne(ctx, filter).Decode(&raw); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return mapBsonToPayment(raw), nil
}

// GetByUserID returns the user's payments, newest first
func (r *MongoPaymentRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.Payment, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// List returns payments newest first, optionally narrowed to one status
func (r *MongoPaymentRepository) List(ctx context.Context, status string) ([]*domain.Payment, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

func (r *MongoPaymentRepository) find(ctx context.Context, filter bson.M) ([]*domain.Payment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer cursor.Close(ctx)

	payments := []*domain.Payment{}
	for cursor.Next(ctx) {
		var raw bson.M
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		payments = append(payments, mapBsonToPayment(raw))
	}
	return payments, cursor.Err()
}

// Decide stamps the decision only while the payment is still pending. The
// status filter makes concurrent deciders race on a single document update.
func (r *MongoPaymentRepository) Decide(ctx context.Context, id string, decision domain.PaymentDecision) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrPaymentNotFound
	}

	filter := bson.M{"_id": objID, "status": domain.PaymentStatusPending}
	update := bson.M{
		"$set": bson.M{
			"status":      decision.Status,
			"admin_notes": decision.AdminNotes,
			"reviewed_by": decision.ReviewedBy,
			"reviewed_at": decision.ReviewedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to decide payment: %w", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to check payment: %w", err)
	}
	if count == 0 {
		return domain.ErrPaymentNotFound
	}
	return domain.ErrPaymentAlreadyDecided
}

func mapBsonToPayment(raw bson.M) *domain.Payment {
	payment := &domain.Payment{}

	if oid, ok := raw["_id"].(primitive.ObjectID); ok {
		payment.ID = oid.Hex()
	}
	if userID, ok := raw["user_id"].(string); ok {
		payment.UserID = userID
	}
	if planID, ok := raw["plan_id"].(string); ok {
		payment.PlanID = planID
	}
	switch amount := raw["amount"].(type) {
	case float64:
		payment.Amount = amount
	case int64:
		payment.Amount = float64(amount)
	case int32:
		payment.Amount = float64(amount)
	}
	if screenshot, ok := raw["screenshot"].(string); ok {
		payment.Screenshot = screenshot
	}
	if key, ok := raw["screenshot_key"].(string); ok {
		payment.ScreenshotKey = key
	}
	if status, ok := raw["status"].(string); ok {
		payment.Status = status
	}
	if notes, ok := raw["admin_notes"].(string); ok {
		payment.AdminNotes = notes
	}
	if reviewedBy, ok := raw["reviewed_by"].(string); ok {
		payment.ReviewedBy = reviewedBy
	}
	if reviewedAt, ok := raw["reviewed_at"].(primitive.DateTime); ok {
		t := reviewedAt.Time().UTC()
		payment.ReviewedAt = &t
	}
	if submittedAt, ok := raw["submitted_at"].(primitive.DateTime); ok {
		payment.SubmittedAt = submittedAt.Time().UTC()
	}

	return payment
}
