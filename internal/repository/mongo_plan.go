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

// MongoPlanRepository implements domain.PlanRepository
type MongoPlanRepository struct {
	collection *mongo.Collection
}

func NewMongoPlanRepository(db *mongo.Database) *MongoPlanRepository {
	coll := db.Collection("plans")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})

	return &MongoPlanRepository{
		collection: coll,
	}
}

func (r *MongoPlanRepository) Create(ctx context.Context, plan *domain.Plan) error {
	now := time.Now().UTC()
	plan.CreatedAt = now
	plan.UpdatedAt = now
	if plan.Features == nil {
		plan.Features = []string{}
	}
	objID := primitive.NewObjectID()

	doc := bson.M{
		"_id":         objID,
		"name":        plan.Name,
		"description": plan.Description,
		"speed":       plan.Speed,
		"validity":    plan.Validity,
		"price":       plan.Price,
		"features":    plan.Features,
		"is_active":   plan.IsActive,
		"created_at":  plan.CreatedAt,
		"updated_at":  plan.UpdatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	plan.ID = objID.Hex()
	return nil
}

func (r *MongoPlanRepository) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrPlanNotFound
	}

	var plan domain.Plan
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&plan); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

// GetActive returns plans visible to customers, cheapest first
func (r *MongoPlanRepository) GetActive(ctx context.Context) ([]*domain.Plan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "price", Value: 1}})
	return r.find(ctx, bson.M{"is_active": true}, opts)
}

// GetAll returns every plan, newest first
func (r *MongoPlanRepository) GetAll(ctx context.Context) ([]*domain.Plan, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

func (r *MongoPlanRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*domain.Plan, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer cursor.Close(ctx)

	plans := []*domain.Plan{}
	if err := cursor.All(ctx, &plans); err != nil {
		return nil, fmt.Errorf("failed to decode plans: %w", err)
	}
	return plans, nil
}

func (r *MongoPlanRepository) Update(ctx context.Context, plan *domain.Plan) error {
	objID, err := primitive.ObjectIDFromHex(plan.ID)
	if err != nil {
		return domain.ErrPlanNotFound
	}
	plan.UpdatedAt = time.Now().UTC()

	update := bson.M{
		"$set": bson.M{
			"name":        plan.Name,
			"description": plan.Description,
			"speed":       plan.Speed,
			"validity":    plan.Validity,
			"price":       plan.Price,
			"features":    plan.Features,
			"is_active":   plan.IsActive,
			"updated_at":  plan.UpdatedAt,
		},
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}

// Delete hard-deletes the plan. Payments and active plans keep the dangling id.
func (r *MongoPlanRepository) Delete(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrPlanNotFound
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if result.DeletedCount == 0 {
		return domain.ErrPlanNotFound
	}
	return nil
}
