package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mansoorceksport/bluefin/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoContactRepository stores the contact singleton under a fixed _id
type MongoContactRepository struct {
	collection *mongo.Collection
}

func NewMongoContactRepository(db *mongo.Database) *MongoContactRepository {
	return &MongoContactRepository{
		collection: db.Collection("contact"),
	}
}

func contactDefaults(now time.Time) bson.M {
	d := domain.DefaultContact()
	return bson.M{
		"company_name":   d.CompanyName,
		"phone":          d.Phone,
		"email":          d.Email,
		"address":        d.Address,
		"website":        d.Website,
		"business_hours": d.BusinessHours,
		"updated_at":     now,
	}
}

// GetOrCreate returns the singleton, inserting defaults on first access.
// Concurrent first reads converge on the single _id; a losing upsert that
// hits the duplicate key simply re-reads.
func (r *MongoContactRepository) GetOrCreate(ctx context.Context) (*domain.Contact, error) {
	filter := bson.M{"_id": domain.ContactSingletonID}
	update := bson.M{"$setOnInsert": contactDefaults(time.Now().UTC())}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var contact domain.Contact
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&contact)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		err = r.collection.FindOne(ctx, filter).Decode(&contact)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return &contact, nil
}

// Update sets the given storage fields, creating the singleton with defaults
// for any field not supplied
func (r *MongoContactRepository) Update(ctx context.Context, updates map[string]string) (*domain.Contact, error) {
	now := time.Now().UTC()

	set := bson.M{"updated_at": now}
	for field, value := range updates {
		set[field] = value
	}
	setOnInsert := contactDefaults(now)
	for field := range set {
		delete(setOnInsert, field)
	}

	update := bson.M{"$set": set}
	if len(setOnInsert) > 0 {
		update["$setOnInsert"] = setOnInsert
	}

	filter := bson.M{"_id": domain.ContactSingletonID}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var contact domain.Contact
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&contact)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		// Lost the insert race; the document exists now so retry as a plain update
		err = r.collection.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&contact)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}
	return &contact, nil
}
