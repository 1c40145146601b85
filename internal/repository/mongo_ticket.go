package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mansoorceksport/bluefin/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoTicketRepository implements domain.TicketRepository
type MongoTicketRepository struct {
	collection *mongo.Collection
}

func NewMongoTicketRepository(db *mongo.Database) *MongoTicketRepository {
	coll := db.Collection("support_tickets")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "priority", Value: 1}}},
	})

	return &MongoTicketRepository{
		collection: coll,
	}
}

func (r *MongoTicketRepository) Create(ctx context.Context, ticket *domain.SupportTicket) error {
	now := time.Now().UTC()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	if ticket.Status == "" {
		ticket.Status = domain.TicketStatusOpen
	}
	if ticket.Replies == nil {
		ticket.Replies = []domain.TicketReply{}
	}
	objID := primitive.NewObjectID()

	doc := bson.M{
		"_id":        objID,
		"user_id":    ticket.UserID,
		"subject":    ticket.Subject,
		"message":    ticket.Message,
		"category":   ticket.Category,
		"priority":   ticket.Priority,
		"status":     ticket.Status,
		"replies":    ticket.Replies,
		"created_at": ticket.CreatedAt,
		"updated_at": ticket.UpdatedAt,
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create ticket: %w", err)
	}
	ticket.ID = objID.Hex()
	return nil
}

func (r *MongoTicketRepository) GetByID(ctx context.Context, id string) (*domain.SupportTicket, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrTicketNotFound
	}

	var ticket domain.SupportTicket
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&ticket); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &ticket, nil
}

func (r *MongoTicketRepository) GetByUserID(ctx context.Context, userID string) ([]*domain.SupportTicket, error) {
	return r.find(ctx, bson.M{"user_id": userID})
}

// List returns tickets newest first. Search matches subject or message,
// case-insensitive, as a literal substring.
func (r *MongoTicketRepository) List(ctx context.Context, filter domain.TicketFilter) ([]*domain.SupportTicket, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		query["priority"] = filter.Priority
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"subject": pattern},
			bson.M{"message": pattern},
		}
	}
	return r.find(ctx, query)
}

func (r *MongoTicketRepository) find(ctx context.Context, filter bson.M) ([]*domain.SupportTicket, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list tickets: %w", err)
	}
	defer cursor.Close(ctx)

	tickets := []*domain.SupportTicket{}
	if err := cursor.All(ctx, &tickets); err != nil {
		return nil, fmt.Errorf("failed to decode tickets: %w", err)
	}
	return tickets, nil
}

// AppendReply pushes the reply and moves the status from -> to in a single
// update. The filter pins the status that was read so a concurrent change
// surfaces as ErrTicketChanged instead of being overwritten.
func (r *MongoTicketRepository) AppendReply(ctx context.Context, id string, reply domain.TicketReply, from, to string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTicketNotFound
	}

	filter := bson.M{"_id": objID, "status": from}
	update := bson.M{
		"$push": bson.M{"replies": reply},
		"$set": bson.M{
			"status":     to,
			"updated_at": time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to append reply: %w", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to check ticket: %w", err)
	}
	if count == 0 {
		return domain.ErrTicketNotFound
	}
	return domain.ErrTicketChanged
}

// UpdateStatus applies a status change. Terminal statuses require at least
// one reply, checked in the update filter so a racing reply cannot be missed.
func (r *MongoTicketRepository) UpdateStatus(ctx context.Context, id string, change domain.TicketStatusChange) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTicketNotFound
	}

	filter := bson.M{"_id": objID}
	set := bson.M{
		"status":     change.Status,
		"updated_at": time.Now().UTC(),
	}
	update := bson.M{"$set": set}

	if domain.IsTerminalTicketStatus(change.Status) {
		filter["replies.0"] = bson.M{"$exists": true}
		if change.ResolvedAt != nil {
			set["resolved_at"] = change.ResolvedAt
			set["resolved_by"] = change.ResolvedBy
		}
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to update ticket status: %w", err)
	}
	if result.MatchedCount == 1 {
		return nil
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": objID})
	if err != nil {
		return fmt.Errorf("failed to check ticket: %w", err)
	}
	if count == 0 {
		return domain.ErrTicketNotFound
	}
	return domain.ErrReplyRequired
}

// UpdateFields sets priority and/or category. Empty values are left unchanged.
func (r *MongoTicketRepository) UpdateFields(ctx context.Context, id string, priority, category string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrTicketNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if priority != "" {
		set["priority"] = priority
	}
	if category != "" {
		set["category"] = category
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update ticket: %w", err)
	}
	if result.MatchedCount == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

// Count counts tickets matching status and priority, skipping excludeStatus.
// Empty arguments do not filter.
func (r *MongoTicketRepository) Count(ctx context.Context, status, priority string, excludeStatus string) (int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	} else if excludeStatus != "" {
		filter["status"] = bson.M{"$ne": excludeStatus}
	}
	if priority != "" {
		filter["priority"] = priority
	}

	count, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count tickets: %w", err)
	}
	return count, nil
}
