package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
)

// SubscriberRepository stores newsletter subscriptions
type SubscriberRepository struct {
	collection *mongo.Collection
}

// NewSubscriberRepository creates a new SubscriberRepository
func NewSubscriberRepository(db *mongo.Database) *SubscriberRepository {
	return &SubscriberRepository{
		collection: db.Collection(subscribersCollection),
	}
}

// Subscribe gets or creates the subscription of email and resets it to unconfirmed.
// An existing token is kept; token is only stored when the subscription has none.
func (r *SubscriberRepository) Subscribe(ctx context.Context, email, token string) (*models.Subscriber, error) {
	var sub models.Subscriber
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{
			"$set":         bson.M{"is_confirmed": false},
			"$setOnInsert": bson.M{"email": email, "token": token, "created_at": time.Now().UTC()},
		},
		opts,
	).Decode(&sub)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert subscriber: %w", err)
	}

	if sub.Token == "" {
		if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": sub.ID}, bson.M{"$set": bson.M{"token": token}}); err != nil {
			return nil, fmt.Errorf("failed to set subscriber token: %w", err)
		}
		sub.Token = token
	}
	return &sub, nil
}

// Confirm marks the subscription holding token as confirmed
func (r *SubscriberRepository) Confirm(ctx context.Context, token string) (*models.Subscriber, error) {
	if token == "" {
		return nil, ErrNotFound
	}
	var sub models.Subscriber
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"token": token},
		bson.M{"$set": bson.M{"is_confirmed": true, "confirmed_at": time.Now().UTC()}},
		opts,
	).Decode(&sub)
	if err != nil {
		return nil, notFound(err)
	}
	return &sub, nil
}
