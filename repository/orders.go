package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"go-storefront/models"
)

// OrderRepository stores order snapshots
type OrderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		collection: db.Collection(ordersCollection),
	}
}

func ownerID(owner string) (*primitive.ObjectID, error) {
	if owner == "" {
		return nil, nil
	}
	id, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return nil, fmt.Errorf("%w: owner %q", ErrInvalidID, owner)
	}
	return &id, nil
}

// CreateOrder stores a paid order for owner (a user id, empty when anonymous) and returns its id.
// Payment is simulated, so orders are recorded directly as PAID.
func (r *OrderRepository) CreateOrder(ctx context.Context, owner string, total decimal.Decimal, items []models.OrderItem) (string, error) {
	uid, err := ownerID(owner)
	if err != nil {
		return "", err
	}
	order := models.Order{
		UserID:    uid,
		Items:     items,
		Total:     total,
		Status:    models.OrderPaid,
		CreatedAt: time.Now().UTC(),
	}
	res, err := r.collection.InsertOne(ctx, order)
	if err != nil {
		return "", fmt.Errorf("failed to insert order: %w", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex(), nil
}

// DeleteOrder removes order id. Deleting an unknown order is not an error.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidID
	}
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid}); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// FindByID returns order id
func (r *OrderRepository) FindByID(ctx context.Context, id string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// FindForOwner returns order id only when it belongs to owner
func (r *OrderRepository) FindForOwner(ctx context.Context, id, owner string) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	uid, err := ownerID(owner)
	if err != nil || uid == nil {
		return nil, ErrNotFound
	}
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid, "user_id": uid}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// ListByOwner returns the orders of owner, newest first
func (r *OrderRepository) ListByOwner(ctx context.Context, owner string) ([]models.Order, error) {
	uid, err := ownerID(owner)
	if err != nil || uid == nil {
		return []models.Order{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": uid}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve orders: %w", err)
	}
	orders := []models.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves order id to next if its current status allows it
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, next models.OrderStatus) (*models.Order, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var from bson.A
	for _, s := range []models.OrderStatus{models.OrderCreated, models.OrderPaid, models.OrderCancelled} {
		if s.CanTransitionTo(next) {
			from = append(from, s)
		}
	}
	if len(from) == 0 {
		return nil, ErrInvalidTransition
	}

	var order models.Order
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": next}},
		opts,
	).Decode(&order)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}
