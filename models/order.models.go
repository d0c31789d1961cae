package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderCreated   OrderStatus = "CREATED"
	OrderPaid      OrderStatus = "PAID"
	OrderCancelled OrderStatus = "CANCELLED"
)

// CanTransitionTo reports whether an order may move from s to next.
// PAID and CANCELLED are terminal.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	return s == OrderCreated && (next == OrderPaid || next == OrderCancelled)
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderCreated, OrderPaid, OrderCancelled:
		return true
	}
	return false
}

// OrderItem is a line captured at checkout time. It never follows later catalog changes.
type OrderItem struct {
	ProductID int64           `bson:"product_id" json:"product_id"`
	Name      string          `bson:"name" json:"name"`
	UnitPrice decimal.Decimal `bson:"unit_price" json:"unit_price"`
	Quantity  int             `bson:"quantity" json:"quantity"`
}

// Order represents a placed order
type Order struct {
	ID        primitive.ObjectID  `bson:"_id,omitempty" json:"id,omitempty"`
	UserID    *primitive.ObjectID `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Items     []OrderItem         `bson:"items" json:"items"`
	Total     decimal.Decimal     `bson:"total" json:"total"`
	Status    OrderStatus         `bson:"status" json:"status"`
	CreatedAt time.Time           `bson:"created_at" json:"created_at"`
}
