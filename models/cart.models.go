package models

import (
	"time"
)

// CartItem represents one product entry of a visitor's cart
type CartItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Cart is the session payload holding a visitor's pending selection
type Cart struct {
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updated_at"`
}
