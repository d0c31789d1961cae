package cart

import (
	"iter"
	"maps"
	"slices"

	"go-storefront/models"
)

// State maps a product id to the requested quantity. Every quantity held is positive.
//
// Mutating operations never change their receiver; they return the next State so callers
// thread it explicitly and decide when to persist it.
type State map[int64]int

// FromCart rebuilds a State from its session payload, dropping non-positive quantities.
func FromCart(c models.Cart) State {
	s := make(State, len(c.Items))
	for _, item := range c.Items {
		if item.Quantity > 0 {
			s[item.ProductID] += item.Quantity
		}
	}
	return s
}

// Cart converts the state into its session payload, ordered by product id.
func (s State) Cart() models.Cart {
	items := make([]models.CartItem, 0, len(s))
	for id, qty := range s.Items() {
		items = append(items, models.CartItem{ProductID: id, Quantity: qty})
	}
	return models.Cart{Items: items}
}

func (s State) clone() State {
	next := make(State, len(s))
	maps.Copy(next, s)
	return next
}

// Add puts qty units of p in the cart, clamping the resulting quantity to the product stock.
// Over-requesting is not an error. When the clamped quantity is zero the product is left out.
func (s State) Add(p models.Product, qty int) (State, error) {
	if qty < 1 {
		return s, ErrInvalidQuantity
	}
	if !p.Active {
		return s, ErrProductUnavailable
	}
	next := s.clone()
	// min(existing+qty, stock) without overflowing existing+qty
	n := p.Stock
	if qty < p.Stock-next[p.ID] {
		n = next[p.ID] + qty
	}
	if n > 0 {
		next[p.ID] = n
	} else {
		delete(next, p.ID)
	}
	return next, nil
}

// Remove takes one unit of productID out of the cart, or the whole entry when all is set
// or a single unit is left. Removing an absent product is a no-op.
func (s State) Remove(productID int64, all bool) State {
	qty, ok := s[productID]
	if !ok {
		return s
	}
	next := s.clone()
	if all || qty <= 1 {
		delete(next, productID)
	} else {
		next[productID] = qty - 1
	}
	return next
}

// Clear returns an empty cart.
func (s State) Clear() State {
	return State{}
}

// Items yields (product id, quantity) pairs in ascending product id order.
// The sequence can be ranged over any number of times.
func (s State) Items() iter.Seq2[int64, int] {
	return func(yield func(int64, int) bool) {
		for _, id := range s.IDs() {
			if !yield(id, s[id]) {
				return
			}
		}
	}
}

// IDs returns the product ids in the cart in ascending order.
func (s State) IDs() []int64 {
	return slices.Sorted(maps.Keys(s))
}

// Quantity returns the quantity held for productID, zero when absent.
func (s State) Quantity(productID int64) int {
	return s[productID]
}

// Count returns the total number of units in the cart.
func (s State) Count() int {
	total := 0
	for _, qty := range s {
		total += qty
	}
	return total
}

// Empty reports whether the cart holds nothing.
func (s State) Empty() bool {
	return len(s) == 0
}
