package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyCart is returned by checkout when no line of the cart resolves to a product.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrProductNotFound is returned when adding an id the catalog does not know.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductUnavailable is returned when adding an inactive product.
	ErrProductUnavailable = errors.New("product is not available")
	// ErrInvalidQuantity is returned for quantities lower than one.
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// PersistenceError reports a storage failure during checkout. The cart is left untouched
// whenever it is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("checkout: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
