package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"go-storefront/models"
)

// Catalog resolves product ids against the current catalog. Unknown ids are omitted
// from the result.
type Catalog interface {
	GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error)
}

// OrderStore persists order snapshots. owner is the user id or empty for an anonymous buyer.
type OrderStore interface {
	CreateOrder(ctx context.Context, owner string, total decimal.Decimal, items []models.OrderItem) (string, error)
	DeleteOrder(ctx context.Context, id string) error
}

// SaveFunc persists the cart state of the current visitor.
type SaveFunc func(ctx context.Context, state State) error

// View is a priced cart.
type View struct {
	Lines  []Line
	Totals Totals
	Count  int
}

// Receipt describes a completed checkout.
type Receipt struct {
	OrderID string
	Items   []models.OrderItem
	Total   decimal.Decimal
}

// Service runs the cart operations that need catalog or order storage.
type Service struct {
	catalog Catalog
	orders  OrderStore
	logger  *zap.Logger
}

// NewService creates a new cart Service
func NewService(catalog Catalog, orders OrderStore, logger *zap.Logger) *Service {
	return &Service{
		catalog: catalog,
		orders:  orders,
		logger:  logger,
	}
}

// Add looks productID up and adds qty units of it to state.
func (s *Service) Add(ctx context.Context, state State, productID int64, qty int) (State, error) {
	if qty < 1 {
		return state, ErrInvalidQuantity
	}
	products, err := s.catalog.GetProductsByIDs(ctx, []int64{productID})
	if err != nil {
		return state, err
	}
	if len(products) == 0 {
		return state, ErrProductNotFound
	}
	return state.Add(products[0], qty)
}

// View prices state against a fresh catalog read.
func (s *Service) View(ctx context.Context, state State) (View, error) {
	lines, err := s.lines(ctx, state)
	if err != nil {
		return View{}, err
	}
	return View{
		Lines:  lines,
		Totals: ComputeTotals(lines),
		Count:  state.Count(),
	}, nil
}

func (s *Service) lines(ctx context.Context, state State) ([]Line, error) {
	if state.Empty() {
		return nil, nil
	}
	products, err := s.catalog.GetProductsByIDs(ctx, state.IDs())
	if err != nil {
		return nil, err
	}
	return ComputeLines(state, products), nil
}

// Checkout turns state into a paid order owned by owner and persists the emptied cart
// through save. The order and the emptied cart are kept together: if the order cannot be
// created the cart is not saved, and if the cart cannot be saved the order is removed.
// On failure the returned State is the input state.
func (s *Service) Checkout(ctx context.Context, owner string, state State, save SaveFunc) (Receipt, State, error) {
	lines, err := s.lines(ctx, state)
	if err != nil {
		return Receipt{}, state, &PersistenceError{Op: "load products", Err: err}
	}
	items, total := OrderItems(lines)
	if len(items) == 0 {
		return Receipt{}, state, ErrEmptyCart
	}

	orderID, err := s.orders.CreateOrder(ctx, owner, total, items)
	if err != nil {
		return Receipt{}, state, &PersistenceError{Op: "create order", Err: err}
	}

	cleared := state.Clear()
	if err := save(ctx, cleared); err != nil {
		if delErr := s.orders.DeleteOrder(context.WithoutCancel(ctx), orderID); delErr != nil {
			s.logger.Error("failed to roll back order after cart save failure",
				zap.String("order_id", orderID),
				zap.Error(delErr))
			err = errors.Join(err, delErr)
		}
		return Receipt{}, state, &PersistenceError{Op: "clear cart", Err: err}
	}

	s.logger.Info("checkout completed",
		zap.String("order_id", orderID),
		zap.String("owner", owner),
		zap.String("total", total.StringFixed(2)),
		zap.Int("lines", len(items)))

	return Receipt{OrderID: orderID, Items: items, Total: total}, cleared, nil
}
