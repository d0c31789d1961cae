package controllers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"go-storefront/cart"
	"go-storefront/middleware"
)

// CartController handles cart-related requests
type CartController struct {
	service  *cart.Service
	sessions SessionStore
	logger   *zap.Logger
}

// NewCartController creates a new CartController
func NewCartController(service *cart.Service, sessions SessionStore, logger *zap.Logger) *CartController {
	return &CartController{
		service:  service,
		sessions: sessions,
		logger:   logger,
	}
}

type cartChange struct {
	Flash
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
	Count     int   `json:"count"`
}

// loadState returns the cart of the current session, writing an error response on failure
func loadState(ctx context.Context, w http.ResponseWriter, sessions SessionStore, logger *zap.Logger) (string, cart.State, bool) {
	sid := middleware.SessionID(ctx)
	state, err := sessions.Load(ctx, sid)
	if err != nil {
		logger.Error("failed to load session", zap.String("sid", sid), zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "We could not load your cart. Please try again.", "/cart")
		return "", nil, false
	}
	return sid, state, true
}

// GetCart retrieves the priced cart of the current visitor
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	_, state, ok := loadState(ctx, w, cc.sessions, cc.logger)
	if !ok {
		return
	}
	view, err := cc.service.View(ctx, state)
	if err != nil {
		cc.logger.Error("failed to price cart", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "We could not load your cart. Please try again.", "")
		return
	}
	respondJSON(w, http.StatusOK, newCartView(view))
}

// AddToCart adds qty units (default 1) of a product to the cart.
// Requests beyond the available stock are clamped to it.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDVar(r)
	if !ok {
		flash(w, http.StatusBadRequest, levelError, "Invalid product ID", "")
		return
	}
	qty := 1
	if raw := r.FormValue("qty"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			flash(w, http.StatusBadRequest, levelError, "Invalid quantity", "")
			return
		}
		qty = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sid, state, ok := loadState(ctx, w, cc.sessions, cc.logger)
	if !ok {
		return
	}
	before := state.Quantity(productID)

	next, err := cc.service.Add(ctx, state, productID, qty)
	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		flash(w, http.StatusBadRequest, levelError, "Quantity must be at least 1", "")
		return
	case errors.Is(err, cart.ErrProductNotFound):
		flash(w, http.StatusNotFound, levelError, "Product not found", "")
		return
	case errors.Is(err, cart.ErrProductUnavailable):
		flash(w, http.StatusConflict, levelWarning, "This product is not available", "")
		return
	case err != nil:
		cc.logger.Error("failed to add to cart", zap.Int64("product_id", productID), zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "We could not update your cart. Please try again.", "")
		return
	}

	if err := cc.sessions.Save(ctx, sid, next); err != nil {
		cc.logger.Error("failed to save session", zap.String("sid", sid), zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "We could not update your cart. Please try again.", "")
		return
	}

	got := next.Quantity(productID)
	resp := cartChange{
		Flash:     Flash{Level: levelSuccess, Message: "Added to cart"},
		ProductID: productID,
		Quantity:  got,
		Count:     next.Count(),
	}
	switch {
	case got == 0:
		resp.Flash = Flash{Level: levelWarning, Message: "This product is out of stock"}
	case got-before < qty:
		resp.Flash = Flash{Level: levelInfo, Message: fmt.Sprintf("Only %d units available", got)}
	}
	respondJSON(w, http.StatusOK, resp)
}

// RemoveFromCart takes one unit of a product out of the cart, or all of them with all=1
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	productID, ok := productIDVar(r)
	if !ok {
		flash(w, http.StatusBadRequest, levelError, "Invalid product ID", "")
		return
	}
	all := r.FormValue("all") == "1"

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sid, state, ok := loadState(ctx, w, cc.sessions, cc.logger)
	if !ok {
		return
	}
	next := state.Remove(productID, all)
	if err := cc.sessions.Save(ctx, sid, next); err != nil {
		cc.logger.Error("failed to save session", zap.String("sid", sid), zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "We could not update your cart. Please try again.", "")
		return
	}

	respondJSON(w, http.StatusOK, cartChange{
		Flash:     Flash{Level: levelSuccess, Message: "Cart updated"},
		ProductID: productID,
		Quantity:  next.Quantity(productID),
		Count:     next.Count(),
	})
}
