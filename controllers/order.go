package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"go-storefront/cart"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/repository"
)

// OrderController handles checkout and order-related requests
type OrderController struct {
	service  *cart.Service
	sessions SessionStore
	orders   OrderReader
	notifier Notifier
	logger   *zap.Logger
}

// NewOrderController creates a new OrderController
func NewOrderController(service *cart.Service, sessions SessionStore, orders OrderReader, notifier Notifier, logger *zap.Logger) *OrderController {
	return &OrderController{
		service:  service,
		sessions: sessions,
		orders:   orders,
		notifier: notifier,
		logger:   logger,
	}
}

type checkoutResponse struct {
	Flash
	OrderID string          `json:"order_id"`
	Total   string          `json:"total"`
	Items   []orderItemView `json:"items"`
}

// Checkout turns the session cart into a paid order. Anonymous visitors may check out;
// a signed-in user becomes the owner of the order.
func (oc *OrderController) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	sid, state, ok := loadState(ctx, w, oc.sessions, oc.logger)
	if !ok {
		return
	}

	owner, email := "", ""
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		owner, email = claims.UserID, claims.Email
	}

	save := func(ctx context.Context, s cart.State) error {
		return oc.sessions.Save(ctx, sid, s)
	}
	receipt, _, err := oc.service.Checkout(ctx, owner, state, save)
	var perr *cart.PersistenceError
	switch {
	case errors.Is(err, cart.ErrEmptyCart):
		flash(w, http.StatusBadRequest, levelWarning, "Your cart is empty", "/cart")
		return
	case errors.As(err, &perr):
		oc.logger.Error("checkout failed", zap.String("op", perr.Op), zap.Error(perr.Err))
		flash(w, http.StatusInternalServerError, levelError, "We could not place your order. Your cart was kept, please try again.", "/cart")
		return
	case err != nil:
		oc.logger.Error("checkout failed", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "We could not place your order. Your cart was kept, please try again.", "/cart")
		return
	}

	order := models.Order{
		Items:     receipt.Items,
		Total:     receipt.Total,
		Status:    models.OrderPaid,
		CreatedAt: time.Now().UTC(),
	}
	order.ID, _ = primitive.ObjectIDFromHex(receipt.OrderID)
	if email != "" {
		go oc.sendConfirmation(email, order)
	}

	respondJSON(w, http.StatusCreated, checkoutResponse{
		Flash:   Flash{Level: levelSuccess, Message: "Order placed successfully", Redirect: "/orders/" + receipt.OrderID},
		OrderID: receipt.OrderID,
		Total:   receipt.Total.StringFixed(2),
		Items:   newOrderView(order).Items,
	})
}

func (oc *OrderController) sendConfirmation(email string, order models.Order) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := oc.notifier.SendOrderConfirmationEmail(ctx, email, order); err != nil {
		oc.logger.Warn("failed to send order confirmation",
			zap.String("order_id", order.ID.Hex()),
			zap.Error(err))
	}
}

// GetOrders lists the orders of the signed-in user, newest first
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	orders, err := oc.orders.ListByOwner(ctx, claims.UserID)
	if err != nil {
		oc.logger.Error("failed to list orders", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving orders", "")
		return
	}
	views := make([]orderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, newOrderView(o))
	}
	respondJSON(w, http.StatusOK, views)
}

// GetOrder shows one order of the signed-in user. Orders of other users are not found.
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	order, err := oc.orders.FindForOwner(ctx, mux.Vars(r)["id"], claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		flash(w, http.StatusNotFound, levelError, "Order not found", "/orders")
		return
	}
	if err != nil {
		oc.logger.Error("failed to load order", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving order", "")
		return
	}
	respondJSON(w, http.StatusOK, newOrderView(*order))
}

type statusRequest struct {
	Status models.OrderStatus `json:"status" validate:"required"`
}

// UpdateOrderStatus moves an order to a new status (Admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeJSON(r, &req); err != nil || !req.Status.Valid() {
		flash(w, http.StatusBadRequest, levelError, "Invalid status", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	order, err := oc.orders.UpdateStatus(ctx, mux.Vars(r)["id"], req.Status)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		flash(w, http.StatusNotFound, levelError, "Order not found", "")
		return
	case errors.Is(err, repository.ErrInvalidTransition):
		flash(w, http.StatusConflict, levelWarning, "The order cannot move to "+string(req.Status), "")
		return
	case err != nil:
		oc.logger.Error("failed to update order status", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error updating order status", "")
		return
	}
	respondJSON(w, http.StatusOK, newOrderView(*order))
}
