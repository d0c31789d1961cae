// Package controllers holds the HTTP handlers of the storefront.
package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"go-storefront/cart"
	"go-storefront/models"
	"go-storefront/repository"
)

// requestTimeout bounds the storage work of a single request
const requestTimeout = 5 * time.Second

var validate = validator.New(validator.WithRequiredStructEnabled())

// SessionStore loads and saves the cart of a session
type SessionStore interface {
	Load(ctx context.Context, sid string) (cart.State, error)
	Save(ctx context.Context, sid string, state cart.State) error
}

// ProductStore is the catalog as seen by the HTTP layer
type ProductStore interface {
	List(ctx context.Context, f repository.ProductFilter) ([]models.Product, int64, error)
	Featured(ctx context.Context, limit int) ([]models.Product, error)
	Newest(ctx context.Context, limit int) ([]models.Product, error)
	FindBySlug(ctx context.Context, slug string) (*models.Product, error)
	Menu(ctx context.Context) (*repository.Menu, error)
	Taxa(ctx context.Context, field string, limit int) ([]repository.MenuEntry, error)
	Facets(ctx context.Context, f repository.ProductFilter, field string) ([]repository.MenuEntry, error)
	Popular(ctx context.Context, limit int) ([]models.Product, error)
	FindTaxon(ctx context.Context, field, slug string) (*models.Taxon, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id int64, p models.Product) error
	Delete(ctx context.Context, id int64) error
}

// OrderReader reads placed orders and moves them through their lifecycle
type OrderReader interface {
	ListByOwner(ctx context.Context, owner string) ([]models.Order, error)
	FindForOwner(ctx context.Context, id, owner string) (*models.Order, error)
	UpdateStatus(ctx context.Context, id string, next models.OrderStatus) (*models.Order, error)
}

// UserStore persists accounts
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	EmailExists(ctx context.Context, email string) (bool, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Verify(ctx context.Context, token string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, profile models.Profile) (*models.User, error)
}

// SubscriberStore persists newsletter subscriptions
type SubscriberStore interface {
	Subscribe(ctx context.Context, email, token string) (*models.Subscriber, error)
	Confirm(ctx context.Context, token string) (*models.Subscriber, error)
}

// Notifier sends the transactional emails
type Notifier interface {
	SendVerificationEmail(ctx context.Context, toEmail, token string) error
	SendNewsletterConfirmation(ctx context.Context, toEmail, token string) error
	SendOrderConfirmationEmail(ctx context.Context, toEmail string, order models.Order) error
}

// Flash levels
const (
	levelSuccess = "success"
	levelInfo    = "info"
	levelWarning = "warning"
	levelError   = "error"
)

// Flash is the message shown to the user after an action
type Flash struct {
	Level    string `json:"level"`
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func flash(w http.ResponseWriter, status int, level, message, redirect string) {
	respondJSON(w, status, Flash{Level: level, Message: message, Redirect: redirect})
}

// decodeJSON decodes the request body into v and validates it
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}
	return validate.Struct(v)
}

func productIDVar(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	return id, err == nil && id > 0
}
