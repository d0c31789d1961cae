package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"go-storefront/repository"
)

// MobileController serves the simplified JSON API of the mobile app.
// Every response carries an ok flag; failures add an error message.
type MobileController struct {
	users    UserStore
	products ProductStore
	logger   *zap.Logger
}

// NewMobileController creates a new MobileController
func NewMobileController(users UserStore, products ProductStore, logger *zap.Logger) *MobileController {
	return &MobileController{
		users:    users,
		products: products,
		logger:   logger,
	}
}

type mobileUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

type mobileProduct struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Image string `json:"image"`
}

func mobileError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]interface{}{"ok": false, "error": msg})
}

// Login checks form credentials and returns the user
func (mc *MobileController) Login(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := strings.TrimSpace(r.FormValue("password"))
	if email == "" || password == "" {
		mobileError(w, http.StatusOK, "Missing data")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := authenticate(ctx, mc.users, email, password)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		mobileError(w, http.StatusOK, "User not found")
		return
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		mobileError(w, http.StatusOK, "Wrong password")
		return
	case err != nil:
		mc.logger.Error("mobile login failed", zap.Error(err))
		mobileError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok": true,
		"user": mobileUser{
			ID:       user.ID.Hex(),
			Email:    user.Email,
			Username: user.Username,
			Name:     user.DisplayName(),
		},
	})
}

// Products returns the available catalog in a compact form
func (mc *MobileController) Products(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	// limit 0 means no limit
	products, err := mc.products.Newest(ctx, 0)
	if err != nil {
		mc.logger.Error("mobile products failed", zap.Error(err))
		mobileError(w, http.StatusInternalServerError, "Server error")
		return
	}
	out := make([]mobileProduct, 0, len(products))
	for _, p := range products {
		out = append(out, mobileProduct{ID: p.ID, Name: p.Name, Price: p.Price.StringFixed(2), Image: p.Image})
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "products": out})
}
