package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/repository"
	"go-storefront/utils"
)

// tokenBytes is the entropy of verification and newsletter tokens
const tokenBytes = 32

// UserController handles user-related requests
type UserController struct {
	users    UserStore
	notifier Notifier
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewUserController creates a new UserController. Issued login tokens live for tokenTTL.
func NewUserController(users UserStore, notifier Notifier, tokenTTL time.Duration, logger *zap.Logger) *UserController {
	return &UserController{
		users:    users,
		notifier: notifier,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register handles user registration
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		flash(w, http.StatusBadRequest, levelError, "Invalid input", "")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	// Check if user already exists
	exists, err := uc.users.EmailExists(ctx, email)
	if err != nil {
		uc.logger.Error("failed to check email", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Database error", "")
		return
	}
	if exists {
		flash(w, http.StatusBadRequest, levelError, "User already exists", "")
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		flash(w, http.StatusInternalServerError, levelError, "Error hashing password", "")
		return
	}
	token, err := utils.NewURLToken(tokenBytes)
	if err != nil {
		flash(w, http.StatusInternalServerError, levelError, "Error generating verification token", "")
		return
	}

	user := &models.User{
		Username:          req.Username,
		Email:             email,
		Password:          string(hashedPassword),
		Role:              "user",
		VerificationToken: token,
	}
	err = uc.users.Create(ctx, user)
	if errors.Is(err, repository.ErrDuplicate) {
		flash(w, http.StatusBadRequest, levelError, "User already exists", "")
		return
	}
	if err != nil {
		uc.logger.Error("failed to create user", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error creating user", "")
		return
	}

	if err := uc.notifier.SendVerificationEmail(ctx, email, token); err != nil {
		uc.logger.Warn("failed to send verification email", zap.String("user_id", user.ID.Hex()), zap.Error(err))
	}

	flash(w, http.StatusCreated, levelSuccess, "User registered successfully. Please check your email to verify your account.", "/login")
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// authenticate checks the credentials and returns the matching user
func authenticate(ctx context.Context, users UserStore, email, password string) (*models.User, error) {
	user, err := users.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, err
	}
	return user, nil
}

// Login handles user login
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		flash(w, http.StatusBadRequest, levelError, "Invalid input", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := authenticate(ctx, uc.users, req.Email, req.Password)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			uc.logger.Error("failed to authenticate", zap.Error(err))
		}
		flash(w, http.StatusUnauthorized, levelError, "Invalid email or password", "")
		return
	}
	if !user.IsVerified {
		flash(w, http.StatusForbidden, levelWarning, "Please verify your email before logging in", "")
		return
	}

	token, err := utils.GenerateJWT(user.ID.Hex(), user.Email, user.Role, uc.tokenTTL)
	if err != nil {
		flash(w, http.StatusInternalServerError, levelError, "Error generating token", "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// VerifyEmail handles email verification
func (uc *UserController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	_, err := uc.users.Verify(ctx, r.URL.Query().Get("token"))
	if errors.Is(err, repository.ErrNotFound) {
		flash(w, http.StatusBadRequest, levelError, "Invalid or expired verification link", "/")
		return
	}
	if err != nil {
		uc.logger.Error("failed to verify user", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Failed to update user verification status", "")
		return
	}
	flash(w, http.StatusOK, levelSuccess, "Email verified successfully", "/login")
}

type profileResponse struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	DisplayName string         `json:"display_name"`
	MaskedEmail string         `json:"masked_email"`
	ShortEmail  string         `json:"short_email"`
	Role        string         `json:"role"`
	Profile     models.Profile `json:"profile"`
}

func newProfileResponse(u *models.User) profileResponse {
	return profileResponse{
		ID:          u.ID.Hex(),
		Username:    u.Username,
		DisplayName: u.DisplayName(),
		MaskedEmail: utils.MaskEmail(u.Email),
		ShortEmail:  utils.ShortEmail(u.Email),
		Role:        u.Role,
		Profile:     u.Profile,
	}
}

// currentUser loads the signed-in user, writing an error response on failure
func (uc *UserController) currentUser(ctx context.Context, w http.ResponseWriter) (*models.User, bool) {
	claims, ok := middleware.ClaimsFromContext(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, false
	}
	user, err := uc.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		flash(w, http.StatusNotFound, levelError, "User not found", "")
		return nil, false
	}
	if err != nil {
		uc.logger.Error("failed to load user", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Database error", "")
		return nil, false
	}
	return user, true
}

// GetProfile retrieves the user's profile
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, ok := uc.currentUser(ctx, w)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, newProfileResponse(user))
}

// UpdateProfile replaces the editable profile of the signed-in user
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	var profile models.Profile
	if err := decodeJSON(r, &profile); err != nil {
		flash(w, http.StatusBadRequest, levelError, "Please check the form data", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, err := uc.users.UpdateProfile(ctx, claims.UserID, profile)
	if errors.Is(err, repository.ErrNotFound) {
		flash(w, http.StatusNotFound, levelError, "User not found", "")
		return
	}
	if err != nil {
		uc.logger.Error("failed to update profile", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error updating profile", "")
		return
	}
	respondJSON(w, http.StatusOK, struct {
		Flash
		User profileResponse `json:"user"`
	}{
		Flash: Flash{Level: levelSuccess, Message: "Profile updated successfully"},
		User:  newProfileResponse(user),
	})
}

type paymentMethodView struct {
	models.PaymentMethod
	Masked string `json:"masked"`
}

// GetPaymentMethods lists the simulated stored cards of the signed-in user
func (uc *UserController) GetPaymentMethods(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	user, ok := uc.currentUser(ctx, w)
	if !ok {
		return
	}
	holder := user.DisplayName()
	cards := []models.PaymentMethod{
		{Brand: "VISA", Holder: holder, Last4: "4242", Exp: "12/28", IsDefault: true},
		{Brand: "Mastercard", Holder: holder, Last4: "1881", Exp: "07/27"},
	}
	views := make([]paymentMethodView, 0, len(cards))
	for _, c := range cards {
		views = append(views, paymentMethodView{PaymentMethod: c, Masked: utils.MaskCard(c.Last4)})
	}
	respondJSON(w, http.StatusOK, views)
}

// AddPaymentMethod acknowledges a card without storing anything
func (uc *UserController) AddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	flash(w, http.StatusOK, levelSuccess, "Payment method added (simulated). No data was stored.", "/account/payment-methods")
}
