package controllers

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"go-storefront/models"
	"go-storefront/utils"
)

func setupUserController() (*UserController, *fakeUsers, *fakeNotifier) {
	users := newFakeUsers()
	notifier := newFakeNotifier()
	return NewUserController(users, notifier, time.Hour, zap.NewNop()), users, notifier
}

func seedUser(t *testing.T, users *fakeUsers, email, password string, verified bool) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &models.User{Username: "juanperez", Email: email, Password: string(hash), Role: "user", IsVerified: verified}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestRegister_SendsVerificationLinkAndVerifies(t *testing.T) {
	uc, users, notifier := setupUserController()

	rr := serve(uc.Register, http.MethodPost, "/register",
		`{"username":"juan","email":" Juan@Example.com ","password":"correct horse"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	email := notifier.next(t)
	assert.Equal(t, "verify", email.kind)
	assert.Equal(t, "juan@example.com", email.to)
	assert.Len(t, email.token, 43)

	stored, err := users.FindByEmail(context.Background(), "juan@example.com")
	require.NoError(t, err)
	assert.False(t, stored.IsVerified)
	assert.NotEqual(t, "correct horse", stored.Password)

	rr = serve(uc.VerifyEmail, http.MethodGet, "/verify?token="+url.QueryEscape(email.token), "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = serve(uc.VerifyEmail, http.MethodGet, "/verify?token="+url.QueryEscape(email.token), "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRegister_Rejections(t *testing.T) {
	uc, users, _ := setupUserController()
	seedUser(t, users, "taken@example.com", "password123", true)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"username":`},
		{"bad email", `{"username":"juan","email":"nope","password":"password123"}`},
		{"short password", `{"username":"juan","email":"j@example.com","password":"short"}`},
		{"existing email", `{"username":"juan","email":"TAKEN@example.com","password":"password123"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(uc.Register, http.MethodPost, "/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestLogin(t *testing.T) {
	uc, users, _ := setupUserController()
	verified := seedUser(t, users, "ana@example.com", "password123", true)
	seedUser(t, users, "new@example.com", "password123", false)

	rr := serve(uc.Login, http.MethodPost, "/login", `{"email":"ana@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(uc.Login, http.MethodPost, "/login", `{"email":"ghost@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(uc.Login, http.MethodPost, "/login", `{"email":"new@example.com","password":"password123"}`)
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = serve(uc.Login, http.MethodPost, "/login", `{"email":"Ana@example.com","password":"password123"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp map[string]string
	decodeBody(t, rr, &resp)
	claims, err := utils.ParseJWT(resp["token"])
	require.NoError(t, err)
	assert.Equal(t, verified.ID.Hex(), claims.UserID)
	assert.Equal(t, "user", claims.Role)
	assert.WithinDuration(t, time.Now().Add(time.Hour), time.Unix(claims.ExpiresAt, 0), time.Minute)
}

func TestGetProfile_MasksEmail(t *testing.T) {
	uc, users, _ := setupUserController()
	u := seedUser(t, users, "juanperez@gmail.com", "password123", true)

	rr := serve(uc.GetProfile, http.MethodGet, "/account", "", withUser(u.ID.Hex(), u.Email, "user"))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp profileResponse
	decodeBody(t, rr, &resp)
	assert.Equal(t, "ju******z@gmail.com", resp.MaskedEmail)
	assert.Equal(t, "juanperez@g.com", resp.ShortEmail)
	assert.Equal(t, "juanperez", resp.DisplayName)
}

func TestUpdateProfile(t *testing.T) {
	uc, users, _ := setupUserController()
	u := seedUser(t, users, "ana@example.com", "password123", true)
	auth := withUser(u.ID.Hex(), u.Email, "user")

	rr := serve(uc.UpdateProfile, http.MethodPut, "/account",
		`{"display_name":"Ana R.","gamer_tag":"anarchy","address":{"city":"Cusco","zipcode":"08000"}}`, auth)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	stored, err := users.FindByID(context.Background(), u.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, "Ana R.", stored.DisplayName())
	assert.Equal(t, "Cusco", stored.Profile.Address.City)

	rr = serve(uc.UpdateProfile, http.MethodPut, "/account", `{"address":{"zipcode":"12345678901"}}`, auth)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPaymentMethods(t *testing.T) {
	uc, users, _ := setupUserController()
	u := seedUser(t, users, "ana@example.com", "password123", true)
	auth := withUser(u.ID.Hex(), u.Email, "user")

	rr := serve(uc.GetPaymentMethods, http.MethodGet, "/account/payment-methods", "", auth)
	require.Equal(t, http.StatusOK, rr.Code)
	var cards []paymentMethodView
	decodeBody(t, rr, &cards)
	require.Len(t, cards, 2)
	assert.Equal(t, "**** **** **** 4242", cards[0].Masked)
	assert.True(t, cards[0].IsDefault)
	assert.Equal(t, "juanperez", cards[0].Holder)

	rr = serve(uc.AddPaymentMethod, http.MethodPost, "/account/payment-methods", "", auth)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp Flash
	decodeBody(t, rr, &resp)
	assert.Equal(t, levelSuccess, resp.Level)
}

func TestMobileLogin(t *testing.T) {
	users := newFakeUsers()
	mc := NewMobileController(users, newFakeProducts(), zap.NewNop())
	u := seedUser(t, users, "ana@example.com", "password123", true)

	tests := []struct {
		name  string
		body  string
		ok    bool
		error string
	}{
		{"missing data", "email=ana@example.com", false, "Missing data"},
		{"unknown user", "email=ghost@example.com&password=x", false, "User not found"},
		{"wrong password", "email=ana@example.com&password=nope", false, "Wrong password"},
		{"valid", "email=ana@example.com&password=password123", true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := serve(mc.Login, http.MethodPost, "/api/login", tt.body, withForm())
			require.Equal(t, http.StatusOK, rr.Code)
			var resp struct {
				OK    bool       `json:"ok"`
				Error string     `json:"error"`
				User  mobileUser `json:"user"`
			}
			decodeBody(t, rr, &resp)
			assert.Equal(t, tt.ok, resp.OK)
			assert.Equal(t, tt.error, resp.Error)
			if tt.ok {
				assert.Equal(t, u.ID.Hex(), resp.User.ID)
				assert.Equal(t, "juanperez", resp.User.Name)
			}
		})
	}
}

func TestMobileProducts(t *testing.T) {
	mc := NewMobileController(newFakeUsers(), newFakeProducts(product(1, "19.9", "0", 1), product(2, "5.00", "0", 0)), zap.NewNop())

	rr := serve(mc.Products, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		OK       bool            `json:"ok"`
		Products []mobileProduct `json:"products"`
	}
	decodeBody(t, rr, &resp)
	assert.True(t, resp.OK)
	require.Len(t, resp.Products, 1)
	assert.Equal(t, "19.90", resp.Products[0].Price)
}
