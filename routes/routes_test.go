package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-storefront/controllers"
	"go-storefront/utils"
)

// newTestRouter mounts controllers without storage; only requests rejected
// before reaching a handler are safe to send through it.
func newTestRouter() *mux.Router {
	logger := zap.NewNop()
	router := mux.NewRouter()
	RegisterRoutes(router, Controllers{
		User:       controllers.NewUserController(nil, nil, time.Hour, logger),
		Product:    controllers.NewProductController(nil, nil, logger),
		Cart:       controllers.NewCartController(nil, nil, logger),
		Order:      controllers.NewOrderController(nil, nil, nil, nil, logger),
		Newsletter: controllers.NewNewsletterController(nil, nil, logger),
		Mobile:     controllers.NewMobileController(nil, nil, logger),
	})
	return router
}

func token(t *testing.T, role string) string {
	t.Helper()
	tok, err := utils.GenerateJWT("64b000000000000000000001", "ana@example.com", role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRoutes_AccessControl(t *testing.T) {
	router := newTestRouter()

	tests := []struct {
		name   string
		method string
		path   string
		auth   string
		status int
	}{
		{"account needs a token", http.MethodGet, "/account", "", http.StatusUnauthorized},
		{"orders need a token", http.MethodGet, "/orders", "", http.StatusUnauthorized},
		{"admin needs a token", http.MethodPost, "/admin/products", "", http.StatusUnauthorized},
		{"admin rejects users", http.MethodPut, "/admin/orders/abc/status", token(t, "user"), http.StatusForbidden},
		{"cart ids are numeric", http.MethodPost, "/cart/add/abc", "", http.StatusNotFound},
		{"cart add is POST only", http.MethodGet, "/cart/add/1", "", http.StatusMethodNotAllowed},
		{"brands are read only", http.MethodPost, "/brands/nintendo", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
