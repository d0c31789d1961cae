package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"go-storefront/controllers"
	"go-storefront/middleware"
)

// Controllers groups the handlers mounted by RegisterRoutes
type Controllers struct {
	User       *controllers.UserController
	Product    *controllers.ProductController
	Cart       *controllers.CartController
	Order      *controllers.OrderController
	Newsletter *controllers.NewsletterController
	Mobile     *controllers.MobileController
}

// RegisterRoutes sets up all the routes for the application
func RegisterRoutes(router *mux.Router, c Controllers) {
	// Catalog
	router.HandleFunc("/", c.Product.Home).Methods(http.MethodGet)
	router.HandleFunc("/products", c.Product.GetProducts).Methods(http.MethodGet)
	router.HandleFunc("/products/{slug}", c.Product.GetProductBySlug).Methods(http.MethodGet)
	router.HandleFunc("/menu", c.Product.Menu).Methods(http.MethodGet)
	router.HandleFunc("/brands", c.Product.Brands).Methods(http.MethodGet)
	router.HandleFunc("/brands/{slug}", c.Product.BrandDetail).Methods(http.MethodGet)
	router.HandleFunc("/themes/{slug}", c.Product.ThemeDetail).Methods(http.MethodGet)

	// Cart
	router.HandleFunc("/cart", c.Cart.GetCart).Methods(http.MethodGet)
	router.HandleFunc("/cart/add/{id:[0-9]+}", c.Cart.AddToCart).Methods(http.MethodPost)
	router.HandleFunc("/cart/remove/{id:[0-9]+}", c.Cart.RemoveFromCart).Methods(http.MethodPost)
	router.Handle("/checkout", middleware.OptionalAuth(http.HandlerFunc(c.Order.Checkout))).Methods(http.MethodPost)

	// Accounts
	router.HandleFunc("/register", c.User.Register).Methods(http.MethodPost)
	router.HandleFunc("/login", c.User.Login).Methods(http.MethodPost)
	router.HandleFunc("/verify", c.User.VerifyEmail).Methods(http.MethodGet)

	// Newsletter
	router.HandleFunc("/newsletter/subscribe", c.Newsletter.Subscribe).Methods(http.MethodPost)
	router.HandleFunc("/newsletter/confirm/{token}", c.Newsletter.Confirm).Methods(http.MethodGet)

	// Mobile app
	router.HandleFunc("/api/login", c.Mobile.Login).Methods(http.MethodPost)
	router.HandleFunc("/api/products", c.Mobile.Products).Methods(http.MethodGet)

	// Protected routes
	account := router.PathPrefix("/account").Subrouter()
	account.Use(middleware.AuthMiddleware)
	account.HandleFunc("", c.User.GetProfile).Methods(http.MethodGet)
	account.HandleFunc("", c.User.UpdateProfile).Methods(http.MethodPut)
	account.HandleFunc("/payment-methods", c.User.GetPaymentMethods).Methods(http.MethodGet)
	account.HandleFunc("/payment-methods", c.User.AddPaymentMethod).Methods(http.MethodPost)

	orders := router.PathPrefix("/orders").Subrouter()
	orders.Use(middleware.AuthMiddleware)
	orders.HandleFunc("", c.Order.GetOrders).Methods(http.MethodGet)
	orders.HandleFunc("/{id}", c.Order.GetOrder).Methods(http.MethodGet)

	// Admin routes
	admin := router.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AuthMiddleware)
	admin.Use(middleware.AdminMiddleware)
	admin.HandleFunc("/products", c.Product.CreateProduct).Methods(http.MethodPost)
	admin.HandleFunc("/products/{id:[0-9]+}", c.Product.UpdateProduct).Methods(http.MethodPut)
	admin.HandleFunc("/products/{id:[0-9]+}", c.Product.DeleteProduct).Methods(http.MethodDelete)
	admin.HandleFunc("/orders/{id}/status", c.Order.UpdateOrderStatus).Methods(http.MethodPut)
}
