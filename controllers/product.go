package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"go-storefront/cart"
	"go-storefront/middleware"
	"go-storefront/models"
	"go-storefront/repository"
)

// Shelf sizes of the home and brand pages
const (
	homeLimit  = 8
	taxonLimit = 12
)

// ProductController handles catalog requests
type ProductController struct {
	products ProductStore
	sessions SessionStore
	logger   *zap.Logger
}

// NewProductController creates a new ProductController
func NewProductController(products ProductStore, sessions SessionStore, logger *zap.Logger) *ProductController {
	return &ProductController{
		products: products,
		sessions: sessions,
		logger:   logger,
	}
}

// Home returns the featured and the newest products along with the taxonomy shelves
func (pc *ProductController) Home(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	featured, err := pc.products.Featured(ctx, homeLimit)
	if err != nil {
		pc.logger.Error("failed to load featured products", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving products", "")
		return
	}
	newest, err := pc.products.Newest(ctx, homeLimit)
	if err != nil {
		pc.logger.Error("failed to load newest products", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving products", "")
		return
	}

	resp := map[string]interface{}{
		"featured": newProductViews(featured),
		"newest":   newProductViews(newest),
	}
	for _, shelf := range []struct {
		key, field string
		limit      int
	}{
		{"categories", repository.FieldCategory, homeLimit},
		{"brands", repository.FieldBrand, taxonLimit},
		{"themes", repository.FieldThemes, taxonLimit},
	} {
		entries, err := pc.products.Taxa(ctx, shelf.field, shelf.limit)
		if err != nil {
			pc.logger.Error("failed to load home shelf", zap.String("shelf", shelf.key), zap.Error(err))
			flash(w, http.StatusInternalServerError, levelError, "Error retrieving products", "")
			return
		}
		resp[shelf.key] = entries
	}
	respondJSON(w, http.StatusOK, resp)
}

func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func filterFromQuery(r *http.Request) repository.ProductFilter {
	q := r.URL.Query()
	f := repository.ProductFilter{
		Query:    strings.TrimSpace(q.Get("q")),
		Category: q.Get("cat"),
		Brand:    q.Get("brand"),
		Studio:   q.Get("studio"),
		Theme:    q.Get("theme"),
		Segment:  q.Get("segment"),
		Featured: truthy(q.Get("featured")),
		Offers:   truthy(q.Get("offers")),
		PageSize: repository.DefaultPageSize,
	}
	if page, err := strconv.Atoi(q.Get("page")); err == nil && page > 0 {
		f.Page = page
	} else {
		f.Page = 1
	}
	return f
}

// GetProducts lists available products, filtered and paginated
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	f := filterFromQuery(r)

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	products, total, err := pc.products.List(ctx, f)
	if err != nil {
		pc.logger.Error("failed to list products", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving products", "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"products": newProductViews(products),
		"page":     f.Page,
		"pages":    pageCount(total, f.PageSize),
		"total":    total,
	})
}

// GetProductBySlug retrieves an active product
func (pc *ProductController) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	product, err := pc.products.FindBySlug(ctx, mux.Vars(r)["slug"])
	if errors.Is(err, repository.ErrNotFound) {
		flash(w, http.StatusNotFound, levelError, "Product not found", "/products")
		return
	}
	if err != nil {
		pc.logger.Error("failed to load product", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving product", "")
		return
	}
	respondJSON(w, http.StatusOK, newProductView(*product))
}

type menuResponse struct {
	*repository.Menu
	CartCount int `json:"cart_count"`
}

// Menu returns the navigation taxonomies and the cart badge count
func (pc *ProductController) Menu(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	menu, err := pc.products.Menu(ctx)
	if err != nil {
		pc.logger.Error("failed to build menu", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving menu", "")
		return
	}

	count := 0
	if state, err := pc.sessions.Load(ctx, middleware.SessionID(ctx)); err == nil {
		count = state.Count()
	} else {
		pc.logger.Warn("failed to load session for menu", zap.Error(err))
	}
	respondJSON(w, http.StatusOK, menuResponse{Menu: menu, CartCount: count})
}

// decodeProduct reads and validates an admin product payload
func decodeProduct(r *http.Request) (models.Product, string) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		return product, "Invalid input"
	}
	if err := validate.Struct(product); err != nil {
		return product, "Invalid product: " + err.Error()
	}
	if product.Price.IsNegative() {
		return product, "Price cannot be negative"
	}
	if !cart.ValidDiscount(product.Discount) {
		return product, "Discount must be between 0 and 100"
	}
	product.Price = product.Price.Round(2)
	product.Discount = product.Discount.Round(2)
	return product, ""
}

// CreateProduct handles adding a new product (Admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	product, msg := decodeProduct(r)
	if msg != "" {
		flash(w, http.StatusBadRequest, levelError, msg, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	err := pc.products.Create(ctx, &product)
	if errors.Is(err, repository.ErrDuplicate) {
		flash(w, http.StatusConflict, levelError, "A product with this slug already exists", "")
		return
	}
	if err != nil {
		pc.logger.Error("failed to create product", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error creating product", "")
		return
	}
	respondJSON(w, http.StatusCreated, newProductView(product))
}

// UpdateProduct handles updating a product (Admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDVar(r)
	if !ok {
		flash(w, http.StatusBadRequest, levelError, "Invalid product ID", "")
		return
	}
	product, msg := decodeProduct(r)
	if msg != "" {
		flash(w, http.StatusBadRequest, levelError, msg, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	err := pc.products.Update(ctx, id, product)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		flash(w, http.StatusNotFound, levelError, "Product not found", "")
		return
	case errors.Is(err, repository.ErrDuplicate):
		flash(w, http.StatusConflict, levelError, "A product with this slug already exists", "")
		return
	case err != nil:
		pc.logger.Error("failed to update product", zap.Int64("id", id), zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error updating product", "")
		return
	}
	flash(w, http.StatusOK, levelSuccess, "Product updated successfully", "")
}

// DeleteProduct handles deleting a product (Admin only).
// Carts still holding it drop it on their next read.
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := productIDVar(r)
	if !ok {
		flash(w, http.StatusBadRequest, levelError, "Invalid product ID", "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	err := pc.products.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		flash(w, http.StatusNotFound, levelError, "Product not found", "")
		return
	}
	if err != nil {
		pc.logger.Error("failed to delete product", zap.Int64("id", id), zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error deleting product", "")
		return
	}
	flash(w, http.StatusOK, levelSuccess, "Product deleted successfully", "")
}
