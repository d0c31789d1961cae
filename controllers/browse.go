package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"go-storefront/repository"
)

// pageCount is the number of pages of size needed for total products
func pageCount(total int64, size int) int64 {
	return (total + int64(size) - 1) / int64(size)
}

// Brands lists every brand with its available products, plus the most popular products
func (pc *ProductController) Brands(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	brands, err := pc.products.Taxa(ctx, repository.FieldBrand, 0)
	if err != nil {
		pc.logger.Error("failed to list brands", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving brands", "")
		return
	}
	popular, err := pc.products.Popular(ctx, homeLimit)
	if err != nil {
		pc.logger.Error("failed to load popular products", zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving brands", "")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"brands":  brands,
		"popular": newProductViews(popular),
	})
}

type facet struct {
	key   string
	field string
}

// taxonPage serves the products of one taxon with the facets counted over the whole taxon.
// f already carries the taxon and the visitor's refinements; base carries only the taxon.
func (pc *ProductController) taxonPage(w http.ResponseWriter, r *http.Request, field, label string, base, f repository.ProductFilter, facets []facet) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	taxon, err := pc.products.FindTaxon(ctx, field, mux.Vars(r)["slug"])
	if errors.Is(err, repository.ErrNotFound) {
		flash(w, http.StatusNotFound, levelError, label+" not found", "/products")
		return
	}
	if err != nil {
		pc.logger.Error("failed to load taxon", zap.String("field", field), zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving products", "")
		return
	}

	products, total, err := pc.products.List(ctx, f)
	if err != nil {
		pc.logger.Error("failed to list products", zap.String("field", field), zap.Error(err))
		flash(w, http.StatusInternalServerError, levelError, "Error retrieving products", "")
		return
	}

	resp := map[string]interface{}{
		"taxon":    taxon,
		"products": newProductViews(products),
		"page":     f.Page,
		"pages":    pageCount(total, f.PageSize),
		"total":    total,
		"filters": map[string]string{
			"brand":   f.Brand,
			"studio":  f.Studio,
			"segment": f.Segment,
		},
	}
	for _, fc := range facets {
		entries, err := pc.products.Facets(ctx, base, fc.field)
		if err != nil {
			pc.logger.Error("failed to count facets", zap.String("field", fc.field), zap.Error(err))
			flash(w, http.StatusInternalServerError, levelError, "Error retrieving products", "")
			return
		}
		resp[fc.key] = entries
	}
	respondJSON(w, http.StatusOK, resp)
}

// refinements keeps the page and the studio and segment refinements of the query
func refinements(r *http.Request) repository.ProductFilter {
	q := filterFromQuery(r)
	return repository.ProductFilter{
		Studio:   q.Studio,
		Segment:  q.Segment,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
}

// BrandDetail lists the available products of a brand, refined by studio and segment
func (pc *ProductController) BrandDetail(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	f := refinements(r)
	f.Brand = slug
	pc.taxonPage(w, r, repository.FieldBrand, "Brand", repository.ProductFilter{Brand: slug}, f, []facet{
		{key: "studios", field: repository.FieldStudio},
	})
}

// ThemeDetail lists the available products of a theme, refined by brand, studio and segment
func (pc *ProductController) ThemeDetail(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	f := refinements(r)
	f.Theme = slug
	f.Brand = r.URL.Query().Get("brand")
	pc.taxonPage(w, r, repository.FieldThemes, "Theme", repository.ProductFilter{Theme: slug}, f, []facet{
		{key: "brands", field: repository.FieldBrand},
		{key: "studios", field: repository.FieldStudio},
	})
}
