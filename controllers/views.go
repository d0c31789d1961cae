package controllers

import (
	"time"

	"github.com/shopspring/decimal"

	"go-storefront/cart"
	"go-storefront/models"
)

type productView struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Slug        string         `json:"slug"`
	Description string         `json:"description,omitempty"`
	Image       string         `json:"image,omitempty"`
	Price       string         `json:"price"`
	FinalPrice  string         `json:"final_price"`
	Discount    string         `json:"discount"`
	Stock       int            `json:"stock"`
	Available   bool           `json:"available"`
	Featured    bool           `json:"featured"`
	Category    models.Taxon   `json:"category"`
	Brand       *models.Taxon  `json:"brand,omitempty"`
	Studio      *models.Taxon  `json:"studio,omitempty"`
	Themes      []models.Taxon `json:"themes,omitempty"`
	Segment     *models.Taxon  `json:"segment,omitempty"`
}

// newProductView renders p for the catalog. Money is always rendered with two decimals.
func newProductView(p models.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Image:       p.Image,
		Price:       p.Price.StringFixed(2),
		FinalPrice:  cart.DiscountedUnitPrice(p).StringFixed(2),
		Discount:    p.Discount.StringFixed(2),
		Stock:       p.Stock,
		Available:   p.Available(),
		Featured:    p.Featured,
		Category:    p.Category,
		Brand:       p.Brand,
		Studio:      p.Studio,
		Themes:      p.Themes,
		Segment:     p.Segment,
	}
}

func newProductViews(products []models.Product) []productView {
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, newProductView(p))
	}
	return views
}

type lineView struct {
	ProductID    int64  `json:"product_id"`
	Name         string `json:"name"`
	Slug         string `json:"slug"`
	Image        string `json:"image,omitempty"`
	Quantity     int    `json:"quantity"`
	Stock        int    `json:"stock"`
	BasePrice    string `json:"base_price"`
	UnitPrice    string `json:"unit_price"`
	BaseSubtotal string `json:"base_subtotal"`
	Subtotal     string `json:"subtotal"`
	Discount     string `json:"discount"`
}

type cartView struct {
	Items         []lineView `json:"items"`
	Count         int        `json:"count"`
	Subtotal      string     `json:"subtotal"`
	DiscountTotal string     `json:"discount_total"`
	Shipping      string     `json:"shipping"`
	GrandTotal    string     `json:"grand_total"`
}

func newCartView(v cart.View) cartView {
	items := make([]lineView, 0, len(v.Lines))
	for _, l := range v.Lines {
		items = append(items, lineView{
			ProductID:    l.Product.ID,
			Name:         l.Product.Name,
			Slug:         l.Product.Slug,
			Image:        l.Product.Image,
			Quantity:     l.Quantity,
			Stock:        l.Product.Stock,
			BasePrice:    l.BasePrice.StringFixed(2),
			UnitPrice:    l.UnitPrice.StringFixed(2),
			BaseSubtotal: l.BaseSubtotal.StringFixed(2),
			Subtotal:     l.Subtotal.StringFixed(2),
			Discount:     l.Discount.StringFixed(2),
		})
	}
	return cartView{
		Items:         items,
		Count:         v.Count,
		Subtotal:      v.Totals.Subtotal.StringFixed(2),
		DiscountTotal: v.Totals.DiscountTotal.StringFixed(2),
		Shipping:      v.Totals.Shipping.StringFixed(2),
		GrandTotal:    v.Totals.GrandTotal.StringFixed(2),
	}
}

type orderItemView struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
}

type orderView struct {
	ID        string          `json:"id"`
	Status    string          `json:"status"`
	Total     string          `json:"total"`
	Items     []orderItemView `json:"items"`
	CreatedAt string          `json:"created_at"`
}

func newOrderView(o models.Order) orderView {
	items := make([]orderItemView, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemView{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice.StringFixed(2),
			Quantity:  it.Quantity,
			Subtotal:  it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))).StringFixed(2),
		})
	}
	return orderView{
		ID:        o.ID.Hex(),
		Status:    string(o.Status),
		Total:     o.Total.StringFixed(2),
		Items:     items,
		CreatedAt: o.CreatedAt.UTC().Format(time.RFC3339),
	}
}
