package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Taxon is a named classification a product can belong to
// (category, brand, studio, theme or segment).
type Taxon struct {
	Name string `bson:"name" json:"name" validate:"required,max=120"`
	Slug string `bson:"slug" json:"slug" validate:"required,max=120"`
}

// Product represents an item of the catalog
type Product struct {
	ID            int64           `bson:"_id" json:"id"`
	Name          string          `bson:"name" json:"name" validate:"required,max=120"`
	Slug          string          `bson:"slug" json:"slug" validate:"required,max=120"`
	Description   string          `bson:"description,omitempty" json:"description,omitempty"`
	Image         string          `bson:"image,omitempty" json:"image,omitempty"`
	Price         decimal.Decimal `bson:"price" json:"price"`
	Discount      decimal.Decimal `bson:"discount" json:"discount"` // percent, 10.00 = 10%
	Stock         int             `bson:"stock" json:"stock" validate:"gte=0"`
	Active        bool            `bson:"active" json:"active"`
	Featured      bool            `bson:"featured" json:"featured"`
	FeaturedOrder int             `bson:"featured_order" json:"featured_order" validate:"gte=0"`
	Category      Taxon           `bson:"category" json:"category"`
	Brand         *Taxon          `bson:"brand,omitempty" json:"brand,omitempty"`
	Studio        *Taxon          `bson:"studio,omitempty" json:"studio,omitempty"`
	Themes        []Taxon         `bson:"themes,omitempty" json:"themes,omitempty"`
	Segment       *Taxon          `bson:"segment,omitempty" json:"segment,omitempty"`
	CreatedAt     time.Time       `bson:"created_at" json:"created_at"`
}

// Available reports whether the product can be put in a cart.
func (p Product) Available() bool {
	return p.Active && p.Stock > 0
}
