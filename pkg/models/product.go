package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// AvailabilityStatus is the stock state reported for a product.
type AvailabilityStatus string

const (
	AvailabilityInStock    AvailabilityStatus = "in_stock"
	AvailabilityLowStock   AvailabilityStatus = "low_stock"
	AvailabilityOutOfStock AvailabilityStatus = "out_of_stock"
	AvailabilityPreorder   AvailabilityStatus = "preorder"
)

// Product is a catalog item with numeric fields already normalized to
// fixed-point decimals.
//
// DietaryTags keeps the backend's raw encoding (a JSON array, a JSON array
// serialized into a string, or a delimited string). Use the tags package to
// normalize it before comparing.
type Product struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Description        string             `json:"description,omitempty"`
	Price              decimal.Decimal    `json:"price"`
	CompareAtPrice     *decimal.Decimal   `json:"compare_at_price,omitempty"`
	StockQuantity      *int               `json:"stock_quantity,omitempty"`
	AvailabilityStatus AvailabilityStatus `json:"availability_status"`
	DietaryTags        json.RawMessage    `json:"dietary_tags,omitempty"`
	Category           string             `json:"category,omitempty"`
	IsFeatured         bool               `json:"is_featured"`
	ImageURL           string             `json:"image_url,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
}

// OnSale reports whether the product has a compare-at price above its price.
func (p Product) OnSale() bool {
	return p.CompareAtPrice != nil && p.CompareAtPrice.GreaterThan(p.Price)
}

// MarshalJSON adds the derived card fields a menu client renders:
// availability_label, purchasable and on_sale.
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		AvailabilityLabel string `json:"availability_label"`
		Purchasable       bool   `json:"purchasable"`
		OnSale            bool   `json:"on_sale"`
	}{
		product:           product(p),
		AvailabilityLabel: p.AvailabilityStatus.Label(),
		Purchasable:       p.AvailabilityStatus.Purchasable(),
		OnSale:            p.OnSale(),
	})
}
