package testutil

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/HerbHall/storefront/pkg/models"
)

// NewProduct returns a Product with sensible defaults, suitable for test fixtures.
// Override individual fields after creation as needed.
func NewProduct(opts ...func(*models.Product)) models.Product {
	p := models.Product{
		ID:                 uuid.New().String(),
		Name:               "Test Bun",
		Price:              decimal.RequireFromString("3.50"),
		AvailabilityStatus: models.AvailabilityInStock,
		Category:           "buns",
		CreatedAt:          time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

// WithID sets the product ID.
func WithID(id string) func(*models.Product) {
	return func(p *models.Product) { p.ID = id }
}

// WithName sets the product name.
func WithName(name string) func(*models.Product) {
	return func(p *models.Product) { p.Name = name }
}

// WithPrice sets the product price from its decimal string form.
func WithPrice(price string) func(*models.Product) {
	return func(p *models.Product) { p.Price = decimal.RequireFromString(price) }
}

// WithRawTags sets the raw dietary tag payload exactly as the backend would send it.
func WithRawTags(raw string) func(*models.Product) {
	return func(p *models.Product) { p.DietaryTags = json.RawMessage(raw) }
}

// WithTags sets the dietary tags as a JSON array.
func WithTags(tags ...string) func(*models.Product) {
	return func(p *models.Product) {
		raw, _ := json.Marshal(tags)
		p.DietaryTags = raw
	}
}

// WithCategory sets the product category.
func WithCategory(category string) func(*models.Product) {
	return func(p *models.Product) { p.Category = category }
}

// NewLocation returns an active Location whose slug derives from name.
func NewLocation(name string) models.Location {
	return models.Location{
		ID:                 uuid.New().String(),
		Name:               name,
		Slug:               models.Slugify(name),
		SupportsDelivery:   true,
		SupportsCollection: true,
		DeliveryFee:        decimal.RequireFromString("2.50"),
		MinimumOrder:       decimal.RequireFromString("10"),
		PrepTimeMinutes:    20,
		IsActive:           true,
	}
}
