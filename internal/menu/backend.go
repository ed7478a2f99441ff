package menu

import (
	"context"

	"github.com/HerbHall/storefront/internal/storeapi"
	"github.com/HerbHall/storefront/pkg/models"
)

// Backend is the subset of the storefront REST API the menu reads from.
type Backend interface {
	Locations(ctx context.Context) ([]models.Location, error)
	ProductLocations(ctx context.Context, locationName string, limit int) ([]string, error)
	Products(ctx context.Context, q storeapi.ProductQuery) (storeapi.ProductPage, error)
}

// Compile-time interface guard.
var _ Backend = (*storeapi.Client)(nil)
