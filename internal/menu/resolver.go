package menu

import (
	"context"
	"fmt"

	"github.com/HerbHall/storefront/internal/cache"
	"github.com/HerbHall/storefront/pkg/models"
	"go.uber.org/zap"
)

const locationsKey = "all"

// Resolver maps a URL slug to a location.
type Resolver struct {
	backend Backend
	cache   *cache.Cache[[]models.Location]
	logger  *zap.Logger
}

// NewResolver creates a Resolver that reads the location collection through c.
func NewResolver(backend Backend, c *cache.Cache[[]models.Location], logger *zap.Logger) *Resolver {
	return &Resolver{backend: backend, cache: c, logger: logger}
}

// Locations returns the (possibly cached) location collection.
func (r *Resolver) Locations(ctx context.Context) ([]models.Location, error) {
	locs, err := r.cache.Get(ctx, locationsKey, r.backend.Locations)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLocationFetch, err)
	}
	return locs, nil
}

// Resolve returns the first location, in collection order, whose normalized
// name equals the normalized slug.
func (r *Resolver) Resolve(ctx context.Context, slug string) (models.Location, error) {
	want := models.Slugify(slug)
	if want == "" {
		return models.Location{}, fmt.Errorf("%w: empty slug", ErrLocationNotFound)
	}

	locs, err := r.Locations(ctx)
	if err != nil {
		return models.Location{}, err
	}

	for i := range locs {
		if models.Slugify(locs[i].Name) == want {
			return locs[i], nil
		}
	}
	r.logger.Debug("no location matches slug", zap.String("slug", slug), zap.Int("locations", len(locs)))
	return models.Location{}, fmt.Errorf("%w: %q", ErrLocationNotFound, slug)
}
