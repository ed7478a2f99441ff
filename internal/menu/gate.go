package menu

import (
	"context"
	"fmt"

	"github.com/HerbHall/storefront/internal/cache"
	"github.com/HerbHall/storefront/pkg/models"
	"go.uber.org/zap"
)

// DefaultAssignmentLimit caps the assignment list fetched per location.
const DefaultAssignmentLimit = 1000

// Gate produces the allow-list of product IDs assigned to a location. The
// product query may only run once Allow has succeeded.
type Gate struct {
	backend Backend
	cache   *cache.Cache[models.AssignmentSet]
	limit   int
	logger  *zap.Logger
}

// NewGate creates a Gate. A non-positive limit means DefaultAssignmentLimit.
func NewGate(backend Backend, c *cache.Cache[models.AssignmentSet], limit int, logger *zap.Logger) *Gate {
	if limit <= 0 {
		limit = DefaultAssignmentLimit
	}
	return &Gate{backend: backend, cache: c, limit: limit, logger: logger}
}

// Allow returns the assignment set for the named location. An empty set is a
// valid result and yields an empty menu.
func (g *Gate) Allow(ctx context.Context, locationName string) (models.AssignmentSet, error) {
	set, err := g.cache.Get(ctx, locationName, func(ctx context.Context) (models.AssignmentSet, error) {
		ids, err := g.backend.ProductLocations(ctx, locationName, g.limit)
		if err != nil {
			return nil, err
		}
		if len(ids) >= g.limit {
			g.logger.Warn("assignment list hit limit, menu may be truncated",
				zap.String("location", locationName),
				zap.Int("limit", g.limit),
			)
		}
		return models.NewAssignmentSet(ids...), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrAssignmentFetch, locationName, err)
	}
	return set, nil
}
