package menu

import (
	"context"
	"fmt"

	"github.com/HerbHall/storefront/internal/cache"
	"github.com/HerbHall/storefront/internal/params"
	"github.com/HerbHall/storefront/internal/storeapi"
	"github.com/HerbHall/storefront/pkg/models"
	"go.uber.org/zap"
)

// ResultPage is one page of server search results before post-filtering.
// TotalCount is the server's count for the query.
type ResultPage struct {
	Items      []models.Product
	TotalCount int
	PageSize   int
	Offset     int
}

// Executor runs the parameterized product search.
type Executor struct {
	backend Backend
	cache   *cache.Cache[storeapi.ProductPage]
	logger  *zap.Logger
}

// NewExecutor creates an Executor that caches pages in c by query.
func NewExecutor(backend Backend, c *cache.Cache[storeapi.ProductPage], logger *zap.Logger) *Executor {
	return &Executor{backend: backend, cache: c, logger: logger}
}

// BuildQuery maps the navigable state onto the server's search parameters.
// Dietary tags are not a server filter; they are applied afterwards.
func BuildQuery(s params.State) storeapi.ProductQuery {
	return storeapi.ProductQuery{
		Limit:              s.Page.PageSize,
		Offset:             s.Page.Offset(),
		SortBy:             string(s.Sort.By),
		SortOrder:          string(s.Sort.Order),
		Query:              s.Filter.SearchQuery,
		Category:           s.Filter.Category,
		AvailabilityStatus: s.Filter.AvailabilityStatus,
		MinPrice:           s.Filter.PriceMin,
		MaxPrice:           s.Filter.PriceMax,
	}
}

// Run executes the search for s. A nil allow-list means the assignment set is
// not known yet, and Run refuses to contact the backend.
func (x *Executor) Run(ctx context.Context, allow *models.AssignmentSet, s params.State) (ResultPage, error) {
	if allow == nil {
		return ResultPage{}, ErrGated
	}

	q := BuildQuery(s)
	page, err := x.cache.Get(ctx, q.Key(), func(ctx context.Context) (storeapi.ProductPage, error) {
		return x.backend.Products(ctx, q)
	})
	if err != nil {
		return ResultPage{}, fmt.Errorf("%w: %w", ErrProductFetch, err)
	}

	x.logger.Debug("product query complete",
		zap.String("query", q.Key()),
		zap.Int("items", len(page.Items)),
		zap.Int("total", page.Total),
	)
	return ResultPage{
		Items:      page.Items,
		TotalCount: page.Total,
		PageSize:   q.Limit,
		Offset:     q.Offset,
	}, nil
}
