package menu

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HerbHall/storefront/internal/cache"
	"github.com/HerbHall/storefront/internal/params"
	"github.com/HerbHall/storefront/internal/storeapi"
	"github.com/HerbHall/storefront/pkg/models"
)

func newTestExecutor(b Backend, ttl time.Duration) *Executor {
	return NewExecutor(b, cache.New[storeapi.ProductPage]("products", ttl), zap.NewNop())
}

func TestBuildQuery(t *testing.T) {
	s := params.Decode(url.Values{
		"category":            {"cakes"},
		"price_min":           {"2.5"},
		"search":              {"choc"},
		"availability_status": {"in_stock"},
		"dietary_tags":        {"vegan"},
		"sort_by":             {"price"},
		"sort_order":          {"asc"},
		"limit":               {"24"},
		"offset":              {"48"},
	})
	q := BuildQuery(s)

	assert.Equal(t, 24, q.Limit)
	assert.Equal(t, 48, q.Offset)
	assert.Equal(t, "price", q.SortBy)
	assert.Equal(t, "asc", q.SortOrder)
	assert.Equal(t, "choc", q.Query)
	assert.Equal(t, "cakes", q.Category)
	assert.Equal(t, "in_stock", q.AvailabilityStatus)
	require.NotNil(t, q.MinPrice)
	assert.True(t, q.MinPrice.Equal(decimal.RequireFromString("2.5")))
	assert.Nil(t, q.MaxPrice)

	v := q.Values()
	assert.Equal(t, "false", v.Get("is_archived"))
	assert.NotContains(t, v, "dietary_tags", "dietary tags are applied after the fetch")
	assert.NotContains(t, v, "max_price")
}

func TestBuildQuery_Defaults(t *testing.T) {
	v := BuildQuery(params.Default()).Values()

	assert.Equal(t, url.Values{
		"is_archived": {"false"},
		"limit":       {"12"},
		"offset":      {"0"},
		"sort_by":     {"created_at"},
		"sort_order":  {"desc"},
	}, v)
}

func TestExecutor_GatedWithoutAllowList(t *testing.T) {
	b := newFakeBackend()
	x := newTestExecutor(b, 0)

	for _, s := range []params.State{
		params.Default(),
		params.Decode(url.Values{"category": {"bread"}, "search": {"rye"}}),
	} {
		_, err := x.Run(context.Background(), nil, s)
		assert.ErrorIs(t, err, ErrGated)
	}
	_, _, productCalls := b.counts()
	assert.Zero(t, productCalls, "backend must not be contacted while gated")
}

func TestExecutor_RunsWithEmptyAllowList(t *testing.T) {
	b := newFakeBackend()
	b.page = storeapi.ProductPage{Items: products("p1"), Total: 1}
	x := newTestExecutor(b, 0)

	empty := models.NewAssignmentSet()
	page, err := x.Run(context.Background(), &empty, params.Default())
	require.NoError(t, err)
	assert.Equal(t, 1, page.TotalCount)
	assert.Equal(t, 12, page.PageSize)
	assert.Equal(t, 0, page.Offset)
}

func TestExecutor_CachesByQuery(t *testing.T) {
	b := newFakeBackend()
	b.page = storeapi.ProductPage{Items: products("p1"), Total: 1}
	x := newTestExecutor(b, time.Minute)
	allow := models.NewAssignmentSet("p1")

	s := params.Default()
	_, _ = x.Run(context.Background(), &allow, s)
	_, _ = x.Run(context.Background(), &allow, s)
	_, _, calls := b.counts()
	assert.Equal(t, 1, calls)

	next, err := params.Set(s, params.KeyCategory, "bread")
	require.NoError(t, err)
	_, _ = x.Run(context.Background(), &allow, next)
	_, _, calls = b.counts()
	assert.Equal(t, 2, calls, "a different query is a new fetch")
}

func TestExecutor_WrapsFailure(t *testing.T) {
	b := newFakeBackend()
	b.productsErr = &storeapi.StatusError{Endpoint: storeapi.EndpointProducts, StatusCode: 503}
	x := newTestExecutor(b, time.Minute)
	allow := models.NewAssignmentSet()

	_, err := x.Run(context.Background(), &allow, params.Default())
	assert.ErrorIs(t, err, ErrProductFetch)
	var se *storeapi.StatusError
	assert.True(t, errors.As(err, &se))
}
