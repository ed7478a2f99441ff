package storeapi

import (
	"net/url"
	"strconv"

	"github.com/HerbHall/storefront/pkg/models"
	"github.com/shopspring/decimal"
)

// ProductQuery is the server-side parameter set for GET /products.
type ProductQuery struct {
	Limit              int
	Offset             int
	SortBy             string
	SortOrder          string
	Query              string
	Category           string
	AvailabilityStatus string
	MinPrice           *decimal.Decimal
	MaxPrice           *decimal.Decimal
}

// Values renders the query. Archived products are always excluded; optional
// filters are only sent when set.
func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	v.Set("is_archived", "false")
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("offset", strconv.Itoa(q.Offset))
	v.Set("sort_by", q.SortBy)
	v.Set("sort_order", q.SortOrder)
	if q.Query != "" {
		v.Set("query", q.Query)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.AvailabilityStatus != "" {
		v.Set("availability_status", q.AvailabilityStatus)
	}
	if q.MinPrice != nil {
		v.Set("min_price", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("max_price", q.MaxPrice.String())
	}
	return v
}

// Key identifies the query for caching.
func (q ProductQuery) Key() string {
	return q.Values().Encode()
}

// ProductPage is one page of product search results. Total counts every
// match on the server, not just the returned items.
type ProductPage struct {
	Items []models.Product
	Total int
}
