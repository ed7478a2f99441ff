// Package params maps the menu screen's navigable state to and from the URL
// query string. The query string is the single source of truth for filters,
// sort and pagination; Set is the only way to change it.
package params

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/HerbHall/storefront/internal/tags"
	"github.com/shopspring/decimal"
)

// Query-string keys.
const (
	KeyCategory     = "category"
	KeyPriceMin     = "price_min"
	KeyPriceMax     = "price_max"
	KeyDietaryTags  = "dietary_tags"
	KeyAvailability = "availability_status"
	KeySearch       = "search"
	KeySortBy       = "sort_by"
	KeySortOrder    = "sort_order"
	KeyLimit        = "limit"
	KeyOffset       = "offset"
	KeyFulfillment  = "fulfillment"
)

// Pagination limits.
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// Price bounds. Exponent notation is accepted by the decimal parser, so a
// short value like 1e2000000 would otherwise expand to millions of digits
// when encoded.
const (
	maxPriceScale     = 6
	maxPriceIntDigits = 9
)

// SortField is a server-side sort column.
type SortField string

const (
	SortCreatedAt SortField = "created_at"
	SortName      SortField = "name"
	SortPrice     SortField = "price"
)

// SortOrder is the sort direction.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc"
)

// Filter holds the user's filter choices.
type Filter struct {
	Category           string
	PriceMin           *decimal.Decimal
	PriceMax           *decimal.Decimal
	DietaryTags        tags.Set
	AvailabilityStatus string
	SearchQuery        string
}

// Sort holds the sort key and direction.
type Sort struct {
	By    SortField
	Order SortOrder
}

// Pagination holds the page size and 1-based current page.
type Pagination struct {
	PageSize    int
	CurrentPage int
}

// Offset returns the zero-based index of the first item on the current page.
func (p Pagination) Offset() int {
	return (p.CurrentPage - 1) * p.PageSize
}

// State is the complete navigable state of the menu screen. It is a value
// type: callers own it and every operation returns a new State.
type State struct {
	Filter Filter
	Sort   Sort
	Page   Pagination

	// Fulfillment is carried through untouched; nothing filters on it.
	Fulfillment string
}

// Default returns the state implied by an empty query string.
func Default() State {
	return State{
		Sort: Sort{By: SortCreatedAt, Order: OrderDesc},
		Page: Pagination{PageSize: DefaultPageSize, CurrentPage: 1},
	}
}

// Decode builds a State from query values. Missing keys take their defaults
// and malformed numbers are treated as absent, so Decode never fails.
func Decode(v url.Values) State {
	s := Default()

	s.Filter.Category = strings.TrimSpace(v.Get(KeyCategory))
	s.Filter.PriceMin = parsePrice(v.Get(KeyPriceMin))
	s.Filter.PriceMax = parsePrice(v.Get(KeyPriceMax))
	if !priceOrdered(s.Filter.PriceMin, s.Filter.PriceMax) {
		// A hand-edited URL can carry an inverted range; drop it rather
		// than query with it.
		s.Filter.PriceMin, s.Filter.PriceMax = nil, nil
	}
	s.Filter.DietaryTags = tags.ParseList(v.Get(KeyDietaryTags))
	s.Filter.AvailabilityStatus = strings.TrimSpace(v.Get(KeyAvailability))
	s.Filter.SearchQuery = strings.TrimSpace(v.Get(KeySearch))

	if by, ok := parseSortField(v.Get(KeySortBy)); ok {
		s.Sort.By = by
	}
	if order, ok := parseSortOrder(v.Get(KeySortOrder)); ok {
		s.Sort.Order = order
	}

	if n, err := strconv.Atoi(strings.TrimSpace(v.Get(KeyLimit))); err == nil && n > 0 {
		s.Page.PageSize = min(n, MaxPageSize)
	}
	if n, err := strconv.Atoi(strings.TrimSpace(v.Get(KeyOffset))); err == nil && n > 0 {
		s.Page.CurrentPage = n/s.Page.PageSize + 1
	}

	s.Fulfillment = strings.TrimSpace(v.Get(KeyFulfillment))
	return s
}

// Encode renders a State as query values. Keys whose value is empty or equal
// to the default are omitted so shared links stay short.
func Encode(s State) url.Values {
	v := url.Values{}
	setIf := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}

	setIf(KeyCategory, s.Filter.Category)
	if s.Filter.PriceMin != nil {
		v.Set(KeyPriceMin, s.Filter.PriceMin.String())
	}
	if s.Filter.PriceMax != nil {
		v.Set(KeyPriceMax, s.Filter.PriceMax.String())
	}
	setIf(KeyDietaryTags, s.Filter.DietaryTags.String())
	setIf(KeyAvailability, s.Filter.AvailabilityStatus)
	setIf(KeySearch, s.Filter.SearchQuery)

	def := Default()
	if s.Sort.By != def.Sort.By {
		setIf(KeySortBy, string(s.Sort.By))
	}
	if s.Sort.Order != def.Sort.Order {
		setIf(KeySortOrder, string(s.Sort.Order))
	}
	if s.Page.PageSize != def.Page.PageSize && s.Page.PageSize > 0 {
		v.Set(KeyLimit, strconv.Itoa(s.Page.PageSize))
	}
	if off := s.Page.Offset(); off > 0 {
		v.Set(KeyOffset, strconv.Itoa(off))
	}

	setIf(KeyFulfillment, s.Fulfillment)
	return v
}

// QueryString returns the canonical encoded query string for s.
func (s State) QueryString() string {
	return Encode(s).Encode()
}

// Equal reports whether two states are semantically identical. Prices are
// compared numerically, so 5 and 5.00 are equal.
func (s State) Equal(o State) bool {
	return s.Filter.Equal(o.Filter) &&
		s.Sort == o.Sort &&
		s.Page == o.Page &&
		s.Fulfillment == o.Fulfillment
}

// Equal reports whether two filters select the same products.
func (f Filter) Equal(o Filter) bool {
	return f.Category == o.Category &&
		decimalPtrEqual(f.PriceMin, o.PriceMin) &&
		decimalPtrEqual(f.PriceMax, o.PriceMax) &&
		f.DietaryTags.Equal(o.DietaryTags) &&
		f.AvailabilityStatus == o.AvailabilityStatus &&
		f.SearchQuery == o.SearchQuery
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func parsePrice(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !validPrice(d) {
		return nil
	}
	return &d
}

// validPrice reports whether d is a non-negative amount with at most
// maxPriceIntDigits integer digits and maxPriceScale fractional digits.
// It inspects exponent and coefficient only, never the expanded value.
func validPrice(d decimal.Decimal) bool {
	if d.IsNegative() {
		return false
	}
	exp := int(d.Exponent())
	if exp < -maxPriceScale {
		return false
	}
	return d.NumDigits()+exp <= maxPriceIntDigits
}

func priceOrdered(lo, hi *decimal.Decimal) bool {
	return lo == nil || hi == nil || lo.LessThanOrEqual(*hi)
}

func parseSortField(s string) (SortField, bool) {
	switch f := SortField(strings.TrimSpace(s)); f {
	case SortCreatedAt, SortName, SortPrice:
		return f, true
	}
	return "", false
}

func parseSortOrder(s string) (SortOrder, bool) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case OrderAsc, OrderDesc:
		return o, true
	}
	return "", false
}
