package params

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/HerbHall/storefront/internal/tags"
	"github.com/shopspring/decimal"
)

// Sentinel errors wrapped by ValidationError.
var (
	ErrUnknownKey         = errors.New("unknown parameter")
	ErrInvalidValue       = errors.New("invalid value")
	ErrInvertedPriceRange = errors.New("minimum price must not exceed maximum price")
)

// ValidationError describes a rejected Set call. It is meant to be shown to
// the user next to the offending control.
type ValidationError struct {
	Key   string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Set returns s with key changed to value. An empty value clears the key
// back to its default. Any change to a filter or sort key sends the user
// back to page 1; limit, offset and fulfillment changes keep the page.
//
// On rejection s is returned unchanged together with a *ValidationError.
func Set(s State, key, value string) (State, error) {
	value = strings.TrimSpace(value)
	next := s
	invalid := func(err error) (State, error) {
		return s, &ValidationError{Key: key, Value: value, Err: err}
	}

	switch key {
	case KeyCategory:
		next.Filter.Category = value
	case KeyPriceMin, KeyPriceMax:
		var bound *decimal.Decimal
		if value != "" {
			d, err := decimal.NewFromString(value)
			if err != nil || !validPrice(d) {
				return invalid(ErrInvalidValue)
			}
			bound = &d
		}
		if key == KeyPriceMin {
			next.Filter.PriceMin = bound
		} else {
			next.Filter.PriceMax = bound
		}
		if !priceOrdered(next.Filter.PriceMin, next.Filter.PriceMax) {
			return invalid(ErrInvertedPriceRange)
		}
	case KeyDietaryTags:
		next.Filter.DietaryTags = tags.ParseList(value)
	case KeyAvailability:
		next.Filter.AvailabilityStatus = value
	case KeySearch:
		next.Filter.SearchQuery = value
	case KeySortBy:
		next.Sort.By = Default().Sort.By
		if value != "" {
			by, ok := parseSortField(value)
			if !ok {
				return invalid(ErrInvalidValue)
			}
			next.Sort.By = by
		}
	case KeySortOrder:
		next.Sort.Order = Default().Sort.Order
		if value != "" {
			order, ok := parseSortOrder(value)
			if !ok {
				return invalid(ErrInvalidValue)
			}
			next.Sort.Order = order
		}
	case KeyLimit:
		next.Page.PageSize = DefaultPageSize
		if value != "" {
			n, err := strconv.Atoi(value)
			if err != nil || n <= 0 || n > MaxPageSize {
				return invalid(ErrInvalidValue)
			}
			next.Page.PageSize = n
		}
	case KeyOffset:
		next.Page.CurrentPage = 1
		if next.Page.PageSize <= 0 {
			next.Page.PageSize = DefaultPageSize
		}
		if value != "" {
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return invalid(ErrInvalidValue)
			}
			next.Page.CurrentPage = n/next.Page.PageSize + 1
		}
	case KeyFulfillment:
		next.Fulfillment = value
	default:
		return invalid(ErrUnknownKey)
	}

	if !next.Filter.Equal(s.Filter) || next.Sort != s.Sort {
		next.Page.CurrentPage = 1
	}
	return next, nil
}

// SetPage returns s positioned on page n. Pages below 1 are rejected; pages
// past the end are the caller's to avoid using Pagination.HasNext.
func SetPage(s State, n int) (State, error) {
	if n < 1 {
		return s, &ValidationError{Key: KeyOffset, Value: strconv.Itoa(n), Err: ErrInvalidValue}
	}
	return Set(s, KeyOffset, strconv.Itoa((n-1)*s.Page.PageSize))
}
