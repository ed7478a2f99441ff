package models

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Location is a storefront branch as reported by the backend.
type Location struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Slug               string          `json:"slug"`
	Address            string          `json:"address,omitempty"`
	SupportsDelivery   bool            `json:"supports_delivery"`
	SupportsCollection bool            `json:"supports_collection"`
	DeliveryFee        decimal.Decimal `json:"delivery_fee"`
	MinimumOrder       decimal.Decimal `json:"minimum_order"`
	PrepTimeMinutes    int             `json:"prep_time_minutes"`
	IsActive           bool            `json:"is_active"`
}

// Slugify normalizes a display name or slug for comparison: case-folded,
// trimmed, with every whitespace run collapsed to a single hyphen.
func Slugify(s string) string {
	return strings.Join(strings.Fields(cases.Lower(language.Und).String(s)), "-")
}

// AssignmentSet is the allow-list of product IDs assigned to one location.
type AssignmentSet map[string]struct{}

// NewAssignmentSet builds a set from product IDs, skipping empty IDs.
func NewAssignmentSet(ids ...string) AssignmentSet {
	s := make(AssignmentSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is assigned.
func (s AssignmentSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of assigned products.
func (s AssignmentSet) Len() int {
	return len(s)
}
