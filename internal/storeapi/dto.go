package storeapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/HerbHall/storefront/pkg/models"
	"github.com/shopspring/decimal"
)

// flexDecimal accepts a JSON number, a numeric string, null or "".
type flexDecimal struct {
	Value decimal.Decimal
	Valid bool
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	s, null, err := scalarText(b)
	if err != nil || null {
		return err
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("decimal %q: %w", s, err)
	}
	f.Value, f.Valid = d, true
	return nil
}

func (f flexDecimal) ptr() *decimal.Decimal {
	if !f.Valid {
		return nil
	}
	d := f.Value
	return &d
}

// flexInt accepts a JSON integer, a numeric string, null or "".
type flexInt struct {
	Value int
	Valid bool
}

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s, null, err := scalarText(b)
	if err != nil || null {
		return err
	}
	// Some backends send stock as 12.0.
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("integer %q: %w", s, err)
	}
	f.Value, f.Valid = int(d.IntPart()), true
	return nil
}

func (f flexInt) ptr() *int {
	if !f.Valid {
		return nil
	}
	n := f.Value
	return &n
}

// flexID accepts string or numeric identifiers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	s, _, err := scalarText(b)
	if err != nil {
		return err
	}
	*f = flexID(s)
	return nil
}

// flexBool accepts true/false, "true"/"false", 0/1 and null.
type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s, null, err := scalarText(b)
	if err != nil || null {
		return err
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return fmt.Errorf("bool %q: %w", s, err)
	}
	*f = flexBool(v)
	return nil
}

// flexTime accepts RFC 3339 timestamps, null and "".
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	s, null, err := scalarText(b)
	if err != nil || null {
		return err
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("timestamp %q: %w", s, err)
	}
	f.Time = t.UTC()
	return nil
}

// scalarText returns the textual form of a JSON string, number or bool.
// null and "" report null=true.
func scalarText(b []byte) (s string, null bool, err error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", true, nil
	}
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return "", false, err
		}
		s = strings.TrimSpace(s)
		return s, s == "", nil
	}
	if b[0] == '{' || b[0] == '[' {
		return "", false, fmt.Errorf("expected scalar, got %s", b)
	}
	return string(b), false, nil
}

// locationDTO is the wire form of a location.
type locationDTO struct {
	ID                 flexID      `json:"id"`
	Name               string      `json:"name"`
	Slug               string      `json:"slug"`
	Address            string      `json:"address"`
	SupportsDelivery   flexBool    `json:"supports_delivery"`
	SupportsCollection flexBool    `json:"supports_collection"`
	DeliveryFee        flexDecimal `json:"delivery_fee"`
	MinimumOrder       flexDecimal `json:"minimum_order"`
	PrepTimeMinutes    flexInt     `json:"prep_time_minutes"`
	IsActive           *flexBool   `json:"is_active"`
}

func (d locationDTO) toModel() models.Location {
	loc := models.Location{
		ID:                 string(d.ID),
		Name:               d.Name,
		Slug:               d.Slug,
		Address:            d.Address,
		SupportsDelivery:   bool(d.SupportsDelivery),
		SupportsCollection: bool(d.SupportsCollection),
		DeliveryFee:        d.DeliveryFee.Value,
		MinimumOrder:       d.MinimumOrder.Value,
		PrepTimeMinutes:    d.PrepTimeMinutes.Value,
		IsActive:           d.IsActive == nil || bool(*d.IsActive),
	}
	if loc.Slug == "" {
		loc.Slug = models.Slugify(loc.Name)
	}
	return loc
}

// assignmentDTO is one row of /product-locations.
type assignmentDTO struct {
	ProductID    flexID `json:"product_id"`
	LocationName string `json:"location_name"`
}

// productDTO is the wire form of a product.
type productDTO struct {
	ID                 flexID          `json:"id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	Price              flexDecimal     `json:"price"`
	CompareAtPrice     flexDecimal     `json:"compare_at_price"`
	StockQuantity      flexInt         `json:"stock_quantity"`
	AvailabilityStatus string          `json:"availability_status"`
	DietaryTags        json.RawMessage `json:"dietary_tags"`
	Category           string          `json:"category"`
	IsFeatured         flexBool        `json:"is_featured"`
	ImageURL           string          `json:"image_url"`
	CreatedAt          flexTime        `json:"created_at"`
}

func (d productDTO) toModel() models.Product {
	return models.Product{
		ID:                 string(d.ID),
		Name:               d.Name,
		Description:        d.Description,
		Price:              d.Price.Value,
		CompareAtPrice:     d.CompareAtPrice.ptr(),
		StockQuantity:      d.StockQuantity.ptr(),
		AvailabilityStatus: models.AvailabilityStatus(d.AvailabilityStatus),
		DietaryTags:        d.DietaryTags,
		Category:           d.Category,
		IsFeatured:         bool(d.IsFeatured),
		ImageURL:           d.ImageURL,
		CreatedAt:          d.CreatedAt.Time,
	}
}

// listEnvelope covers the object-shaped list responses the backend uses.
type listEnvelope struct {
	Items      json.RawMessage `json:"items"`
	Data       json.RawMessage `json:"data"`
	Total      *int            `json:"total"`
	TotalCount *int            `json:"total_count"`
}

// decodeList decodes either a bare JSON array or a list envelope into out.
// total is -1 when the response carried no total.
func decodeList(body []byte, out any) (total int, err error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return -1, fmt.Errorf("empty response body")
	}
	if body[0] == '[' {
		return -1, json.Unmarshal(body, out)
	}

	var env listEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return -1, err
	}
	items := env.Items
	if len(items) == 0 {
		items = env.Data
	}
	if len(items) == 0 || bytes.Equal(items, []byte("null")) {
		items = []byte("[]")
	}
	if err := json.Unmarshal(items, out); err != nil {
		return -1, err
	}

	switch {
	case env.Total != nil:
		return *env.Total, nil
	case env.TotalCount != nil:
		return *env.TotalCount, nil
	}
	return -1, nil
}
