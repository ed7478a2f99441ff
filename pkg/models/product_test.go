package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProductMarshalJSON_DerivedFields(t *testing.T) {
	was := decimal.RequireFromString("5.00")
	tests := []struct {
		name        string
		product     Product
		wantLabel   string
		wantBuyable bool
		wantOnSale  bool
	}{
		{
			name:        "in stock at full price",
			product:     Product{ID: "p1", Price: decimal.RequireFromString("4.20"), AvailabilityStatus: AvailabilityInStock},
			wantLabel:   "Available",
			wantBuyable: true,
		},
		{
			name:        "discounted and almost gone",
			product:     Product{ID: "p2", Price: decimal.RequireFromString("3.00"), CompareAtPrice: &was, AvailabilityStatus: AvailabilityLowStock},
			wantLabel:   "Almost gone",
			wantBuyable: true,
			wantOnSale:  true,
		},
		{
			name:      "sold out",
			product:   Product{ID: "p3", Price: decimal.RequireFromString("6.00"), CompareAtPrice: &was, AvailabilityStatus: AvailabilityOutOfStock},
			wantLabel: "Sold out",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := json.Marshal(tt.product)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			var got map[string]any
			if err := json.Unmarshal(raw, &got); err != nil {
				t.Fatalf("Unmarshal: %v", err)
			}
			if got["id"] != tt.product.ID {
				t.Errorf("id = %v, want %q", got["id"], tt.product.ID)
			}
			if got["availability_label"] != tt.wantLabel {
				t.Errorf("availability_label = %v, want %q", got["availability_label"], tt.wantLabel)
			}
			if got["purchasable"] != tt.wantBuyable {
				t.Errorf("purchasable = %v, want %v", got["purchasable"], tt.wantBuyable)
			}
			if got["on_sale"] != tt.wantOnSale {
				t.Errorf("on_sale = %v, want %v", got["on_sale"], tt.wantOnSale)
			}
		})
	}
}

func TestProductMarshalJSON_RoundTripsBaseFields(t *testing.T) {
	in := Product{ID: "p1", Name: "Brownie", Price: decimal.RequireFromString("3.5"), DietaryTags: json.RawMessage(`["vegan"]`)}
	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var out Product
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Name != in.Name || !out.Price.Equal(in.Price) || string(out.DietaryTags) != `["vegan"]` {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
