package models

import "testing"

func TestAvailabilityLabelCoverage(t *testing.T) {
	known := []AvailabilityStatus{
		AvailabilityInStock, AvailabilityLowStock,
		AvailabilityOutOfStock, AvailabilityPreorder,
	}
	for _, a := range known {
		if a.Label() == "" {
			t.Errorf("AvailabilityStatus %q has empty label", a)
		}
	}
}

func TestAvailabilityLabelUnknownFallback(t *testing.T) {
	got := AvailabilityStatus("discontinued").Label()
	want := "Available"
	if got != want {
		t.Errorf("unknown availability label = %q, want %q", got, want)
	}
}

func TestAvailabilityPurchasable(t *testing.T) {
	if AvailabilityOutOfStock.Purchasable() {
		t.Error("out_of_stock should not be purchasable")
	}
	if !AvailabilityPreorder.Purchasable() {
		t.Error("preorder should be purchasable")
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Tallaght", "tallaght"},
		{"  Dun   Laoghaire ", "dun-laoghaire"},
		{"Grand\tCanal Dock", "grand-canal-dock"},
		{"already-slugged", "already-slugged"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestAssignmentSet(t *testing.T) {
	s := NewAssignmentSet("p1", "", "p2", "p1")
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if !s.Has("p1") || !s.Has("p2") {
		t.Error("expected p1 and p2 to be assigned")
	}
	if s.Has("p3") {
		t.Error("p3 should not be assigned")
	}
}
