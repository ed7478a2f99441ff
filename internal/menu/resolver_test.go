package menu

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/HerbHall/storefront/internal/testutil"
	"github.com/HerbHall/storefront/pkg/models"
)

func TestResolve(t *testing.T) {
	b := newFakeBackend()
	first := testutil.NewLocation("Dun Laoghaire")
	b.locations = []models.Location{
		testutil.NewLocation("Tallaght"),
		first,
		testutil.NewLocation("dun  laoghaire"),
	}
	r := NewResolver(b, newLocationCache(), zap.NewNop())

	tests := []struct {
		name   string
		slug   string
		wantID string
	}{
		{"exact slug", "tallaght", b.locations[0].ID},
		{"case insensitive", "TALLAGHT", b.locations[0].ID},
		{"spaces become hyphens", "Dun Laoghaire", first.ID},
		{"first match wins", "dun-laoghaire", first.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc, err := r.Resolve(context.Background(), tt.slug)
			if err != nil {
				t.Fatalf("Resolve(%q) error = %v", tt.slug, err)
			}
			if loc.ID != tt.wantID {
				t.Errorf("Resolve(%q) = %s, want %s", tt.slug, loc.ID, tt.wantID)
			}
		})
	}

	if calls, _, _ := b.counts(); calls != 1 {
		t.Errorf("location fetches = %d, want 1 (cached)", calls)
	}
}

func TestResolve_NotFound(t *testing.T) {
	b := newFakeBackend()
	b.locations = []models.Location{testutil.NewLocation("Tallaght")}
	r := NewResolver(b, newLocationCache(), zap.NewNop())

	for _, slug := range []string{"swords", "", "   "} {
		_, err := r.Resolve(context.Background(), slug)
		if !errors.Is(err, ErrLocationNotFound) {
			t.Errorf("Resolve(%q) error = %v, want ErrLocationNotFound", slug, err)
		}
		if errors.Is(err, ErrLocationFetch) {
			t.Errorf("Resolve(%q): not found must be distinct from a fetch failure", slug)
		}
	}
}

func TestResolve_FetchError(t *testing.T) {
	b := newFakeBackend()
	b.locationsErr = errors.New("connection refused")
	r := NewResolver(b, newLocationCache(), zap.NewNop())

	_, err := r.Resolve(context.Background(), "tallaght")
	if !errors.Is(err, ErrLocationFetch) {
		t.Fatalf("error = %v, want ErrLocationFetch", err)
	}
	if errors.Is(err, ErrLocationNotFound) {
		t.Error("fetch failure must not read as not found")
	}
}
