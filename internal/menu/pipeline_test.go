package menu

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/HerbHall/storefront/internal/tags"
	"github.com/HerbHall/storefront/internal/testutil"
	"github.com/HerbHall/storefront/pkg/models"
)

func TestAllowListFilter(t *testing.T) {
	in := products("p1", "p3", "p4")
	out := AllowListFilter{Allow: models.NewAssignmentSet("p1", "p2", "p3")}.Run(in)

	assert.Equal(t, []string{"p1", "p3"}, ids(out))
	assert.Len(t, in, 3, "input must not be modified")
}

func TestAllowListFilter_EmptySet(t *testing.T) {
	out := AllowListFilter{Allow: models.NewAssignmentSet()}.Run(products("p1", "p2"))
	assert.Empty(t, out)
}

func TestDietaryFilter_AndSemantics(t *testing.T) {
	veganOnly := testutil.NewProduct(testutil.WithID("vegan"), testutil.WithTags("vegan"))
	both := testutil.NewProduct(testutil.WithID("both"), testutil.WithRawTags(`"Gluten Free, VEGAN"`))

	tests := []struct {
		name     string
		required tags.Set
		want     []string
	}{
		{"single tag keeps both", tags.New("vegan"), []string{"vegan", "both"}},
		{"two tags need both", tags.New("vegan", "gluten-free"), []string{"both"}},
		{"no filter passes all", nil, []string{"vegan", "both"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DietaryFilter{Required: tt.required, Logger: zap.NewNop()}
			got := f.Run([]models.Product{veganOnly, both})
			assert.Equal(t, tt.want, ids(got))
		})
	}
}

func TestDietaryFilter_UnparsableTags(t *testing.T) {
	broken := testutil.NewProduct(testutil.WithID("broken"), testutil.WithRawTags(`{"vegan": true}`))
	untagged := testutil.NewProduct(testutil.WithID("untagged"))
	ok := testutil.NewProduct(testutil.WithID("ok"), testutil.WithRawTags(`"[\"vegan\"]"`))
	in := []models.Product{broken, untagged, ok}

	active := DietaryFilter{Required: tags.New("vegan"), Logger: zap.NewNop()}.Run(in)
	assert.Equal(t, []string{"ok"}, ids(active), "unparsable and untagged products are excluded")

	inactive := DietaryFilter{Logger: zap.NewNop()}.Run(in)
	assert.Equal(t, []string{"broken", "untagged", "ok"}, ids(inactive), "no dietary filter keeps every product")
}

func TestPipeline_PreservesOrder(t *testing.T) {
	in := []models.Product{
		testutil.NewProduct(testutil.WithID("p9"), testutil.WithTags("vegan")),
		testutil.NewProduct(testutil.WithID("p2"), testutil.WithTags("dairy")),
		testutil.NewProduct(testutil.WithID("p5"), testutil.WithTags("vegan", "nut-free")),
		testutil.NewProduct(testutil.WithID("p1"), testutil.WithTags("vegan")),
	}
	p := NewPipeline(
		AllowListFilter{Allow: models.NewAssignmentSet("p1", "p5", "p9", "p2")},
		DietaryFilter{Required: tags.New("vegan")},
	)

	assert.Equal(t, []string{"p9", "p5", "p1"}, ids(p.Run(in)))
}

func TestPipeline_NeverReturnsNil(t *testing.T) {
	out := NewPipeline().Run(nil)
	assert.NotNil(t, out)
	raw, err := json.Marshal(out)
	assert.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestFilterNames(t *testing.T) {
	assert.Equal(t, "allow_list", AllowListFilter{}.Name())
	assert.Equal(t, "dietary", DietaryFilter{}.Name())
}
