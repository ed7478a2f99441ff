package menu

import (
	"github.com/HerbHall/storefront/internal/tags"
	"github.com/HerbHall/storefront/pkg/models"
	"go.uber.org/zap"
)

// Filter is one post-fetch refinement stage. Run must not modify its input
// and must keep the relative order of the products it returns.
type Filter interface {
	Name() string
	Run(products []models.Product) []models.Product
}

// Pipeline applies filters in order.
type Pipeline struct {
	stages []Filter
}

// NewPipeline creates a Pipeline from the given stages.
func NewPipeline(stages ...Filter) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run returns the products that survive every stage, in input order.
func (p *Pipeline) Run(products []models.Product) []models.Product {
	out := products
	for _, f := range p.stages {
		out = f.Run(out)
	}
	if out == nil {
		out = []models.Product{}
	}
	return out
}

// AllowListFilter drops products not assigned to the location.
type AllowListFilter struct {
	Allow models.AssignmentSet
}

// Name implements Filter.
func (AllowListFilter) Name() string { return "allow_list" }

// Run implements Filter.
func (f AllowListFilter) Run(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for i := range products {
		if f.Allow.Has(products[i].ID) {
			out = append(out, products[i])
		}
	}
	return out
}

// DietaryFilter keeps products carrying every required tag. With no required
// tags it passes everything through.
type DietaryFilter struct {
	Required tags.Set
	Logger   *zap.Logger
}

// Name implements Filter.
func (DietaryFilter) Name() string { return "dietary" }

// Run implements Filter.
func (f DietaryFilter) Run(products []models.Product) []models.Product {
	if len(f.Required) == 0 {
		return products
	}
	out := make([]models.Product, 0, len(products))
	for i := range products {
		have, err := tags.Parse(products[i].DietaryTags)
		if err != nil {
			// Unparsable tag data counts as no tags.
			if f.Logger != nil {
				f.Logger.Debug("excluding product with unparsable dietary tags",
					zap.String("product_id", products[i].ID),
					zap.Error(err),
				)
			}
			continue
		}
		if have.ContainsAll(f.Required) {
			out = append(out, products[i])
		}
	}
	return out
}
