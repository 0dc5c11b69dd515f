package place

import (
	"fmt"

	"github.com/halong-cloud/tourvex/internal/domain"
	"github.com/halong-cloud/tourvex/internal/domain/collection"
	domplace "github.com/halong-cloud/tourvex/internal/domain/place"
)

// validate checks one record against the schema's required-field list and the
// record invariants. The first violation fails the whole batch.
func (r *Repo) validate(p *domplace.Place) error {
	if p.ID <= 0 {
		return domain.NewValidationError(p.ID, collection.FieldID, "must be a positive integer")
	}

	for _, field := range r.schema.Required() {
		if err := checkRequired(p, field); err != nil {
			return err
		}
	}

	if len(p.Description) > domplace.MaxDescriptionLen {
		return domain.NewValidationError(p.ID, collection.FieldDescription,
			fmt.Sprintf("exceeds %d bytes", domplace.MaxDescriptionLen))
	}
	if p.PriceMin < 0 {
		return domain.NewValidationError(p.ID, collection.FieldPriceMin, "must be non-negative")
	}
	if p.PriceMax < p.PriceMin {
		return domain.NewValidationError(p.ID, collection.FieldPriceMax, "must be >= price_min")
	}
	if p.Rating < 0 || p.Rating > 5 {
		return domain.NewValidationError(p.ID, collection.FieldRating, "must be in [0, 5]")
	}
	if p.ViewCount < 0 {
		return domain.NewValidationError(p.ID, collection.FieldViewCount, "must be non-negative")
	}

	for _, vf := range r.schema.Vectors() {
		vec := p.DescriptionVector
		if vf.Name == collection.FieldImageVector {
			vec = p.ImageVector
		}
		if len(vec) != vf.Dim {
			return domain.NewValidationError(p.ID, vf.Name,
				fmt.Sprintf("dimension %d, want %d", len(vec), vf.Dim))
		}
	}

	return nil
}

// checkRequired verifies presence of one required non-vector field. Vector
// dimensionality is checked separately since a wrong-length vector is a
// distinct violation from a missing one.
func checkRequired(p *domplace.Place, field string) error {
	missing := false
	switch field {
	case collection.FieldName:
		missing = p.Name == ""
	case collection.FieldType:
		missing = p.Type == ""
	case collection.FieldLocation:
		missing = p.Location == ""
	case collection.FieldDescription:
		missing = p.Description == ""
	case collection.FieldPriceMin:
		// Zero is a valid price (free entry), and in the flat record model
		// an absent price and a zero price are the same value. Presence is
		// therefore not enforceable here; the range checks in validate
		// (non-negative, price_max >= price_min) carry the price invariant.
	case collection.FieldImageURLs:
		missing = len(p.ImageURLs) == 0
	case collection.FieldDescriptionVector:
		missing = len(p.DescriptionVector) == 0
	case collection.FieldImageVector:
		missing = len(p.ImageVector) == 0
	}
	if missing {
		return domain.NewValidationError(p.ID, field, "required field is missing")
	}
	return nil
}
