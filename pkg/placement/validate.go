package placement

import (
	"github.com/chazu/tenon/pkg/part"
	"github.com/chazu/tenon/pkg/physics"
)

// Validator decides whether a candidate placement transform is physically
// legal.
type Validator struct {
	overlap physics.Overlapper
}

// NewValidator creates a validator backed by the given overlap query
// source.
func NewValidator(overlap physics.Overlapper) *Validator {
	return &Validator{overlap: overlap}
}

// Valid reports whether shape placed at the given transform avoids every
// placed part outside the exclusion set. A nil shape fails closed: a
// placement that cannot be checked is never legal.
func (v *Validator) Valid(shape part.ShapeSpec, at part.Transform, exclude []physics.ObjectRef) bool {
	if shape == nil {
		return false
	}
	refs := v.overlap.OverlapShape(physics.ShapeQuery{
		Shape:   shape,
		At:      at,
		Mask:    physics.LayerParts,
		Exclude: exclude,
	})
	return len(refs) == 0
}
