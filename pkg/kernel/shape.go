package kernel

import (
	"fmt"

	"github.com/chazu/tenon/pkg/part"
)

// SolidForShape resolves a collision shape descriptor into a backend solid
// at the given world transform. Both the physics index and the template
// mesher go through this bridge, so a shape that fails to resolve fails
// identically everywhere.
func SolidForShape(k Kernel, shape part.ShapeSpec, at part.Transform) (Solid, error) {
	var s Solid

	switch spec := shape.(type) {
	case part.BoxShape:
		s = k.Box(spec.Dims.X, spec.Dims.Y, spec.Dims.Z)
	case part.CylinderShape:
		s = k.Cylinder(spec.Length, spec.Diameter/2)
	case nil:
		return nil, fmt.Errorf("kernel: nil shape descriptor")
	default:
		return nil, fmt.Errorf("kernel: unsupported shape descriptor %T", shape)
	}

	o := at.Origin
	if o.X != 0 || o.Y != 0 || o.Z != 0 {
		s = k.Translate(s, o.X, o.Y, o.Z)
	}
	return s, nil
}
