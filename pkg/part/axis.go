package part

import "fmt"

// AxisTag is the semantic direction of a connector. Two connectors are
// snap-compatible iff their tags are exact opposites on the same axis.
// A connector's tag is immutable after creation.
type AxisTag int

const (
	AxisNone AxisTag = iota // unprefixed marker, compatible with nothing
	AxisPosX                // +X
	AxisNegX                // -X
	AxisPosY                // +Y
	AxisNegY                // -Y
	AxisPosZ                // +Z
	AxisNegZ                // -Z
)

func (a AxisTag) String() string {
	switch a {
	case AxisNone:
		return "none"
	case AxisPosX:
		return "+x"
	case AxisNegX:
		return "-x"
	case AxisPosY:
		return "+y"
	case AxisNegY:
		return "-y"
	case AxisPosZ:
		return "+z"
	case AxisNegZ:
		return "-z"
	default:
		return fmt.Sprintf("AxisTag(%d)", int(a))
	}
}

// Valid reports whether a is one of the six directional tags.
func (a AxisTag) Valid() bool {
	return a >= AxisPosX && a <= AxisNegZ
}

// Opposite returns the tag on the same axis pointing the other way.
// AxisNone has no opposite and returns AxisNone.
func (a AxisTag) Opposite() AxisTag {
	switch a {
	case AxisPosX:
		return AxisNegX
	case AxisNegX:
		return AxisPosX
	case AxisPosY:
		return AxisNegY
	case AxisNegY:
		return AxisPosY
	case AxisPosZ:
		return AxisNegZ
	case AxisNegZ:
		return AxisPosZ
	default:
		return AxisNone
	}
}

// Compatible reports whether connectors tagged a and b may snap together.
// Exactly the three opposite pairs on the same axis qualify; identical tags
// and unprefixed markers never match. The relation is symmetric.
func Compatible(a, b AxisTag) bool {
	return a.Valid() && b == a.Opposite()
}

// ParseAxisTag converts a DSL keyword name to an AxisTag. Both the short
// form ("px") and the signed form ("+x") are accepted.
func ParseAxisTag(name string) (AxisTag, error) {
	switch name {
	case "px", "+x":
		return AxisPosX, nil
	case "nx", "-x":
		return AxisNegX, nil
	case "py", "+y":
		return AxisPosY, nil
	case "ny", "-y":
		return AxisNegY, nil
	case "pz", "+z":
		return AxisPosZ, nil
	case "nz", "-z":
		return AxisNegZ, nil
	}
	return AxisNone, fmt.Errorf("invalid axis tag %q, expected px/nx/py/ny/pz/nz", name)
}
