package placement

import (
	"testing"

	"github.com/chazu/tenon/pkg/kernel/sdfx"
	"github.com/chazu/tenon/pkg/part"
	"github.com/chazu/tenon/pkg/physics"
	"github.com/chazu/tenon/pkg/physics/rtree"
)

func TestValidatorOverlapAndExclusion(t *testing.T) {
	ix := rtree.NewIndex(sdfx.New())
	if err := ix.Add("anchor", physics.LayerParts,
		part.BoxShape{Dims: part.Vec3{X: 4, Y: 4, Z: 4}}, part.Transform{}); err != nil {
		t.Fatalf("add anchor: %v", err)
	}
	v := NewValidator(ix)

	shape := part.BoxShape{Dims: part.Vec3{X: 1, Y: 1, Z: 1}}
	inside := part.Transform{Origin: part.Vec3{X: 1.5, Y: 1.5, Z: 1.5}}

	if v.Valid(shape, inside, nil) {
		t.Error("placement inside the anchor reported valid")
	}
	if !v.Valid(shape, inside, []physics.ObjectRef{"anchor"}) {
		t.Error("placement with the anchor excluded reported invalid")
	}
	if !v.Valid(shape, part.Transform{Origin: part.Vec3{X: 10}}, nil) {
		t.Error("clear placement reported invalid")
	}
}

func TestValidatorFailsClosedOnMissingShape(t *testing.T) {
	v := NewValidator(rtree.NewIndex(sdfx.New()))

	if v.Valid(nil, part.Transform{}, nil) {
		t.Error("nil shape reported valid; unvalidatable placements must fail")
	}
}

func TestValidatorIgnoresEnvironment(t *testing.T) {
	ix := rtree.NewIndex(sdfx.New())
	if err := ix.Add("ground", physics.LayerEnvironment,
		part.BoxShape{Dims: part.Vec3{X: 100, Y: 1, Z: 100}},
		part.Transform{Origin: part.Vec3{X: -50, Y: -1, Z: -50}}); err != nil {
		t.Fatalf("add ground: %v", err)
	}
	v := NewValidator(ix)

	// Sunk halfway into the ground: environment geometry never blocks.
	sunk := part.Transform{Origin: part.Vec3{Y: -0.5}}
	if !v.Valid(part.BoxShape{Dims: part.Vec3{X: 1, Y: 1, Z: 1}}, sunk, nil) {
		t.Error("environment overlap reported invalid")
	}
}
