package tessellate

import (
	"testing"

	"github.com/chazu/tenon/pkg/kernel/sdfx"
	"github.com/chazu/tenon/pkg/part"
)

func TestTemplatesMeshPerTemplate(t *testing.T) {
	catalog := part.NewCatalog()
	catalog.Define("beam", part.BoxShape{Dims: part.Vec3{X: 4, Y: 1, Z: 1}}, nil)
	catalog.Define("peg", part.CylinderShape{Diameter: 0.5, Length: 2}, nil)

	meshes, err := Templates(catalog, sdfx.New())
	if err != nil {
		t.Fatalf("tessellate: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("got %d meshes, want 2", len(meshes))
	}

	if meshes[0].Template != "beam" || meshes[1].Template != "peg" {
		t.Errorf("mesh names = %q, %q, want beam, peg", meshes[0].Template, meshes[1].Template)
	}
	for _, m := range meshes {
		if m.IsEmpty() {
			t.Errorf("mesh %q is empty", m.Template)
		}
		if m.TriangleCount() == 0 {
			t.Errorf("mesh %q has no triangles", m.Template)
		}
	}
}

func TestTemplatesNilCatalog(t *testing.T) {
	meshes, err := Templates(nil, sdfx.New())
	if err != nil {
		t.Fatalf("nil catalog errored: %v", err)
	}
	if meshes != nil {
		t.Errorf("nil catalog produced %d meshes", len(meshes))
	}
}

func TestTemplateRejectsMissingShape(t *testing.T) {
	if _, err := Template(&part.Template{Name: "ghost"}, sdfx.New()); err == nil {
		t.Error("shapeless template tessellated without error")
	}
	if _, err := Template(nil, sdfx.New()); err == nil {
		t.Error("nil template tessellated without error")
	}
}
