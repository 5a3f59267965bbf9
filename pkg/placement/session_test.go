package placement

import (
	"math"
	"testing"

	"github.com/chazu/tenon/pkg/kernel/sdfx"
	"github.com/chazu/tenon/pkg/part"
	"github.com/chazu/tenon/pkg/physics/rtree"
	"github.com/chazu/tenon/pkg/scene"
)

// rig wires a session to a real collision index and scene over a ground
// slab.
type rig struct {
	ix      *rtree.Index
	world   *scene.Scene
	catalog *part.Catalog
	sess    *Session
	commits []CommitEvent
}

func beamConnectors() []part.Connector {
	return []part.Connector{
		{Name: "east", Axis: part.AxisPosX, Local: part.Vec3{X: 4, Y: 0.5, Z: 0.5}},
		{Name: "west", Axis: part.AxisNegX, Local: part.Vec3{Y: 0.5, Z: 0.5}},
	}
}

func newRig(t *testing.T, tuning Tuning, templateNames ...string) *rig {
	t.Helper()

	catalog := part.NewCatalog()
	for _, name := range templateNames {
		var err error
		switch name {
		case "beam":
			_, err = catalog.Define("beam", part.BoxShape{Dims: part.Vec3{X: 4, Y: 1, Z: 1}}, beamConnectors())
		case "cube":
			_, err = catalog.Define("cube", part.BoxShape{Dims: part.Vec3{X: 1, Y: 1, Z: 1}}, nil)
		default:
			t.Fatalf("unknown rig template %q", name)
		}
		if err != nil {
			t.Fatalf("define %s: %v", name, err)
		}
	}

	ix := rtree.NewIndex(sdfx.New())
	world := scene.New(ix)
	if _, err := world.AddGround(part.Vec3{X: 200, Y: 1, Z: 200},
		part.Transform{Origin: part.Vec3{X: -100, Y: -1, Z: -100}}); err != nil {
		t.Fatalf("add ground: %v", err)
	}

	r := &rig{ix: ix, world: world, catalog: catalog}
	sess, err := NewSession(Config{
		Catalog: catalog,
		Caster:  ix,
		Overlap: ix,
		Stage:   world,
		Tuning:  tuning,
		OnCommit: func(ev CommitEvent) {
			r.commits = append(r.commits, ev)
		},
	})
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	r.sess = sess
	return r
}

// placeBeam commits a beam into the world directly, bypassing the session.
func (r *rig) placeBeam(t *testing.T, at part.Transform) *scene.PlacedPart {
	t.Helper()
	id, _ := r.catalog.ByName("beam")
	tpl, _ := r.catalog.ByID(id)
	p, err := r.world.Instantiate(tpl, at)
	if err != nil {
		t.Fatalf("instantiate beam: %v", err)
	}
	if err := r.world.AttachToWorld(p.Ref); err != nil {
		t.Fatalf("attach beam: %v", err)
	}
	return p
}

func rayDownAt(x, z float64) RayInput {
	return RayInput{Origin: part.Vec3{X: x, Y: 10, Z: z}, Dir: part.Vec3{Y: -1}}
}

func near(a, b part.Vec3, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol && math.Abs(a.Z-b.Z) <= tol
}

func TestSessionStartsInert(t *testing.T) {
	r := newRig(t, DefaultTuning(), "beam")

	if got := r.sess.State(); got != StateNoSelection {
		t.Errorf("initial state = %s, want no-selection", got)
	}
	if cand := r.sess.Tick(rayDownAt(0, 0)); cand.Valid || cand.Snapped {
		t.Errorf("tick without selection produced candidate %+v", cand)
	}
	if _, ok := r.sess.Confirm(); ok {
		t.Error("confirm without selection succeeded")
	}
	if _, ok := r.sess.Selected(); ok {
		t.Error("Selected reports a template before any selection")
	}
}

func TestFreePlacementOnGround(t *testing.T) {
	r := newRig(t, DefaultTuning(), "beam")

	if err := r.sess.SelectNext(); err != nil {
		t.Fatalf("select: %v", err)
	}
	cand := r.sess.Tick(rayDownAt(2, 2))

	if got := r.sess.State(); got != StatePreviewValid {
		t.Fatalf("state = %s, want preview-valid", got)
	}
	if cand.Snapped {
		t.Error("open-ground placement reported snapped")
	}
	if !near(cand.Transform.Origin, part.Vec3{X: 2, Y: 0.01, Z: 2}, 1e-3) {
		t.Errorf("candidate origin = %+v, want ~(2, 0.01, 2)", cand.Transform.Origin)
	}

	ev, ok := r.sess.Confirm()
	if !ok {
		t.Fatal("confirm of valid candidate failed")
	}
	if ev.Template.Name != "beam" {
		t.Errorf("committed template = %s, want beam", ev.Template.Name)
	}
	if !near(ev.Transform.Origin, cand.Transform.Origin, 1e-9) {
		t.Errorf("committed at %+v, want candidate transform", ev.Transform.Origin)
	}
	if _, ok := r.world.AsPlacedPart(ev.Ref); !ok {
		t.Error("committed ref is not a placed part")
	}
	if got := r.sess.State(); got != StatePreviewIdle {
		t.Errorf("post-commit state = %s, want preview-idle", got)
	}
	if ref, ok := r.sess.Preview(); !ok || ref == ev.Ref {
		t.Error("committed part is still the live preview")
	}
	if len(r.commits) != 1 {
		t.Errorf("commit callbacks = %d, want 1", len(r.commits))
	}
}

func TestNoHitIsIdle(t *testing.T) {
	r := newRig(t, DefaultTuning(), "beam")
	r.sess.SelectNext()

	cand := r.sess.Tick(RayInput{Origin: part.Vec3{Y: 10}, Dir: part.Vec3{Y: 1}})
	if got := r.sess.State(); got != StatePreviewIdle {
		t.Errorf("state = %s, want preview-idle", got)
	}
	if cand.Valid || cand.Snapped {
		t.Errorf("no-hit tick produced candidate %+v", cand)
	}
	if _, ok := r.sess.Confirm(); ok {
		t.Error("confirm with no hit succeeded")
	}
	if got := len(r.world.Parts()); got != 0 {
		t.Errorf("placed parts = %d, want 0", got)
	}
}

func TestSnappedPlacement(t *testing.T) {
	tuning := DefaultTuning()
	tuning.ActivationDistance = 0.75
	tuning.ProximityRadius = 2
	r := newRig(t, tuning, "beam")

	anchor := r.placeBeam(t, part.Transform{}) // east connector at (4, 0.5, 0.5)
	r.sess.SelectNext()

	// Aim at the top of the anchor near its east end.
	cand := r.sess.Tick(rayDownAt(3.9, 0.5))

	if got := r.sess.State(); got != StatePreviewValid {
		t.Fatalf("state = %s, want preview-valid", got)
	}
	if !cand.Snapped {
		t.Fatal("placement near a compatible connector did not snap")
	}
	if cand.Target != anchor.Ref {
		t.Errorf("snap target = %s, want the anchor beam", cand.Target)
	}
	// Exact snap origin (4, 0, 0) plus the surface offset along the +Y hit
	// normal.
	if !near(cand.Transform.Origin, part.Vec3{X: 4, Y: 0.005}, 1e-4) {
		t.Errorf("candidate origin = %+v, want ~(4, 0.005, 0)", cand.Transform.Origin)
	}

	ev, ok := r.sess.Confirm()
	if !ok {
		t.Fatal("confirm of snapped candidate failed")
	}
	if !near(ev.Transform.Origin, cand.Transform.Origin, 1e-9) {
		t.Errorf("committed at %+v, want candidate transform", ev.Transform.Origin)
	}
	if got := len(r.world.Parts()); got != 2 {
		t.Errorf("placed parts = %d, want 2", got)
	}
}

// TestSnapGateOverridesProximity: a part inside the proximity radius whose
// connectors are all beyond the activation distance never causes a snap.
func TestSnapGateOverridesProximity(t *testing.T) {
	tuning := DefaultTuning()
	tuning.ActivationDistance = 0.75
	tuning.ProximityRadius = 2
	r := newRig(t, tuning, "beam")

	r.placeBeam(t, part.Transform{})
	r.sess.SelectNext()

	// Top of the anchor at its midpoint: both connectors are ~2 away.
	cand := r.sess.Tick(rayDownAt(2, 0.5))

	if cand.Snapped {
		t.Error("snap resolved from proximity alone")
	}
	if got := r.sess.State(); got != StatePreviewValid {
		t.Errorf("state = %s, want preview-valid", got)
	}
	if !near(cand.Transform.Origin, part.Vec3{X: 2, Y: 1.01, Z: 0.5}, 1e-3) {
		t.Errorf("candidate origin = %+v, want ~(2, 1.01, 0.5)", cand.Transform.Origin)
	}
}

func TestOverlappingPlacementIsInvalid(t *testing.T) {
	r := newRig(t, DefaultTuning(), "beam")
	r.placeBeam(t, part.Transform{})
	r.sess.SelectNext()

	// Ground hit just west of the anchor; the preview volume runs into it.
	cand := r.sess.Tick(rayDownAt(-1, 0.75))

	if got := r.sess.State(); got != StatePreviewInvalid {
		t.Fatalf("state = %s, want preview-invalid", got)
	}
	if cand.Valid {
		t.Error("overlapping candidate reported valid")
	}
	if _, ok := r.sess.Confirm(); ok {
		t.Error("confirm of invalid candidate succeeded")
	}
	if got := len(r.world.Parts()); got != 1 {
		t.Errorf("placed parts = %d, want 1 (the anchor only)", got)
	}
}

func TestReselectingSameTemplateKeepsPreview(t *testing.T) {
	r := newRig(t, DefaultTuning(), "beam")

	r.sess.SelectNext()
	ref1, ok := r.sess.Preview()
	if !ok {
		t.Fatal("no preview after selection")
	}

	// One template, so next wraps back to the same handle.
	r.sess.SelectNext()
	ref2, _ := r.sess.Preview()
	if ref1 != ref2 {
		t.Errorf("re-selecting the same template replaced the preview: %s -> %s", ref1, ref2)
	}
}

func TestSelectionWalksCatalog(t *testing.T) {
	r := newRig(t, DefaultTuning(), "beam", "cube")

	r.sess.SelectNext()
	id, _ := r.sess.Selected()
	if id != 0 {
		t.Errorf("first selection = %d, want 0", id)
	}
	ref1, _ := r.sess.Preview()

	r.sess.SelectNext()
	id, _ = r.sess.Selected()
	if id != 1 {
		t.Errorf("second selection = %d, want 1", id)
	}
	ref2, _ := r.sess.Preview()
	if ref1 == ref2 {
		t.Error("selection change kept the old preview")
	}
	if got := r.sess.State(); got != StatePreviewIdle {
		t.Errorf("state after selection change = %s, want preview-idle", got)
	}

	r.sess.SelectNext() // wraps
	id, _ = r.sess.Selected()
	if id != 0 {
		t.Errorf("wrapped selection = %d, want 0", id)
	}
}

func TestSelectPreviousFromNoSelection(t *testing.T) {
	r := newRig(t, DefaultTuning(), "beam", "cube")

	r.sess.SelectPrevious()
	id, ok := r.sess.Selected()
	if !ok || id != 1 {
		t.Errorf("SelectPrevious from no-selection picked %d (ok=%v), want 1", id, ok)
	}
}

func TestNewSessionConfigErrors(t *testing.T) {
	catalog := part.NewCatalog()
	catalog.Define("cube", part.BoxShape{Dims: part.Vec3{X: 1, Y: 1, Z: 1}}, nil)
	ix := rtree.NewIndex(sdfx.New())
	world := scene.New(ix)

	cases := []struct {
		name string
		cfg  Config
	}{
		{"no caster", Config{Catalog: catalog, Overlap: ix, Stage: world}},
		{"no overlap", Config{Catalog: catalog, Caster: ix, Stage: world}},
		{"no stage", Config{Catalog: catalog, Caster: ix, Overlap: ix}},
		{"empty catalog", Config{Catalog: part.NewCatalog(), Caster: ix, Overlap: ix, Stage: world}},
		{"proximity below activation", Config{
			Catalog: catalog, Caster: ix, Overlap: ix, Stage: world,
			Tuning: Tuning{ActivationDistance: 1, ProximityRadius: 0.5, MaxRayDistance: 100},
		}},
	}
	for _, tc := range cases {
		if _, err := NewSession(tc.cfg); err == nil {
			t.Errorf("%s: NewSession succeeded, want error", tc.name)
		}
	}
}

func TestNewSessionRejectsInvalidCatalog(t *testing.T) {
	catalog := part.NewCatalog()
	catalog.Define("broken", part.BoxShape{}, nil) // zero dims

	ix := rtree.NewIndex(sdfx.New())
	if _, err := NewSession(Config{
		Catalog: catalog, Caster: ix, Overlap: ix, Stage: scene.New(ix),
	}); err == nil {
		t.Error("catalog with validation errors accepted")
	}
}
