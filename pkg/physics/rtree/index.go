// Package rtree implements the physics query contracts with an R-tree
// broad phase (dhconnelly/rtreego) over axis-aligned bounding boxes and a
// signed-distance narrow phase supplied by the geometry kernel. Ray casts
// are resolved by sphere tracing the hit solid's SDF; surface normals come
// from central differences.
package rtree

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"

	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/part"
	"github.com/chazu/tenon/pkg/physics"
)

// Compile-time interface checks.
var (
	_ physics.Caster     = (*Index)(nil)
	_ physics.Overlapper = (*Index)(nil)
)

const (
	// rectPad keeps R-tree rectangles strictly positive in every extent.
	rectPad = 1e-9

	// contactTol is the minimum penetration depth that counts as overlap.
	// Exact surface contact (snapped parts abutting) stays legal.
	contactTol = 1e-7

	// traceEps is the surface threshold for sphere tracing.
	traceEps = 1e-6

	// traceMinStep bounds sphere-trace progress so grazing rays terminate.
	traceMinStep = 1e-4

	// traceMaxSteps caps the sphere-trace loop per body.
	traceMaxSteps = 256
)

// body is one indexed collision volume.
type body struct {
	ref    physics.ObjectRef
	layer  physics.Layer
	shape  part.ShapeSpec
	at     part.Transform
	solid  kernel.Solid
	min    part.Vec3
	max    part.Vec3
	bounds rtreego.Rect
}

// Bounds implements rtreego.Spatial.
func (b *body) Bounds() rtreego.Rect {
	return b.bounds
}

// Index is the collision index backing targeting, proximity, and overlap
// validation. It is not safe for concurrent use; the placement loop is
// single-threaded by design.
type Index struct {
	kern   kernel.Kernel
	tree   *rtreego.Rtree
	bodies map[physics.ObjectRef]*body
}

// NewIndex creates an empty index using the given geometry backend.
func NewIndex(k kernel.Kernel) *Index {
	return &Index{
		kern:   k,
		tree:   rtreego.NewTree(3, 8, 16),
		bodies: make(map[physics.ObjectRef]*body),
	}
}

// Add registers a collision volume for ref on the given layer. Adding an
// already-registered ref replaces its previous volume.
func (ix *Index) Add(ref physics.ObjectRef, layer physics.Layer, shape part.ShapeSpec, at part.Transform) error {
	if ref == physics.NilRef {
		return fmt.Errorf("rtree: cannot index the nil ref")
	}

	solid, err := kernel.SolidForShape(ix.kern, shape, at)
	if err != nil {
		return fmt.Errorf("rtree: resolving shape for %s: %w", ref, err)
	}

	ix.Remove(ref)

	bbMin, bbMax := solid.BoundingBox()
	b := &body{
		ref:   ref,
		layer: layer,
		shape: shape,
		at:    at,
		solid: solid,
		min:   part.Vec3{X: bbMin[0], Y: bbMin[1], Z: bbMin[2]},
		max:   part.Vec3{X: bbMax[0], Y: bbMax[1], Z: bbMax[2]},
	}
	b.bounds, err = rectFor(b.min, b.max)
	if err != nil {
		return fmt.Errorf("rtree: bounds for %s: %w", ref, err)
	}

	ix.bodies[ref] = b
	ix.tree.Insert(b)
	return nil
}

// Move re-indexes ref at a new transform.
func (ix *Index) Move(ref physics.ObjectRef, at part.Transform) error {
	b, ok := ix.bodies[ref]
	if !ok {
		return fmt.Errorf("rtree: move of unknown ref %s", ref)
	}
	return ix.Add(ref, b.layer, b.shape, at)
}

// Remove drops ref from the index. Removing an unknown ref is a no-op.
func (ix *Index) Remove(ref physics.ObjectRef) {
	b, ok := ix.bodies[ref]
	if !ok {
		return
	}
	ix.tree.Delete(b)
	delete(ix.bodies, ref)
}

// Len returns the number of indexed bodies.
func (ix *Index) Len() int {
	return len(ix.bodies)
}

// CastRay returns the nearest hit along the ray, if any.
func (ix *Index) CastRay(q physics.RayQuery) (physics.RayHit, bool) {
	dir := q.Dir.Normalized()
	if dir.LengthSq() == 0 || q.MaxDist <= 0 {
		return physics.RayHit{}, false
	}

	end := q.Origin.Add(dir.Scale(q.MaxDist))
	segMin := part.Vec3{
		X: math.Min(q.Origin.X, end.X),
		Y: math.Min(q.Origin.Y, end.Y),
		Z: math.Min(q.Origin.Z, end.Z),
	}
	segMax := part.Vec3{
		X: math.Max(q.Origin.X, end.X),
		Y: math.Max(q.Origin.Y, end.Y),
		Z: math.Max(q.Origin.Z, end.Z),
	}
	rect, err := rectFor(segMin, segMax)
	if err != nil {
		return physics.RayHit{}, false
	}

	best := physics.RayHit{}
	bestT := math.Inf(1)

	for _, candidate := range ix.tree.SearchIntersect(rect) {
		b := candidate.(*body)
		if b.layer&q.Mask == 0 || physics.Excluded(q.Exclude, b.ref) {
			continue
		}

		tEnter, tExit, hit := slabTest(q.Origin, dir, b.min, b.max)
		if !hit || tEnter > q.MaxDist || tExit < 0 {
			continue
		}

		t, traced := sphereTrace(b.solid, q.Origin, dir, math.Max(tEnter, 0), math.Min(tExit, q.MaxDist))
		if !traced || t >= bestT {
			continue
		}

		p := q.Origin.Add(dir.Scale(t))
		best = physics.RayHit{
			Position: p,
			Normal:   surfaceNormal(b.solid, p),
			Object:   b.ref,
		}
		bestT = t
	}

	return best, !math.IsInf(bestT, 1)
}

// OverlapSphere returns the refs whose volumes intersect the sphere,
// filtered by layer mask and exclusion set. Results are sorted by ref so a
// given world state always yields the same candidate order.
func (ix *Index) OverlapSphere(q physics.SphereQuery) []physics.ObjectRef {
	if q.Radius <= 0 {
		return nil
	}
	r := part.Vec3{X: q.Radius, Y: q.Radius, Z: q.Radius}
	rect, err := rectFor(q.Center.Sub(r), q.Center.Add(r))
	if err != nil {
		return nil
	}

	var out []physics.ObjectRef
	for _, candidate := range ix.tree.SearchIntersect(rect) {
		b := candidate.(*body)
		if b.layer&q.Mask == 0 || physics.Excluded(q.Exclude, b.ref) {
			continue
		}
		// The SDF gives the exact distance from the sphere center to the
		// body surface, so this is an exact sphere-vs-solid test.
		if b.solid.Distance([3]float64{q.Center.X, q.Center.Y, q.Center.Z}) <= q.Radius {
			out = append(out, b.ref)
		}
	}

	sortRefs(out)
	return out
}

// OverlapShape returns the refs whose volumes penetrate the shape at the
// given transform. Orientation is always identity, so box volumes are
// tested exactly by AABB interval overlap; cylinder volumes are tested by
// their AABB, which is conservative.
func (ix *Index) OverlapShape(q physics.ShapeQuery) []physics.ObjectRef {
	if q.Shape == nil {
		return nil
	}
	localMin, localMax := q.Shape.Bounds()
	qMin := q.At.Apply(localMin)
	qMax := q.At.Apply(localMax)
	rect, err := rectFor(qMin, qMax)
	if err != nil {
		return nil
	}

	var out []physics.ObjectRef
	for _, candidate := range ix.tree.SearchIntersect(rect) {
		b := candidate.(*body)
		if b.layer&q.Mask == 0 || physics.Excluded(q.Exclude, b.ref) {
			continue
		}
		if penetrates(qMin, qMax, b.min, b.max) {
			out = append(out, b.ref)
		}
	}

	sortRefs(out)
	return out
}

// penetrates reports whether two AABBs overlap by more than contactTol on
// every axis. Exact face contact is not penetration.
func penetrates(aMin, aMax, bMin, bMax part.Vec3) bool {
	return math.Min(aMax.X, bMax.X)-math.Max(aMin.X, bMin.X) > contactTol &&
		math.Min(aMax.Y, bMax.Y)-math.Max(aMin.Y, bMin.Y) > contactTol &&
		math.Min(aMax.Z, bMax.Z)-math.Max(aMin.Z, bMin.Z) > contactTol
}

// slabTest intersects a ray with an AABB and returns the entry and exit
// parameters along the (unit) direction.
func slabTest(origin, dir, min, max part.Vec3) (tEnter, tExit float64, hit bool) {
	tEnter = math.Inf(-1)
	tExit = math.Inf(1)

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	lo := [3]float64{min.X, min.Y, min.Z}
	hi := [3]float64{max.X, max.Y, max.Z}

	for i := 0; i < 3; i++ {
		if d[i] == 0 {
			if o[i] < lo[i] || o[i] > hi[i] {
				return 0, 0, false
			}
			continue
		}
		t0 := (lo[i] - o[i]) / d[i]
		t1 := (hi[i] - o[i]) / d[i]
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		tEnter = math.Max(tEnter, t0)
		tExit = math.Min(tExit, t1)
		if tEnter > tExit {
			return 0, 0, false
		}
	}
	return tEnter, tExit, true
}

// sphereTrace marches along the ray from t0 to t1 using the solid's signed
// distance and returns the surface parameter, if reached.
func sphereTrace(s kernel.Solid, origin, dir part.Vec3, t0, t1 float64) (float64, bool) {
	t := t0
	for i := 0; i < traceMaxSteps && t <= t1+traceEps; i++ {
		p := origin.Add(dir.Scale(t))
		d := s.Distance([3]float64{p.X, p.Y, p.Z})
		if d < traceEps {
			return t, true
		}
		t += math.Max(d, traceMinStep)
	}
	return 0, false
}

// normalStep is the central-difference step for surface normals.
const normalStep = 1e-5

// surfaceNormal estimates the outward unit normal at p from the SDF
// gradient.
func surfaceNormal(s kernel.Solid, p part.Vec3) part.Vec3 {
	grad := part.Vec3{
		X: s.Distance([3]float64{p.X + normalStep, p.Y, p.Z}) - s.Distance([3]float64{p.X - normalStep, p.Y, p.Z}),
		Y: s.Distance([3]float64{p.X, p.Y + normalStep, p.Z}) - s.Distance([3]float64{p.X, p.Y - normalStep, p.Z}),
		Z: s.Distance([3]float64{p.X, p.Y, p.Z + normalStep}) - s.Distance([3]float64{p.X, p.Y, p.Z - normalStep}),
	}
	return grad.Normalized()
}

// rectFor builds an R-tree rectangle spanning min..max, padded so every
// extent is strictly positive.
func rectFor(min, max part.Vec3) (rtreego.Rect, error) {
	lengths := []float64{
		math.Max(max.X-min.X, 0) + rectPad,
		math.Max(max.Y-min.Y, 0) + rectPad,
		math.Max(max.Z-min.Z, 0) + rectPad,
	}
	return rtreego.NewRect(rtreego.Point{min.X, min.Y, min.Z}, lengths)
}

func sortRefs(refs []physics.ObjectRef) {
	sort.Slice(refs, func(i, j int) bool { return refs[i] < refs[j] })
}
