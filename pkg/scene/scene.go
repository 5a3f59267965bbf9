// Package scene tracks instantiated part objects and their lifecycle:
// preview parts exist only as records here, while attached parts are also
// registered with the collision index. The scene is the single writer of
// the collision index for part geometry.
package scene

import (
	"fmt"

	"github.com/chazu/tenon/pkg/part"
	"github.com/chazu/tenon/pkg/physics"
)

// BodyIndex is the slice of the collision index the scene drives.
type BodyIndex interface {
	Add(ref physics.ObjectRef, layer physics.Layer, shape part.ShapeSpec, at part.Transform) error
	Move(ref physics.ObjectRef, at part.Transform) error
	Remove(ref physics.ObjectRef)
}

// PlacedPart is an instantiated template with a world transform.
type PlacedPart struct {
	Ref      physics.ObjectRef
	Template *part.Template
	At       part.Transform
}

// ConnectorWorld returns the world-space position of the connector at
// index i.
func (p *PlacedPart) ConnectorWorld(i int) part.Vec3 {
	return p.Template.Connectors[i].WorldPosition(p.At)
}

// object is the scene's record for one ref.
type object struct {
	part     *PlacedPart // nil for environment geometry
	layer    physics.Layer
	attached bool
	visible  bool
}

// Scene owns all instantiated objects.
type Scene struct {
	index   BodyIndex
	objects map[physics.ObjectRef]*object
}

// New creates an empty scene writing to the given collision index.
func New(index BodyIndex) *Scene {
	return &Scene{
		index:   index,
		objects: make(map[physics.ObjectRef]*object),
	}
}

// Instantiate creates a preview instance of tpl at the given transform.
// The instance is visible but has no collision volume until AttachToWorld.
func (s *Scene) Instantiate(tpl *part.Template, at part.Transform) (*PlacedPart, error) {
	if tpl == nil {
		return nil, fmt.Errorf("scene: instantiate of nil template")
	}
	if tpl.Shape == nil {
		return nil, fmt.Errorf("scene: template %q has no shape", tpl.Name)
	}

	p := &PlacedPart{
		Ref:      physics.NewObjectRef(),
		Template: tpl,
		At:       at,
	}
	s.objects[p.Ref] = &object{
		part:    p,
		layer:   physics.LayerParts,
		visible: true,
	}
	return p, nil
}

// AddGround registers a static environment slab. Environment geometry
// participates in ray casts but is never a placed part.
func (s *Scene) AddGround(dims part.Vec3, at part.Transform) (physics.ObjectRef, error) {
	ref := physics.NewObjectRef()
	shape := part.BoxShape{Dims: dims}
	if err := s.index.Add(ref, physics.LayerEnvironment, shape, at); err != nil {
		return physics.NilRef, err
	}
	s.objects[ref] = &object{
		layer:    physics.LayerEnvironment,
		attached: true,
		visible:  true,
	}
	return ref, nil
}

// SetTransform moves an object. Attached objects are re-indexed.
func (s *Scene) SetTransform(ref physics.ObjectRef, at part.Transform) error {
	o, ok := s.objects[ref]
	if !ok {
		return fmt.Errorf("scene: unknown ref %s", ref)
	}
	if o.part == nil {
		return fmt.Errorf("scene: environment geometry %s is immovable", ref)
	}
	o.part.At = at
	if o.attached {
		return s.index.Move(ref, at)
	}
	return nil
}

// SetVisible toggles render visibility. Visibility does not affect
// collision.
func (s *Scene) SetVisible(ref physics.ObjectRef, visible bool) error {
	o, ok := s.objects[ref]
	if !ok {
		return fmt.Errorf("scene: unknown ref %s", ref)
	}
	o.visible = visible
	return nil
}

// Visible reports render visibility for ref.
func (s *Scene) Visible(ref physics.ObjectRef) bool {
	o, ok := s.objects[ref]
	return ok && o.visible
}

// AttachToWorld gives a preview part a collision volume on the parts
// layer. Attaching twice is a no-op.
func (s *Scene) AttachToWorld(ref physics.ObjectRef) error {
	o, ok := s.objects[ref]
	if !ok {
		return fmt.Errorf("scene: unknown ref %s", ref)
	}
	if o.part == nil {
		return fmt.Errorf("scene: %s is not a part", ref)
	}
	if o.attached {
		return nil
	}
	if err := s.index.Add(ref, o.layer, o.part.Template.Shape, o.part.At); err != nil {
		return err
	}
	o.attached = true
	return nil
}

// Destroy removes an object and its collision volume. Unknown refs are a
// no-op.
func (s *Scene) Destroy(ref physics.ObjectRef) {
	o, ok := s.objects[ref]
	if !ok {
		return
	}
	if o.attached {
		s.index.Remove(ref)
	}
	delete(s.objects, ref)
}

// AsPlacedPart returns the world-attached part behind ref. Previews and
// environment geometry report false, so a ray hit on the ground or a
// half-placed preview never becomes a snap candidate.
func (s *Scene) AsPlacedPart(ref physics.ObjectRef) (*PlacedPart, bool) {
	o, ok := s.objects[ref]
	if !ok || o.part == nil || !o.attached {
		return nil, false
	}
	return o.part, true
}

// Parts returns all world-attached parts.
func (s *Scene) Parts() []*PlacedPart {
	var out []*PlacedPart
	for _, o := range s.objects {
		if o.part != nil && o.attached {
			out = append(out, o.part)
		}
	}
	return out
}

// Len returns the number of tracked objects, previews included.
func (s *Scene) Len() int {
	return len(s.objects)
}
