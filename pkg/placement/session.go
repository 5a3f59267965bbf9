package placement

import (
	"fmt"

	"github.com/chazu/tenon/pkg/part"
	"github.com/chazu/tenon/pkg/physics"
	"github.com/chazu/tenon/pkg/scene"
)

// State is the placement state machine's current phase.
type State int

const (
	// StateNoSelection means no template is selected and ticks are inert.
	StateNoSelection State = iota
	// StatePreviewIdle means a template is selected but the last tick had
	// no ray hit.
	StatePreviewIdle
	// StatePreviewValid means the last tick produced a placeable candidate.
	StatePreviewValid
	// StatePreviewInvalid means the last tick's candidate overlaps existing
	// geometry or could not be checked.
	StatePreviewInvalid
)

func (s State) String() string {
	switch s {
	case StateNoSelection:
		return "no-selection"
	case StatePreviewIdle:
		return "preview-idle"
	case StatePreviewValid:
		return "preview-valid"
	case StatePreviewInvalid:
		return "preview-invalid"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// RayInput is the pointer ray for one tick.
type RayInput struct {
	Origin part.Vec3
	Dir    part.Vec3
}

// Candidate is the result of one tick's targeting and snapping. It is
// recomputed every tick and never persisted.
type Candidate struct {
	Transform part.Transform
	Valid     bool
	Snapped   bool
	Target    physics.ObjectRef // snap target, NilRef when unsnapped
}

// CommitEvent describes a successful placement.
type CommitEvent struct {
	Template  *part.Template
	Transform part.Transform
	Ref       physics.ObjectRef
}

// Stage is the scene surface the session drives. *scene.Scene satisfies
// it.
type Stage interface {
	Instantiate(tpl *part.Template, at part.Transform) (*scene.PlacedPart, error)
	Destroy(ref physics.ObjectRef)
	SetTransform(ref physics.ObjectRef, at part.Transform) error
	SetVisible(ref physics.ObjectRef, visible bool) error
	AttachToWorld(ref physics.ObjectRef) error
	AsPlacedPart(ref physics.ObjectRef) (*scene.PlacedPart, bool)
}

// Config assembles a session's collaborators.
type Config struct {
	Catalog *part.Catalog
	Caster  physics.Caster
	Overlap physics.Overlapper
	Stage   Stage

	// Tuning defaults to DefaultTuning when zero.
	Tuning Tuning

	// OnCommit, if set, is called after each successful placement.
	OnCommit func(CommitEvent)
}

// Session is the placement state machine. It is single-threaded and
// tick-driven; callers serialize Tick and the command methods.
type Session struct {
	catalog   *part.Catalog
	caster    physics.Caster
	stage     Stage
	validator *Validator
	tuning    Tuning
	overlap   physics.Overlapper
	onCommit  func(CommitEvent)

	state    State
	selected part.TemplateID
	preview  *scene.PlacedPart
	cand     Candidate
}

// NewSession validates the configuration and returns an inert session in
// StateNoSelection. Configuration problems are fatal here rather than
// degrading tick by tick.
func NewSession(cfg Config) (*Session, error) {
	if cfg.Caster == nil {
		return nil, fmt.Errorf("placement: no ray caster configured")
	}
	if cfg.Overlap == nil {
		return nil, fmt.Errorf("placement: no overlap source configured")
	}
	if cfg.Stage == nil {
		return nil, fmt.Errorf("placement: no stage configured")
	}
	if cfg.Catalog == nil || cfg.Catalog.Len() == 0 {
		return nil, fmt.Errorf("placement: catalog is empty")
	}
	if result := part.Validate(cfg.Catalog); len(result.Errors) > 0 {
		return nil, fmt.Errorf("placement: catalog invalid: %s", result.Errors[0].Error())
	}

	tuning := cfg.Tuning
	if tuning == (Tuning{}) {
		tuning = DefaultTuning()
	}
	if tuning.ActivationDistance <= 0 || tuning.MaxRayDistance <= 0 {
		return nil, fmt.Errorf("placement: non-positive tuning distances")
	}
	if tuning.ProximityRadius < tuning.ActivationDistance {
		return nil, fmt.Errorf("placement: proximity radius %.3f is smaller than activation distance %.3f",
			tuning.ProximityRadius, tuning.ActivationDistance)
	}

	return &Session{
		catalog:   cfg.Catalog,
		caster:    cfg.Caster,
		overlap:   cfg.Overlap,
		stage:     cfg.Stage,
		validator: NewValidator(cfg.Overlap),
		tuning:    tuning,
		onCommit:  cfg.OnCommit,
		state:     StateNoSelection,
		selected:  -1,
	}, nil
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Candidate returns the last tick's candidate.
func (s *Session) Candidate() Candidate {
	return s.cand
}

// Selected returns the selected template handle, if any.
func (s *Session) Selected() (part.TemplateID, bool) {
	if s.selected < 0 {
		return 0, false
	}
	return s.selected, true
}

// Preview returns the live preview ref, if any.
func (s *Session) Preview() (physics.ObjectRef, bool) {
	if s.preview == nil {
		return physics.NilRef, false
	}
	return s.preview.Ref, true
}

// SelectNext selects the next template, wrapping past the end of the
// catalog. From StateNoSelection it selects the first template.
func (s *Session) SelectNext() error {
	if s.selected < 0 {
		return s.selectTemplate(0)
	}
	return s.selectTemplate(s.catalog.Next(s.selected))
}

// SelectPrevious selects the previous template, wrapping past the start.
// From StateNoSelection it selects the last template.
func (s *Session) SelectPrevious() error {
	if s.selected < 0 {
		return s.selectTemplate(part.TemplateID(s.catalog.Len() - 1))
	}
	return s.selectTemplate(s.catalog.Prev(s.selected))
}

// selectTemplate swaps the preview to the given template. Re-selecting
// the current template keeps the existing preview untouched.
func (s *Session) selectTemplate(id part.TemplateID) error {
	if s.preview != nil && s.selected == id {
		return nil
	}

	tpl, ok := s.catalog.ByID(id)
	if !ok {
		return fmt.Errorf("placement: no template with handle %d", id)
	}

	if s.preview != nil {
		s.stage.Destroy(s.preview.Ref)
		s.preview = nil
	}

	p, err := s.stage.Instantiate(tpl, part.Transform{})
	if err != nil {
		s.state = StateNoSelection
		s.selected = -1
		return fmt.Errorf("placement: instantiating preview: %w", err)
	}
	// Hidden until the next tick resolves a hit.
	if err := s.stage.SetVisible(p.Ref, false); err != nil {
		s.stage.Destroy(p.Ref)
		s.state = StateNoSelection
		s.selected = -1
		return err
	}

	s.preview = p
	s.selected = id
	s.state = StatePreviewIdle
	s.cand = Candidate{}
	return nil
}

// Tick runs one pass of the placement pipeline: targeting, proximity,
// snap resolution, and overlap validation. It returns the resulting
// candidate; per-tick data problems downgrade the candidate rather than
// erroring.
func (s *Session) Tick(in RayInput) Candidate {
	if s.preview == nil {
		s.cand = Candidate{}
		return s.cand
	}

	hit, ok := s.caster.CastRay(physics.RayQuery{
		Origin:  in.Origin,
		Dir:     in.Dir,
		MaxDist: s.tuning.MaxRayDistance,
		Mask:    physics.LayerEnvironment | physics.LayerParts,
		Exclude: []physics.ObjectRef{s.preview.Ref},
	})
	if !ok {
		s.state = StatePreviewIdle
		s.cand = Candidate{}
		s.stage.SetVisible(s.preview.Ref, false)
		return s.cand
	}

	candidates := s.nearbyParts(hit.Position)
	snap, snapped := ResolveSnap(hit.Position, s.preview.Template.Connectors, candidates, s.tuning.ActivationDistance)

	exclude := []physics.ObjectRef{s.preview.Ref}
	target := physics.NilRef
	var at part.Transform
	if snapped {
		at = part.Transform{Origin: snap.Origin.Add(hit.Normal.Scale(s.tuning.SnapSurfaceOffset))}
		target = snap.Target.Ref
		exclude = append(exclude, target)
	} else {
		at = part.Transform{Origin: hit.Position.Add(hit.Normal.Scale(s.tuning.FreeSurfaceOffset))}
	}

	valid := s.validator.Valid(s.preview.Template.Shape, at, exclude)
	if err := s.stage.SetTransform(s.preview.Ref, at); err != nil {
		valid = false
	}
	s.stage.SetVisible(s.preview.Ref, true)

	if valid {
		s.state = StatePreviewValid
	} else {
		s.state = StatePreviewInvalid
	}
	s.cand = Candidate{Transform: at, Valid: valid, Snapped: snapped, Target: target}
	return s.cand
}

// nearbyParts gathers the placed parts within the proximity radius of the
// hit point. Environment geometry and refs without a placed-part
// capability are dropped.
func (s *Session) nearbyParts(center part.Vec3) []*scene.PlacedPart {
	refs := s.overlap.OverlapSphere(physics.SphereQuery{
		Center:  center,
		Radius:  s.tuning.ProximityRadius,
		Mask:    physics.LayerParts,
		Exclude: []physics.ObjectRef{s.preview.Ref},
	})

	parts := make([]*scene.PlacedPart, 0, len(refs))
	for _, ref := range refs {
		if p, ok := s.stage.AsPlacedPart(ref); ok {
			parts = append(parts, p)
		}
	}
	return parts
}

// Confirm commits the current candidate. Outside StatePreviewValid it is
// a silent no-op: confirm is an interactive command, not a transactional
// API. On success the preview becomes a world part and a fresh preview is
// constructed for the same template.
func (s *Session) Confirm() (CommitEvent, bool) {
	if s.state != StatePreviewValid || s.preview == nil {
		return CommitEvent{}, false
	}

	placed := s.preview
	at := s.cand.Transform

	if err := s.stage.AttachToWorld(placed.Ref); err != nil {
		s.state = StatePreviewInvalid
		return CommitEvent{}, false
	}

	ev := CommitEvent{
		Template:  placed.Template,
		Transform: at,
		Ref:       placed.Ref,
	}

	// The committed part must never remain the live preview.
	s.preview = nil
	fresh, err := s.stage.Instantiate(placed.Template, part.Transform{})
	if err == nil {
		s.stage.SetVisible(fresh.Ref, false)
		s.preview = fresh
		s.state = StatePreviewIdle
	} else {
		s.state = StateNoSelection
		s.selected = -1
	}
	s.cand = Candidate{}

	if s.onCommit != nil {
		s.onCommit(ev)
	}
	return ev, true
}
