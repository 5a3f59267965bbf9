package main

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/chazu/tenon/pkg/engine"
	"github.com/chazu/tenon/pkg/kernel"
	"github.com/chazu/tenon/pkg/kernel/sdfx"
	"github.com/chazu/tenon/pkg/part"
	"github.com/chazu/tenon/pkg/physics/rtree"
	"github.com/chazu/tenon/pkg/placement"
	"github.com/chazu/tenon/pkg/scene"
	"github.com/chazu/tenon/pkg/tessellate"
)

// commitEventName is the Wails event emitted after each successful
// placement.
const commitEventName = "placement:committed"

// groundExtent is the side length of the build surface; its top face sits
// at y=0.
const groundExtent = 200.0

// colorPalette assigns distinct preview colors to templates.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via
// bindings. Bindings are invoked from the frontend's event loop and the
// tick loop concurrently, so all session access goes through the mutex.
type App struct {
	mu      sync.Mutex
	ctx     context.Context
	engine  *engine.Engine
	kernel  kernel.Kernel
	catalog *part.Catalog
	index   *rtree.Index
	world   *scene.Scene
	session *placement.Session
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// CatalogResult is returned from LoadCatalog.
type CatalogResult struct {
	Templates []string        `json:"templates"`
	Errors    []EvalErrorData `json:"errors"`
	Warnings  []string        `json:"warnings"`
}

// RayData is the pointer ray for one tick, in world space.
type RayData struct {
	Origin part.Vec3 `json:"origin"`
	Dir    part.Vec3 `json:"dir"`
}

// FeedbackData describes the current candidate for visual feedback.
type FeedbackData struct {
	State   string    `json:"state"`
	Origin  part.Vec3 `json:"origin"`
	Valid   bool      `json:"valid"`
	Snapped bool      `json:"snapped"`
	Target  string    `json:"target,omitempty"`
	Preview string    `json:"preview,omitempty"`
}

// SelectionData names the currently selected template.
type SelectionData struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// CommitData is the payload of the commit event and the ConfirmPlacement
// result.
type CommitData struct {
	Committed bool      `json:"committed"`
	Template  string    `json:"template"`
	Origin    part.Vec3 `json:"origin"`
	Ref       string    `json:"ref"`
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Template string    `json:"template"`
	Color    string    `json:"color"`
}

// NewApp creates a new App with an engine and the sdfx kernel. No catalog
// is loaded; placement bindings error until LoadCatalog succeeds.
func NewApp() *App {
	return &App{
		engine: engine.NewEngine(),
		kernel: sdfx.New(),
	}
}

// startup is called by Wails on app startup. The context is saved so the
// commit event can be emitted through the Wails runtime.
func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ctx = ctx
}

// LoadCatalog evaluates catalog source and, on success, replaces the
// world: a fresh collision index, a ground slab, and a new placement
// session. Previously placed parts are discarded.
func (a *App) LoadCatalog(source string) CatalogResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	result := CatalogResult{
		Templates: []string{},
		Errors:    []EvalErrorData{},
		Warnings:  []string{},
	}

	catalog, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("LoadCatalog fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, EvalErrorData{
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	validation := part.Validate(catalog)
	for _, w := range validation.Warnings {
		log.Printf("LoadCatalog warning: %s", w.Error())
		result.Warnings = append(result.Warnings, w.Error())
	}
	if len(validation.Errors) > 0 {
		for _, e := range validation.Errors {
			result.Errors = append(result.Errors, EvalErrorData{Message: e.Error()})
		}
		return result
	}

	index := rtree.NewIndex(a.kernel)
	world := scene.New(index)
	if _, err := world.AddGround(
		part.Vec3{X: groundExtent, Y: 1, Z: groundExtent},
		part.Transform{Origin: part.Vec3{X: -groundExtent / 2, Y: -1, Z: -groundExtent / 2}},
	); err != nil {
		log.Printf("LoadCatalog ground error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	session, err := placement.NewSession(placement.Config{
		Catalog:  catalog,
		Caster:   index,
		Overlap:  index,
		Stage:    world,
		OnCommit: a.emitCommit,
	})
	if err != nil {
		log.Printf("LoadCatalog session error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}

	a.catalog = catalog
	a.index = index
	a.world = world
	a.session = session

	result.Templates = catalog.Names()
	return result
}

// emitCommit forwards a commit event to the frontend. Outside a running
// Wails app (tests) the context is nil and the event is dropped.
func (a *App) emitCommit(ev placement.CommitEvent) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, commitEventName, CommitData{
		Committed: true,
		Template:  ev.Template.Name,
		Origin:    ev.Transform.Origin,
		Ref:       string(ev.Ref),
	})
}

// Tick runs one placement tick for the given pointer ray and returns the
// feedback for preview rendering.
func (a *App) Tick(ray RayData) (FeedbackData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return FeedbackData{}, fmt.Errorf("no catalog loaded")
	}

	cand := a.session.Tick(placement.RayInput{Origin: ray.Origin, Dir: ray.Dir})
	fb := FeedbackData{
		State:   a.session.State().String(),
		Origin:  cand.Transform.Origin,
		Valid:   cand.Valid,
		Snapped: cand.Snapped,
		Target:  string(cand.Target),
	}
	if ref, ok := a.session.Preview(); ok {
		fb.Preview = string(ref)
	}
	return fb, nil
}

// SelectNext selects the next template, wrapping around the catalog.
func (a *App) SelectNext() (SelectionData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return SelectionData{}, fmt.Errorf("no catalog loaded")
	}
	if err := a.session.SelectNext(); err != nil {
		return SelectionData{}, err
	}
	return a.selectionLocked()
}

// SelectPrevious selects the previous template, wrapping around the
// catalog.
func (a *App) SelectPrevious() (SelectionData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.session == nil {
		return SelectionData{}, fmt.Errorf("no catalog loaded")
	}
	if err := a.session.SelectPrevious(); err != nil {
		return SelectionData{}, err
	}
	return a.selectionLocked()
}

func (a *App) selectionLocked() (SelectionData, error) {
	id, ok := a.session.Selected()
	if !ok {
		return SelectionData{}, fmt.Errorf("no template selected")
	}
	tpl, _ := a.catalog.ByID(id)
	return SelectionData{Index: int(id), Name: tpl.Name}, nil
}

// ConfirmPlacement commits the current candidate. When nothing placeable
// is under the pointer this is a no-op reported through the Committed
// flag, not an error.
func (a *App) ConfirmPlacement() (CommitData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.session == nil {
		return CommitData{}, fmt.Errorf("no catalog loaded")
	}

	ev, ok := a.session.Confirm()
	if !ok {
		return CommitData{}, nil
	}
	return CommitData{
		Committed: true,
		Template:  ev.Template.Name,
		Origin:    ev.Transform.Origin,
		Ref:       string(ev.Ref),
	}, nil
}

// TemplateMeshes tessellates every catalog template into a local-space
// triangle mesh for the frontend to instance.
func (a *App) TemplateMeshes() ([]MeshData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.catalog == nil {
		return nil, fmt.Errorf("no catalog loaded")
	}

	meshes, err := tessellate.Templates(a.catalog, a.kernel)
	if err != nil {
		log.Printf("TemplateMeshes error: %v", err)
		return nil, err
	}

	out := make([]MeshData, 0, len(meshes))
	for i, m := range meshes {
		out = append(out, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Template: m.Template,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return out, nil
}
