package viewer

import (
	"errors"
	"fmt"
	"log"
	"sync"
)

// Option configures a Viewer before it is mounted.
type Option func(*Viewer)

// WithStore sets the preference store. Defaults to an in-memory store.
func WithStore(store Store) Option {
	return func(v *Viewer) { v.store = store }
}

// WithShape sets the initial shape, overriding the stored selection.
func WithShape(id ShapeID) Option {
	return func(v *Viewer) { v.forcedShape = id }
}

// WithBackground sets the scene background color as a hex token.
func WithBackground(hex string) Option {
	return func(v *Viewer) { v.background = hex }
}

// WithGeometrySource replaces the geometry builder of an existing catalog
// entry. The catalog's id set stays closed; only how that id's mesh is
// produced changes. Unknown ids are ignored.
func WithGeometrySource(id ShapeID, src GeometrySource) Option {
	return func(v *Viewer) { v.overrides[id] = src }
}

// WithTitle sets the window title used by Run.
func WithTitle(title string) Option {
	return func(v *Viewer) { v.title = title }
}

// WithWindowSize sets the initial window size used by Run.
func WithWindowSize(width, height int) Option {
	return func(v *Viewer) { v.windowW, v.windowH = width, height }
}

// ShapeInfo is one row of the presentation-layer shape enumeration.
type ShapeInfo struct {
	ID       ShapeID
	Name     string
	Color    string
	Selected bool
}

// Viewer manages one live 3D shape at a time: it restores persisted state,
// constructs the scene graph, drives the render loop through the host
// scheduler, and tears all graphics resources down deterministically on
// shape change or unmount.
type Viewer struct {
	catalog   *Catalog
	store     Store
	prefs     *Prefs
	overrides map[ShapeID]GeometrySource

	mu    sync.RWMutex
	state *State
	scene *Scene
	loop  *Loop
	host  Host

	forcedShape ShapeID
	background  string
	title       string
	windowW     int
	windowH     int
}

// NewViewer returns an unmounted viewer.
func NewViewer(opts ...Option) *Viewer {
	v := &Viewer{
		catalog:   defaultCatalog,
		overrides: make(map[ShapeID]GeometrySource),
		title:     "polyview",
		windowW:   960,
		windowH:   720,
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.store == nil {
		v.store = NewMemStore()
	}
	v.prefs = NewPrefs(v.store)
	return v
}

// Mount restores preferences, constructs the scene and starts the render
// loop on the given host. A resource-creation failure is fatal and returned;
// the viewer has no degraded mode without a graphics target.
func (v *Viewer) Mount(host Host) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.host != nil {
		return errors.New("viewer: already mounted")
	}
	v.host = host
	v.state = restoreState(v.prefs, v.catalog)
	if v.forcedShape != "" {
		v.state.Shape = v.catalog.Resolve(v.forcedShape).ID
	}
	if err := v.constructLocked(); err != nil {
		v.host = nil
		return err
	}
	v.loop = newLoop(host, v.prefs, &v.mu, v.state, func() *Scene { return v.scene })
	v.loop.Start()
	return nil
}

// constructLocked builds a scene for the current state. Caller holds v.mu
// and must have torn down any previous scene.
func (v *Viewer) constructLocked() error {
	w, h := v.host.Size()
	desc := v.catalog.Resolve(v.state.Shape)
	cfg := SceneConfig{
		Width:      w,
		Height:     h,
		Descriptor: desc,
		Wireframe:  v.state.Wireframe,
		Rotation:   v.state.Rotation,
		Background: v.background,
	}
	if src, ok := v.overrides[desc.ID]; ok {
		cfg.Build = func() (*Geometry, error) { return src.Build() }
	}
	scene, err := ConstructScene(v.host, cfg)
	if err != nil {
		scene.Teardown() // release whatever the partial construct allocated
		return err
	}
	v.scene = scene
	return nil
}

// Unmount stops the loop, tears the scene down and detaches from the host.
// Safe to call on an unmounted viewer.
func (v *Viewer) Unmount() {
	v.mu.Lock()
	loop, scene := v.loop, v.scene
	v.loop, v.scene, v.host = nil, nil, nil
	v.mu.Unlock()
	// Cancel the scheduler registration before releasing resources so no
	// queued tick runs against a freed scene.
	if loop != nil {
		loop.Stop()
	}
	scene.Teardown()
}

// Mounted reports whether the viewer currently owns a live scene.
func (v *Viewer) Mounted() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.host != nil
}

// Shapes enumerates the catalog for presentation layers.
func (v *Viewer) Shapes() []ShapeInfo {
	v.mu.RLock()
	selected := ShapeID("")
	if v.state != nil {
		selected = v.state.Shape
	}
	v.mu.RUnlock()
	entries := v.catalog.Entries()
	out := make([]ShapeInfo, 0, len(entries))
	for _, d := range entries {
		out = append(out, ShapeInfo{ID: d.ID, Name: d.DisplayName, Color: d.Color, Selected: d.ID == selected})
	}
	return out
}

// SelectShape switches the active shape: full teardown of the current scene
// followed by reconstruction, never an in-place mutation. The selection is
// persisted. Selecting the current shape is a no-op.
func (v *Viewer) SelectShape(id ShapeID) error {
	if _, ok := v.catalog.Get(id); !ok {
		return fmt.Errorf("viewer: unknown shape %q", id)
	}
	v.mu.Lock()
	if v.host == nil {
		v.mu.Unlock()
		return errors.New("viewer: not mounted")
	}
	if v.state.Shape == id {
		v.mu.Unlock()
		return nil
	}
	v.state.Shape = id
	loop, old := v.loop, v.scene
	v.scene = nil
	v.mu.Unlock()

	loop.Stop()
	old.Teardown()

	v.mu.Lock()
	err := v.constructLocked()
	v.mu.Unlock()
	if err != nil {
		return err
	}
	loop.Start()
	v.prefs.SaveShapeID(id)
	return nil
}

// CycleShape selects the next (step>0) or previous (step<0) catalog entry.
func (v *Viewer) CycleShape(step int) error {
	v.mu.RLock()
	if v.state == nil {
		v.mu.RUnlock()
		return errors.New("viewer: not mounted")
	}
	cur := v.state.Shape
	v.mu.RUnlock()
	return v.SelectShape(v.catalog.next(cur, step))
}

// SelectedShape returns the active shape id.
func (v *Viewer) SelectedShape() ShapeID {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state == nil {
		return DefaultShape
	}
	return v.state.Shape
}

// SetWireframe mutates the active material in place and mirrors the flag to
// the store. Visible on the next tick; no reconstruction.
func (v *Viewer) SetWireframe(enabled bool) {
	v.mu.Lock()
	if v.state == nil {
		v.mu.Unlock()
		return
	}
	v.state.Wireframe = enabled
	if v.scene != nil {
		v.scene.SetWireframe(enabled)
	}
	v.mu.Unlock()
	v.prefs.SaveBool(keyWireframe, enabled)
}

// ToggleWireframe flips the wireframe flag and returns the new value.
func (v *Viewer) ToggleWireframe() bool {
	next := !v.Wireframe()
	v.SetWireframe(next)
	return next
}

// Wireframe returns the wireframe flag.
func (v *Viewer) Wireframe() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state != nil && v.state.Wireframe
}

// SetAutoRotate sets the auto-rotate flag and mirrors it to the store.
func (v *Viewer) SetAutoRotate(enabled bool) {
	v.mu.Lock()
	if v.state == nil {
		v.mu.Unlock()
		return
	}
	v.state.AutoRotate = enabled
	v.mu.Unlock()
	v.prefs.SaveBool(keyAutoRotate, enabled)
}

// ToggleAutoRotate flips the auto-rotate flag and returns the new value.
func (v *Viewer) ToggleAutoRotate() bool {
	next := !v.AutoRotate()
	v.SetAutoRotate(next)
	return next
}

// AutoRotate returns the auto-rotate flag.
func (v *Viewer) AutoRotate() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state != nil && v.state.AutoRotate
}

// Rotation returns the current mesh orientation.
func (v *Viewer) Rotation() Rotation {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state == nil {
		return Rotation{}
	}
	return v.state.Rotation
}

// ResetRotation zeroes the mesh orientation and the persisted snapshot.
func (v *Viewer) ResetRotation() {
	v.mu.Lock()
	if v.state == nil {
		v.mu.Unlock()
		return
	}
	v.state.Rotation = Rotation{}
	if v.scene != nil && v.scene.Mesh != nil {
		v.scene.Mesh.Rotation = Rotation{}
	}
	v.mu.Unlock()
	v.prefs.SaveRotation(Rotation{})
}

// State returns a read-only snapshot of the viewer state.
func (v *Viewer) State() *State {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.state == nil {
		return &State{Shape: DefaultShape, AutoRotate: true}
	}
	return v.state.Snapshot()
}

// Resize updates camera aspect and surface size for a new viewport size. It
// may fire at any time relative to render ticks and never reenters scene
// construction.
func (v *Viewer) Resize(width, height int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.scene == nil {
		return
	}
	v.scene.Resize(width, height)
}

// Scene returns the live scene. Exposed for front-ends and tests; callers
// must not retain references past Unmount.
func (v *Viewer) Scene() *Scene {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.scene
}

// Saving reports whether the store is flushing, when the store exposes that.
func (v *Viewer) Saving() bool {
	f, ok := v.store.(interface{ Flushing() bool })
	return ok && f.Flushing()
}

func logf(format string, args ...interface{}) {
	log.Printf("[Viewer] "+format, args...)
}
