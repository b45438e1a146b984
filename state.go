package viewer

import "github.com/barkimedes/go-deepcopy"

// State is the viewer's interactive state. It is owned by the viewer while
// mounted and mirrored into the preference store on every change.
type State struct {
	Shape      ShapeID
	Wireframe  bool
	AutoRotate bool
	Rotation   Rotation
}

// Snapshot returns a deep copy safe to hand outside the state lock.
func (s *State) Snapshot() *State {
	return deepcopy.MustAnything(s).(*State)
}

// restoreState builds the initial state from the preference store, falling
// back to documented defaults for missing or malformed values.
func restoreState(prefs *Prefs, catalog *Catalog) *State {
	st := &State{
		Shape:      DefaultShape,
		AutoRotate: true, // enabled when absent
	}
	if id, ok := prefs.LoadShapeID(); ok {
		st.Shape = catalog.Resolve(id).ID
	}
	if v, ok := prefs.LoadBool(keyWireframe); ok {
		st.Wireframe = v
	}
	if v, ok := prefs.LoadBool(keyAutoRotate); ok {
		st.AutoRotate = v
	}
	if r, ok := prefs.LoadRotation(); ok {
		st.Rotation = r
	}
	return st
}
