package viewer

import (
	"encoding/json"
	"math"
)

// Store is the external string key-value store the viewer persists its
// preferences into. Implementations must not block Set on durable I/O;
// persistence is best-effort (see FileStore).
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

// Preference keys. Values are plain strings; lastRotation is JSON {x,y,z}.
const (
	keySelectedShape = "selectedShapeId"
	keyWireframe     = "wireframeEnabled"
	keyAutoRotate    = "autoRotateEnabled"
	keyLastRotation  = "lastRotation"
)

// Rotation is a per-axis orientation in radians.
type Rotation struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (r Rotation) finite() bool {
	for _, v := range [3]float64{r.X, r.Y, r.Z} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Prefs wraps a Store with typed accessors for the viewer's persisted state.
// Reads fail soft: malformed or missing values report ok=false and the caller
// substitutes its default. Writes never report errors past this boundary.
type Prefs struct {
	store Store
}

// NewPrefs wraps store.
func NewPrefs(store Store) *Prefs { return &Prefs{store: store} }

// LoadShapeID returns the stored shape id. Unknown ids are still returned;
// resolution against the catalog happens at scene construction.
func (p *Prefs) LoadShapeID() (ShapeID, bool) {
	raw, ok := p.store.Get(keySelectedShape)
	if !ok || raw == "" {
		return "", false
	}
	return ShapeID(raw), true
}

// SaveShapeID persists the selected shape id.
func (p *Prefs) SaveShapeID(id ShapeID) {
	p.store.Set(keySelectedShape, string(id))
}

// LoadBool returns the stored flag for key. Anything but "true"/"false" is
// treated as not present.
func (p *Prefs) LoadBool(key string) (bool, bool) {
	raw, ok := p.store.Get(key)
	if !ok {
		return false, false
	}
	switch raw {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// SaveBool persists a flag as "true"/"false".
func (p *Prefs) SaveBool(key string, v bool) {
	if v {
		p.store.Set(key, "true")
	} else {
		p.store.Set(key, "false")
	}
}

// LoadRotation returns the stored rotation snapshot. Unparsable JSON or
// non-finite components are treated as not present.
func (p *Prefs) LoadRotation() (Rotation, bool) {
	raw, ok := p.store.Get(keyLastRotation)
	if !ok {
		return Rotation{}, false
	}
	var r Rotation
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Rotation{}, false
	}
	if !r.finite() {
		return Rotation{}, false
	}
	return r, true
}

// SaveRotation persists the rotation snapshot. Non-finite rotations are
// dropped rather than stored.
func (p *Prefs) SaveRotation(r Rotation) {
	if !r.finite() {
		return
	}
	raw, err := json.Marshal(r)
	if err != nil {
		return
	}
	p.store.Set(keyLastRotation, string(raw))
}
