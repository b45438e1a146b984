package viewer

// ShapeID identifies one of the built-in shapes. The set is closed and
// compiled into the catalog; unknown ids resolve to DefaultShape.
type ShapeID string

const (
	ShapeBox         ShapeID = "box"
	ShapeSphere      ShapeID = "sphere"
	ShapeCylinder    ShapeID = "cylinder"
	ShapeCone        ShapeID = "cone"
	ShapeTorus       ShapeID = "torus"
	ShapeTorusKnot   ShapeID = "torusKnot"
	ShapeIcosahedron ShapeID = "icosahedron"
	ShapePlane       ShapeID = "plane"
)

// DefaultShape is used whenever a stored or requested shape id is unknown.
const DefaultShape = ShapeBox

// ShapeDescriptor describes one catalog entry: a display name and color for
// presentation layers, and a geometry builder for the scene.
type ShapeDescriptor struct {
	ID            ShapeID
	DisplayName   string
	Color         string // hex color token, e.g. "#4c78a8"
	BuildGeometry func() (*Geometry, error)
}

// Catalog is the immutable, ordered set of shape descriptors.
type Catalog struct {
	order []ShapeID
	byID  map[ShapeID]*ShapeDescriptor
}

func newCatalog(descriptors []*ShapeDescriptor) *Catalog {
	c := &Catalog{byID: make(map[ShapeID]*ShapeDescriptor, len(descriptors))}
	for _, d := range descriptors {
		c.order = append(c.order, d.ID)
		c.byID[d.ID] = d
	}
	return c
}

// defaultCatalog is built once at process start and shared by all viewers.
var defaultCatalog = newCatalog([]*ShapeDescriptor{
	{ID: ShapeBox, DisplayName: "Box", Color: "#4c78a8", BuildGeometry: newBoxGeometry},
	{ID: ShapeSphere, DisplayName: "Sphere", Color: "#e45756", BuildGeometry: newSphereGeometry},
	{ID: ShapeCylinder, DisplayName: "Cylinder", Color: "#72b7b2", BuildGeometry: newCylinderGeometry},
	{ID: ShapeCone, DisplayName: "Cone", Color: "#f58518", BuildGeometry: newConeGeometry},
	{ID: ShapeTorus, DisplayName: "Torus", Color: "#54a24b", BuildGeometry: newTorusGeometry},
	{ID: ShapeTorusKnot, DisplayName: "Torus Knot", Color: "#b279a2", BuildGeometry: newTorusKnotGeometry},
	{ID: ShapeIcosahedron, DisplayName: "Icosahedron", Color: "#eeca3b", BuildGeometry: newIcosahedronGeometry},
	{ID: ShapePlane, DisplayName: "Plane", Color: "#9d755d", BuildGeometry: newPlaneGeometry},
})

// Get returns the descriptor for id.
func (c *Catalog) Get(id ShapeID) (*ShapeDescriptor, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// Resolve returns the descriptor for id, falling back to DefaultShape when
// the id is unknown (e.g. a stale value read back from the preference store).
func (c *Catalog) Resolve(id ShapeID) *ShapeDescriptor {
	if d, ok := c.byID[id]; ok {
		return d
	}
	return c.byID[DefaultShape]
}

// Entries returns the descriptors in catalog order.
func (c *Catalog) Entries() []*ShapeDescriptor {
	out := make([]*ShapeDescriptor, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.byID[id])
	}
	return out
}

// Len returns the number of catalog entries.
func (c *Catalog) Len() int { return len(c.order) }

func (c *Catalog) next(id ShapeID, step int) ShapeID {
	for i, cur := range c.order {
		if cur == id {
			n := (i + step + len(c.order)) % len(c.order)
			return c.order[n]
		}
	}
	return DefaultShape
}
