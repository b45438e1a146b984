package viewer

import (
	"errors"
	"math"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/fogleman/fauxgl"
)

// GeometrySource produces the geometry for a catalog entry, replacing its
// built-in procedural builder (see WithGeometrySource).
type GeometrySource interface {
	Build() (*Geometry, error)
}

// SDFSource meshes a signed distance field through a triangle generator and
// serves the result as catalog geometry. The generated mesh is normalized to
// the viewer's working volume and its normals are smoothed below the given
// angle threshold.
type SDFSource struct {
	SDF       sdf.SDF3
	Generator render.Render3
	// SmoothRadians below which adjacent face normals are merged.
	// Zero uses a 60 degree default.
	SmoothRadians float64
}

// Build runs the generator once and converts its triangles.
func (s *SDFSource) Build() (*Geometry, error) {
	if s.SDF == nil || s.Generator == nil {
		return nil, errors.New("viewer: SDF source needs both a surface and a generator")
	}
	var triangles []*fauxgl.Triangle
	triChan := make(chan []*render.Triangle3)
	go func() {
		s.Generator.Render(s.SDF, triChan)
		close(triChan)
	}()
	for tris := range triChan {
		for _, tri := range tris {
			triangles = append(triangles, convertTriangle(tri))
		}
	}
	if len(triangles) == 0 {
		return nil, errors.New("viewer: SDF generator produced no triangles")
	}
	mesh := fauxgl.NewTriangleMesh(triangles)
	mesh.BiUnitCube() // center and scale into the working volume
	mesh.Transform(fauxgl.Scale(fauxgl.V(0.7, 0.7, 0.7)))
	smooth := s.SmoothRadians
	if smooth == 0 {
		smooth = math.Pi / 3
	}
	mesh.SmoothNormalsThreshold(smooth)
	return &Geometry{mesh: mesh}, nil
}

func convertTriangle(tri *render.Triangle3) *fauxgl.Triangle {
	n := toVector(tri.Normal())
	return &fauxgl.Triangle{
		V1: vertex(toVector(tri.V[0]), n),
		V2: vertex(toVector(tri.V[1]), n),
		V3: vertex(toVector(tri.V[2]), n),
	}
}

func toVector(v v3.Vec) fauxgl.Vector {
	return fauxgl.Vector{X: v.X, Y: v.Y, Z: v.Z}
}
