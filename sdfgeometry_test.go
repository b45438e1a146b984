package viewer

import (
	"math"
	"testing"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/fogleman/fauxgl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unitSphereSDF is a minimal signed distance field for tests.
type unitSphereSDF struct{}

func (unitSphereSDF) Evaluate(p v3.Vec) float64 {
	return math.Sqrt(p.X*p.X+p.Y*p.Y+p.Z*p.Z) - 1
}

func (unitSphereSDF) BoundingBox() sdf.Box3 {
	return sdf.Box3{Min: v3.Vec{X: -1, Y: -1, Z: -1}, Max: v3.Vec{X: 1, Y: 1, Z: 1}}
}

// canned Render3 that emits a fixed triangle batch, or nothing.
type cannedGenerator struct {
	batches [][]*render.Triangle3
}

func (g cannedGenerator) Render(s sdf.SDF3, output chan<- []*render.Triangle3) {
	for _, b := range g.batches {
		output <- b
	}
}

func (g cannedGenerator) Info(s sdf.SDF3) string { return "canned" }

func tetrahedronBatch() []*render.Triangle3 {
	a := v3.Vec{X: 1, Y: 1, Z: 1}
	b := v3.Vec{X: 1, Y: -1, Z: -1}
	c := v3.Vec{X: -1, Y: 1, Z: -1}
	d := v3.Vec{X: -1, Y: -1, Z: 1}
	return []*render.Triangle3{
		{V: [3]v3.Vec{a, b, c}},
		{V: [3]v3.Vec{a, d, b}},
		{V: [3]v3.Vec{a, c, d}},
		{V: [3]v3.Vec{b, d, c}},
	}
}

func TestSDFSourceBuildsNormalizedGeometry(t *testing.T) {
	src := &SDFSource{
		SDF:       unitSphereSDF{},
		Generator: cannedGenerator{batches: [][]*render.Triangle3{tetrahedronBatch()}},
	}
	geom, err := src.Build()
	require.NoError(t, err)
	defer geom.Release()

	mesh := geom.Mesh()
	require.Len(t, mesh.Triangles, 4)
	for _, tri := range mesh.Triangles {
		for _, vtx := range []fauxgl.Vertex{tri.V1, tri.V2, tri.V3} {
			p := vtx.Position
			assert.LessOrEqual(t, math.Abs(p.X), 0.71)
			assert.LessOrEqual(t, math.Abs(p.Y), 0.71)
			assert.LessOrEqual(t, math.Abs(p.Z), 0.71)
			assert.InDelta(t, 1.0, vtx.Normal.Length(), 1e-6)
		}
	}
}

func TestSDFSourceRequiresSurfaceAndGenerator(t *testing.T) {
	_, err := (&SDFSource{SDF: unitSphereSDF{}}).Build()
	assert.Error(t, err)

	_, err = (&SDFSource{Generator: cannedGenerator{}}).Build()
	assert.Error(t, err)
}

func TestSDFSourceEmptyOutputIsAnError(t *testing.T) {
	src := &SDFSource{SDF: unitSphereSDF{}, Generator: cannedGenerator{}}
	_, err := src.Build()
	assert.Error(t, err)
}
