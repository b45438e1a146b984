package viewer

import (
	"math"

	"github.com/fogleman/fauxgl"
)

// Geometry owns a triangle mesh built for one scene construction. It is
// released exactly once, by the scene that owns it.
type Geometry struct {
	mesh     *fauxgl.Mesh
	released bool
}

func newGeometry(triangles []*fauxgl.Triangle) *Geometry {
	return &Geometry{mesh: fauxgl.NewTriangleMesh(triangles)}
}

// Mesh returns the underlying mesh, or nil after release.
func (g *Geometry) Mesh() *fauxgl.Mesh { return g.mesh }

// Released reports whether the geometry buffers have been dropped.
func (g *Geometry) Released() bool { return g == nil || g.released }

// Release drops the triangle buffers. Safe to call more than once.
func (g *Geometry) Release() {
	if g == nil || g.released {
		return
	}
	g.mesh.Triangles = nil
	g.mesh = nil
	g.released = true
}

// vertex builds a white vertex with an explicit normal. All builders assign
// analytic normals, so shading does not depend on triangle winding.
func vertex(p, n fauxgl.Vector) fauxgl.Vertex {
	return fauxgl.Vertex{Position: p, Normal: n, Color: fauxgl.Gray(1)}
}

func triangle(a, b, c fauxgl.Vertex) *fauxgl.Triangle {
	return &fauxgl.Triangle{V1: a, V2: b, V3: c}
}

// quadFace emits the two triangles of the face centered at c and spanned by
// the half-extent vectors u and v, with normal u x v.
func quadFace(c, u, v fauxgl.Vector) []*fauxgl.Triangle {
	n := u.Cross(v).Normalize()
	p1 := c.Sub(u).Sub(v)
	p2 := c.Add(u).Sub(v)
	p3 := c.Add(u).Add(v)
	p4 := c.Sub(u).Add(v)
	return []*fauxgl.Triangle{
		triangle(vertex(p1, n), vertex(p2, n), vertex(p3, n)),
		triangle(vertex(p1, n), vertex(p3, n), vertex(p4, n)),
	}
}

func boxTriangles(c fauxgl.Vector, hx, hy, hz float64) []*fauxgl.Triangle {
	var tris []*fauxgl.Triangle
	x := fauxgl.V(hx, 0, 0)
	y := fauxgl.V(0, hy, 0)
	z := fauxgl.V(0, 0, hz)
	neg := func(v fauxgl.Vector) fauxgl.Vector { return v.MulScalar(-1) }
	tris = append(tris, quadFace(c.Add(x), neg(z), y)...) // +X
	tris = append(tris, quadFace(c.Sub(x), z, y)...)      // -X
	tris = append(tris, quadFace(c.Add(y), x, neg(z))...) // +Y
	tris = append(tris, quadFace(c.Sub(y), x, z)...)      // -Y
	tris = append(tris, quadFace(c.Add(z), x, y)...)      // +Z
	tris = append(tris, quadFace(c.Sub(z), neg(x), y)...) // -Z
	return tris
}

func newBoxGeometry() (*Geometry, error) {
	return newGeometry(boxTriangles(fauxgl.Vector{}, 0.5, 0.5, 0.5)), nil
}

func newPlaneGeometry() (*Geometry, error) {
	// Two opposing faces so the plane is visible from both sides.
	h := 0.75
	up := quadFace(fauxgl.Vector{}, fauxgl.V(h, 0, 0), fauxgl.V(0, 0, -h))
	down := quadFace(fauxgl.Vector{}, fauxgl.V(0, 0, -h), fauxgl.V(h, 0, 0))
	return newGeometry(append(up, down...)), nil
}

func newSphereGeometry() (*Geometry, error) {
	const (
		radius = 0.65
		stacks = 18
		slices = 28
	)
	point := func(i, j int) fauxgl.Vertex {
		theta := float64(i) / stacks * math.Pi
		phi := float64(j) / slices * 2 * math.Pi
		n := fauxgl.V(math.Sin(theta)*math.Cos(phi), math.Cos(theta), math.Sin(theta)*math.Sin(phi))
		return vertex(n.MulScalar(radius), n)
	}
	var tris []*fauxgl.Triangle
	for i := 0; i < stacks; i++ {
		for j := 0; j < slices; j++ {
			a := point(i, j)
			b := point(i+1, j)
			c := point(i+1, j+1)
			d := point(i, j+1)
			if i > 0 {
				tris = append(tris, triangle(a, b, c))
			}
			if i < stacks-1 {
				tris = append(tris, triangle(a, c, d))
			}
		}
	}
	return newGeometry(tris), nil
}

func newCylinderGeometry() (*Geometry, error) {
	const (
		radius = 0.45
		half   = 0.45
		slices = 36
	)
	rim := func(j int, y float64) (fauxgl.Vector, fauxgl.Vector) {
		phi := float64(j) / slices * 2 * math.Pi
		n := fauxgl.V(math.Cos(phi), 0, math.Sin(phi))
		return fauxgl.V(n.X*radius, y, n.Z*radius), n
	}
	var tris []*fauxgl.Triangle
	top := fauxgl.V(0, half, 0)
	bottom := fauxgl.V(0, -half, 0)
	up := fauxgl.V(0, 1, 0)
	down := fauxgl.V(0, -1, 0)
	for j := 0; j < slices; j++ {
		p0, n0 := rim(j, -half)
		p1, n1 := rim(j+1, -half)
		t0, _ := rim(j, half)
		t1, _ := rim(j+1, half)
		// side
		tris = append(tris,
			triangle(vertex(p0, n0), vertex(p1, n1), vertex(t1, n1)),
			triangle(vertex(p0, n0), vertex(t1, n1), vertex(t0, n0)))
		// caps
		tris = append(tris,
			triangle(vertex(top, up), vertex(t0, up), vertex(t1, up)),
			triangle(vertex(bottom, down), vertex(p1, down), vertex(p0, down)))
	}
	return newGeometry(tris), nil
}

func newConeGeometry() (*Geometry, error) {
	const (
		radius = 0.5
		half   = 0.5
		slices = 36
	)
	apex := fauxgl.V(0, half, 0)
	slope := radius / (2 * half)
	rim := func(j int) (fauxgl.Vector, fauxgl.Vector) {
		phi := float64(j) / slices * 2 * math.Pi
		p := fauxgl.V(radius*math.Cos(phi), -half, radius*math.Sin(phi))
		n := fauxgl.V(math.Cos(phi), slope, math.Sin(phi)).Normalize()
		return p, n
	}
	var tris []*fauxgl.Triangle
	down := fauxgl.V(0, -1, 0)
	base := fauxgl.V(0, -half, 0)
	for j := 0; j < slices; j++ {
		p0, n0 := rim(j)
		p1, n1 := rim(j + 1)
		apexN := n0.Add(n1).Normalize()
		tris = append(tris,
			triangle(vertex(apex, apexN), vertex(p0, n0), vertex(p1, n1)),
			triangle(vertex(base, down), vertex(p1, down), vertex(p0, down)))
	}
	return newGeometry(tris), nil
}

func newTorusGeometry() (*Geometry, error) {
	const (
		major = 0.48
		minor = 0.18
		segU  = 36
		segV  = 18
	)
	point := func(i, j int) fauxgl.Vertex {
		u := float64(i) / segU * 2 * math.Pi
		v := float64(j) / segV * 2 * math.Pi
		n := fauxgl.V(math.Cos(v)*math.Cos(u), math.Sin(v), math.Cos(v)*math.Sin(u))
		p := fauxgl.V(
			(major+minor*math.Cos(v))*math.Cos(u),
			minor*math.Sin(v),
			(major+minor*math.Cos(v))*math.Sin(u))
		return vertex(p, n)
	}
	var tris []*fauxgl.Triangle
	for i := 0; i < segU; i++ {
		for j := 0; j < segV; j++ {
			a := point(i, j)
			b := point(i+1, j)
			c := point(i+1, j+1)
			d := point(i, j+1)
			tris = append(tris, triangle(a, b, c), triangle(a, c, d))
		}
	}
	return newGeometry(tris), nil
}

// torusKnotCurve is the (2,3) torus knot center curve, scaled to fit the
// viewer's unit-ish working volume.
func torusKnotCurve(t float64) fauxgl.Vector {
	const scale = 0.21
	r := 2 + math.Cos(3*t)
	return fauxgl.V(r*math.Cos(2*t), math.Sin(3*t), r*math.Sin(2*t)).MulScalar(scale)
}

func newTorusKnotGeometry() (*Geometry, error) {
	const (
		segU = 128
		segV = 10
		tube = 0.085
	)
	frame := func(i int) (p, n, b fauxgl.Vector) {
		t := float64(i) / segU * 2 * math.Pi
		const eps = 1e-4
		p = torusKnotCurve(t)
		tangent := torusKnotCurve(t + eps).Sub(torusKnotCurve(t - eps)).Normalize()
		ref := fauxgl.V(0, 1, 0)
		if math.Abs(tangent.Dot(ref)) > 0.99 {
			ref = fauxgl.V(1, 0, 0)
		}
		b = tangent.Cross(ref).Normalize()
		n = b.Cross(tangent).Normalize()
		return p, n, b
	}
	point := func(i, j int) fauxgl.Vertex {
		p, n, b := frame(i)
		theta := float64(j) / segV * 2 * math.Pi
		dir := n.MulScalar(math.Cos(theta)).Add(b.MulScalar(math.Sin(theta)))
		return vertex(p.Add(dir.MulScalar(tube)), dir)
	}
	var tris []*fauxgl.Triangle
	for i := 0; i < segU; i++ {
		for j := 0; j < segV; j++ {
			a := point(i, j)
			b := point(i+1, j)
			c := point(i+1, j+1)
			d := point(i, j+1)
			tris = append(tris, triangle(a, b, c), triangle(a, c, d))
		}
	}
	return newGeometry(tris), nil
}

func newIcosahedronGeometry() (*Geometry, error) {
	const radius = 0.7
	t := (1 + math.Sqrt(5)) / 2
	raw := []fauxgl.Vector{
		{X: -1, Y: t}, {X: 1, Y: t}, {X: -1, Y: -t}, {X: 1, Y: -t},
		{Y: -1, Z: t}, {Y: 1, Z: t}, {Y: -1, Z: -t}, {Y: 1, Z: -t},
		{X: t, Z: -1}, {X: t, Z: 1}, {X: -t, Z: -1}, {X: -t, Z: 1},
	}
	verts := make([]fauxgl.Vector, len(raw))
	for i, v := range raw {
		verts[i] = v.Normalize().MulScalar(radius)
	}
	faces := [][3]int{
		{0, 11, 5}, {0, 5, 1}, {0, 1, 7}, {0, 7, 10}, {0, 10, 11},
		{1, 5, 9}, {5, 11, 4}, {11, 10, 2}, {10, 7, 6}, {7, 1, 8},
		{3, 9, 4}, {3, 4, 2}, {3, 2, 6}, {3, 6, 8}, {3, 8, 9},
		{4, 9, 5}, {2, 4, 11}, {6, 2, 10}, {8, 6, 7}, {9, 8, 1},
	}
	var tris []*fauxgl.Triangle
	for _, f := range faces {
		a, b, c := verts[f[0]], verts[f[1]], verts[f[2]]
		n := a.Add(b).Add(c).Normalize()
		tris = append(tris, triangle(vertex(a, n), vertex(b, n), vertex(c, n)))
	}
	return newGeometry(tris), nil
}

// Helper visuals: grid and axes, static in world space.

const (
	gridY         = -0.85
	gridHalf      = 1.2
	gridStep      = 0.3
	gridThickness = 0.004
	axisLength    = 1.1
	axisThickness = 0.006
)

func newGridGeometry() *Geometry {
	var tris []*fauxgl.Triangle
	for d := -gridHalf; d <= gridHalf+1e-9; d += gridStep {
		// line along Z at x=d
		tris = append(tris, quadFace(
			fauxgl.V(d, gridY, 0),
			fauxgl.V(gridThickness, 0, 0),
			fauxgl.V(0, 0, -gridHalf))...)
		// line along X at z=d
		tris = append(tris, quadFace(
			fauxgl.V(0, gridY, d),
			fauxgl.V(gridHalf, 0, 0),
			fauxgl.V(0, 0, -gridThickness))...)
	}
	return newGeometry(tris)
}

func newAxisGeometry(axis fauxgl.Vector) *Geometry {
	h := axisLength / 2
	c := axis.MulScalar(h)
	hx, hy, hz := axisThickness, axisThickness, axisThickness
	switch {
	case axis.X != 0:
		hx = h
	case axis.Y != 0:
		hy = h
	default:
		hz = h
	}
	return newGeometry(boxTriangles(c, hx, hy, hz))
}
