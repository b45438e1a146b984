package viewer

import (
	"fmt"
	"image"

	"github.com/fogleman/fauxgl"
)

// Fallback size used when the viewport reports degenerate dimensions, so the
// camera aspect ratio and the render surface stay valid.
const (
	fallbackWidth  = 800
	fallbackHeight = 600
)

const (
	camFOV  = 40 // degrees, vertical
	camNear = 0.1
	camFar  = 100
)

func clampViewport(w, h int) (int, int) {
	if w <= 0 || h <= 0 {
		return fallbackWidth, fallbackHeight
	}
	return w, h
}

// Camera is a fixed-orbit perspective camera. Only the aspect ratio changes
// after construction (on resize).
type Camera struct {
	Eye    fauxgl.Vector
	Center fauxgl.Vector
	Up     fauxgl.Vector
	aspect float64
}

func newCamera(width, height int) *Camera {
	c := &Camera{
		Eye:    fauxgl.V(1.6, 1.3, 2.1),
		Center: fauxgl.Vector{},
		Up:     fauxgl.V(0, 1, 0),
	}
	c.SetAspect(width, height)
	return c
}

// SetAspect recomputes the aspect ratio from a viewport size, substituting
// the fallback size for degenerate dimensions.
func (c *Camera) SetAspect(width, height int) {
	w, h := clampViewport(width, height)
	c.aspect = float64(w) / float64(h)
}

// Aspect returns the current aspect ratio.
func (c *Camera) Aspect() float64 { return c.aspect }

// Matrix returns the combined view-projection matrix.
func (c *Camera) Matrix() fauxgl.Matrix {
	return fauxgl.LookAt(c.Eye, c.Center, c.Up).Perspective(camFOV, c.aspect, camNear, camFar)
}

// Surface is the render target: a CPU rasterization context sized to the
// viewport, whose image the host blits each frame.
type Surface struct {
	ctx      *fauxgl.Context
	width    int
	height   int
	released bool
}

func newSurface(width, height int) *Surface {
	s := &Surface{}
	s.Resize(width, height)
	return s
}

// Resize rebuilds the rasterization context for a new viewport size.
// Idempotent for an unchanged size.
func (s *Surface) Resize(width, height int) {
	w, h := clampViewport(width, height)
	if s.ctx != nil && s.width == w && s.height == h {
		return
	}
	s.width, s.height = w, h
	s.ctx = fauxgl.NewContext(w, h)
	s.ctx.Cull = fauxgl.CullNone
}

// Size returns the surface size in pixels.
func (s *Surface) Size() (int, int) { return s.width, s.height }

// Image returns the current frame, or nil after release.
func (s *Surface) Image() *image.NRGBA {
	if s == nil || s.ctx == nil {
		return nil
	}
	return s.ctx.Image().(*image.NRGBA)
}

// Released reports whether the surface has been released.
func (s *Surface) Released() bool { return s == nil || s.released }

// Release drops the rasterization context. Safe to call more than once.
func (s *Surface) Release() {
	if s == nil || s.released {
		return
	}
	s.ctx = nil
	s.released = true
}

// Material is the shaded appearance of the active mesh. Wireframe is mutated
// in place and takes effect on the next rendered frame.
type Material struct {
	Color     fauxgl.Color
	Wireframe bool
	released  bool
}

// Released reports whether the material has been released.
func (m *Material) Released() bool { return m == nil || m.released }

// Release marks the material as dead. Safe to call more than once.
func (m *Material) Release() {
	if m == nil {
		return
	}
	m.released = true
}

// ActiveMesh combines the geometry and material of the single shape in the
// scene, plus its live orientation.
type ActiveMesh struct {
	Shape    ShapeID
	Geometry *Geometry
	Material *Material
	Rotation Rotation
}

func (m *ActiveMesh) modelMatrix() fauxgl.Matrix {
	return fauxgl.Identity().
		Rotate(fauxgl.V(1, 0, 0), m.Rotation.X).
		Rotate(fauxgl.V(0, 1, 0), m.Rotation.Y).
		Rotate(fauxgl.V(0, 0, 1), m.Rotation.Z)
}

// Helper is a static scene visual (grid, axis) drawn with a solid color.
type Helper struct {
	Geometry *Geometry
	Color    fauxgl.Color
}

// Scene owns the full scene graph for one construction: lights, helpers, the
// active mesh, the camera and the render surface. It is built on mount or
// shape change and torn down exactly once, on the next shape change or on
// unmount.
type Scene struct {
	Background fauxgl.Color
	Ambient    fauxgl.Color  // ambient light term
	Diffuse    fauxgl.Color  // directional light intensity
	LightDir   fauxgl.Vector // direction towards the light

	Camera  *Camera
	Surface *Surface
	Mesh    *ActiveMesh
	Grid    *Helper
	Axes    []*Helper

	mount    MountPoint
	attached bool
	torn     bool
}

// SceneConfig carries the construction inputs resolved by the viewer.
type SceneConfig struct {
	Width, Height int
	Descriptor    *ShapeDescriptor
	Build         func() (*Geometry, error) // overrides Descriptor.BuildGeometry when set
	Wireframe     bool
	Rotation      Rotation
	Background    string // hex token; empty uses the default
}

const defaultBackground = "#20242b"

// ConstructScene builds a scene graph on mount. Any prior scene must already
// be torn down by the caller; a prior surface still attached to the mount
// point would otherwise accumulate duplicate outputs. On error the returned
// scene is partially built and must still be passed to Teardown.
func ConstructScene(mount MountPoint, cfg SceneConfig) (*Scene, error) {
	bg := cfg.Background
	if bg == "" {
		bg = defaultBackground
	}
	s := &Scene{
		Background: fauxgl.HexColor(bg),
		Ambient:    fauxgl.Gray(0.25),
		Diffuse:    fauxgl.Gray(0.85),
		LightDir:   fauxgl.V(-0.6, 1, 0.8).Normalize(),
		mount:      mount,
	}

	s.Camera = newCamera(cfg.Width, cfg.Height)
	s.Surface = newSurface(cfg.Width, cfg.Height)
	if err := mount.Attach(s.Surface); err != nil {
		return s, fmt.Errorf("viewer: attaching render surface: %w", err)
	}
	s.attached = true

	build := cfg.Build
	if build == nil {
		build = cfg.Descriptor.BuildGeometry
	}
	geom, err := build()
	if err != nil {
		return s, fmt.Errorf("viewer: building %s geometry: %w", cfg.Descriptor.ID, err)
	}
	s.Mesh = &ActiveMesh{
		Shape:    cfg.Descriptor.ID,
		Geometry: geom,
		Material: &Material{Color: fauxgl.HexColor(cfg.Descriptor.Color), Wireframe: cfg.Wireframe},
		Rotation: cfg.Rotation, // restore persisted orientation before the first frame
	}

	s.Grid = &Helper{Geometry: newGridGeometry(), Color: fauxgl.Gray(0.35)}
	s.Axes = []*Helper{
		{Geometry: newAxisGeometry(fauxgl.V(1, 0, 0)), Color: fauxgl.HexColor("#cc4444")},
		{Geometry: newAxisGeometry(fauxgl.V(0, 1, 0)), Color: fauxgl.HexColor("#44aa44")},
		{Geometry: newAxisGeometry(fauxgl.V(0, 0, 1)), Color: fauxgl.HexColor("#4466cc")},
	}
	return s, nil
}

// SetWireframe flips the material flag in place. No geometry is rebuilt; the
// change is visible on the next tick.
func (s *Scene) SetWireframe(enabled bool) {
	if s.Mesh != nil && s.Mesh.Material != nil {
		s.Mesh.Material.Wireframe = enabled
	}
}

// Resize updates camera aspect and surface size only. It never reenters
// construction, so it is safe relative to an in-progress teardown/construct
// pair. Idempotent.
func (s *Scene) Resize(width, height int) {
	if s.torn {
		return
	}
	if s.Camera != nil {
		s.Camera.SetAspect(width, height)
	}
	if s.Surface != nil && !s.Surface.Released() {
		s.Surface.Resize(width, height)
	}
}

// Render draws one frame: helpers first, then the active mesh with its
// material. No-op once torn down.
func (s *Scene) Render() {
	if s.torn || s.Surface == nil || s.Surface.Released() {
		return
	}
	ctx := s.Surface.ctx
	ctx.ClearColorBufferWith(s.Background)
	ctx.ClearDepthBuffer()
	cam := s.Camera.Matrix()

	ctx.Wireframe = false
	if s.Grid != nil {
		ctx.Shader = fauxgl.NewSolidColorShader(cam, s.Grid.Color)
		ctx.DrawMesh(s.Grid.Geometry.Mesh())
	}
	for _, axis := range s.Axes {
		ctx.Shader = fauxgl.NewSolidColorShader(cam, axis.Color)
		ctx.DrawMesh(axis.Geometry.Mesh())
	}

	if s.Mesh == nil || s.Mesh.Geometry.Released() {
		return
	}
	shader := fauxgl.NewPhongShader(cam.Mul(s.Mesh.modelMatrix()), s.LightDir, s.Camera.Eye)
	shader.ObjectColor = s.Mesh.Material.Color
	shader.AmbientColor = s.Ambient
	shader.DiffuseColor = s.Diffuse
	ctx.Shader = shader
	ctx.Wireframe = s.Mesh.Material.Wireframe
	ctx.DrawMesh(s.Mesh.Geometry.Mesh())
}

// Teardown releases everything this construction allocated and detaches the
// surface from the mount point. Callers must cancel the render loop's
// scheduler registration first, so no queued tick can touch freed resources.
// Safe after a partial construct and safe to call more than once.
func (s *Scene) Teardown() {
	if s == nil || s.torn {
		return
	}
	s.torn = true
	if s.Mesh != nil {
		s.Mesh.Geometry.Release()
		s.Mesh.Material.Release()
		s.Mesh = nil
	}
	if s.Grid != nil {
		s.Grid.Geometry.Release()
		s.Grid = nil
	}
	for _, axis := range s.Axes {
		axis.Geometry.Release()
	}
	s.Axes = nil
	if s.Surface != nil {
		if s.attached {
			s.mount.Detach(s.Surface)
			s.attached = false
		}
		s.Surface.Release()
		s.Surface = nil
	}
	s.Camera = nil
}

// TornDown reports whether Teardown has run.
func (s *Scene) TornDown() bool { return s != nil && s.torn }
