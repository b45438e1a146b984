package viewer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sceneConfig(id ShapeID, w, h int) SceneConfig {
	return SceneConfig{Width: w, Height: h, Descriptor: defaultCatalog.Resolve(id)}
}

func TestConstructThenTeardownReleasesEverything(t *testing.T) {
	for _, d := range defaultCatalog.Entries() {
		t.Run(string(d.ID), func(t *testing.T) {
			host := newFakeHost(640, 480)
			s, err := ConstructScene(host, sceneConfig(d.ID, 640, 480))
			require.NoError(t, err)
			require.Equal(t, 1, host.attached)

			geom, mat, surf := s.Mesh.Geometry, s.Mesh.Material, s.Surface
			s.Teardown()
			assert.True(t, s.TornDown())
			assert.True(t, geom.Released())
			assert.True(t, mat.Released())
			assert.True(t, surf.Released())
			assert.Equal(t, 0, host.attached)
			assert.Equal(t, 1, host.maxAttached)
		})
	}
}

func TestTeardownIsIdempotent(t *testing.T) {
	host := newFakeHost(320, 240)
	s, err := ConstructScene(host, sceneConfig(ShapeBox, 320, 240))
	require.NoError(t, err)
	s.Teardown()
	s.Teardown()
	assert.Equal(t, 0, host.attached, "no double detach")
}

func TestConstructWithZeroViewportUsesFallback(t *testing.T) {
	host := newFakeHost(0, 0)
	s, err := ConstructScene(host, sceneConfig(ShapeBox, 0, 0))
	require.NoError(t, err)
	defer s.Teardown()

	w, h := s.Surface.Size()
	assert.Equal(t, fallbackWidth, w)
	assert.Equal(t, fallbackHeight, h)
	aspect := s.Camera.Aspect()
	assert.False(t, math.IsNaN(aspect) || math.IsInf(aspect, 0))
	assert.InDelta(t, float64(fallbackWidth)/float64(fallbackHeight), aspect, 1e-12)
}

func TestResizeToZeroKeepsAspectFinite(t *testing.T) {
	host := newFakeHost(640, 480)
	s, err := ConstructScene(host, sceneConfig(ShapeBox, 640, 480))
	require.NoError(t, err)
	defer s.Teardown()

	s.Resize(0, 0)
	aspect := s.Camera.Aspect()
	assert.False(t, math.IsNaN(aspect) || math.IsInf(aspect, 0))
	w, h := s.Surface.Size()
	assert.Equal(t, fallbackWidth, w)
	assert.Equal(t, fallbackHeight, h)

	s.Resize(800, 200)
	assert.InDelta(t, 4.0, s.Camera.Aspect(), 1e-12)
	s.Resize(800, 200) // idempotent
	assert.InDelta(t, 4.0, s.Camera.Aspect(), 1e-12)
}

func TestSetWireframeMutatesMaterialInPlace(t *testing.T) {
	host := newFakeHost(320, 240)
	s, err := ConstructScene(host, sceneConfig(ShapeSphere, 320, 240))
	require.NoError(t, err)
	defer s.Teardown()

	geom, mat, surf := s.Mesh.Geometry, s.Mesh.Material, s.Surface
	s.SetWireframe(true)
	assert.True(t, s.Mesh.Material.Wireframe)
	assert.Same(t, geom, s.Mesh.Geometry, "no geometry rebuild")
	assert.Same(t, mat, s.Mesh.Material)
	assert.Same(t, surf, s.Surface)
	assert.False(t, geom.Released())

	s.SetWireframe(false)
	assert.False(t, s.Mesh.Material.Wireframe)
}

func TestConstructRestoresPersistedRotation(t *testing.T) {
	host := newFakeHost(320, 240)
	cfg := sceneConfig(ShapeBox, 320, 240)
	cfg.Rotation = Rotation{X: 1.2, Y: 0.4}
	s, err := ConstructScene(host, cfg)
	require.NoError(t, err)
	defer s.Teardown()
	assert.Equal(t, Rotation{X: 1.2, Y: 0.4}, s.Mesh.Rotation,
		"orientation restored before any tick runs")
}

func TestRenderProducesFrame(t *testing.T) {
	host := newFakeHost(128, 96)
	s, err := ConstructScene(host, sceneConfig(ShapeTorus, 128, 96))
	require.NoError(t, err)
	defer s.Teardown()

	s.Render()
	img := s.Surface.Image()
	require.NotNil(t, img)
	assert.Equal(t, 128, img.Bounds().Dx())
	assert.Equal(t, 96, img.Bounds().Dy())
}

func TestRenderAfterTeardownIsNoop(t *testing.T) {
	host := newFakeHost(128, 96)
	s, err := ConstructScene(host, sceneConfig(ShapeBox, 128, 96))
	require.NoError(t, err)
	s.Teardown()
	s.Render() // must not panic on released resources
	s.Resize(64, 64)
}

func TestAttachFailureIsFatalAndPartialTeardownSafe(t *testing.T) {
	host := newFakeHost(320, 240)
	host.attachErr = errors.New("no graphics context")
	s, err := ConstructScene(host, sceneConfig(ShapeBox, 320, 240))
	require.Error(t, err)
	s.Teardown() // partial construct, still safe
	assert.Equal(t, 0, host.attached)
}

func BenchmarkSceneRender(b *testing.B) {
	host := newFakeHost(256, 256)
	s, err := ConstructScene(host, sceneConfig(ShapeTorusKnot, 256, 256))
	if err != nil {
		b.Fatal(err)
	}
	defer s.Teardown()
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		s.Mesh.Rotation.Y = wrapAngle(s.Mesh.Rotation.Y + rotDeltaY)
		s.Render()
	}
}
