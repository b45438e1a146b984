package viewer

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loopFixture(t *testing.T, autoRotate bool) (*Loop, *fakeHost, *State, *MemStore, *Scene) {
	t.Helper()
	host := newFakeHost(160, 120)
	store := NewMemStore()
	prefs := NewPrefs(store)
	scene, err := ConstructScene(host, sceneConfig(ShapeBox, 160, 120))
	require.NoError(t, err)
	t.Cleanup(scene.Teardown)

	state := &State{Shape: ShapeBox, AutoRotate: autoRotate}
	var mu sync.RWMutex
	l := newLoop(host, prefs, &mu, state, func() *Scene { return scene })
	return l, host, state, store, scene
}

func TestLoopAdvancesRotationEachTick(t *testing.T) {
	l, host, state, _, scene := loopFixture(t, true)
	l.Start()

	const n = 40
	host.ticks(n)

	want := Rotation{
		X: wrapAngle(n * rotDeltaX),
		Y: wrapAngle(n * rotDeltaY),
	}
	assert.InDelta(t, want.X, scene.Mesh.Rotation.X, 1e-9)
	assert.InDelta(t, want.Y, scene.Mesh.Rotation.Y, 1e-9)
	assert.Zero(t, scene.Mesh.Rotation.Z)
	assert.Equal(t, scene.Mesh.Rotation, state.Rotation, "state mirrors the mesh")
	assert.Equal(t, uint64(n), l.Ticks())
}

func TestLoopRotationWrapsAroundFullTurn(t *testing.T) {
	l, host, _, _, scene := loopFixture(t, true)
	scene.Mesh.Rotation = Rotation{Y: 2*math.Pi - rotDeltaY/2}
	l.Start()
	host.tick()
	assert.Less(t, scene.Mesh.Rotation.Y, math.Pi, "wrapped past 2π")
	assert.GreaterOrEqual(t, scene.Mesh.Rotation.Y, 0.0)
}

func TestLoopPersistsRotationAfterTick(t *testing.T) {
	l, host, _, store, scene := loopFixture(t, true)
	l.Start()
	host.ticks(3)

	prefs := NewPrefs(store)
	got, ok := prefs.LoadRotation()
	require.True(t, ok, "rotation snapshot written to the store")
	assert.InDelta(t, scene.Mesh.Rotation.X, got.X, 1e-9)
	assert.InDelta(t, scene.Mesh.Rotation.Y, got.Y, 1e-9)
}

func TestLoopWithAutoRotateOffStillRendersAndCounts(t *testing.T) {
	l, host, _, store, scene := loopFixture(t, false)
	scene.Mesh.Rotation = Rotation{X: 0.5, Y: 0.25}
	l.Start()
	host.ticks(10)

	assert.Equal(t, Rotation{X: 0.5, Y: 0.25}, scene.Mesh.Rotation, "orientation frozen")
	assert.Equal(t, uint64(10), l.Ticks(), "render ticks keep running")
	_, ok := NewPrefs(store).LoadRotation()
	assert.False(t, ok, "nothing persisted while auto-rotate is off")
}

func TestLoopStartStopIdempotent(t *testing.T) {
	l, host, _, _, _ := loopFixture(t, true)

	l.Start()
	l.Start() // no-op, no second registration
	assert.Equal(t, 1, host.active())
	assert.True(t, l.Running())

	l.Stop()
	l.Stop()
	assert.Equal(t, 0, host.active())
	assert.False(t, l.Running())

	// restartable
	l.Start()
	assert.Equal(t, 1, host.active())
	l.Stop()
}

func TestLoopStopHaltsTicking(t *testing.T) {
	l, host, _, _, scene := loopFixture(t, true)
	l.Start()
	host.ticks(5)
	l.Stop()
	before := scene.Mesh.Rotation
	host.ticks(5) // cancelled registration, nothing reachable
	assert.Equal(t, before, scene.Mesh.Rotation)
	assert.Equal(t, uint64(5), l.Ticks())
}

func TestLoopTickAfterTeardownIsNoop(t *testing.T) {
	l, host, _, _, scene := loopFixture(t, true)
	l.Start()
	host.tick()
	l.Stop()
	scene.Teardown()
	l.tick() // direct call simulating a stale queued frame
	assert.Equal(t, uint64(1), l.Ticks())
}
