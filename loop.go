package viewer

import (
	"log"
	"math"
	"sync"

	trylock "github.com/subchen/go-trylock/v2"
)

// Per-tick rotation increments in radians. Fixed, not user-configurable.
const (
	rotDeltaX = 0.01
	rotDeltaY = 0.015
	rotDeltaZ = 0
)

func wrapAngle(a float64) float64 {
	m := math.Mod(a, 2*math.Pi)
	if m < 0 {
		m += 2 * math.Pi
	}
	return m
}

// Loop drives per-frame work: while running, each scheduler tick advances the
// active mesh rotation (when auto-rotate is on), persists the new snapshot
// and renders the scene. Rendering happens every tick regardless of the
// auto-rotate flag, and mutation strictly precedes the render of its tick.
//
// Two states: stopped and running. At most one scheduler registration exists
// per loop; Start while running and Stop while stopped are no-ops.
type Loop struct {
	sched Scheduler
	prefs *Prefs

	// Live handles shared with the viewer, read fresh each tick so toggle
	// changes are visible without re-registering the callback.
	stateMu *sync.RWMutex
	state   *State
	scene   func() *Scene

	mu      sync.Mutex
	running bool
	token   Token

	persistMu trylock.TryLocker
	ticks     uint64
}

func newLoop(sched Scheduler, prefs *Prefs, stateMu *sync.RWMutex, state *State, scene func() *Scene) *Loop {
	return &Loop{
		sched:     sched,
		prefs:     prefs,
		stateMu:   stateMu,
		state:     state,
		scene:     scene,
		persistMu: trylock.New(),
	}
}

// Start registers the per-frame callback with the host scheduler.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		log.Println("[Viewer] loop already running, ignoring Start")
		return
	}
	l.token = l.sched.Schedule(l.tick)
	l.running = true
}

// Stop deregisters from the scheduler. Idempotent. It returns only after the
// registration is cancelled, so callers may release scene resources right
// after Stop without a queued tick touching them.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.sched.Cancel(l.token)
	l.running = false
}

// Running reports the loop state.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// Ticks returns the number of ticks processed since Start.
func (l *Loop) Ticks() uint64 {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	return l.ticks
}

func (l *Loop) tick() {
	l.stateMu.Lock()
	scene := l.scene()
	if scene == nil || scene.TornDown() {
		l.stateMu.Unlock()
		return
	}
	l.ticks++
	var rot Rotation
	rotated := false
	if l.state.AutoRotate && scene.Mesh != nil {
		m := scene.Mesh
		m.Rotation.X = wrapAngle(m.Rotation.X + rotDeltaX)
		m.Rotation.Y = wrapAngle(m.Rotation.Y + rotDeltaY)
		m.Rotation.Z = wrapAngle(m.Rotation.Z + rotDeltaZ)
		l.state.Rotation = m.Rotation
		rot, rotated = m.Rotation, true
	}
	scene.Render()
	l.stateMu.Unlock()
	if rotated {
		l.persist(rot)
	}
}

// persist is best-effort: if a previous store write is still in flight the
// snapshot is skipped rather than stalling the frame.
func (l *Loop) persist(rot Rotation) {
	if !l.persistMu.TryLock(nil) {
		return
	}
	l.prefs.SaveRotation(rot)
	l.persistMu.Unlock()
}
