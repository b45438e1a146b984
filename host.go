package viewer

// Token identifies one registration with the host refresh scheduler.
type Token uint64

// Scheduler is the host's display-refresh scheduler. The callback is invoked
// at most once per display refresh and never concurrently with itself.
type Scheduler interface {
	Schedule(fn func()) Token
	Cancel(token Token)
}

// Viewport reports the host's current drawable size in pixels and the device
// pixel-density scaling factor.
type Viewport interface {
	Size() (width, height int)
	Scale() float64
}

// MountPoint is where the render surface's output is attached. At most one
// surface is attached at a time; Attach fails when the host cannot provide a
// graphics target, which is fatal for the viewer.
type MountPoint interface {
	Attach(s *Surface) error
	Detach(s *Surface)
}

// Host bundles the three collaborators a viewer needs to come alive.
type Host interface {
	Scheduler
	Viewport
	MountPoint
}
