package viewer

import "sync"

// fakeHost implements Host for tests: a hand-cranked scheduler, a fixed-size
// viewport and a mount point that records attach/detach traffic.
type fakeHost struct {
	mu        sync.Mutex
	nextToken Token
	callbacks map[Token]func()

	w, h  int
	scale float64

	attached    int
	maxAttached int
	attachErr   error
	events      []string
}

func newFakeHost(w, h int) *fakeHost {
	return &fakeHost{callbacks: make(map[Token]func()), w: w, h: h, scale: 1}
}

func (f *fakeHost) Schedule(fn func()) Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextToken++
	f.callbacks[f.nextToken] = fn
	f.events = append(f.events, "schedule")
	return f.nextToken
}

func (f *fakeHost) Cancel(token Token) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.callbacks, token)
	f.events = append(f.events, "cancel")
}

func (f *fakeHost) Size() (int, int) { return f.w, f.h }

func (f *fakeHost) Scale() float64 { return f.scale }

func (f *fakeHost) Attach(s *Surface) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attachErr != nil {
		return f.attachErr
	}
	f.attached++
	if f.attached > f.maxAttached {
		f.maxAttached = f.attached
	}
	f.events = append(f.events, "attach")
	return nil
}

func (f *fakeHost) Detach(s *Surface) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attached--
	f.events = append(f.events, "detach")
}

// tick invokes every registered callback once, outside the host lock, like a
// real refresh scheduler would.
func (f *fakeHost) tick() {
	f.mu.Lock()
	fns := make([]func(), 0, len(f.callbacks))
	for _, fn := range f.callbacks {
		fns = append(fns, fn)
	}
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

func (f *fakeHost) ticks(n int) {
	for i := 0; i < n; i++ {
		f.tick()
	}
}

func (f *fakeHost) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.callbacks)
}

func (f *fakeHost) eventLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.events))
	copy(out, f.events)
	return out
}
