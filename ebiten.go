package viewer

import (
	"fmt"
	"image/color"
	"sync"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/text"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

var defaultFont font.Face = basicfont.Face7x13

// ebitenHost adapts the ebiten runtime to the viewer's Host contract: Draw
// acts as the display-refresh scheduler, Layout as the viewport, and the
// screen blit as the mount point.
type ebitenHost struct {
	mu        sync.Mutex
	nextToken Token
	callbacks map[Token]func()

	width, height int
	attached      *Surface
}

func newEbitenHost() *ebitenHost {
	return &ebitenHost{callbacks: make(map[Token]func())}
}

func (h *ebitenHost) Schedule(fn func()) Token {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextToken++
	h.callbacks[h.nextToken] = fn
	return h.nextToken
}

func (h *ebitenHost) Cancel(token Token) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.callbacks, token)
}

func (h *ebitenHost) Size() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.width, h.height
}

func (h *ebitenHost) Scale() float64 {
	return ebiten.DeviceScaleFactor()
}

func (h *ebitenHost) Attach(s *Surface) error {
	if s == nil {
		return fmt.Errorf("viewer: no render surface to attach")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attached = s
	return nil
}

func (h *ebitenHost) Detach(s *Surface) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.attached == s {
		h.attached = nil
	}
}

// runTicks invokes the registered per-frame callbacks, never concurrently.
func (h *ebitenHost) runTicks() {
	h.mu.Lock()
	fns := make([]func(), 0, len(h.callbacks))
	for _, fn := range h.callbacks {
		fns = append(fns, fn)
	}
	h.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// setSize records the viewport size, reporting whether it changed.
func (h *ebitenHost) setSize(w, height int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.width == w && h.height == height {
		return false
	}
	h.width, h.height = w, height
	return true
}

func (h *ebitenHost) surface() *Surface {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attached
}

// game is the ebiten.Game gluing a Viewer to the runtime.
type game struct {
	viewer  *Viewer
	host    *ebitenHost
	frame   *ebiten.Image
	frameW  int
	frameH  int
	showHUD bool
}

func (g *game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		step := 1
		if ebiten.IsKeyPressed(ebiten.KeyShift) {
			step = -1
		}
		if err := g.viewer.CycleShape(step); err != nil {
			logf("switching shape: %v", err)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		g.viewer.ToggleWireframe()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		g.viewer.ToggleAutoRotate()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.viewer.ResetRotation()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	return nil
}

func (g *game) Draw(screen *ebiten.Image) {
	g.host.runTicks()
	if s := g.host.surface(); s != nil {
		if img := s.Image(); img != nil {
			w, h := s.Size()
			if g.frame == nil || g.frameW != w || g.frameH != h {
				g.frame = ebiten.NewImage(w, h)
				g.frameW, g.frameH = w, h
			}
			g.frame.WritePixels(img.Pix)
			screen.DrawImage(g.frame, &ebiten.DrawImageOptions{})
		}
	}
	if g.showHUD {
		g.drawHUD(screen)
	}
}

func (g *game) Layout(outsideWidth, outsideHeight int) (int, int) {
	scale := g.host.Scale()
	w := int(float64(outsideWidth) * scale)
	h := int(float64(outsideHeight) * scale)
	if g.host.setSize(w, h) {
		// Sizing only; never reenters scene construction.
		g.viewer.Resize(w, h)
	}
	return w, h
}

func (g *game) drawHUD(screen *ebiten.Image) {
	st := g.viewer.State()
	name := string(st.Shape)
	if d, ok := g.viewer.catalog.Get(st.Shape); ok {
		name = d.DisplayName
	}
	msg := fmt.Sprintf(
		"Shape: %s [Tab/Shift+Tab]\nWireframe: %t [W]\nAuto-rotate: %t [Space]\nReset rotation [R]\nHide help [H]\nTPS: %0.2f",
		name, st.Wireframe, st.AutoRotate, ebiten.ActualTPS())
	if g.viewer.Saving() {
		msg += "\nSaving..."
	}
	drawTextWithShadow(screen, msg, 6, 18, color.RGBA{G: 255, A: 255})
}

func drawTextWithShadow(dst *ebiten.Image, msg string, x, y int, clr color.Color) {
	text.Draw(dst, msg, defaultFont, x+1, y+1, color.RGBA{A: 255})
	text.Draw(dst, msg, defaultFont, x, y, clr)
}

// Run opens a window and drives the viewer until it is closed or Escape is
// pressed. The viewer is unmounted (scene torn down, loop cancelled) before
// Run returns.
func (v *Viewer) Run() error {
	ebiten.SetWindowTitle(v.title)
	ebiten.SetWindowSize(v.windowW, v.windowH)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	host := newEbitenHost()
	if err := v.Mount(host); err != nil {
		return err
	}
	defer v.Unmount()

	g := &game{viewer: v, host: host, showHUD: true}
	if err := ebiten.RunGame(g); err != nil {
		return fmt.Errorf("viewer: run: %w", err)
	}
	return nil
}
