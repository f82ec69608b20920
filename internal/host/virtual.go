package host

import (
	"context"
	"sync"

	"github.com/five82/sticky/internal/state"
)

// VirtualWindow is the window of the terminal build. The terminal owns the
// real geometry; the UI reports it through SetBounds.
type VirtualWindow struct {
	mu          sync.Mutex
	bounds      Bounds
	alwaysOnTop bool
	visible     bool
}

// NewVirtualWindow starts from persisted placement, clamped to the minimum
// size.
func NewVirtualWindow(placement state.Window) *VirtualWindow {
	b := Bounds{Width: placement.Width, Height: placement.Height}
	if placement.X != nil {
		b.X = *placement.X
	}
	if placement.Y != nil {
		b.Y = *placement.Y
	}
	return &VirtualWindow{bounds: clamp(b), alwaysOnTop: placement.AlwaysOnTop}
}

// VirtualFactory returns a WindowFactory producing virtual windows. created
// is called with every new window.
func VirtualFactory(created func(*VirtualWindow)) WindowFactory {
	return func(_ context.Context, placement state.Window) (WindowController, error) {
		w := NewVirtualWindow(placement)
		if created != nil {
			created(w)
		}
		return w, nil
	}
}

// SetBounds records new geometry and returns it after clamping.
func (w *VirtualWindow) SetBounds(b Bounds) Bounds {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.bounds = clamp(b)
	return w.bounds
}

func (w *VirtualWindow) Bounds() Bounds {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.bounds
}

func (w *VirtualWindow) SetAlwaysOnTop(on bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.alwaysOnTop = on
}

func (w *VirtualWindow) IsAlwaysOnTop() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.alwaysOnTop
}

func (w *VirtualWindow) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = true
}

func (w *VirtualWindow) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.visible = false
}

func (w *VirtualWindow) Visible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func clamp(b Bounds) Bounds {
	if b.Width < state.MinWidth {
		b.Width = state.MinWidth
	}
	if b.Height < state.MinHeight {
		b.Height = state.MinHeight
	}
	return b
}
