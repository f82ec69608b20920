// Package host keeps the live window and the persisted snapshot consistent.
//
// The host is authoritative for the window block and the launch-on-startup
// setting. Every host write re-loads the snapshot, merges its own fields and
// saves the whole document, so note edits written by the UI in between are
// kept. Host read-modify-write sequences are serialized by one mutex; the UI
// side writes through SaveState under the same mutex. Across processes the
// last full write still wins.
package host

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/five82/sticky/internal/logging"
	"github.com/five82/sticky/internal/state"
)

// ErrNoWindow is returned by window operations before Open.
var ErrNoWindow = errors.New("no live window")

// Bounds is the live window geometry.
type Bounds struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowController is the live window owned by the host.
type WindowController interface {
	Bounds() Bounds
	// SetAlwaysOnTop requests the flag; the platform may refuse.
	SetAlwaysOnTop(on bool)
	IsAlwaysOnTop() bool
	Show()
	Hide()
	Visible() bool
}

// WindowFactory creates the live window from persisted placement.
type WindowFactory func(ctx context.Context, placement state.Window) (WindowController, error)

// LoginItems registers the application to start at login.
type LoginItems interface {
	SetOpenAtLogin(enabled bool) error
}

// Store is the snapshot persistence the host writes through.
type Store interface {
	Load(ctx context.Context) (state.Snapshot, error)
	Save(ctx context.Context, snap state.Snapshot) error
}

// Kind names a host to UI notification.
type Kind string

const (
	// WindowLostFocus asks the UI to flush pending writes.
	WindowLostFocus Kind = "window-lost-focus"
	// AlwaysOnTopChanged carries the actual always-on-top value.
	AlwaysOnTopChanged Kind = "always-on-top-changed"
)

// Notification is a fire-and-forget message from host to UI.
type Notification struct {
	Kind        Kind `json:"kind"`
	AlwaysOnTop bool `json:"alwaysOnTop"`
}

// subscriberBuffer is the per-subscriber queue length. Notifications that do
// not fit are dropped.
const subscriberBuffer = 16

// Host is the window and preference bridge.
type Host struct {
	store   Store
	factory WindowFactory
	login   LoginItems
	logger  *logrus.Entry

	mu     sync.Mutex
	window WindowController

	quitting atomic.Bool

	subMu   sync.Mutex
	subs    map[int]chan Notification
	nextSub int
	closed  bool
}

// Option configures a Host.
type Option func(*Host)

// WithLogger overrides the component logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New returns a host without a live window; call Open or Activate.
func New(store Store, factory WindowFactory, login LoginItems, opts ...Option) *Host {
	h := &Host{
		store:   store,
		factory: factory,
		login:   login,
		logger:  logging.NewLogger("host"),
		subs:    make(map[int]chan Notification),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Open creates the live window from the persisted placement. It is a no-op
// when a window already exists.
func (h *Host) Open(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.openLocked(ctx)
}

func (h *Host) openLocked(ctx context.Context) error {
	if h.window != nil {
		return nil
	}
	snap, err := h.store.Load(ctx)
	if err != nil {
		h.logger.WithError(err).Warn("default snapshot not persisted")
	}
	win, err := h.factory(ctx, snap.Window)
	if err != nil {
		return err
	}
	win.SetAlwaysOnTop(snap.Window.AlwaysOnTop)
	win.Show()
	h.window = win
	h.logger.WithFields(logrus.Fields{
		"width":  snap.Window.Width,
		"height": snap.Window.Height,
		"placed": snap.Window.Positioned(),
	}).Info("window created")
	return nil
}

// Activate re-creates the window when none exists and shows it otherwise.
func (h *Host) Activate(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.window == nil {
		return h.openLocked(ctx)
	}
	h.window.Show()
	return nil
}

// Window returns the live window, or nil before Open.
func (h *Host) Window() WindowController {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.window
}

// LoadState returns the current snapshot, bootstrapping defaults if needed.
func (h *Host) LoadState(ctx context.Context) (state.Snapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Load(ctx)
}

// SaveState overwrites the stored snapshot with snap.
func (h *Host) SaveState(ctx context.Context, snap state.Snapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Save(ctx, snap)
}

// PersistBounds merges the live geometry and always-on-top flag into the
// stored window block. Call it on resize and move.
func (h *Host) PersistBounds(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.window == nil {
		return nil
	}
	return h.persistWindowLocked(ctx)
}

func (h *Host) persistWindowLocked(ctx context.Context) error {
	snap, err := h.store.Load(ctx)
	if err != nil {
		return err
	}
	b := h.window.Bounds()
	x, y := b.X, b.Y
	snap.Window.Width = b.Width
	snap.Window.Height = b.Height
	snap.Window.X = &x
	snap.Window.Y = &y
	snap.Window.AlwaysOnTop = h.window.IsAlwaysOnTop()
	return h.store.Save(ctx, snap)
}

// Resizable is implemented by windows whose geometry is reported from
// outside, such as VirtualWindow.
type Resizable interface {
	SetBounds(b Bounds) Bounds
}

// Resize applies b to a Resizable window and persists the window block.
// Other windows keep their own geometry and are only persisted.
func (h *Host) Resize(ctx context.Context, b Bounds) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.window == nil {
		return ErrNoWindow
	}
	if r, ok := h.window.(Resizable); ok {
		r.SetBounds(b)
	}
	return h.persistWindowLocked(ctx)
}

// SetAlwaysOnTop applies the flag to the live window, persists the window
// block and returns the value the window actually ended up with.
func (h *Host) SetAlwaysOnTop(ctx context.Context, on bool) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.setAlwaysOnTopLocked(ctx, on)
}

func (h *Host) setAlwaysOnTopLocked(ctx context.Context, on bool) (bool, error) {
	if h.window == nil {
		return false, ErrNoWindow
	}
	h.window.SetAlwaysOnTop(on)
	actual := h.window.IsAlwaysOnTop()
	if actual != on {
		h.logger.WithField("requested", on).Info("always-on-top request refused by window")
	}
	if err := h.persistWindowLocked(ctx); err != nil {
		return actual, err
	}
	return actual, nil
}

// ToggleAlwaysOnTop flips the flag from the host side (tray menu) and tells
// subscribers the resulting value.
func (h *Host) ToggleAlwaysOnTop(ctx context.Context) (bool, error) {
	h.mu.Lock()
	if h.window == nil {
		h.mu.Unlock()
		return false, ErrNoWindow
	}
	actual, err := h.setAlwaysOnTopLocked(ctx, !h.window.IsAlwaysOnTop())
	h.mu.Unlock()

	h.notify(Notification{Kind: AlwaysOnTopChanged, AlwaysOnTop: actual})
	return actual, err
}

// SetLaunchOnStartup registers the login item, then stores the flag and
// returns the stored value. A registration failure leaves the stored value
// as it was.
func (h *Host) SetLaunchOnStartup(ctx context.Context, enabled bool) (bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.login != nil {
		if err := h.login.SetOpenAtLogin(enabled); err != nil {
			snap, loadErr := h.store.Load(ctx)
			if loadErr != nil {
				return false, errors.Join(err, loadErr)
			}
			return snap.Settings.LaunchOnStartup, err
		}
	}

	snap, err := h.store.Load(ctx)
	if err != nil {
		return false, err
	}
	snap.Settings.LaunchOnStartup = enabled
	if err := h.store.Save(ctx, snap); err != nil {
		return false, err
	}
	return snap.Settings.LaunchOnStartup, nil
}

// MinimizeToTray hides the window. The UI flushes its pending write before
// asking.
func (h *Host) MinimizeToTray(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.window == nil {
		return ErrNoWindow
	}
	h.window.Hide()
	return nil
}

// Show brings the hidden window back (tray click).
func (h *Host) Show() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.window != nil {
		h.window.Show()
	}
}

// RequestClose handles a window close. Unless Quit was called the window is
// hidden instead, and RequestClose reports false.
func (h *Host) RequestClose() bool {
	if h.quitting.Load() {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.window != nil {
		h.window.Hide()
	}
	return false
}

// Quit marks the host as quitting. It cannot be undone.
func (h *Host) Quit() {
	if h.quitting.CompareAndSwap(false, true) {
		h.logger.Info("quit requested")
	}
}

// Quitting reports whether Quit was called.
func (h *Host) Quitting() bool {
	return h.quitting.Load()
}

// Blur reports that the window lost focus.
func (h *Host) Blur() {
	h.notify(Notification{Kind: WindowLostFocus})
}

// Subscribe returns a stream of notifications and a function that ends the
// subscription and closes the stream.
func (h *Host) Subscribe() (<-chan Notification, func()) {
	h.subMu.Lock()
	defer h.subMu.Unlock()

	ch := make(chan Notification, subscriberBuffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}
	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.subMu.Lock()
			defer h.subMu.Unlock()
			if sub, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(sub)
			}
		})
	}
}

// Close ends every subscription.
func (h *Host) Close() {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

func (h *Host) notify(n Notification) {
	h.subMu.Lock()
	defer h.subMu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.logger.WithFields(logrus.Fields{
				"kind":       n.Kind,
				"subscriber": id,
			}).Warn("subscriber full, notification dropped")
		}
	}
}
