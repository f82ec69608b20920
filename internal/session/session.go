// Package session holds the UI's copy of the snapshot and applies every user
// action to it. Each change schedules a debounced save through the channel;
// host notifications are handled by Listen.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/five82/sticky/internal/autosave"
	"github.com/five82/sticky/internal/channel"
	"github.com/five82/sticky/internal/host"
	"github.com/five82/sticky/internal/logging"
	"github.com/five82/sticky/internal/notes"
	"github.com/five82/sticky/internal/state"
)

var confirmed = notes.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Option configures a Session.
type Option func(*Session)

// WithModel overrides the note model, mostly to inject a clock and ids.
func WithModel(m *notes.Model) Option {
	return func(s *Session) {
		if m != nil {
			s.model = m
		}
	}
}

// WithSaveOptions passes options to the autosave scheduler.
func WithSaveOptions(opts ...autosave.Option) Option {
	return func(s *Session) {
		s.saveOpts = append(s.saveOpts, opts...)
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger *logrus.Entry) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// OnChange registers fn to run when state changes outside a direct call:
// save status updates and host notifications.
func OnChange(fn func()) Option {
	return func(s *Session) {
		s.onChange = fn
	}
}

// Session is the UI side of the sync core.
type Session struct {
	ep       channel.Endpoint
	model    *notes.Model
	saver    *autosave.Scheduler
	saveOpts []autosave.Option
	logger   *logrus.Entry
	onChange func()

	mu     sync.Mutex
	snap   state.Snapshot
	loaded bool
}

// New returns a session talking to ep. Call Load before anything else.
func New(ep channel.Endpoint, opts ...Option) *Session {
	s := &Session{
		ep:     ep,
		model:  notes.New(),
		logger: logging.NewLogger("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	saveOpts := append([]autosave.Option{
		autosave.OnStatus(func(autosave.Status) { s.changed() }),
	}, s.saveOpts...)
	s.saver = autosave.New(ep.SaveState, saveOpts...)
	return s
}

// Load fetches the snapshot from the host.
func (s *Session) Load(ctx context.Context) error {
	snap, err := s.ep.LoadState(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snap = snap
	s.loaded = true
	s.mu.Unlock()
	s.logger.WithField("notes", len(snap.Notes)).Debug("session loaded")
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() state.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.Clone()
}

// Selected returns the selected note.
func (s *Session) Selected() (state.Note, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.SelectedNote()
}

// Search returns the display list for query.
func (s *Session) Search(query string) []state.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return notes.Search(s.snap.Notes, query)
}

// Status reports the save status.
func (s *Session) Status() autosave.Status {
	return s.saver.Status()
}

// CreateNote adds an empty note at the front and selects it.
func (s *Session) CreateNote() state.Note {
	var created state.Note
	s.mutate(func(c notes.Collection) (notes.Collection, bool) {
		next, note := s.model.Create(c)
		created = note
		return next, true
	})
	return created
}

// Select changes the selected note.
func (s *Session) Select(id string) bool {
	return s.mutate(func(c notes.Collection) (notes.Collection, bool) {
		return s.model.Select(c, id)
	})
}

// Rename sets a note title verbatim.
func (s *Session) Rename(id, title string) bool {
	return s.mutate(func(c notes.Collection) (notes.Collection, bool) {
		return s.model.Rename(c, id, title)
	})
}

// UpdateContent replaces a note's content, applying list continuation.
func (s *Session) UpdateContent(id, text string) bool {
	return s.mutate(func(c notes.Collection) (notes.Collection, bool) {
		return s.model.UpdateContent(c, id, text)
	})
}

// TogglePin flips a note's pinned flag.
func (s *Session) TogglePin(id string) bool {
	return s.mutate(func(c notes.Collection) (notes.Collection, bool) {
		return s.model.TogglePin(c, id)
	})
}

// Reorder moves a note one place in stored order.
func (s *Session) Reorder(id string, dir notes.Direction) bool {
	return s.mutate(func(c notes.Collection) (notes.Collection, bool) {
		return s.model.Reorder(c, id, dir)
	})
}

// Delete removes a note after confirm approves. The confirmation runs
// without holding the session lock.
func (s *Session) Delete(ctx context.Context, id string, confirm notes.Confirmer) (bool, error) {
	s.mu.Lock()
	current := notes.FromSnapshot(s.snap)
	s.mu.Unlock()

	_, ok, err := s.model.Delete(ctx, current, id, confirm)
	if err != nil || !ok {
		return false, err
	}
	return s.mutate(func(c notes.Collection) (notes.Collection, bool) {
		next, changed, _ := s.model.Delete(ctx, c, id, confirmed)
		return next, changed
	}), nil
}

// SetTheme changes the colour scheme.
func (s *Session) SetTheme(theme state.Theme) bool {
	if !theme.Valid() {
		return false
	}
	return s.update(func(snap *state.Snapshot) bool {
		if snap.Settings.Theme == theme {
			return false
		}
		snap.Settings.Theme = theme
		return true
	})
}

// CycleTheme switches to the next theme and returns it.
func (s *Session) CycleTheme() state.Theme {
	var next state.Theme
	s.update(func(snap *state.Snapshot) bool {
		next = snap.Settings.Theme.Next()
		snap.Settings.Theme = next
		return true
	})
	return next
}

// ToggleAlwaysOnTop asks the host to flip the flag and keeps the value the
// host reports.
func (s *Session) ToggleAlwaysOnTop(ctx context.Context) (bool, error) {
	s.mu.Lock()
	want := !s.snap.Window.AlwaysOnTop
	s.mu.Unlock()

	actual, err := s.ep.SetAlwaysOnTop(ctx, want)
	if err != nil {
		return false, err
	}
	s.reconcileAlwaysOnTop(actual)
	return actual, nil
}

// ToggleLaunchOnStartup asks the host to flip the login item and keeps the
// stored value the host reports.
func (s *Session) ToggleLaunchOnStartup(ctx context.Context) (bool, error) {
	s.mu.Lock()
	want := !s.snap.Settings.LaunchOnStartup
	s.mu.Unlock()

	stored, err := s.ep.SetLaunchOnStartup(ctx, want)
	if err != nil {
		return false, err
	}
	s.update(func(snap *state.Snapshot) bool {
		if snap.Settings.LaunchOnStartup == stored {
			return false
		}
		snap.Settings.LaunchOnStartup = stored
		return true
	})
	return stored, nil
}

// Resize reports new window geometry to the host, then copies the window
// block the host stored so the next UI save carries it. A save already
// queued is replaced so it cannot write the old geometry back.
func (s *Session) Resize(ctx context.Context, b host.Bounds) error {
	if err := s.ep.Resize(ctx, b); err != nil {
		return err
	}
	stored, err := s.ep.LoadState(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap.Window = stored.Window
	if s.saver.Pending() {
		s.saver.Schedule(s.snap)
	}
	return nil
}

// Blur reports focus loss to the host, which answers with a
// window-lost-focus notification handled by Listen.
func (s *Session) Blur(ctx context.Context) error {
	return s.ep.Blur(ctx)
}

// Flush writes any pending change now.
func (s *Session) Flush(ctx context.Context) error {
	return s.saver.Flush(ctx)
}

// MinimizeToTray flushes, then hides the window.
func (s *Session) MinimizeToTray(ctx context.Context) error {
	if err := s.Flush(ctx); err != nil {
		s.logger.WithError(err).Warn("flush before minimize failed")
	}
	return s.ep.MinimizeToTray(ctx)
}

// Activate shows the window again.
func (s *Session) Activate(ctx context.Context) error {
	return s.ep.Activate(ctx)
}

// Close flushes and asks the host to close the window. It reports whether
// the window really closed rather than hiding to the tray.
func (s *Session) Close(ctx context.Context) (bool, error) {
	flushErr := s.Flush(ctx)
	closed, err := s.ep.RequestClose(ctx)
	if err != nil {
		return false, errors.Join(flushErr, err)
	}
	return closed, flushErr
}

// Quit flushes and tells the host an explicit quit was requested.
func (s *Session) Quit(ctx context.Context) error {
	flushErr := s.Flush(ctx)
	return errors.Join(flushErr, s.ep.Quit(ctx))
}

// Listen handles host notifications until ctx is done or the stream ends.
func (s *Session) Listen(ctx context.Context) error {
	events, err := s.ep.Subscribe(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case n, ok := <-events:
			if !ok {
				return nil
			}
			s.handle(ctx, n)
		}
	}
}

func (s *Session) handle(ctx context.Context, n host.Notification) {
	switch n.Kind {
	case host.WindowLostFocus:
		if err := s.Flush(ctx); err != nil {
			s.logger.WithError(err).Warn("flush on focus loss failed")
		}
	case host.AlwaysOnTopChanged:
		s.reconcileAlwaysOnTop(n.AlwaysOnTop)
		s.changed()
	default:
		s.logger.WithField("kind", n.Kind).Debug("unknown notification ignored")
	}
}

func (s *Session) reconcileAlwaysOnTop(actual bool) {
	s.update(func(snap *state.Snapshot) bool {
		if snap.Window.AlwaysOnTop == actual {
			return false
		}
		snap.Window.AlwaysOnTop = actual
		return true
	})
}

// mutate applies a note operation and schedules a save when it changed
// something.
func (s *Session) mutate(op func(notes.Collection) (notes.Collection, bool)) bool {
	return s.update(func(snap *state.Snapshot) bool {
		next, changed := op(notes.FromSnapshot(*snap))
		if changed {
			*snap = next.Apply(*snap)
		}
		return changed
	})
}

func (s *Session) update(fn func(*state.Snapshot) bool) bool {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		s.logger.Warn("change before load ignored")
		return false
	}
	changed := fn(&s.snap)
	var pending state.Snapshot
	if changed {
		pending = s.snap.Clone()
	}
	s.mu.Unlock()

	if changed {
		s.saver.Schedule(pending)
	}
	return changed
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}
