package session

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/sticky/internal/autosave"
	"github.com/five82/sticky/internal/channel"
	"github.com/five82/sticky/internal/host"
	"github.com/five82/sticky/internal/notes"
	"github.com/five82/sticky/internal/state"
	"github.com/five82/sticky/internal/storage"
)

type fixture struct {
	session *Session
	host    *host.Host
	mem     *storage.Memory
	clock   *clockwork.FakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		mem:   storage.NewMemory(),
		clock: clockwork.NewFakeClockAt(time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)),
	}
	f.host = host.New(state.NewRepository(f.mem), host.VirtualFactory(nil), nil)
	t.Cleanup(f.host.Close)
	require.NoError(t, f.host.Open(context.Background()))

	n := 0
	model := notes.New(notes.WithClock(f.clock), notes.WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("n%d", n)
	}))
	f.session = New(channel.NewLocal(f.host),
		WithModel(model),
		WithSaveOptions(autosave.WithClock(f.clock)),
	)
	require.NoError(t, f.session.Load(context.Background()))
	return f
}

func (f *fixture) stored(t *testing.T) state.Snapshot {
	t.Helper()
	snap, err := state.Decode(f.mem.Bytes())
	require.NoError(t, err)
	return snap
}

func TestMutationsAreDebounced(t *testing.T) {
	f := newFixture(t)
	writes := f.mem.Writes()

	note := f.session.CreateNote()
	f.session.UpdateContent(note.ID, "H")
	f.session.UpdateContent(note.ID, "He")
	f.session.UpdateContent(note.ID, "Hello")
	assert.Equal(t, autosave.StatusPending, f.session.Status())
	assert.Equal(t, writes, f.mem.Writes())

	f.clock.Advance(autosave.DefaultDelay)
	require.Eventually(t, func() bool { return f.mem.Writes() == writes+1 }, time.Second, 5*time.Millisecond)

	stored := f.stored(t)
	require.Len(t, stored.Notes, 2)
	assert.Equal(t, "Hello", stored.Notes[0].Content)
	assert.Equal(t, "H", stored.Notes[0].Title, "title derived once from the first keystroke")
	assert.Equal(t, state.Select(note.ID), stored.SelectedNoteID)
	require.Eventually(t, func() bool { return f.session.Status() == autosave.StatusSaved }, time.Second, 5*time.Millisecond)
}

func TestNoopMutationDoesNotSchedule(t *testing.T) {
	f := newFixture(t)

	assert.False(t, f.session.Rename("ghost", "x"))
	assert.False(t, f.session.TogglePin("ghost"))
	assert.Equal(t, autosave.StatusSaved, f.session.Status())
}

func TestFlushWritesImmediately(t *testing.T) {
	f := newFixture(t)
	selected, ok := f.session.Selected()
	require.True(t, ok)

	f.session.Rename(selected.ID, "Renamed")
	require.NoError(t, f.session.Flush(context.Background()))

	assert.Equal(t, "Renamed", f.stored(t).Notes[0].Title)
	assert.Equal(t, autosave.StatusSaved, f.session.Status())
}

func TestBlurNotificationFlushes(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- f.session.Listen(ctx) }()

	selected, _ := f.session.Selected()
	f.session.UpdateContent(selected.ID, "typed before focus loss")

	// Listen subscribes asynchronously; keep blurring until the flush lands.
	require.Eventually(t, func() bool {
		_ = f.session.Blur(ctx)
		return f.stored(t).Notes[0].Content == "typed before focus loss"
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestAlwaysOnTopChangedIsReconciled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var notified atomic.Int32
	f.session.onChange = func() { notified.Add(1) }
	go func() { _ = f.session.Listen(ctx) }()

	require.True(t, f.session.Snapshot().Window.AlwaysOnTop)
	require.Eventually(t, func() bool {
		// Toggle from the tray side until the session has subscribed and
		// observed a change to false.
		if f.host.Window().IsAlwaysOnTop() {
			_, _ = f.host.ToggleAlwaysOnTop(ctx)
		}
		return !f.session.Snapshot().Window.AlwaysOnTop
	}, 2*time.Second, 10*time.Millisecond)
	assert.Positive(t, notified.Load())
}

func TestToggleAlwaysOnTopUsesHostValue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.session.ToggleAlwaysOnTop(ctx)
	require.NoError(t, err)
	assert.False(t, got)
	assert.False(t, f.session.Snapshot().Window.AlwaysOnTop)
	assert.False(t, f.host.Window().IsAlwaysOnTop())
	assert.False(t, f.stored(t).Window.AlwaysOnTop)
}

func TestToggleLaunchOnStartup(t *testing.T) {
	f := newFixture(t)

	got, err := f.session.ToggleLaunchOnStartup(context.Background())
	require.NoError(t, err)
	assert.True(t, got)
	assert.True(t, f.session.Snapshot().Settings.LaunchOnStartup)
	assert.True(t, f.stored(t).Settings.LaunchOnStartup)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	selected, _ := f.session.Selected()

	decline := notes.ConfirmFunc(func(context.Context, string) (bool, error) { return false, nil })
	ok, err := f.session.Delete(ctx, selected.ID, decline)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, f.session.Snapshot().Notes, 1)

	boom := errors.New("cancelled")
	failing := notes.ConfirmFunc(func(context.Context, string) (bool, error) { return false, boom })
	_, err = f.session.Delete(ctx, selected.ID, failing)
	require.ErrorIs(t, err, boom)

	approve := notes.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
	ok, err = f.session.Delete(ctx, selected.ID, approve)
	require.NoError(t, err)
	assert.True(t, ok)
	snap := f.session.Snapshot()
	assert.Empty(t, snap.Notes)
	assert.True(t, snap.SelectedNoteID.IsNone())
}

func TestMinimizeFlushesThenHides(t *testing.T) {
	f := newFixture(t)
	selected, _ := f.session.Selected()
	f.session.UpdateContent(selected.ID, "before minimize")

	require.NoError(t, f.session.MinimizeToTray(context.Background()))
	assert.Equal(t, "before minimize", f.stored(t).Notes[0].Content)
	assert.False(t, f.host.Window().Visible())

	require.NoError(t, f.session.Activate(context.Background()))
	assert.True(t, f.host.Window().Visible())
}

func TestCloseHidesUnlessQuitting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	selected, _ := f.session.Selected()
	f.session.TogglePin(selected.ID)

	closed, err := f.session.Close(ctx)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.False(t, f.stored(t).Notes[0].Pinned)

	require.NoError(t, f.session.Quit(ctx))
	closed, err = f.session.Close(ctx)
	require.NoError(t, err)
	assert.True(t, closed)
}

func TestResizeMirrorsStoredWindow(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.Resize(context.Background(), host.Bounds{X: 9, Y: 8, Width: 100, Height: 500}))

	w := f.session.Snapshot().Window
	assert.Equal(t, state.MinWidth, w.Width)
	assert.Equal(t, 500, w.Height)
	require.NotNil(t, w.X)
	assert.Equal(t, 9, *w.X)
}

func TestResizeUpdatesQueuedSave(t *testing.T) {
	f := newFixture(t)
	note, ok := f.session.Selected()
	require.True(t, ok)
	writes := f.mem.Writes()

	f.session.UpdateContent(note.ID, "edited before the resize")
	require.NoError(t, f.session.Resize(context.Background(), host.Bounds{X: 40, Y: 50, Width: 640, Height: 480}))
	require.True(t, f.session.saver.Pending())

	f.clock.Advance(autosave.DefaultDelay)
	require.Eventually(t, func() bool { return f.session.Status() == autosave.StatusSaved }, time.Second, 5*time.Millisecond)
	assert.Greater(t, f.mem.Writes(), writes)

	stored := f.stored(t)
	assert.Equal(t, "edited before the resize", stored.Notes[0].Content)
	assert.Equal(t, 640, stored.Window.Width)
	assert.Equal(t, 480, stored.Window.Height)
	require.NotNil(t, stored.Window.X)
	assert.Equal(t, 40, *stored.Window.X)
}

func TestThemes(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, state.ThemeYellow, f.session.CycleTheme())
	assert.False(t, f.session.SetTheme(state.ThemeYellow))
	assert.False(t, f.session.SetTheme("neon"))
	assert.True(t, f.session.SetTheme(state.ThemeDark))
	require.NoError(t, f.session.Flush(context.Background()))
	assert.Equal(t, state.ThemeDark, f.stored(t).Settings.Theme)
}

func TestSearchAndReorder(t *testing.T) {
	f := newFixture(t)
	a := f.session.CreateNote()
	f.session.Rename(a.ID, "Garden")
	b := f.session.CreateNote()
	f.session.Rename(b.ID, "Work")

	got := f.session.Search("gar")
	require.Len(t, got, 1)
	assert.Equal(t, "Garden", got[0].Title)

	all := f.session.Search("")
	assert.Equal(t, state.WelcomeTitle, all[0].Title, "pinned welcome note first")

	assert.True(t, f.session.Reorder(b.ID, notes.Down))
	snap := f.session.Snapshot()
	assert.Equal(t, "Garden", snap.Notes[0].Title)
	assert.Equal(t, "Work", snap.Notes[1].Title)
}

func TestChangesBeforeLoadAreIgnored(t *testing.T) {
	h := host.New(state.NewRepository(storage.NewMemory()), host.VirtualFactory(nil), nil)
	s := New(channel.NewLocal(h))
	assert.False(t, s.Select("x"))
	assert.Equal(t, state.Theme(""), s.CycleTheme())
}
