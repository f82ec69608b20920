package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/sticky/internal/autosave"
	"github.com/five82/sticky/internal/channel"
	"github.com/five82/sticky/internal/host"
	"github.com/five82/sticky/internal/session"
	"github.com/five82/sticky/internal/state"
	"github.com/five82/sticky/internal/storage"
)

func newTestModel(t *testing.T) (Model, *session.Session, *host.Host) {
	t.Helper()
	h := host.New(state.NewRepository(storage.NewMemory()), host.VirtualFactory(nil), nil)
	t.Cleanup(h.Close)
	require.NoError(t, h.Open(context.Background()))

	s := session.New(channel.NewLocal(h),
		session.WithSaveOptions(autosave.WithClock(clockwork.NewFakeClock())),
	)
	require.NoError(t, s.Load(context.Background()))

	m := New(Options{Session: s})
	m = step(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, s, h
}

func step(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func stepCmd(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func keyMsg(k tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: k} }

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	return step(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func TestNewNoteAndTyping(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = step(t, m, keyMsg(tea.KeyCtrlN))
	require.Len(t, s.Snapshot().Notes, 2)
	assert.Equal(t, paneEditor, m.focus)

	m = typeText(t, m, "Shopping")
	selected, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "Shopping", selected.Content)
	assert.Equal(t, "Shopping", selected.Title)
	assert.Equal(t, autosave.StatusPending, s.Status())
	assert.Contains(t, m.View(), labelSaving)
}

func TestEditorContinuesChecklist(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = step(t, m, keyMsg(tea.KeyCtrlN))

	m = typeText(t, m, "- [ ] milk")
	m = step(t, m, keyMsg(tea.KeyEnter))

	selected, _ := s.Selected()
	assert.Equal(t, "- [ ] milk\n- [ ] ", selected.Content)
	assert.Equal(t, selected.Content, m.editor.Value())
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, s, _ := newTestModel(t)
	welcome, _ := s.Selected()

	m = step(t, m, keyMsg(tea.KeyCtrlD))
	assert.Equal(t, welcome.ID, m.confirmID)
	assert.Contains(t, m.View(), "Delete this note permanently?")

	m = typeText(t, m, "n")
	assert.Empty(t, m.confirmID)
	assert.Len(t, s.Snapshot().Notes, 1)

	m = step(t, m, keyMsg(tea.KeyCtrlD))
	m = typeText(t, m, "y")
	assert.Empty(t, s.Snapshot().Notes)
	assert.Empty(t, m.editingID)
	assert.Contains(t, m.View(), "No notes.")
}

func TestListNavigationAndSearch(t *testing.T) {
	m, s, _ := newTestModel(t)
	m = step(t, m, keyMsg(tea.KeyCtrlN))
	m = typeText(t, m, "Groceries")
	m = step(t, m, keyMsg(tea.KeyEsc))
	require.Equal(t, paneList, m.focus)

	// The pinned welcome note is listed first.
	m = step(t, m, keyMsg(tea.KeyUp))
	selected, _ := s.Selected()
	assert.Equal(t, state.WelcomeTitle, selected.Title)
	m = step(t, m, keyMsg(tea.KeyDown))
	selected, _ = s.Selected()
	assert.Equal(t, "Groceries", selected.Title)

	m = step(t, m, keyMsg(tea.KeyUp))
	m = step(t, m, keyMsg(tea.KeyCtrlF))
	require.Equal(t, paneSearch, m.focus)
	m = typeText(t, m, "groc")
	selected, _ = s.Selected()
	assert.Equal(t, "Groceries", selected.Title, "selection follows the first match")
	require.Len(t, m.visible(), 1)

	m = step(t, m, keyMsg(tea.KeyEsc))
	assert.Len(t, m.visible(), 2)
}

func TestRenameCommitsOnEnter(t *testing.T) {
	m, s, _ := newTestModel(t)

	m = step(t, m, keyMsg(tea.KeyCtrlR))
	require.Equal(t, paneTitle, m.focus)
	for range []rune(state.WelcomeTitle) {
		m = step(t, m, keyMsg(tea.KeyBackspace))
	}
	m = typeText(t, m, "Inbox")
	m = step(t, m, keyMsg(tea.KeyEnter))

	selected, _ := s.Selected()
	assert.Equal(t, "Inbox", selected.Title)
	assert.Equal(t, paneEditor, m.focus)
}

func TestPinThemeAndReorder(t *testing.T) {
	m, s, _ := newTestModel(t)
	welcome, _ := s.Selected()

	m = step(t, m, keyMsg(tea.KeyCtrlP))
	got, _ := s.Selected()
	assert.False(t, got.Pinned)

	m = step(t, m, keyMsg(tea.KeyCtrlT))
	assert.Equal(t, state.ThemeYellow, s.Snapshot().Settings.Theme)
	assert.Equal(t, state.ThemeYellow, m.theme.Name)

	m = step(t, m, keyMsg(tea.KeyCtrlN))
	m = step(t, m, keyMsg(tea.KeyEsc))
	m = step(t, m, keyMsg(tea.KeyDown))
	_ = step(t, m, tea.KeyMsg{Type: tea.KeyUp, Alt: true})
	assert.Equal(t, welcome.ID, s.Snapshot().Notes[0].ID)
}

func TestAlwaysOnTopCommandReportsHostValue(t *testing.T) {
	m, s, h := newTestModel(t)

	m, cmd := stepCmd(t, m, keyMsg(tea.KeyCtrlO))
	require.NotNil(t, cmd)
	msg := cmd()
	m = step(t, m, msg)

	assert.False(t, h.Window().IsAlwaysOnTop())
	assert.False(t, s.Snapshot().Window.AlwaysOnTop)
	assert.Equal(t, "always on top off", m.flash)
	assert.False(t, m.failed)
}

func TestResizeReportsBounds(t *testing.T) {
	m, _, h := newTestModel(t)

	_, cmd := stepCmd(t, m, tea.WindowSizeMsg{Width: 80, Height: 40})
	require.NotNil(t, cmd)
	res, ok := cmd().(hostResultMsg)
	require.True(t, ok)
	require.NoError(t, res.err)

	b := h.Window().Bounds()
	assert.Equal(t, 80*cellWidth, b.Width)
	assert.Equal(t, 40*cellHeight, b.Height)
}

func TestMinimizeSuspendsAfterHiding(t *testing.T) {
	m, _, h := newTestModel(t)

	m, cmd := stepCmd(t, m, keyMsg(tea.KeyCtrlZ))
	require.NotNil(t, cmd)
	m, cmd = stepCmd(t, m, cmd())
	require.NotNil(t, cmd)
	assert.False(t, h.Window().Visible())
	assert.Equal(t, "tea.suspendMsg", fmt.Sprintf("%T", cmd()))

	_, cmd = stepCmd(t, m, tea.ResumeMsg{})
	require.NotNil(t, cmd)
	cmd()
	assert.True(t, h.Window().Visible())
}

func TestQuitClosesProgram(t *testing.T) {
	m, _, h := newTestModel(t)

	m, cmd := stepCmd(t, m, keyMsg(tea.KeyCtrlQ))
	require.NotNil(t, cmd)
	_, cmd = stepCmd(t, m, cmd())
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
	assert.True(t, h.Quitting())
}

func TestStatusLabels(t *testing.T) {
	assert.Equal(t, "Saved ✓", statusLabel(autosave.StatusSaved))
	assert.Equal(t, "Saving…", statusLabel(autosave.StatusPending))
	assert.Equal(t, "Unsaved", statusLabel(autosave.StatusUnsaved))
}

func TestViewShowsNotesAndHelp(t *testing.T) {
	m, _, _ := newTestModel(t)

	view := m.View()
	assert.Contains(t, view, pinnedMarker+state.WelcomeTitle)
	assert.Contains(t, view, labelSaved)

	m = typeText(t, m, "?")
	assert.True(t, m.showHelp)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")
	m = typeText(t, m, "x")
	assert.False(t, m.showHelp)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hel…", truncate("hello", 4))
	assert.Equal(t, "", truncate("hello", 0))
	assert.True(t, strings.HasSuffix(truncate(strings.Repeat("é", 20), 5), "…"))
}

func TestNotifierWithoutProgramIsNoop(t *testing.T) {
	var n Notifier
	assert.NotPanics(t, n.Notify)
}

func TestFlashExpires(t *testing.T) {
	m, _, _ := newTestModel(t)
	m.setFlash("boom", true)
	m.flashAt = time.Now().Add(-2 * flashTTL)
	assert.NotContains(t, m.View(), "boom")
}
