package ui

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sticky/internal/host"
	"github.com/five82/sticky/internal/notes"
	"github.com/five82/sticky/internal/session"
	"github.com/five82/sticky/internal/state"
)

// Terminal cells are reported to the host as window pixels using a nominal
// cell size.
const (
	cellWidth  = 8
	cellHeight = 16
	flashTTL   = 4 * time.Second
)

// pane is the component receiving keys.
type pane int

const (
	paneList pane = iota
	paneEditor
	paneTitle
	paneSearch
)

// Options configures the UI.
type Options struct {
	Context context.Context
	Session *session.Session
}

// Model is the root application state for Bubble Tea.
type Model struct {
	ctx     context.Context
	session *session.Session
	keys    keyMap
	help    help.Model

	theme  Theme
	width  int
	height int
	ready  bool
	focus  pane

	editor    textarea.Model
	title     textinput.Model
	search    textinput.Model
	editingID string

	confirmID string
	showHelp  bool

	flash   string
	flashAt time.Time
	failed  bool
}

// New creates the model for a loaded session.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	editor := textarea.New()
	editor.KeyMap = editorKeyMap()
	editor.CharLimit = 0
	editor.MaxHeight = 0
	editor.ShowLineNumbers = false
	editor.Placeholder = "Start typing…"

	title := textinput.New()
	title.Prompt = "Title: "
	title.CharLimit = 0

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "title or text"

	m := Model{
		ctx:     ctx,
		session: opts.Session,
		keys:    DefaultKeyMap(),
		help:    help.New(),
		editor:  editor,
		title:   title,
		search:  search,
	}
	m.theme = ThemeFor(m.session.Snapshot().Settings.Theme)
	m.syncEditor(true)
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, textarea.Blink)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		return m, m.resizeCmd()

	case tea.BlurMsg:
		return m, m.hostCmd("blur", m.session.Blur)

	case tea.FocusMsg:
		return m, nil

	case tea.ResumeMsg:
		return m, m.hostCmd("show window", m.session.Activate)

	case refreshMsg:
		m.theme = ThemeFor(m.session.Snapshot().Settings.Theme)
		m.syncEditor(false)
		return m, nil

	case hostResultMsg:
		return m.handleHostResult(msg), nil

	case minimizedMsg:
		if msg.err != nil {
			return m.handleHostResult(hostResultMsg{op: "minimize", err: msg.err}), nil
		}
		return m, tea.Suspend

	case closedMsg:
		if msg.err != nil {
			m = m.handleHostResult(hostResultMsg{op: "close", err: msg.err})
		}
		if msg.closed {
			return m, tea.Quit
		}
		if msg.err != nil {
			return m, nil
		}
		// The host hid the window instead of closing it.
		return m, tea.Suspend

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateFocused(msg)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.confirmID != "" {
		return m.renderConfirm()
	}
	if m.showHelp {
		return m.renderHelp()
	}
	return m.renderMain()
}

// handleKey processes keyboard input. Application keys win over the focused
// input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.confirmID != "" {
		return m.handleConfirmKey(msg)
	}
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quitCmd()
	case key.Matches(msg, m.keys.Close):
		return m, m.closeCmd()
	case key.Matches(msg, m.keys.Minimize):
		return m, m.minimizeCmd()
	case key.Matches(msg, m.keys.NewNote):
		m.commitTitle()
		m.session.CreateNote()
		m.clearSearch()
		m.syncEditor(true)
		return m, m.focusPane(paneEditor)
	case key.Matches(msg, m.keys.Delete):
		if note, ok := m.session.Selected(); ok {
			m.confirmID = note.ID
		}
		return m, nil
	case key.Matches(msg, m.keys.Rename):
		if _, ok := m.session.Selected(); ok {
			return m, m.focusPane(paneTitle)
		}
		return m, nil
	case key.Matches(msg, m.keys.TogglePin):
		if note, ok := m.session.Selected(); ok {
			m.session.TogglePin(note.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.MoveUp):
		m.reorder(notes.Up)
		return m, nil
	case key.Matches(msg, m.keys.MoveDown):
		m.reorder(notes.Down)
		return m, nil
	case key.Matches(msg, m.keys.Search):
		return m, m.focusPane(paneSearch)
	case key.Matches(msg, m.keys.SaveNow):
		return m, m.hostCmd("save", m.session.Flush)
	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = ThemeFor(m.session.CycleTheme())
		return m, nil
	case key.Matches(msg, m.keys.AlwaysOnTop):
		return m, m.flagCmd("always on top", m.session.ToggleAlwaysOnTop)
	case key.Matches(msg, m.keys.Startup):
		return m, m.flagCmd("launch at login", m.session.ToggleLaunchOnStartup)
	case key.Matches(msg, m.keys.Tab), key.Matches(msg, m.keys.ShiftTab):
		if m.focus == paneList {
			return m, m.focusPane(paneEditor)
		}
		m.commitTitle()
		return m, m.focusPane(paneList)
	}

	switch m.focus {
	case paneList:
		return m.handleListKey(msg)
	case paneTitle:
		return m.handleTitleKey(msg)
	case paneSearch:
		return m.handleSearchKey(msg)
	default:
		return m.handleEditorKey(msg)
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.moveSelection(-1)
	case key.Matches(msg, m.keys.Down):
		m.moveSelection(1)
	case key.Matches(msg, m.keys.Edit):
		if _, ok := m.session.Selected(); ok {
			return m, m.focusPane(paneEditor)
		}
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
	case key.Matches(msg, m.keys.Escape):
		m.clearSearch()
	}
	return m, nil
}

func (m Model) handleEditorKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Escape) {
		return m, m.focusPane(paneList)
	}
	if msg.Type == tea.KeyF1 {
		m.showHelp = true
		return m, nil
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	m.commitContent()
	return m, cmd
}

func (m Model) handleTitleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.commitTitle()
		return m, m.focusPane(paneEditor)
	case tea.KeyEsc:
		m.syncEditor(true)
		return m, m.focusPane(paneEditor)
	}
	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		return m, m.focusPane(paneList)
	case tea.KeyEsc:
		m.clearSearch()
		return m, m.focusPane(paneList)
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.selectFirstMatch()
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		id := m.confirmID
		m.confirmID = ""
		ok, err := m.session.Delete(m.ctx, id, approve)
		if err != nil {
			return m.handleHostResult(hostResultMsg{op: "delete", err: err}), nil
		}
		if ok {
			m.syncEditor(true)
			m.setFlash("Note deleted", false)
		}
		return m, m.focusPane(paneList)
	case key.Matches(msg, m.keys.Cancel):
		m.confirmID = ""
	}
	return m, nil
}

// updateFocused forwards non-key messages (cursor blink) to the focused input.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case paneEditor:
		m.editor, cmd = m.editor.Update(msg)
	case paneTitle:
		m.title, cmd = m.title.Update(msg)
	case paneSearch:
		m.search, cmd = m.search.Update(msg)
	}
	return m, cmd
}

// approve is the confirmer used once the modal has been answered yes.
var approve = notes.ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

func (m *Model) focusPane(p pane) tea.Cmd {
	m.focus = p
	m.editor.Blur()
	m.title.Blur()
	m.search.Blur()
	switch p {
	case paneEditor:
		return m.editor.Focus()
	case paneTitle:
		if note, ok := m.session.Selected(); ok {
			m.title.SetValue(note.Title)
			m.title.CursorEnd()
		}
		return m.title.Focus()
	case paneSearch:
		return m.search.Focus()
	}
	return nil
}

// visible is the note list as displayed.
func (m Model) visible() []state.Note {
	return m.session.Search(m.search.Value())
}

func (m *Model) moveSelection(delta int) {
	list := m.visible()
	if len(list) == 0 {
		return
	}
	idx := 0
	if note, ok := m.session.Selected(); ok {
		for i, n := range list {
			if n.ID == note.ID {
				idx = i + delta
				break
			}
		}
	}
	idx = max(0, min(idx, len(list)-1))
	m.session.Select(list[idx].ID)
	m.syncEditor(true)
}

func (m *Model) selectFirstMatch() {
	list := m.visible()
	if len(list) == 0 {
		return
	}
	if note, ok := m.session.Selected(); ok {
		for _, n := range list {
			if n.ID == note.ID {
				return
			}
		}
	}
	m.session.Select(list[0].ID)
	m.syncEditor(true)
}

func (m *Model) clearSearch() {
	m.search.SetValue("")
}

func (m *Model) reorder(dir notes.Direction) {
	if note, ok := m.session.Selected(); ok {
		m.session.Reorder(note.ID, dir)
	}
}

// commitContent pushes the editor text to the session. Continuation markers
// added by the session are copied back into the editor.
func (m *Model) commitContent() {
	if m.editingID == "" {
		return
	}
	text := m.editor.Value()
	note, ok := m.session.Selected()
	if !ok || note.ID != m.editingID || note.Content == text {
		return
	}
	m.session.UpdateContent(note.ID, text)
	if updated, ok := m.session.Selected(); ok && updated.Content != text {
		m.editor.SetValue(updated.Content)
	}
}

func (m *Model) commitTitle() {
	if m.focus != paneTitle {
		return
	}
	if note, ok := m.session.Selected(); ok {
		m.session.Rename(note.ID, m.title.Value())
	}
}

// syncEditor loads the selected note into the inputs. Unless force is set, an
// input being typed into is left alone.
func (m *Model) syncEditor(force bool) {
	note, ok := m.session.Selected()
	if !ok {
		m.editingID = ""
		m.editor.SetValue("")
		m.title.SetValue("")
		return
	}
	if force || note.ID != m.editingID || m.focus != paneEditor {
		if m.editor.Value() != note.Content || note.ID != m.editingID {
			m.editor.SetValue(note.Content)
		}
	}
	if force || m.focus != paneTitle {
		m.title.SetValue(note.Title)
	}
	m.editingID = note.ID
}

func (m *Model) setFlash(text string, failed bool) {
	m.flash = text
	m.flashAt = time.Now()
	m.failed = failed
}

func (m Model) handleHostResult(msg hostResultMsg) Model {
	switch {
	case errors.Is(msg.err, context.Canceled):
	case msg.err != nil:
		m.setFlash(msg.op+" failed: "+msg.err.Error(), true)
	case msg.text != "":
		m.setFlash(msg.text, false)
	}
	return m
}

// layout sizes the inputs for the current terminal.
func (m *Model) layout() {
	listW := m.listWidth()
	editorW := max(10, m.width-listW-4)
	m.editor.SetWidth(editorW)
	m.editor.SetHeight(max(3, m.height-6))
	m.title.Width = max(10, editorW-len(m.title.Prompt))
	m.search.Width = max(10, m.width-len(m.search.Prompt)-2)
	m.help.Width = m.width
}

func (m Model) listWidth() int {
	return max(16, min(32, m.width/3))
}

// Messages

type refreshMsg struct{}

type hostResultMsg struct {
	op   string
	text string
	err  error
}

type minimizedMsg struct{ err error }

type closedMsg struct {
	closed bool
	err    error
}

// Commands

func (m Model) hostCmd(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return hostResultMsg{op: op, err: fn(ctx)}
	}
}

func (m Model) flagCmd(op string, fn func(context.Context) (bool, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		on, err := fn(ctx)
		text := op + " off"
		if on {
			text = op + " on"
		}
		return hostResultMsg{op: op, text: text, err: err}
	}
}

func (m Model) resizeCmd() tea.Cmd {
	ctx, s := m.ctx, m.session
	b := host.Bounds{Width: m.width * cellWidth, Height: m.height * cellHeight}
	return func() tea.Msg {
		return hostResultMsg{op: "resize", err: s.Resize(ctx, b)}
	}
}

func (m Model) minimizeCmd() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		return minimizedMsg{err: s.MinimizeToTray(ctx)}
	}
}

func (m Model) closeCmd() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		closed, err := s.Close(ctx)
		return closedMsg{closed: closed, err: err}
	}
}

func (m Model) quitCmd() tea.Cmd {
	ctx, s := m.ctx, m.session
	return func() tea.Msg {
		if err := s.Quit(ctx); err != nil {
			return closedMsg{closed: true, err: err}
		}
		closed, err := s.Close(ctx)
		return closedMsg{closed: closed, err: err}
	}
}

// Notifier forwards session changes to a running program.
type Notifier struct {
	program atomic.Pointer[tea.Program]
	pending atomic.Bool
}

// Notify asks the program to redraw. It never blocks, so it is safe to call
// from code running inside Update.
func (n *Notifier) Notify() {
	p := n.program.Load()
	if p == nil || !n.pending.CompareAndSwap(false, true) {
		return
	}
	go func() {
		n.pending.Store(false)
		p.Send(refreshMsg{})
	}()
}

// Run starts the Bubble Tea program and blocks until it exits. notifier may
// be nil.
func Run(opts Options, notifier *Notifier) error {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(New(opts),
		tea.WithAltScreen(),
		tea.WithReportFocus(),
		tea.WithContext(ctx),
	)
	if notifier != nil {
		notifier.program.Store(p)
		defer notifier.program.Store(nil)
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
