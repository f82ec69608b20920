package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
)

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Notes
	NewNote    key.Binding
	Delete     key.Binding
	Rename     key.Binding
	TogglePin  key.Binding
	MoveUp     key.Binding
	MoveDown   key.Binding
	Search     key.Binding
	SaveNow    key.Binding
	CycleTheme key.Binding

	// Window
	AlwaysOnTop key.Binding
	Startup     key.Binding
	Minimize    key.Binding
	Close       key.Binding
	Quit        key.Binding

	// Navigation
	Up       key.Binding
	Down     key.Binding
	Edit     key.Binding
	Tab      key.Binding
	ShiftTab key.Binding
	Escape   key.Binding
	Help     key.Binding

	// Confirmation
	Confirm key.Binding
	Cancel  key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		NewNote: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "New note"),
		),
		Delete: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "Delete note"),
		),
		Rename: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "Rename"),
		),
		TogglePin: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "Pin/unpin"),
		),
		MoveUp: key.NewBinding(
			key.WithKeys("alt+up"),
			key.WithHelp("alt+up", "Move note up"),
		),
		MoveDown: key.NewBinding(
			key.WithKeys("alt+down"),
			key.WithHelp("alt+down", "Move note down"),
		),
		Search: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "Search"),
		),
		SaveNow: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save now"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Cycle theme"),
		),

		AlwaysOnTop: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "Always on top"),
		),
		Startup: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("ctrl+g", "Launch at login"),
		),
		Minimize: key.NewBinding(
			key.WithKeys("ctrl+z"),
			key.WithHelp("ctrl+z", "Minimize to tray"),
		),
		Close: key.NewBinding(
			key.WithKeys("ctrl+w"),
			key.WithHelp("ctrl+w", "Close window"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("ctrl+q", "Quit"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Previous note"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Next note"),
		),
		Edit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Edit note"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "List/editor"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "List/editor"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to list"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1", "?"),
			key.WithHelp("f1/?", "Toggle help"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("y", "enter"),
			key.WithHelp("y", "Delete"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("n", "esc"),
			key.WithHelp("n/esc", "Keep"),
		),
	}
}

// ShortHelp returns key bindings for the footer.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NewNote, k.Delete, k.Search, k.Help}
}

// FullHelp returns key bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NewNote, k.Delete, k.Rename, k.TogglePin, k.MoveUp, k.MoveDown},
		{k.Up, k.Down, k.Edit, k.Tab, k.Escape, k.Search},
		{k.SaveNow, k.CycleTheme, k.AlwaysOnTop, k.Startup},
		{k.Minimize, k.Close, k.Quit, k.Help},
	}
}

// editorKeyMap is the textarea key map with the bindings the application
// claims removed.
func editorKeyMap() textarea.KeyMap {
	km := textarea.DefaultKeyMap
	km.LineNext = key.NewBinding(key.WithKeys("down"))
	km.LinePrevious = key.NewBinding(key.WithKeys("up"))
	km.DeleteCharacterForward = key.NewBinding(key.WithKeys("delete"))
	km.DeleteWordBackward = key.NewBinding(key.WithKeys("alt+backspace"))
	km.CharacterForward = key.NewBinding(key.WithKeys("right"))
	km.TransposeCharacterBackward = key.NewBinding(key.WithDisabled())
	return km
}
