package state

import (
	"encoding/json"
	"time"

	"github.com/invopop/jsonschema"
)

// Window defaults and limits.
const (
	DefaultWidth  = 300
	DefaultHeight = 400
	MinWidth      = 260
	MinHeight     = 300
)

// Welcome note written on first run.
const (
	WelcomeTitle   = "Welcome"
	WelcomeContent = "Power Sticky is ready.\n- [ ] Create your first task"
)

// Theme names a colour scheme.
type Theme string

const (
	ThemeDark   Theme = "dark"
	ThemeYellow Theme = "yellow"
)

// Themes lists the known themes in cycling order.
var Themes = []Theme{ThemeDark, ThemeYellow}

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	for _, known := range Themes {
		if t == known {
			return true
		}
	}
	return false
}

// Next returns the theme after t, wrapping around.
func (t Theme) Next() Theme {
	for i, known := range Themes {
		if t == known {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return ThemeDark
}

// JSONSchema keeps the stored theme a plain string. Unknown names are
// repaired to dark on load instead of rejecting the whole document.
func (Theme) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Description: "Colour scheme: dark or yellow",
		Examples:    []any{string(ThemeDark), string(ThemeYellow)},
	}
}

// Window is the last known placement of the sticky window.
type Window struct {
	Width       int  `json:"width" jsonschema:"minimum=0"`
	Height      int  `json:"height" jsonschema:"minimum=0"`
	X           *int `json:"x,omitempty"`
	Y           *int `json:"y,omitempty"`
	AlwaysOnTop bool `json:"alwaysOnTop"`
}

// UnmarshalJSON defaults alwaysOnTop to true when the field is absent.
func (w *Window) UnmarshalJSON(data []byte) error {
	type plain Window
	aux := plain{AlwaysOnTop: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*w = Window(aux)
	return nil
}

// Positioned reports whether the window has a stored position.
func (w Window) Positioned() bool {
	return w.X != nil && w.Y != nil
}

// Settings are user preferences stored with the notes.
type Settings struct {
	Theme           Theme `json:"theme"`
	LaunchOnStartup bool  `json:"launchOnStartup"`
}

// Note is one sticky note.
type Note struct {
	ID        string    `json:"id" jsonschema:"required"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Pinned    bool      `json:"pinned"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Selection references a note by id. The zero value is null.
type Selection string

// None is the null selection.
const None Selection = ""

// Select returns the selection of note id.
func Select(id string) Selection {
	return Selection(id)
}

// IsNone reports whether nothing is selected.
func (s Selection) IsNone() bool {
	return s == None
}

// ID returns the selected note id, or "".
func (s Selection) ID() string {
	return string(s)
}

// MarshalJSON writes null for the empty selection.
func (s Selection) MarshalJSON() ([]byte, error) {
	if s == None {
		return []byte("null"), nil
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON accepts a string or null.
func (s *Selection) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = None
		return nil
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	*s = Selection(id)
	return nil
}

func (Selection) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		OneOf: []*jsonschema.Schema{
			{Type: "string"},
			{Type: "null"},
		},
		Description: "Id of the selected note or null",
	}
}

// Snapshot is the whole persisted state.
type Snapshot struct {
	Window         Window    `json:"window"`
	SelectedNoteID Selection `json:"selectedNoteId"`
	Notes          []Note    `json:"notes"`
	Settings       Settings  `json:"settings"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	dup := s
	dup.Window = s.Window.clone()
	if s.Notes != nil {
		dup.Notes = make([]Note, len(s.Notes))
		copy(dup.Notes, s.Notes)
	}
	return dup
}

// IndexOf returns the position of note id, or -1.
func (s Snapshot) IndexOf(id string) int {
	for i, n := range s.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// SelectedNote returns the selected note if the selection resolves.
func (s Snapshot) SelectedNote() (Note, bool) {
	if s.SelectedNoteID.IsNone() {
		return Note{}, false
	}
	i := s.IndexOf(s.SelectedNoteID.ID())
	if i < 0 {
		return Note{}, false
	}
	return s.Notes[i], true
}

func (w Window) clone() Window {
	dup := w
	if w.X != nil {
		x := *w.X
		dup.X = &x
	}
	if w.Y != nil {
		y := *w.Y
		dup.Y = &y
	}
	return dup
}

// Default builds the first-run snapshot with one pinned welcome note.
func Default(now time.Time, id string) Snapshot {
	now = now.UTC()
	return Snapshot{
		Window: Window{
			Width:       DefaultWidth,
			Height:      DefaultHeight,
			AlwaysOnTop: true,
		},
		SelectedNoteID: Select(id),
		Notes: []Note{{
			ID:        id,
			Title:     WelcomeTitle,
			Content:   WelcomeContent,
			Pinned:    true,
			CreatedAt: now,
			UpdatedAt: now,
		}},
		Settings: Settings{
			Theme:           ThemeDark,
			LaunchOnStartup: false,
		},
	}
}

// Repair normalises a decoded snapshot:
//   - zero window dimensions fall back to the defaults
//   - unknown themes become dark
//   - duplicate note ids keep their first note, empty ids get newID()
//   - updatedAt is never before createdAt
//   - the selection resolves to a note whenever notes exist, and is null otherwise
func Repair(s Snapshot, newID func() string) Snapshot {
	s = s.Clone()

	if s.Window.Width <= 0 {
		s.Window.Width = DefaultWidth
	}
	if s.Window.Height <= 0 {
		s.Window.Height = DefaultHeight
	}
	if !s.Settings.Theme.Valid() {
		s.Settings.Theme = ThemeDark
	}

	if len(s.Notes) > 0 {
		seen := make(map[string]struct{}, len(s.Notes))
		kept := s.Notes[:0]
		for _, n := range s.Notes {
			if n.ID == "" && newID != nil {
				n.ID = newID()
			}
			if _, dup := seen[n.ID]; dup || n.ID == "" {
				continue
			}
			seen[n.ID] = struct{}{}
			if n.CreatedAt.IsZero() {
				n.CreatedAt = n.UpdatedAt
			}
			if n.UpdatedAt.Before(n.CreatedAt) {
				n.UpdatedAt = n.CreatedAt
			}
			kept = append(kept, n)
		}
		s.Notes = kept
	}
	if s.Notes == nil {
		s.Notes = []Note{}
	}

	switch {
	case len(s.Notes) == 0:
		s.SelectedNoteID = None
	case s.SelectedNoteID.IsNone() || s.IndexOf(s.SelectedNoteID.ID()) < 0:
		s.SelectedNoteID = Select(s.Notes[0].ID)
	}
	return s
}
