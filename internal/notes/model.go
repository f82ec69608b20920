// Package notes implements the operations on the note collection: create,
// rename, edit with list continuation, pin, delete behind a confirmation,
// reorder, select and search.
//
// Operations are pure. They take a Collection and return a new one plus a
// flag telling whether anything changed; the input is never modified. An
// operation naming an id that is not in the collection is a no-op.
package notes

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/five82/sticky/internal/state"
)

const (
	// DefaultTitle is given to new notes; titles are derived from content
	// only while a note still has it.
	DefaultTitle = "Untitled note"
	// MaxTitleLength caps derived titles, in characters.
	MaxTitleLength = 40
	// DeletePrompt is shown before a note is removed.
	DeletePrompt = "Delete this note permanently?"
)

// Direction moves a note within the stored order.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Confirmer asks the user to approve a destructive action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm implements Confirmer.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// Collection is the notes sequence in stored order and the selection.
type Collection struct {
	Notes    []state.Note
	Selected state.Selection
}

// FromSnapshot extracts the collection of s.
func FromSnapshot(s state.Snapshot) Collection {
	return Collection{Notes: s.Notes, Selected: s.SelectedNoteID}
}

// Apply returns s with the notes and selection of c.
func (c Collection) Apply(s state.Snapshot) state.Snapshot {
	s.Notes = c.Notes
	s.SelectedNoteID = c.Selected
	return s
}

// IndexOf returns the stored position of note id, or -1.
func (c Collection) IndexOf(id string) int {
	for i, n := range c.Notes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

// Get returns note id.
func (c Collection) Get(id string) (state.Note, bool) {
	i := c.IndexOf(id)
	if i < 0 {
		return state.Note{}, false
	}
	return c.Notes[i], true
}

func (c Collection) clone() Collection {
	dup := Collection{Selected: c.Selected}
	dup.Notes = make([]state.Note, len(c.Notes))
	copy(dup.Notes, c.Notes)
	return dup
}

// Option configures a Model.
type Option func(*Model)

// WithClock sets the clock used for timestamps.
func WithClock(clock clockwork.Clock) Option {
	return func(m *Model) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// WithIDGenerator sets how note ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(m *Model) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// Model applies note operations. The zero value is not usable; use New.
type Model struct {
	clock clockwork.Clock
	newID func() string
}

// New returns a Model using the real clock and random UUIDs.
func New(opts ...Option) *Model {
	m := &Model{
		clock: clockwork.NewRealClock(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Model) now() time.Time {
	return m.clock.Now().UTC()
}

// Create adds an empty note at the front and selects it.
func (m *Model) Create(c Collection) (Collection, state.Note) {
	now := m.now()
	note := state.Note{
		ID:        m.newID(),
		Title:     DefaultTitle,
		Pinned:    false,
		CreatedAt: now,
		UpdatedAt: now,
	}
	next := Collection{Selected: state.Select(note.ID)}
	next.Notes = make([]state.Note, 0, len(c.Notes)+1)
	next.Notes = append(next.Notes, note)
	next.Notes = append(next.Notes, c.Notes...)
	return next, note
}

// Rename sets the title of note id verbatim.
func (m *Model) Rename(c Collection, id, title string) (Collection, bool) {
	i := c.IndexOf(id)
	if i < 0 || c.Notes[i].Title == title {
		return c, false
	}
	next := c.clone()
	next.Notes[i].Title = title
	return next, true
}

// UpdateContent replaces the content of note id, continuing checklist and
// bullet lines when text ends with a newline. A note still titled
// DefaultTitle gets its title derived from the new content. updatedAt is
// always refreshed.
func (m *Model) UpdateContent(c Collection, id, text string) (Collection, bool) {
	i := c.IndexOf(id)
	if i < 0 {
		return c, false
	}
	next := c.clone()
	note := &next.Notes[i]
	content := Continue(text, note.Content)
	note.Content = content
	if note.Title == DefaultTitle {
		note.Title = DeriveTitle(content)
	}
	note.UpdatedAt = m.now()
	if note.UpdatedAt.Before(note.CreatedAt) {
		note.UpdatedAt = note.CreatedAt
	}
	return next, true
}

// TogglePin flips the pinned flag of note id. updatedAt is left alone.
func (m *Model) TogglePin(c Collection, id string) (Collection, bool) {
	i := c.IndexOf(id)
	if i < 0 {
		return c, false
	}
	next := c.clone()
	next.Notes[i].Pinned = !next.Notes[i].Pinned
	return next, true
}

// Delete removes note id once confirm approves DeletePrompt. Without
// approval, including a nil confirm or a confirmation error, the collection
// is returned unchanged. After a removal the first remaining note is
// selected, or nothing when the collection is empty.
func (m *Model) Delete(ctx context.Context, c Collection, id string, confirm Confirmer) (Collection, bool, error) {
	i := c.IndexOf(id)
	if i < 0 || confirm == nil {
		return c, false, nil
	}
	ok, err := confirm.Confirm(ctx, DeletePrompt)
	if err != nil {
		return c, false, err
	}
	if !ok {
		return c, false, nil
	}

	next := Collection{Notes: make([]state.Note, 0, len(c.Notes)-1)}
	next.Notes = append(next.Notes, c.Notes[:i]...)
	next.Notes = append(next.Notes, c.Notes[i+1:]...)
	if len(next.Notes) > 0 {
		next.Selected = state.Select(next.Notes[0].ID)
	} else {
		next.Selected = state.None
	}
	return next, true, nil
}

// Reorder swaps note id with its stored-order neighbour in dir. Moving the
// first note up or the last note down is a no-op.
func (m *Model) Reorder(c Collection, id string, dir Direction) (Collection, bool) {
	i := c.IndexOf(id)
	if i < 0 {
		return c, false
	}
	target := i + 1
	if dir == Up {
		target = i - 1
	}
	if target < 0 || target >= len(c.Notes) {
		return c, false
	}
	next := c.clone()
	next.Notes[i], next.Notes[target] = next.Notes[target], next.Notes[i]
	return next, true
}

// Select makes note id the selection.
func (m *Model) Select(c Collection, id string) (Collection, bool) {
	if c.IndexOf(id) < 0 || c.Selected.ID() == id {
		return c, false
	}
	next := c.clone()
	next.Selected = state.Select(id)
	return next, true
}
