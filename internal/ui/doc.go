// Package ui renders the sticky notes window in the terminal with Bubble Tea.
//
// # Layout
//
//	┌ sticky  on top  dark ─────────────────────────────┐
//	│ ★ Welcome        │ Welcome                        │
//	│   Groceries      │ Power Sticky is ready.         │
//	│   edited Jan 2   │ - [ ] Create your first task   │
//	└ Saved ✓ ─────────────── ctrl+n new · ctrl+f find ─┘
//
// The list on the left shows notes pinned first, each with its last edit
// time. The right pane edits the selected note. Search filters the list by
// title and content and selects the first match.
//
// # Components
//
//   - app.go: Model, Update, the commands that reach the host, Notifier, Run
//   - view.go: rendering of panes, footer, delete confirmation and help
//   - keys.go: key bindings, also used to render help
//   - theme.go: dark and yellow palettes
//
// # Host calls
//
// Every call that may block on the host runs in a tea.Cmd and reports back
// with a message, so Update never waits on I/O. Session edits themselves are
// in-memory and only schedule a save.
//
// The terminal stands in for the native window: a resize is reported to the
// host in pixels (8x16 per cell), losing focus flushes pending edits,
// ctrl+z minimizes and suspends, and resuming shows the window again.
//
// # Refresh
//
// Notifier is passed to session.OnChange. It sends at most one pending
// refresh message to the running program, from its own goroutine.
package ui
