// Package state owns the persisted snapshot of sticky: the notes, the
// selected note, the window placement and the user settings.
//
// # Snapshot
//
// Snapshot is the single aggregate written to durable storage. It is always
// written whole; there are no partial writes of sub-fields. The JSON layout is
// the one users find on disk:
//
//	{
//	  "window": {"width": 300, "height": 400, "alwaysOnTop": true},
//	  "selectedNoteId": "1b9d...",
//	  "notes": [{"id": "1b9d...", "title": "Welcome", ...}],
//	  "settings": {"theme": "dark", "launchOnStartup": false}
//	}
//
// Window x/y are absent until the window has been placed once, meaning the
// platform chooses the position.
//
// # Repository
//
// Repository wraps a storage.Adapter:
//
//   - Load reads, validates and repairs the stored snapshot. Anything it
//     cannot read (missing, invalid UTF-8, malformed JSON, schema mismatch)
//     is replaced by the default snapshot, which is written back at once so
//     the next Load is stable. An unreadable document is quarantined first
//     when the adapter supports it.
//   - Save encodes and writes the full snapshot.
//
// # Consistency
//
// The store keeps no version. Two writers that read-modify-write the same
// document converge on whichever full snapshot was written last. That is
// enough for one user with one window, where the host re-loads before every
// window write and the UI always writes its complete last-known copy. It is
// not safe for several independent writers.
package state
