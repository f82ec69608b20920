package notes

import (
	"regexp"
	"slices"
	"strings"

	"github.com/five82/sticky/internal/state"
)

var (
	checklistMarker = regexp.MustCompile(`^\s*- \[( |x)\]\s`)
	bulletMarker    = regexp.MustCompile(`^\s*-\s+`)
)

// Continue appends a list marker to text when the user has just ended a
// checklist or bullet line. The line inspected is the last line of prior,
// the content before the edit. Checked items continue unchecked.
func Continue(text, prior string) string {
	if !strings.HasSuffix(text, "\n") {
		return text
	}
	last := prior
	if i := strings.LastIndexByte(prior, '\n'); i >= 0 {
		last = prior[i+1:]
	}
	if m := checklistMarker.FindString(last); m != "" {
		return text + strings.Replace(m, "[x]", "[ ]", 1)
	}
	if m := bulletMarker.FindString(last); m != "" {
		return text + m
	}
	return text
}

// DeriveTitle returns the first non-blank line of content, trimmed and cut
// to MaxTitleLength characters, or DefaultTitle.
func DeriveTitle(content string) string {
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if runes := []rune(trimmed); len(runes) > MaxTitleLength {
			trimmed = string(runes[:MaxTitleLength])
		}
		return trimmed
	}
	return DefaultTitle
}

// Search returns the display view of notes: pinned notes first, stored order
// otherwise, filtered by a case-insensitive substring match on title or
// content. The input slice is not reordered.
func Search(notes []state.Note, query string) []state.Note {
	view := make([]state.Note, len(notes))
	copy(view, notes)
	slices.SortStableFunc(view, func(a, b state.Note) int {
		switch {
		case a.Pinned == b.Pinned:
			return 0
		case a.Pinned:
			return -1
		default:
			return 1
		}
	})

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return view
	}
	filtered := view[:0]
	for _, n := range view {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Content), q) {
			filtered = append(filtered, n)
		}
	}
	return filtered
}
