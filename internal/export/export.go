// Package export writes notes out of the snapshot in human-readable formats:
// one YAML document, or a directory of Markdown files with YAML front matter.
// Notes are written in display order, pinned first.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/five82/sticky/internal/notes"
	"github.com/five82/sticky/internal/state"
)

// Format selects the export encoding.
type Format string

const (
	FormatYAML     Format = "yaml"
	FormatMarkdown Format = "markdown"
)

// ParseFormat normalizes a format name. "md" and "yml" are accepted.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "yaml", "yml":
		return FormatYAML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("unknown export format %q", name)
	}
}

type noteMeta struct {
	ID        string    `yaml:"id"`
	Title     string    `yaml:"title"`
	Pinned    bool      `yaml:"pinned"`
	CreatedAt time.Time `yaml:"createdAt"`
	UpdatedAt time.Time `yaml:"updatedAt"`
}

type yamlNote struct {
	noteMeta `yaml:",inline"`
	Content  string `yaml:"content"`
}

type yamlDocument struct {
	ExportedAt time.Time  `yaml:"exportedAt"`
	Theme      string     `yaml:"theme"`
	Notes      []yamlNote `yaml:"notes"`
}

func meta(n state.Note) noteMeta {
	return noteMeta{
		ID:        n.ID,
		Title:     n.Title,
		Pinned:    n.Pinned,
		CreatedAt: n.CreatedAt.UTC(),
		UpdatedAt: n.UpdatedAt.UTC(),
	}
}

// YAML writes every note of snap to w as one YAML document.
func YAML(w io.Writer, snap state.Snapshot, now time.Time) error {
	doc := yamlDocument{
		ExportedAt: now.UTC(),
		Theme:      string(snap.Settings.Theme),
		Notes:      []yamlNote{},
	}
	for _, n := range notes.Search(snap.Notes, "") {
		doc.Notes = append(doc.Notes, yamlNote{noteMeta: meta(n), Content: n.Content})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// MarkdownNote renders one note as Markdown with YAML front matter.
func MarkdownNote(n state.Note) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(meta(n)); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString("---\n")
	buf.WriteString(n.Content)
	if n.Content != "" && !strings.HasSuffix(n.Content, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Markdown writes one file per note into dir and returns the paths written.
// Files are numbered in display order so a directory listing keeps it.
func Markdown(dir string, snap state.Snapshot) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create export dir: %w", err)
	}
	ordered := notes.Search(snap.Notes, "")
	paths := make([]string, 0, len(ordered))
	for i, n := range ordered {
		data, err := MarkdownNote(n)
		if err != nil {
			return paths, fmt.Errorf("note %s: %w", n.ID, err)
		}
		path := filepath.Join(dir, fmt.Sprintf("%03d-%s.md", i+1, slug(n.Title)))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

var nonSlug = regexp.MustCompile(`[^\p{L}\p{N}]+`)

func slug(title string) string {
	s := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(title), "-"), "-")
	if s == "" {
		return "note"
	}
	if r := []rune(s); len(r) > notes.MaxTitleLength {
		s = strings.TrimRight(string(r[:notes.MaxTitleLength]), "-")
	}
	return s
}
