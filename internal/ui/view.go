package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/sticky/internal/autosave"
	"github.com/five82/sticky/internal/notes"
	"github.com/five82/sticky/internal/state"
)

const (
	pinnedMarker = "★ "
	// Status labels shown in the footer.
	labelSaved   = "Saved ✓"
	labelSaving  = "Saving…"
	labelUnsaved = "Unsaved"
)

// statusLabel is the footer text for a save status.
func statusLabel(s autosave.Status) string {
	switch s {
	case autosave.StatusPending:
		return labelSaving
	case autosave.StatusUnsaved:
		return labelUnsaved
	default:
		return labelSaved
	}
}

// renderMain renders the header, the list and editor panes, and the footer.
func (m Model) renderMain() string {
	snap := m.session.Snapshot()

	header := m.renderHeader(snap)
	footer := m.renderFooter()
	bodyHeight := max(3, m.height-lipgloss.Height(header)-lipgloss.Height(footer))

	list := m.renderList(snap, bodyHeight)
	editor := m.renderEditorPane(bodyHeight)
	body := lipgloss.JoinHorizontal(lipgloss.Top, list, editor)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m Model) renderHeader(snap state.Snapshot) string {
	styles := m.theme.Styles()

	parts := []string{styles.Logo.Render("sticky")}
	if snap.Window.AlwaysOnTop {
		parts = append(parts, styles.AccentText.Render("on top"))
	}
	if snap.Settings.LaunchOnStartup {
		parts = append(parts, styles.MutedText.Render("at login"))
	}
	parts = append(parts, styles.FaintText.Render(string(m.theme.Name)))

	line := strings.Join(parts, "  ")
	if m.focus == paneSearch || m.search.Value() != "" {
		line = line + "  " + m.search.View()
	}
	return m.theme.Bar(line, m.width)
}

func (m Model) renderList(snap state.Snapshot, height int) string {
	styles := m.theme.Styles()
	width := m.listWidth()
	inner := max(1, width-2)

	list := m.visible()
	var b strings.Builder
	if len(list) == 0 {
		msg := "No notes. ctrl+n creates one."
		if m.search.Value() != "" {
			msg = "No matches."
		}
		b.WriteString(styles.FaintText.Render(truncate(msg, inner)))
	}

	rows := max(1, (height-2)/2)
	start := 0
	for i, n := range list {
		if n.ID == snap.SelectedNoteID.ID() && i >= rows {
			start = i - rows + 1
		}
	}
	for i := start; i < len(list) && i < start+rows; i++ {
		n := list[i]
		title := n.Title
		if n.Pinned {
			title = pinnedMarker + title
		}
		title = truncate(title, inner)
		stamp := truncate(formatUpdated(n.UpdatedAt), inner)

		if n.ID == snap.SelectedNoteID.ID() {
			b.WriteString(styles.Selected.Width(inner).Render(title))
			b.WriteString("\n")
			b.WriteString(styles.Selected.Width(inner).Render(stamp))
		} else {
			b.WriteString(styles.Text.Render(title))
			b.WriteString("\n")
			b.WriteString(styles.FaintText.Render(stamp))
		}
		if i < len(list)-1 {
			b.WriteString("\n")
		}
	}

	panel := styles.Panel
	if m.focus == paneList || m.focus == paneSearch {
		panel = styles.Focused
	}
	return panel.Width(inner).Height(max(1, height-2)).Render(b.String())
}

func (m Model) renderEditorPane(height int) string {
	styles := m.theme.Styles()
	width := max(10, m.width-m.listWidth())
	inner := max(1, width-2)

	if m.editingID == "" {
		empty := styles.FaintText.Render("Select or create a note.")
		return styles.Panel.Width(inner).Height(max(1, height-2)).Render(empty)
	}

	var titleLine string
	if m.focus == paneTitle {
		titleLine = m.title.View()
	} else {
		titleLine = styles.AccentText.Bold(true).Render(truncate(m.title.Value(), inner))
	}
	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, m.editor.View())

	panel := styles.Panel
	if m.focus == paneEditor || m.focus == paneTitle {
		panel = styles.Focused
	}
	return panel.Width(inner).Height(max(1, height-2)).Render(content)
}

func (m Model) renderFooter() string {
	styles := m.theme.Styles()

	status := m.session.Status()
	var label string
	switch status {
	case autosave.StatusSaved:
		label = styles.SuccessText.Render(statusLabel(status))
	case autosave.StatusUnsaved:
		label = styles.DangerText.Render(statusLabel(status))
	default:
		label = styles.WarningText.Render(statusLabel(status))
	}

	parts := []string{label}
	if m.flash != "" && time.Since(m.flashAt) < flashTTL {
		style := styles.MutedText
		if m.failed {
			style = styles.DangerText
		}
		parts = append(parts, style.Render(m.flash))
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.ShortHelp()))
	return m.theme.Bar(strings.Join(parts, "  "), m.width)
}

// renderConfirm renders the delete confirmation modal.
func (m Model) renderConfirm() string {
	styles := m.theme.Styles()

	title := ""
	if note, ok := m.session.Selected(); ok && note.ID == m.confirmID {
		title = note.Title
	}

	var b strings.Builder
	b.WriteString(styles.DangerText.Render(notes.DeletePrompt))
	b.WriteString("\n\n")
	if title != "" {
		b.WriteString(styles.Text.Render(truncate(title, 36)))
		b.WriteString("\n\n")
	}
	b.WriteString(styles.MutedText.Render("y/enter delete   n/esc keep"))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		styles.Modal.Width(44).Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
	)
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Keyboard Shortcuts"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	keyStyle := styles.WarningText.Width(12)
	for i, group := range m.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(keyStyle.Render(h.Key))
			b.WriteString(styles.Text.Render(h.Desc))
			b.WriteString("\n")
		}
		if i < len(m.keys.FullHelp())-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(40)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
	)
}

func formatUpdated(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return fmt.Sprintf("edited %s", t.Local().Format("Jan 2 15:04"))
}

// truncate cuts s to width display cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
