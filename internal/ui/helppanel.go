package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/yamireader/internal/theme"
)

// HelpGroup is a named column of key bindings.
type HelpGroup struct {
	Name     string
	Bindings []key.Binding
}

// HelpPanel renders the key bindings as a centered popup.
type HelpPanel struct {
	visible bool
	groups  []HelpGroup
	palette theme.Theme
}

// NewHelpPanel creates a hidden help panel listing groups.
func NewHelpPanel(groups []HelpGroup) HelpPanel {
	return HelpPanel{groups: groups, palette: theme.Current}
}

// Toggle switches visibility.
func (hp *HelpPanel) Toggle() {
	hp.visible = !hp.visible
}

// Hide closes the panel.
func (hp *HelpPanel) Hide() {
	hp.visible = false
}

// IsVisible reports whether the panel is shown.
func (hp *HelpPanel) IsVisible() bool {
	return hp.visible
}

// SetTheme changes the palette.
func (hp *HelpPanel) SetTheme(t theme.Theme) {
	hp.palette = t
}

// View renders the panel.
func (hp *HelpPanel) View() string {
	if !hp.visible {
		return ""
	}
	t := hp.palette

	groupNameStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Accent).
		Underline(true)

	keyBadgeStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Background).
		Background(t.Secondary).
		Padding(0, 1)

	descStyle := lipgloss.NewStyle().Foreground(t.Text)
	separatorStyle := lipgloss.NewStyle().Foreground(t.Border)

	const colWidth = 24

	maxRows := 0
	for _, g := range hp.groups {
		maxRows = max(maxRows, len(g.Bindings))
	}

	colStyle := lipgloss.NewStyle().Width(colWidth)

	var columns []string
	for i, group := range hp.groups {
		lines := []string{groupNameStyle.Render(group.Name), ""}
		for _, b := range group.Bindings {
			h := b.Help()
			lines = append(lines, keyBadgeStyle.Render(h.Key)+descStyle.Render(" "+h.Desc))
		}
		for j := len(group.Bindings); j < maxRows; j++ {
			lines = append(lines, "")
		}

		col := colStyle.Render(strings.Join(lines, "\n"))
		columns = append(columns, col)

		if i < len(hp.groups)-1 {
			sep := make([]string, lipgloss.Height(col))
			for s := range sep {
				sep[s] = separatorStyle.Render(" │ ")
			}
			columns = append(columns, strings.Join(sep, "\n"))
		}
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, columns...)
	rule := separatorStyle.Render(strings.Repeat("─", lipgloss.Width(body)))

	content := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Render("Keys"),
		rule,
		"",
		body,
		"",
		lipgloss.NewStyle().Foreground(t.TextDim).Italic(true).Render("? or Esc to dismiss"),
	)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Render(content)
}
