package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/yamireader/internal/theme"
)

// StatusBar shows the reading position at the bottom of the screen.
type StatusBar struct {
	phase    string
	chapter  string
	page     int
	maxPage  int
	percent  float64
	zoom     float64
	loading  bool
	width    int
	message  string // temporary status message
	isError  bool
	spinner  spinner.Model
	palette  theme.Theme
	vertical bool
}

// NewStatusBar creates a new status bar.
func NewStatusBar() StatusBar {
	return StatusBar{
		phase:   "idle",
		zoom:    1,
		spinner: spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		palette: theme.Current,
	}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(w int) {
	s.width = w
}

// SetTheme changes the palette.
func (s *StatusBar) SetTheme(t theme.Theme) {
	s.palette = t
}

// SetPhase sets the phase badge.
func (s *StatusBar) SetPhase(phase string) {
	s.phase = phase
}

// SetChapter updates the current chapter title.
func (s *StatusBar) SetChapter(title string) {
	s.chapter = title
}

// SetPage sets the network page indicator.
func (s *StatusBar) SetPage(page, maxPage int) {
	s.page, s.maxPage = page, maxPage
}

// SetPercent sets the position within the displayed page, 0 to 100.
func (s *StatusBar) SetPercent(p float64) {
	s.percent = p
}

// SetZoom sets the zoom scale shown while it differs from 1.
func (s *StatusBar) SetZoom(scale float64) {
	s.zoom = scale
}

// SetVertical selects the scroll mode indicator.
func (s *StatusBar) SetVertical(v bool) {
	s.vertical = v
}

// SetLoading starts or stops the spinner. The returned command drives it.
func (s *StatusBar) SetLoading(loading bool) tea.Cmd {
	was := s.loading
	s.loading = loading
	if loading && !was {
		return s.spinner.Tick
	}
	return nil
}

// SetMessage sets a temporary status message.
func (s *StatusBar) SetMessage(msg string) {
	s.message, s.isError = msg, false
}

// SetError shows msg as an error until the next message.
func (s *StatusBar) SetError(msg string) {
	s.message, s.isError = msg, true
}

// Update advances the spinner.
func (s *StatusBar) Update(msg tea.Msg) tea.Cmd {
	if !s.loading {
		return nil
	}
	var cmd tea.Cmd
	s.spinner, cmd = s.spinner.Update(msg)
	return cmd
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := s.palette

	modeStyle := lipgloss.NewStyle().
		Bold(true).
		Padding(0, 1).
		Foreground(t.Background)

	switch s.phase {
	case "ready":
		modeStyle = modeStyle.Background(t.Primary)
	case "loading", "transitioning":
		modeStyle = modeStyle.Background(t.Warning)
	case "preloading":
		modeStyle = modeStyle.Background(t.Secondary)
	case "error":
		modeStyle = modeStyle.Background(t.Error)
	default:
		modeStyle = modeStyle.Background(t.TextDim)
	}
	mode := modeStyle.Render(s.phase)

	barStyle := lipgloss.NewStyle().
		Foreground(t.Text).
		Background(t.Surface)

	// Left side: spinner, message or chapter.
	var left string
	switch {
	case s.message != "":
		fg := t.Info
		if s.isError {
			fg = t.Error
		}
		left = lipgloss.NewStyle().
			Foreground(fg).
			Background(t.Surface).
			Padding(0, 1).
			Render(s.message)
	case s.loading:
		left = lipgloss.NewStyle().
			Foreground(t.Warning).
			Background(t.Surface).
			Bold(true).
			Padding(0, 1).
			Render(s.spinner.View() + " Loading...")
	case s.chapter != "":
		left = lipgloss.NewStyle().
			Foreground(t.Text).
			Background(t.Surface).
			Padding(0, 1).
			Render(s.chapter)
	}

	rightStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface).
		Padding(0, 1)

	var right string
	if s.zoom != 1 {
		right += rightStyle.Render(fmt.Sprintf("%.1fx", s.zoom))
	}
	if s.vertical {
		right += rightStyle.Render("scroll")
	}
	if s.maxPage > 0 {
		right += rightStyle.Render(fmt.Sprintf("p%d/%d", s.page, s.maxPage))
	}
	right += lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Secondary).
		Background(t.Surface).
		Padding(0, 1).
		Render(fmt.Sprintf("%d%%", int(s.percent)))

	spacerWidth := max(s.width-lipgloss.Width(mode)-lipgloss.Width(left)-lipgloss.Width(right), 0)
	spacer := lipgloss.NewStyle().
		Background(t.Surface).
		Render(fmt.Sprintf("%*s", spacerWidth, ""))

	return barStyle.Render(mode + left + spacer + right)
}
