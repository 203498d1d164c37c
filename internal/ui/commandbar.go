package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/yamireader/internal/theme"
)

// Completer lists the complete command lines that may follow line.
type Completer func(line string) []string

// CommandBar reads ex commands with history recall and Tab completion.
type CommandBar struct {
	input      textinput.Model
	active     bool
	width      int
	history    []string
	historyPos int
	palette    theme.Theme

	complete Completer
	matches  []string
	matchPos int
}

// NewCommandBar creates a new command bar.
func NewCommandBar() CommandBar {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Prompt = ":"
	ti.Placeholder = "page 3, font 28, bg #F4ECD8..."
	ti.ShowSuggestions = true

	return CommandBar{
		input:      ti,
		historyPos: -1,
		palette:    theme.Current,
	}
}

// SetWidth sets the command bar width.
func (c *CommandBar) SetWidth(w int) {
	c.width = w
	c.input.Width = w - 4
}

// SetTheme changes the palette.
func (c *CommandBar) SetTheme(t theme.Theme) {
	c.palette = t
}

// SetCompleter sets the source of Tab completions. It takes effect on the
// next edit.
func (c *CommandBar) SetCompleter(f Completer) {
	c.complete = f
}

// Matches returns the candidates for the current input.
func (c *CommandBar) Matches() []string {
	return c.matches
}

func (c *CommandBar) refreshMatches() {
	c.matches, c.matchPos = nil, 0
	if c.complete == nil || !c.active {
		c.input.SetSuggestions(nil)
		return
	}
	line := c.input.Value()
	for _, cand := range c.complete(line) {
		if strings.HasPrefix(cand, line) && cand != line {
			c.matches = append(c.matches, cand)
		}
	}
	c.input.SetSuggestions(c.matches)
}

// cycle replaces the input with the next candidate, keeping the candidate
// list of the text that was typed.
func (c *CommandBar) cycle() {
	if len(c.matches) == 0 {
		return
	}
	val := c.matches[c.matchPos%len(c.matches)]
	c.matchPos++
	c.input.SetValue(val)
	c.input.SetCursor(len(val))
}

// Open activates the command bar.
func (c *CommandBar) Open() tea.Cmd {
	c.active = true
	c.input.Reset()
	c.historyPos = -1
	c.refreshMatches()
	return c.input.Focus()
}

// Close deactivates the command bar.
func (c *CommandBar) Close() {
	c.active = false
	c.input.Blur()
	c.input.Reset()
	c.refreshMatches()
}

// IsActive reports whether the command bar is open.
func (c *CommandBar) IsActive() bool {
	return c.active
}

// SetValue sets the text input value.
func (c *CommandBar) SetValue(val string) {
	c.input.SetValue(val)
	c.input.SetCursor(len(val))
	c.refreshMatches()
}

// Submit closes the bar and returns the entered command, recording it in
// the history.
func (c *CommandBar) Submit() string {
	val := strings.TrimSpace(c.input.Value())
	if val != "" {
		c.history = append(c.history, val)
	}
	c.Close()
	return val
}

// Update processes messages for the command bar.
func (c *CommandBar) Update(msg tea.Msg) (*CommandBar, tea.Cmd) {
	if !c.active {
		return c, nil
	}

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEsc:
			c.Close()
			return c, nil
		case tea.KeyEnter:
			// Handled by the parent to run the command.
			return c, nil
		case tea.KeyTab:
			c.cycle()
			return c, nil
		case tea.KeyUp:
			if len(c.history) > 0 {
				if c.historyPos < len(c.history)-1 {
					c.historyPos++
				}
				c.input.SetValue(c.history[len(c.history)-1-c.historyPos])
				c.refreshMatches()
			}
			return c, nil
		case tea.KeyDown:
			if c.historyPos > 0 {
				c.historyPos--
				c.input.SetValue(c.history[len(c.history)-1-c.historyPos])
			} else if c.historyPos == 0 {
				c.historyPos = -1
				c.input.Reset()
			}
			c.refreshMatches()
			return c, nil
		}
	}

	before := c.input.Value()
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	if c.input.Value() != before {
		c.refreshMatches()
	}
	return c, cmd
}

// View renders the command bar.
func (c *CommandBar) View() string {
	if !c.active {
		return ""
	}
	line := c.input.View()
	if n := len(c.matches); n > 1 {
		line += lipgloss.NewStyle().Foreground(c.palette.TextDim).Render(fmt.Sprintf("  (%d matches, Tab)", n))
	}
	return lipgloss.NewStyle().
		Foreground(c.palette.Text).
		Background(c.palette.Surface).
		Width(c.width).
		Render(line)
}
