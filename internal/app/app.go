// Package app is the terminal front end: a bubbletea model that drives one
// reader session and renders its snapshots.
package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/vidyasagar/yamireader/internal/paginate"
	"github.com/vidyasagar/yamireader/internal/reader"
	"github.com/vidyasagar/yamireader/internal/storage"
	"github.com/vidyasagar/yamireader/internal/theme"
	"github.com/vidyasagar/yamireader/internal/ui"
)

// Session is the part of a reader session the model drives.
type Session interface {
	Open(threadID string, vp paginate.Viewport) error
	Subscribe() (<-chan reader.State, func())
	Settle(index int)
	SetPage(page int, force bool) error
	NextPage() error
	PrevPage() error
	Retry() error
	JumpToChapter(i int) (int, error)
	ToggleChapterDrawer(show bool)
	Transform(panX, panY, zoom float64)

	ReapplyLayout(t paginate.Typography, anchor int) error
	ApplySettings(set storage.ReaderSettings, anchor int) error
	SetFontSize(size float64, anchor int) error
	SetLineHeight(h float64, anchor int) error
	SetPadding(p float64, anchor int) error
	SetLetterSpacing(ls float64, anchor int) error
	SetMode(m paginate.Mode, anchor int) error
	Resize(vp paginate.Viewport, anchor int) error
	SetNightMode(on bool)
	SetBackgroundColor(color string)
	SetLoadImages(on bool) error
}

const (
	fontStep       = 2.0
	minFontSize    = 12.0
	lineHeightStep = 4.0
	zoomStep       = 1.25
)

// Model is the top-level bubbletea model.
type Model struct {
	session  Session
	threadID string
	log      *zap.Logger

	sub       <-chan reader.State
	cancelSub func()
	state     reader.State
	version   uint64
	opened    bool

	pageView   ui.PageView
	statusBar  ui.StatusBar
	drawer     ui.ChapterDrawer
	help       ui.HelpPanel
	commandBar ui.CommandBar

	keys   KeyMap
	width  int
	height int
	ready  bool
}

// stateMsg carries a session snapshot.
type stateMsg struct {
	state reader.State
}

// closedMsg is sent once the session's snapshot channel is closed.
type closedMsg struct{}

// New creates a model reading threadID. The thread is opened once the
// terminal size is known.
func New(session Session, threadID string, log *zap.Logger) Model {
	if log == nil {
		log = zap.NewNop()
	}
	keys := DefaultKeyMap()
	sub, cancel := session.Subscribe()
	return Model{
		session:    session,
		threadID:   threadID,
		log:        log.Named("app"),
		sub:        sub,
		cancelSub:  cancel,
		pageView:   ui.NewPageView(),
		statusBar:  ui.NewStatusBar(),
		drawer:     ui.NewChapterDrawer(),
		help:       ui.NewHelpPanel(keys.HelpGroups()),
		commandBar: ui.NewCommandBar(),
		keys:       keys,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return waitForState(m.sub)
}

func waitForState(sub <-chan reader.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-sub
		if !ok {
			return closedMsg{}
		}
		return stateMsg{state: st}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.layout()
		vp := ui.ViewportFor(m.pageWidth(), m.pageHeight())
		if !m.opened {
			m.opened = true
			m.report(m.session.Open(m.threadID, vp))
		} else {
			m.report(m.session.Resize(vp, m.state.Index))
		}
		return m, nil

	case stateMsg:
		cmd := m.apply(msg.state)
		return m, tea.Batch(cmd, waitForState(m.sub))

	case closedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		return m, m.statusBar.Update(msg)

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	if m.commandBar.IsActive() {
		_, cmd := m.commandBar.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "\n  Loading yamireader..."
	}

	bottom := m.statusBar.View()
	if m.commandBar.IsActive() {
		bottom = m.commandBar.View()
	}
	result := lipgloss.JoinVertical(lipgloss.Left, m.pageView.View(), bottom)

	// Overlays: chapter drawer or key help.
	var overlay string
	switch {
	case m.help.IsVisible():
		overlay = m.help.View()
	case m.drawer.IsVisible():
		overlay = m.drawer.View()
	}
	if overlay != "" {
		result = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, overlay,
			lipgloss.WithWhitespaceChars(" "),
		)
	}
	return result
}

// layout recalculates dimensions for all components.
func (m *Model) layout() {
	m.statusBar.SetWidth(m.width)
	m.commandBar.SetWidth(m.width)
	m.pageView.SetSize(m.pageWidth(), m.pageHeight())
	m.drawer.SetSize(max(m.width*40/100, 24), max(m.height*70/100, 8))
}

func (m *Model) pageWidth() int {
	return max(m.width, 1)
}

// pageHeight leaves one line for the status or command bar.
func (m *Model) pageHeight() int {
	return max(m.height-1, 1)
}

// apply renders a snapshot. A newly installed sequence is shown at its
// target; a pending transition is completed by settling there.
func (m *Model) apply(st reader.State) tea.Cmd {
	m.state = st
	m.applyTheme()

	m.pageView.SetSequence(st.Units, st.Config)
	if st.Version != m.version {
		m.version = st.Version
		m.pageView.Show(st.Target)
	}
	switch {
	case st.Err != nil:
		m.pageView.SetNotice(fmt.Sprintf("  %s\n\n  Press r to retry.", st.Err))
		m.statusBar.SetError(st.Err.Error())
	case len(st.Units) == 0:
		m.pageView.SetNotice(fmt.Sprintf("  Loading page %d...", max(st.Page, 1)))
		m.statusBar.SetMessage("")
	default:
		m.statusBar.SetMessage("")
	}

	m.statusBar.SetPhase(st.Phase.String())
	m.statusBar.SetChapter(st.Chapter())
	m.statusBar.SetPage(st.Page, st.MaxPage)
	m.statusBar.SetPercent(st.Percent)
	m.statusBar.SetZoom(st.Zoom.Scale)
	m.statusBar.SetVertical(st.Config.Mode == paginate.Vertical)
	cmd := m.statusBar.SetLoading(st.Loading || st.Preloading)

	current := -1
	if title := st.Chapter(); title != "" {
		for i, c := range st.Chapters {
			if c.Title == title {
				current = i
				break
			}
		}
	}
	m.drawer.SetChapters(st.Chapters, current)
	m.commandBar.SetCompleter(completions(st))
	switch {
	case st.ChapterDrawer && !m.drawer.IsVisible():
		m.drawer.Show()
	case !st.ChapterDrawer && m.drawer.IsVisible():
		m.drawer.Hide()
	}

	if st.Transitioning && st.Phase != reader.PhaseLoading && len(st.Units) > 0 {
		m.session.Settle(st.Target)
	}
	return cmd
}

func (m *Model) applyTheme() {
	t := theme.Resolve(m.state.Settings.NightMode, m.state.Settings.BackgroundColor)
	m.pageView.SetTheme(t)
	m.statusBar.SetTheme(t)
	m.drawer.SetTheme(t, m.state.Settings.NightMode || t.Name == "nord")
	m.help.SetTheme(t)
	m.commandBar.SetTheme(t)
}

// report shows a failed operation in the status bar.
func (m *Model) report(err error) {
	if err == nil {
		return
	}
	m.log.Warn("operation failed", zap.Error(err))
	m.statusBar.SetError(err.Error())
}

// move shows index and reports it to the session as the settled position.
func (m *Model) move(index int) {
	m.pageView.Show(index)
	m.session.Settle(m.pageView.Index())
}

// handleKeyMsg dispatches keys to the active panel.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	switch {
	case m.commandBar.IsActive():
		return m.handleCommandMode(msg)
	case m.help.IsVisible():
		if key.Matches(msg, m.keys.Help, m.keys.Close) {
			m.help.Hide()
		}
		return m, nil
	case m.drawer.IsVisible():
		return m.handleDrawerMode(msg)
	default:
		return m.handleNormalMode(msg)
	}
}

// handleNormalMode processes keys while reading.
func (m Model) handleNormalMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	st := m.state
	anchor := st.Index

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.NextUnit):
		m.move(m.pageView.Step(1, true))
	case key.Matches(msg, m.keys.PrevUnit):
		m.move(m.pageView.Step(-1, true))
	case key.Matches(msg, m.keys.LineDown):
		m.move(m.pageView.Step(1, false))
	case key.Matches(msg, m.keys.LineUp):
		m.move(m.pageView.Step(-1, false))
	case key.Matches(msg, m.keys.GotoTop):
		m.move(0)
	case key.Matches(msg, m.keys.GotoEnd):
		m.move(m.pageView.Len() - 1)

	case key.Matches(msg, m.keys.NextPage):
		m.report(m.session.NextPage())
	case key.Matches(msg, m.keys.PrevPage):
		m.report(m.session.PrevPage())
	case key.Matches(msg, m.keys.Retry):
		m.report(m.session.Retry())

	case key.Matches(msg, m.keys.FontUp):
		m.report(m.session.SetFontSize(st.Settings.FontSize+fontStep, anchor))
	case key.Matches(msg, m.keys.FontDown):
		m.report(m.session.SetFontSize(max(st.Settings.FontSize-fontStep, minFontSize), anchor))
	case key.Matches(msg, m.keys.LineHeightUp):
		m.report(m.session.SetLineHeight(st.Settings.LineHeight+lineHeightStep, anchor))
	case key.Matches(msg, m.keys.LineHeightDn):
		m.report(m.session.SetLineHeight(st.Settings.LineHeight-lineHeightStep, anchor))
	case key.Matches(msg, m.keys.ToggleMode):
		mode := paginate.Vertical
		if st.Config.Mode == paginate.Vertical {
			mode = paginate.Horizontal
		}
		m.report(m.session.SetMode(mode, anchor))

	case key.Matches(msg, m.keys.ToggleImages):
		m.report(m.session.SetLoadImages(!st.Settings.LoadImages))
	case key.Matches(msg, m.keys.ToggleNight):
		m.session.SetNightMode(!st.Settings.NightMode)
	case key.Matches(msg, m.keys.ZoomIn):
		m.session.Transform(0, 0, zoomStep)
	case key.Matches(msg, m.keys.ZoomOut):
		m.session.Transform(0, 0, 1/zoomStep)
	case key.Matches(msg, m.keys.CycleTheme):
		m.cycleTheme()

	case key.Matches(msg, m.keys.Chapters):
		m.session.ToggleChapterDrawer(true)
	case key.Matches(msg, m.keys.CommandMode):
		return m, m.commandBar.Open()
	case key.Matches(msg, m.keys.Help):
		m.help.Toggle()
	}
	return m, nil
}

// handleDrawerMode processes keys while the chapter drawer is open.
func (m Model) handleDrawerMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.LineDown):
		m.drawer.CursorDown()
	case key.Matches(msg, m.keys.LineUp):
		m.drawer.CursorUp()
	case key.Matches(msg, m.keys.GotoTop):
		m.drawer.GotoTop()
	case key.Matches(msg, m.keys.GotoEnd):
		m.drawer.GotoBottom()
	case key.Matches(msg, m.keys.Select):
		if i := m.drawer.Selected(); i >= 0 {
			idx, err := m.session.JumpToChapter(i)
			if err != nil {
				m.report(err)
				break
			}
			m.drawer.Hide()
			m.pageView.Show(idx)
		}
	case key.Matches(msg, m.keys.Close, m.keys.Chapters):
		m.drawer.Hide()
		m.session.ToggleChapterDrawer(false)
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// handleCommandMode processes keys while the command bar is open.
func (m Model) handleCommandMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyEnter {
		return m.executeCommand(m.commandBar.Submit())
	}
	_, cmd := m.commandBar.Update(msg)
	return m, cmd
}

var errUsage = errors.New("usage")

// executeCommand runs an ex command.
func (m Model) executeCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return m, nil
	}
	m.log.Debug("command", zap.String("line", line))

	st := m.state
	anchor := st.Index
	name, args := fields[0], fields[1:]

	num := func(i int) (float64, error) {
		if i >= len(args) {
			return 0, fmt.Errorf("%s: %w: missing argument", name, errUsage)
		}
		v, err := strconv.ParseFloat(args[i], 64)
		if err != nil {
			return 0, fmt.Errorf("%s: %w: %q is not a number", name, errUsage, args[i])
		}
		return v, nil
	}

	var err error
	switch name {
	case "q", "quit":
		return m, tea.Quit
	case "page", "p":
		var n float64
		if n, err = num(0); err == nil {
			err = m.session.SetPage(int(n), false)
		}
	case "reload":
		err = m.session.SetPage(max(st.Page, 1), true)
	case "chapter", "ch":
		var n float64
		if n, err = num(0); err == nil {
			var idx int
			if idx, err = m.session.JumpToChapter(int(n) - 1); err == nil {
				m.pageView.Show(idx)
			}
		}
	case "font":
		var v float64
		if v, err = num(0); err == nil {
			err = m.session.SetFontSize(v, anchor)
		}
	case "line":
		var v float64
		if v, err = num(0); err == nil {
			err = m.session.SetLineHeight(v, anchor)
		}
	case "pad":
		var v float64
		if v, err = num(0); err == nil {
			err = m.session.SetPadding(v, anchor)
		}
	case "spacing":
		var v float64
		if v, err = num(0); err == nil {
			err = m.session.SetLetterSpacing(v, anchor)
		}
	case "preview":
		// Try typography without saving it.
		var size float64
		if size, err = num(0); err == nil {
			t := st.Config.Typography.WithFontSize(size)
			if len(args) > 1 {
				var h float64
				if h, err = num(1); err != nil {
					break
				}
				t = t.WithLineHeight(h)
			}
			err = m.session.ReapplyLayout(t, anchor)
		}
	case "reset":
		set := storage.DefaultReaderSettings()
		set.LoadImages = st.Settings.LoadImages
		set.VerticalMode = st.Settings.VerticalMode
		err = m.session.ApplySettings(set, anchor)
	case "bg":
		color := ""
		if len(args) > 0 {
			if _, ok := theme.ParseColor(args[0]); !ok {
				err = fmt.Errorf("bg: %w: %q is not #RRGGBB or #AARRGGBB", errUsage, args[0])
				break
			}
			color = args[0]
		}
		m.session.SetBackgroundColor(color)
	case "theme":
		if len(args) == 0 || !theme.Set(args[0]) {
			err = fmt.Errorf("theme: choose one of %s", strings.Join(theme.List(), ", "))
			break
		}
		m.applyTheme()
		m.statusBar.SetMessage("Theme: " + args[0])
	default:
		err = fmt.Errorf("unknown command %q", name)
	}
	m.report(err)
	return m, nil
}

// cycleTheme switches to the next available theme.
func (m *Model) cycleTheme() {
	names := theme.List()
	next := names[0]
	for i, n := range names {
		if n == theme.Current.Name {
			next = names[(i+1)%len(names)]
			break
		}
	}
	theme.Set(next)
	m.applyTheme()
	m.statusBar.SetMessage(fmt.Sprintf("Theme: %s", next))
}

// Close stops receiving snapshots.
func (m Model) Close() {
	if m.cancelSub != nil {
		m.cancelSub()
	}
}

var commandNames = []string{
	"bg", "chapter", "font", "line", "pad", "page", "preview", "quit", "reload", "reset", "spacing", "theme",
}

// completions offers command names, then arguments drawn from st: page
// numbers, chapter numbers and theme names.
func completions(st reader.State) ui.Completer {
	return func(line string) []string {
		name, _, hasArg := strings.Cut(line, " ")
		if !hasArg {
			return commandNames
		}

		var args []string
		switch name {
		case "page", "p":
			for i := 1; i <= max(st.MaxPage, 1); i++ {
				args = append(args, strconv.Itoa(i))
			}
		case "chapter", "ch":
			for i := range st.Chapters {
				args = append(args, strconv.Itoa(i+1))
			}
		case "theme":
			args = theme.List()
		}
		out := make([]string, len(args))
		for i, a := range args {
			out[i] = name + " " + a
		}
		return out
	}
}
