package app

import (
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vidyasagar/yamireader/internal/content"
	"github.com/vidyasagar/yamireader/internal/paginate"
	"github.com/vidyasagar/yamireader/internal/reader"
	"github.com/vidyasagar/yamireader/internal/storage"
	"github.com/vidyasagar/yamireader/internal/ui"
)

// fakeSession records the calls made by the model.
type fakeSession struct {
	calls  []string
	openVP paginate.Viewport
	ch     chan reader.State
}

func newFakeSession() *fakeSession {
	return &fakeSession{ch: make(chan reader.State, 1)}
}

func (f *fakeSession) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeSession) Open(threadID string, vp paginate.Viewport) error {
	f.openVP = vp
	f.record("open %s", threadID)
	return nil
}

func (f *fakeSession) Subscribe() (<-chan reader.State, func()) {
	return f.ch, func() {}
}

func (f *fakeSession) Settle(index int)                   { f.record("settle %d", index) }
func (f *fakeSession) SetPage(page int, force bool) error { f.record("page %d %v", page, force); return nil }
func (f *fakeSession) NextPage() error                    { f.record("next"); return nil }
func (f *fakeSession) PrevPage() error                    { f.record("prev"); return nil }
func (f *fakeSession) Retry() error                       { f.record("retry"); return nil }
func (f *fakeSession) JumpToChapter(i int) (int, error) {
	f.record("chapter %d", i)
	return i * 10, nil
}
func (f *fakeSession) ToggleChapterDrawer(show bool)      { f.record("drawer %v", show) }
func (f *fakeSession) Transform(panX, panY, zoom float64) { f.record("zoom %.2f", zoom) }
func (f *fakeSession) ReapplyLayout(t paginate.Typography, anchor int) error {
	f.record("reapply %.0f/%.0f @%d", t.FontSize, t.LineHeight, anchor)
	return nil
}
func (f *fakeSession) ApplySettings(set storage.ReaderSettings, anchor int) error {
	f.record("apply %.0f @%d", set.FontSize, anchor)
	return nil
}
func (f *fakeSession) SetFontSize(size float64, anchor int) error {
	f.record("font %.0f @%d", size, anchor)
	return nil
}
func (f *fakeSession) SetLineHeight(h float64, anchor int) error {
	f.record("line %.0f @%d", h, anchor)
	return nil
}
func (f *fakeSession) SetPadding(p float64, anchor int) error {
	f.record("pad %.0f @%d", p, anchor)
	return nil
}
func (f *fakeSession) SetLetterSpacing(ls float64, anchor int) error {
	f.record("spacing %.0f @%d", ls, anchor)
	return nil
}
func (f *fakeSession) SetMode(m paginate.Mode, anchor int) error {
	f.record("mode %s @%d", m, anchor)
	return nil
}
func (f *fakeSession) Resize(vp paginate.Viewport, anchor int) error {
	f.record("resize %.0fx%.0f @%d", vp.Width, vp.Height, anchor)
	return nil
}
func (f *fakeSession) SetNightMode(on bool)            { f.record("night %v", on) }
func (f *fakeSession) SetBackgroundColor(color string) { f.record("bg %s", color) }
func (f *fakeSession) SetLoadImages(on bool) error     { f.record("images %v", on); return nil }

func (f *fakeSession) reset() { f.calls = nil }

func testState() reader.State {
	units := make([]content.DisplayUnit, 0, 11)
	for i := 0; i < 10; i++ {
		units = append(units, content.DisplayUnit{Kind: content.KindText, Payload: fmt.Sprintf("page %d", i), Chapter: "A"})
	}
	units = append(units, content.NewFooter(content.FooterNone))
	return reader.State{
		Phase:         reader.PhaseTransitioning,
		ThreadID:      "forum.php?mod=viewthread&tid=1",
		Page:          1,
		MaxPage:       3,
		Config:        paginate.Config{Viewport: ui.ViewportFor(80, 23), Typography: paginate.DefaultTypography()},
		Settings:      storage.DefaultReaderSettings(),
		Units:         units,
		Chapters:      paginate.BuildChapters(units),
		Version:       1,
		Index:         3,
		Target:        3,
		Transitioning: true,
		Zoom:          reader.Identity,
	}
}

func start(t *testing.T) (Model, *fakeSession) {
	t.Helper()
	fs := newFakeSession()
	m := New(fs, "forum.php?mod=viewthread&tid=1", zaptest.NewLogger(t))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(Model)
	require.Equal(t, []string{"open forum.php?mod=viewthread&tid=1"}, fs.calls)
	assert.Equal(t, ui.ViewportFor(80, 23), fs.openVP)

	next, _ = m.Update(stateMsg{state: testState()})
	return next.(Model), fs
}

func press(m Model, keys string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return next.(Model)
}

func TestModelSettlesNewSequenceAtTarget(t *testing.T) {
	m, fs := start(t)
	assert.Equal(t, []string{"open forum.php?mod=viewthread&tid=1", "settle 3"}, fs.calls)
	assert.Equal(t, 3, m.pageView.Index())
	assert.Contains(t, m.View(), "page 3")

	// The same version does not move the view again.
	fs.reset()
	st := testState()
	st.Transitioning = false
	st.Phase = reader.PhaseReady
	st.Index = 5
	next, _ := m.Update(stateMsg{state: st})
	m = next.(Model)
	assert.Empty(t, fs.calls)
	assert.Equal(t, 3, m.pageView.Index())
}

func TestModelNavigationKeys(t *testing.T) {
	m, fs := start(t)
	fs.reset()

	m = press(m, "l")
	m = press(m, "h")
	m = press(m, "h")
	m = press(m, "G")
	m = press(m, "n")
	m = press(m, "p")
	m = press(m, "r")
	assert.Equal(t, []string{"settle 4", "settle 3", "settle 2", "settle 10", "next", "prev", "retry"}, fs.calls)
	assert.Equal(t, 10, m.pageView.Index())
}

func TestModelLayoutKeys(t *testing.T) {
	m, fs := start(t)
	fs.reset()

	m = press(m, "+")
	m = press(m, "]")
	m = press(m, "v")
	m = press(m, "i")
	m = press(m, "N")
	m = press(m, "z")
	press(m, "c")
	assert.Equal(t, []string{
		"font 26 @3",
		"line 47 @3",
		"mode vertical @3",
		"images true",
		"night true",
		"zoom 1.25",
		"drawer true",
	}, fs.calls)
}

func TestModelResize(t *testing.T) {
	m, fs := start(t)
	fs.reset()

	m.Update(tea.WindowSizeMsg{Width: 100, Height: 41})
	vp := ui.ViewportFor(100, 40)
	assert.Equal(t, []string{fmt.Sprintf("resize %.0fx%.0f @3", vp.Width, vp.Height)}, fs.calls)
}

func TestModelCommands(t *testing.T) {
	m, fs := start(t)

	tests := []struct {
		line string
		want []string
	}{
		{"page 2", []string{"page 2 false"}},
		{"reload", []string{"page 1 true"}},
		{"font 30", []string{"font 30 @3"}},
		{"line 50", []string{"line 50 @3"}},
		{"pad 8", []string{"pad 8 @3"}},
		{"spacing 2", []string{"spacing 2 @3"}},
		{"preview 30", []string{"reapply 30/45 @3"}},
		{"preview 20 60", []string{"reapply 20/60 @3"}},
		{"reset", []string{"apply 24 @3"}},
		{"bg #FFEEDD", []string{"bg #FFEEDD"}},
		{"bg", []string{"bg "}},
		{"bg nope", nil},
		{"font big", nil},
		{"chapter 1", []string{"chapter 0"}},
		{"bogus", nil},
	}
	for _, tt := range tests {
		fs.reset()
		next, _ := m.executeCommand(tt.line)
		m = next.(Model)
		assert.Equal(t, tt.want, fs.calls, tt.line)
	}
}

func TestModelDrawer(t *testing.T) {
	m, fs := start(t)

	st := testState()
	st.ChapterDrawer = true
	next, _ := m.Update(stateMsg{state: st})
	m = next.(Model)
	require.True(t, m.drawer.IsVisible())

	fs.reset()
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	assert.Equal(t, []string{"chapter 0"}, fs.calls)
	assert.False(t, m.drawer.IsVisible())
	assert.Equal(t, 0, m.pageView.Index())
}

func TestModelHelpOverlay(t *testing.T) {
	m, fs := start(t)
	fs.reset()

	m = press(m, "?")
	assert.True(t, m.help.IsVisible())
	assert.Contains(t, m.View(), "next thread page")

	// Keys other than dismiss are swallowed while help is shown.
	m = press(m, "n")
	assert.Empty(t, fs.calls)
	m = press(m, "?")
	assert.False(t, m.help.IsVisible())
}

func TestModelQuitsWhenSessionCloses(t *testing.T) {
	m, fs := start(t)
	close(fs.ch)

	msg := waitForState(fs.ch)()
	assert.IsType(t, closedMsg{}, msg)
	_, cmd := m.Update(msg)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestCommandCompletions(t *testing.T) {
	st := testState()
	st.Chapters = []content.ChapterMark{{Title: "A", StartIndex: 0}, {Title: "B", StartIndex: 5}}
	complete := completions(st)

	assert.Contains(t, complete(""), "chapter")
	assert.Equal(t, []string{"page 1", "page 2", "page 3"}, complete("page "))
	assert.Equal(t, []string{"ch 1", "ch 2"}, complete("ch "))
	assert.Contains(t, complete("theme s"), "theme sepia")
	assert.Empty(t, complete("font "))
}

func TestCommandBarCompletesFromState(t *testing.T) {
	m, _ := start(t)
	m = press(m, ":")
	require.True(t, m.commandBar.IsActive())

	m = press(m, "p")
	m = press(m, "a")
	m = press(m, "g")
	m = press(m, "e")
	m = press(m, " ")
	assert.Equal(t, []string{"page 1", "page 2", "page 3"}, m.commandBar.Matches())
}
