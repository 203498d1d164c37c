package ui

import (
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/yamireader/internal/content"
	"github.com/vidyasagar/yamireader/internal/theme"
)

// Cached glamour renderer, rebuilt only when the width or style changes.
var (
	cachedRenderer      *glamour.TermRenderer
	cachedRendererWidth int
	cachedRendererStyle string
	rendererMu          sync.Mutex
)

// ChapterDrawer lists the chapters of the displayed page with vim navigation.
type ChapterDrawer struct {
	chapters []content.ChapterMark
	current  int // chapter containing the reading position
	cursor   int
	offset   int // scroll offset for visible window
	width    int
	height   int
	visible  bool
	palette  theme.Theme
	dark     bool
}

// NewChapterDrawer creates a hidden chapter drawer.
func NewChapterDrawer() ChapterDrawer {
	return ChapterDrawer{palette: theme.Current}
}

// SetChapters updates the chapter list and the chapter being read.
func (cd *ChapterDrawer) SetChapters(chapters []content.ChapterMark, current int) {
	cd.chapters = chapters
	cd.current = current
	if cd.cursor >= len(chapters) {
		cd.cursor = max(len(chapters)-1, 0)
	}
	cd.ensureVisible()
}

// SetSize updates the drawer dimensions.
func (cd *ChapterDrawer) SetSize(w, h int) {
	cd.width = w
	cd.height = h
	cd.ensureVisible()
}

// SetTheme changes the palette; dark selects the glamour dark style.
func (cd *ChapterDrawer) SetTheme(t theme.Theme, dark bool) {
	cd.palette = t
	cd.dark = dark
}

// Show makes the drawer visible with the cursor on the current chapter.
func (cd *ChapterDrawer) Show() {
	cd.visible = true
	cd.cursor = max(min(cd.current, len(cd.chapters)-1), 0)
	cd.offset = 0
	cd.ensureVisible()
}

// Hide closes the drawer.
func (cd *ChapterDrawer) Hide() {
	cd.visible = false
}

// IsVisible reports whether the drawer is shown.
func (cd *ChapterDrawer) IsVisible() bool {
	return cd.visible
}

// CursorUp moves the cursor up one chapter.
func (cd *ChapterDrawer) CursorUp() {
	if cd.cursor > 0 {
		cd.cursor--
		cd.ensureVisible()
	}
}

// CursorDown moves the cursor down one chapter.
func (cd *ChapterDrawer) CursorDown() {
	if cd.cursor < len(cd.chapters)-1 {
		cd.cursor++
		cd.ensureVisible()
	}
}

// GotoTop moves to the first chapter.
func (cd *ChapterDrawer) GotoTop() {
	cd.cursor = 0
	cd.offset = 0
}

// GotoBottom moves to the last chapter.
func (cd *ChapterDrawer) GotoBottom() {
	if len(cd.chapters) > 0 {
		cd.cursor = len(cd.chapters) - 1
		cd.ensureVisible()
	}
}

// Selected returns the chapter index under the cursor, or -1 if empty.
func (cd *ChapterDrawer) Selected() int {
	if len(cd.chapters) == 0 {
		return -1
	}
	return cd.cursor
}

// visibleCount returns how many chapters fit, leaving room for the header
// and glamour's margins.
func (cd *ChapterDrawer) visibleCount() int {
	return max(cd.height-5, 1)
}

// ensureVisible adjusts offset so the cursor is within the visible window.
func (cd *ChapterDrawer) ensureVisible() {
	visible := cd.visibleCount()
	if cd.cursor < cd.offset {
		cd.offset = cd.cursor
	}
	if cd.cursor >= cd.offset+visible {
		cd.offset = cd.cursor - visible + 1
	}
	if cd.offset < 0 {
		cd.offset = 0
	}
}

// Markdown returns the visible part of the chapter list as markdown.
func (cd *ChapterDrawer) Markdown() string {
	var sb strings.Builder
	sb.WriteString("## Chapters\n\n")
	if len(cd.chapters) == 0 {
		sb.WriteString("*No chapters on this page.*\n")
		return sb.String()
	}

	end := min(cd.offset+cd.visibleCount(), len(cd.chapters))
	for i := cd.offset; i < end; i++ {
		title := escapeMarkdown(cd.chapters[i].Title)
		switch {
		case i == cd.cursor:
			fmt.Fprintf(&sb, "- **▸ %s**\n", title)
		case i == cd.current:
			fmt.Fprintf(&sb, "- *%s*\n", title)
		default:
			fmt.Fprintf(&sb, "- %s\n", title)
		}
	}
	return sb.String()
}

// View renders the drawer.
func (cd *ChapterDrawer) View() string {
	if !cd.visible {
		return ""
	}

	style := "light"
	if cd.dark {
		style = "dark"
	}
	out, err := renderMarkdown(cd.Markdown(), max(cd.width-2, 10), style)
	if err != nil {
		out = cd.Markdown()
	}

	hint := lipgloss.NewStyle().
		Foreground(cd.palette.TextDim).
		Italic(true).
		Padding(0, 1).
		Render("j/k:move  Enter:jump  Esc:close")

	return lipgloss.NewStyle().
		Width(cd.width).
		Height(cd.height).
		Background(cd.palette.Surface).
		Render(strings.TrimRight(out, "\n") + "\n" + hint)
}

// renderMarkdown renders markdown with a cached glamour renderer.
func renderMarkdown(markdown string, width int, style string) (string, error) {
	rendererMu.Lock()
	defer rendererMu.Unlock()

	if cachedRenderer == nil || cachedRendererWidth != width || cachedRendererStyle != style {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return "", err
		}
		cachedRenderer = renderer
		cachedRendererWidth = width
		cachedRendererStyle = style
	}
	return cachedRenderer.Render(markdown)
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`, `*`, `\*`, `_`, `\_`, "`", "\\`", `[`, `\[`, `]`, `\]`, `#`, `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
