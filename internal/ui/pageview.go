package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/vidyasagar/yamireader/internal/content"
	"github.com/vidyasagar/yamireader/internal/paginate"
	"github.com/vidyasagar/yamireader/internal/theme"
)

// CellWidth is the pixel-equivalent width of one terminal cell at the default
// font size. Wide glyphs take two cells.
const CellWidth = paginate.DefaultFontSize / 2

// ViewportFor maps a terminal area to the pagination viewport, so that the
// default typography yields one row of text per terminal line.
func ViewportFor(cols, rows int) paginate.Viewport {
	return paginate.NewViewport(
		float64(cols)*CellWidth,
		float64(rows)*paginate.DefaultLineHeight+paginate.DefaultTopInset+paginate.DefaultFooterInset,
	)
}

// PageView shows one page of a paginated sequence, or a window of lines in
// vertical mode, on top of bubbles/viewport.
type PageView struct {
	viewport viewport.Model
	ready    bool

	units []content.DisplayUnit
	cfg   paginate.Config
	index int

	palette theme.Theme
	notice  string
}

// NewPageView creates a page view (dimensions set on first WindowSizeMsg).
func NewPageView() PageView {
	return PageView{palette: theme.Current}
}

// SetSize updates the view dimensions.
func (pv *PageView) SetSize(width, height int) {
	if !pv.ready {
		pv.viewport = viewport.New(width, height)
		pv.viewport.MouseWheelEnabled = false
		pv.ready = true
	} else {
		pv.viewport.Width = width
		pv.viewport.Height = height
	}
	pv.refresh()
}

// SetTheme changes the palette used for the page.
func (pv *PageView) SetTheme(t theme.Theme) {
	pv.palette = t
	pv.refresh()
}

// SetSequence replaces the displayed sequence and the config it was laid
// out with.
func (pv *PageView) SetSequence(units []content.DisplayUnit, cfg paginate.Config) {
	pv.units = units
	pv.cfg = cfg
	pv.index = paginate.Clamp(pv.index, len(units))
	pv.refresh()
}

// SetNotice shows a message instead of content while the sequence is empty.
func (pv *PageView) SetNotice(s string) {
	pv.notice = s
	pv.refresh()
}

// Show moves to index, clamped into the sequence.
func (pv *PageView) Show(index int) {
	pv.index = paginate.Clamp(index, len(pv.units))
	pv.refresh()
}

// Index returns the displayed index.
func (pv *PageView) Index() int {
	return pv.index
}

// Len returns the number of units in the sequence.
func (pv *PageView) Len() int {
	return len(pv.units)
}

// Step returns the index count moves away from the current one. In vertical
// mode a step of one page scrolls by the visible height.
func (pv *PageView) Step(count int, byPage bool) int {
	if byPage && pv.cfg.Mode == paginate.Vertical && pv.ready {
		count *= max(pv.viewport.Height, 1)
	}
	return paginate.Clamp(pv.index+count, len(pv.units))
}

// Ready reports whether the view has been initialized.
func (pv *PageView) Ready() bool {
	return pv.ready
}

// View renders the page.
func (pv *PageView) View() string {
	if !pv.ready {
		return "\n  Initializing..."
	}
	return pv.viewport.View()
}

func (pv *PageView) refresh() {
	if !pv.ready {
		return
	}
	style := lipgloss.NewStyle().
		Foreground(pv.palette.Text).
		Background(pv.palette.Background).
		Width(pv.viewport.Width).
		PaddingLeft(pv.padCells())
	pv.viewport.Style = lipgloss.NewStyle().Background(pv.palette.Background)

	if len(pv.units) == 0 {
		pv.viewport.SetContent(style.Render("\n" + pv.notice))
		pv.viewport.GotoTop()
		return
	}

	if pv.cfg.Mode == paginate.Vertical {
		rows := make([]string, len(pv.units))
		for i, u := range pv.units {
			rows[i] = pv.renderRow(u)
		}
		pv.viewport.SetContent(style.Render(strings.Join(rows, "\n")))
		pv.viewport.SetYOffset(pv.index)
		return
	}

	pv.viewport.SetContent(style.Render(pv.renderPage(pv.units[pv.index])))
	pv.viewport.GotoTop()
}

func (pv *PageView) padCells() int {
	return int(pv.cfg.Typography.Padding / CellWidth)
}

// renderPage renders one horizontal page. Text is re-wrapped with the same
// measurement that paginated it so soft breaks land where the engine put them.
func (pv *PageView) renderPage(u content.DisplayUnit) string {
	switch {
	case u.IsFooter():
		return pv.renderFooter(u)
	case u.Kind == content.KindImage:
		return pv.renderImage(u)
	}
	lines := paginate.WrapLines(u.Payload, pv.cfg.ContentWidth(), pv.cfg.Typography)
	return strings.Join(lines, "\n")
}

func (pv *PageView) renderRow(u content.DisplayUnit) string {
	switch {
	case u.IsFooter():
		return pv.renderFooter(u)
	case u.Kind == content.KindImage:
		return pv.renderImage(u)
	}
	return u.Payload
}

func (pv *PageView) renderImage(u content.DisplayUnit) string {
	return lipgloss.NewStyle().
		Foreground(pv.palette.Image).
		Underline(true).
		Render(fmt.Sprintf("[image] %s", u.Payload))
}

func (pv *PageView) renderFooter(u content.DisplayUnit) string {
	return lipgloss.NewStyle().
		Foreground(pv.palette.TextDim).
		Italic(true).
		Render(u.Status.Text())
}
