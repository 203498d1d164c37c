// Package paginate re-flows content units into display pages or lines for a
// given viewport and typography. Everything here is pure: no I/O and no
// session state.
package paginate

import "math"

// Mode selects how content is laid out.
type Mode int

const (
	// Horizontal lays content out as discrete pages turned one at a time.
	Horizontal Mode = iota
	// Vertical lays content out as wrapped lines in a continuous scroll.
	Vertical
)

func (m Mode) String() string {
	if m == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Defaults, in the same pixel-equivalent units as Viewport.
const (
	DefaultFontSize    = 24.0
	DefaultLineHeight  = 43.0
	DefaultPadding     = 16.0
	DefaultTopInset    = 24.0
	DefaultFooterInset = 50.0

	// MaxLineHeight bounds user-chosen line heights.
	MaxLineHeight = 100.0
	// MinLineHeightRatio is the smallest line height allowed per unit of font size.
	MinLineHeightRatio = 1.5
)

// Preload trigger distances, measured in display units of each mode.
const (
	HorizontalTrigger = 100
	VerticalTrigger   = 1000
)

// Viewport is the drawable area the content is laid out in.
type Viewport struct {
	Width       float64
	Height      float64
	TopInset    float64
	FooterInset float64
}

// NewViewport returns a viewport of the given size with the default insets.
func NewViewport(width, height float64) Viewport {
	return Viewport{
		Width:       width,
		Height:      height,
		TopInset:    DefaultTopInset,
		FooterInset: DefaultFooterInset,
	}
}

// Typography holds the text metrics used for measurement.
type Typography struct {
	FontSize      float64
	LineHeight    float64
	LetterSpacing float64
	Padding       float64
}

// DefaultTypography returns the settings used when nothing was persisted.
func DefaultTypography() Typography {
	return Typography{
		FontSize:   DefaultFontSize,
		LineHeight: DefaultLineHeight,
		Padding:    DefaultPadding,
	}
}

// WithFontSize sets the font size, raising the line height so it never drops
// below MinLineHeightRatio times the font size.
func (t Typography) WithFontSize(size float64) Typography {
	t.FontSize = size
	if lo := size * MinLineHeightRatio; t.LineHeight < lo {
		t.LineHeight = lo
	}
	return t
}

// WithLineHeight sets the line height clamped to [1.5×font size, MaxLineHeight].
func (t Typography) WithLineHeight(h float64) Typography {
	lo := t.FontSize * MinLineHeightRatio
	t.LineHeight = math.Max(lo, math.Min(h, MaxLineHeight))
	return t
}

// Config is everything pagination depends on besides the content itself.
type Config struct {
	Viewport   Viewport
	Typography Typography
	Mode       Mode
}

// ContentWidth is the horizontal space available to text.
func (c Config) ContentWidth() float64 {
	return c.Viewport.Width - 2*c.Typography.Padding
}

// ContentHeight is the vertical space available to one horizontal page.
func (c Config) ContentHeight() float64 {
	return c.Viewport.Height - c.Viewport.TopInset - c.Viewport.FooterInset
}

// RowsPerPage estimates how many lines fit on one horizontal page. Never less than 1.
func (c Config) RowsPerPage() int {
	if c.Typography.LineHeight <= 0 {
		return 1
	}
	rows := int(math.Floor(c.ContentHeight() / c.Typography.LineHeight))
	if rows < 1 {
		return 1
	}
	return rows
}

// PageFromRow converts a vertical row index into an equivalent page number.
func (c Config) PageFromRow(row int) int {
	if row <= 0 {
		return 0
	}
	return row / c.RowsPerPage()
}

// RowFromPage converts a page number back into an approximate row index.
func (c Config) RowFromPage(page int) int {
	if page <= 0 {
		return 0
	}
	return page * c.RowsPerPage()
}

// StoredFromIndex converts a display index into the page number persisted as
// reading progress. Lossy in vertical mode.
func (c Config) StoredFromIndex(index int) int {
	if c.Mode == Vertical {
		return c.PageFromRow(index)
	}
	return index
}

// IndexFromStored converts a persisted page number into a display index for the
// current mode.
func (c Config) IndexFromStored(page int) int {
	if c.Mode == Vertical {
		return c.RowFromPage(page)
	}
	return page
}

// TriggerDistance is how far before the end of a sequence preloading starts.
func TriggerDistance(m Mode) int {
	if m == Vertical {
		return VerticalTrigger
	}
	return HorizontalTrigger
}
