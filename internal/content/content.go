// Package content defines the units a forum thread page is reduced to before and
// after pagination.
package content

// Unit is one atomic renderable item produced by the markup parser.
// It is either a Text or an Image.
type Unit interface {
	// Chapter returns the title of the source block the unit came from,
	// or "" when the block had none.
	Chapter() string
	isUnit()
}

// Text is a passage of plain text.
type Text struct {
	Body  string
	Title string
}

// Image is a picture referenced by URL.
type Image struct {
	URL   string
	Title string
}

func (t Text) Chapter() string  { return t.Title }
func (i Image) Chapter() string { return i.Title }

func (Text) isUnit()  {}
func (Image) isUnit() {}

// Kind tags a DisplayUnit's payload.
type Kind int

const (
	KindText Kind = iota
	KindImage
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	default:
		return "unknown"
	}
}

// FooterChapter is the chapter title carried by the trailing footer unit.
const FooterChapter = "footer"

// FooterStatus says what the trailing footer unit announces.
type FooterStatus int

const (
	// FooterNone marks a footer appended while a transition is in progress.
	FooterNone FooterStatus = iota
	FooterLoadingNext
	FooterNextReady
	FooterNoMore
)

// Text returns the status line shown on the footer page.
func (s FooterStatus) Text() string {
	switch s {
	case FooterLoadingNext:
		return "Loading next page..."
	case FooterNextReady:
		return "...next page"
	case FooterNoMore:
		return "...no more content"
	default:
		return ""
	}
}

// DisplayUnit is one paginated page (horizontal mode) or one wrapped line
// (vertical mode). Its position in the produced sequence is its index.
type DisplayUnit struct {
	Kind    Kind
	Payload string
	Chapter string

	// Footer is set only on the synthetic trailing unit.
	Footer bool
	Status FooterStatus
}

// IsFooter reports whether u is the synthetic trailing unit.
func (u DisplayUnit) IsFooter() bool {
	return u.Footer
}

// NewFooter builds the trailing unit for the given status.
func NewFooter(status FooterStatus) DisplayUnit {
	return DisplayUnit{
		Kind:    KindText,
		Payload: status.Text(),
		Chapter: FooterChapter,
		Footer:  true,
		Status:  status,
	}
}

// ChapterMark records where a chapter starts in a DisplayUnit sequence.
type ChapterMark struct {
	Title      string
	StartIndex int
}
