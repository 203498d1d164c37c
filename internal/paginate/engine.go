package paginate

import "github.com/vidyasagar/yamireader/internal/content"

// Continuation describes where a sequence sits relative to the network pages
// around it. It decides the footer message only.
type Continuation struct {
	Transitioning bool
	FromCache     bool
	PreloadReady  bool
	MorePages     bool
}

// Status picks the footer status. Order matters: a transition suppresses the
// message, then cache-sourced, preloaded and remaining pages are checked.
func (c Continuation) Status() content.FooterStatus {
	switch {
	case c.Transitioning:
		return content.FooterNone
	case c.FromCache:
		return content.FooterLoadingNext
	case c.PreloadReady:
		return content.FooterNextReady
	case c.MorePages:
		return content.FooterLoadingNext
	default:
		return content.FooterNoMore
	}
}

// Result is a paginated sequence plus its chapter index. Units always ends
// with exactly one footer unit.
type Result struct {
	Units    []content.DisplayUnit
	Chapters []content.ChapterMark
}

// Len returns the number of display units, footer included.
func (r Result) Len() int {
	return len(r.Units)
}

// Paginate lays units out under cfg and appends the footer chosen by cont.
func Paginate(units []content.Unit, cfg Config, cont Continuation) Result {
	return Finish(Layout(units, cfg), cont)
}

// Layout produces the display units for cfg without the footer.
func Layout(units []content.Unit, cfg Config) []content.DisplayUnit {
	var (
		out   []content.DisplayUnit
		width = cfg.ContentWidth()
		rows  = cfg.RowsPerPage()
	)

	for _, u := range units {
		switch u := u.(type) {
		case content.Text:
			if cfg.Mode == Vertical {
				out = appendLines(out, u, width, cfg.Typography)
			} else {
				out = appendPages(out, u, width, rows, cfg.Typography)
			}
		case content.Image:
			out = append(out, content.DisplayUnit{
				Kind:    content.KindImage,
				Payload: u.URL,
				Chapter: u.Title,
			})
		}
	}
	return out
}

func appendPages(out []content.DisplayUnit, u content.Text, width float64, rows int, t Typography) []content.DisplayUnit {
	spans := Wrap(u.Body, width, t)
	for i := 0; i < len(spans); i += rows {
		last := min(i+rows, len(spans)) - 1
		out = append(out, content.DisplayUnit{
			Kind:    content.KindText,
			Payload: u.Body[spans[i].Start:spans[last].End],
			Chapter: u.Title,
		})
	}
	return out
}

func appendLines(out []content.DisplayUnit, u content.Text, width float64, t Typography) []content.DisplayUnit {
	for _, line := range WrapLines(u.Body, width, t) {
		out = append(out, content.DisplayUnit{
			Kind:    content.KindText,
			Payload: line,
			Chapter: u.Title,
		})
	}
	return out
}

// Finish appends the footer for cont to body and builds the chapter index.
// body is not modified.
func Finish(body []content.DisplayUnit, cont Continuation) Result {
	units := make([]content.DisplayUnit, len(body), len(body)+1)
	copy(units, body)
	units = append(units, content.NewFooter(cont.Status()))
	return Result{
		Units:    units,
		Chapters: BuildChapters(units),
	}
}

// BuildChapters records a mark wherever the chapter title changes, skipping
// untitled units and the footer.
func BuildChapters(units []content.DisplayUnit) []content.ChapterMark {
	var (
		marks []content.ChapterMark
		last  string
		seen  = make(map[string]bool)
	)
	for i, u := range units {
		if u.IsFooter() || u.Chapter == "" || u.Chapter == content.FooterChapter || u.Chapter == last {
			continue
		}
		last = u.Chapter
		// A title that reappears later keeps its first start.
		if seen[u.Chapter] {
			continue
		}
		seen[u.Chapter] = true
		marks = append(marks, content.ChapterMark{Title: u.Chapter, StartIndex: i})
	}
	return marks
}

// ChapterOf returns the chapter title carried by the unit at index. The
// footer, untitled units and indices out of range yield "".
func ChapterOf(units []content.DisplayUnit, index int) string {
	if index < 0 || index >= len(units) || units[index].IsFooter() {
		return ""
	}
	return units[index].Chapter
}

// ChapterAt returns the mark of the chapter that contains index. Marks are
// deduplicated by title, so a title that reappears is reported as whichever
// chapter precedes it; use ChapterOf for the unit's own title.
func ChapterAt(marks []content.ChapterMark, index int) (content.ChapterMark, bool) {
	var (
		found content.ChapterMark
		ok    bool
	)
	for _, m := range marks {
		if m.StartIndex > index {
			break
		}
		found, ok = m, true
	}
	return found, ok
}

// FindChapter looks a chapter up by title.
func FindChapter(marks []content.ChapterMark, title string) (content.ChapterMark, bool) {
	for _, m := range marks {
		if m.Title == title {
			return m, true
		}
	}
	return content.ChapterMark{}, false
}

// Clamp forces index into [0, total-1]. total below 1 yields 0.
func Clamp(index, total int) int {
	if index >= total {
		index = total - 1
	}
	if index < 0 {
		index = 0
	}
	return index
}

// Percent is the position of index within total, in percent.
func Percent(index, total int) float64 {
	if total < 1 {
		total = 1
	}
	return float64(index) / float64(total) * 100
}
