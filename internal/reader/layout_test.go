package reader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasagar/yamireader/internal/content"
	"github.com/vidyasagar/yamireader/internal/paginate"
	"github.com/vidyasagar/yamireader/internal/storage"
)

// openTwoChapters opens a page of two text chapters laid out one line per
// page: 20 lines, then 60 lines, then the footer.
func openTwoChapters(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, &storage.Progress{LastNetworkPage: 1})
	h.settings.set = storage.DefaultReaderSettings()
	h.settings.set.LineHeight = 86
	h.settings.ok = true
	h.fetcher.set(1, fakePage{html: "p1", maxPage: 1})
	h.parser.set("p1", []content.Unit{lines("Chapter 1", 20), lines("Chapter 2", 60)})

	st := h.open(t)
	require.Equal(t, 1, st.Config.RowsPerPage())
	require.Len(t, st.Units, 81)
	h.settle(0)
	return h
}

func TestReapplyLayoutKeepsChapterOffset(t *testing.T) {
	h := openTwoChapters(t)
	h.settle(27)
	before := h.session.Snapshot()

	typo := paginate.DefaultTypography()
	require.NoError(t, h.session.ReapplyLayout(typo, 27))

	st := h.session.Snapshot()
	require.Len(t, st.Units, 41)
	assert.Equal(t, 17, st.Index)
	assert.Equal(t, 17, st.Target)
	assert.Equal(t, "Chapter 2", st.Chapter())
	assert.Greater(t, st.Version, before.Version)
	assert.Equal(t, []content.ChapterMark{
		{Title: "Chapter 1", StartIndex: 0},
		{Title: "Chapter 2", StartIndex: 10},
	}, st.Chapters)

	// Nothing was persisted and nothing was fetched again.
	assert.Equal(t, 86.0, h.settings.set.LineHeight)
	assert.Len(t, h.fetcher.requests(), 1)
}

func TestReapplyLayoutClampsPastEnd(t *testing.T) {
	h := openTwoChapters(t)

	require.NoError(t, h.session.ReapplyLayout(paginate.DefaultTypography(), 75))
	st := h.session.Snapshot()
	assert.Equal(t, 40, st.Index)
	assert.True(t, st.Units[st.Index].IsFooter())
}

func TestReapplyLayoutUnchangedConfig(t *testing.T) {
	h := openTwoChapters(t)
	v := h.session.Snapshot().Version

	typo := paginate.DefaultTypography()
	typo.LineHeight = 86
	require.NoError(t, h.session.ReapplyLayout(typo, 0))
	assert.Equal(t, v, h.session.Snapshot().Version)
}

func TestSetLineHeightPersists(t *testing.T) {
	h := openTwoChapters(t)

	require.NoError(t, h.session.SetLineHeight(43, 27))
	st := h.session.Snapshot()
	assert.Equal(t, 17, st.Index)
	assert.Equal(t, 43.0, h.settings.set.LineHeight)
	assert.Equal(t, 1, h.settings.puts)
}

func TestSetFontSizeRaisesLineHeight(t *testing.T) {
	h := newHarness(t, nil)

	require.NoError(t, h.session.SetFontSize(40, 0))
	st := h.session.Snapshot()
	assert.Equal(t, 40.0, st.Settings.FontSize)
	assert.GreaterOrEqual(t, st.Settings.LineHeight, 60.0)
	assert.Equal(t, 1, h.settings.puts)
}

func TestSetModeConvertsPosition(t *testing.T) {
	h := openTwoChapters(t)
	h.settle(30)

	require.NoError(t, h.session.SetMode(paginate.Vertical, 30))
	st := h.session.Snapshot()
	assert.Equal(t, paginate.Vertical, st.Config.Mode)
	// One line per page, so rows and pages coincide.
	assert.Len(t, st.Units, 81)
	assert.Equal(t, 30, st.Index)
	assert.True(t, h.settings.set.VerticalMode)
}

func TestResizeDoesNotPersist(t *testing.T) {
	h := openTwoChapters(t)

	require.NoError(t, h.session.Resize(paginate.NewViewport(400, 246), 0))
	st := h.session.Snapshot()
	assert.Equal(t, 2, st.Config.RowsPerPage())
	assert.Len(t, st.Units, 41)
	assert.Zero(t, h.settings.puts)
}

func TestRelayoutBeforeOpen(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.session.SetPadding(-4, 0))
	assert.Zero(t, h.session.Snapshot().Settings.Padding)

	require.NoError(t, h.session.Close())
	assert.ErrorIs(t, h.session.SetLetterSpacing(1, 0), ErrClosed)
}

func TestRelayoutRepaginatesPreload(t *testing.T) {
	h := newHarness(t, nil)
	h.fetcher.set(1, fakePage{html: "p1", maxPage: 2})
	h.fetcher.set(2, fakePage{html: "p2", maxPage: 2})
	h.parser.set("p1", []content.Unit{lines("one", 10)})
	h.parser.set("p2", []content.Unit{lines("two", 10)})

	st := h.open(t)
	require.Len(t, st.Units, 6)
	h.settle(0)
	st = h.settle(1)
	require.True(t, st.PreloadReady)

	require.NoError(t, h.session.SetLineHeight(86, 1))
	st = h.session.Snapshot()
	require.Len(t, st.Units, 11)
	assert.Equal(t, content.FooterNextReady, footerOf(st).Status)

	st = h.settle(10)
	assert.Equal(t, 2, st.Page)
	assert.Len(t, st.Units, 11)
	assert.Equal(t, content.FooterNoMore, footerOf(st).Status)
}

func TestReanchorFallsBackToPercentage(t *testing.T) {
	old := paginate.Result{Units: make([]content.DisplayUnit, 10)}
	next := paginate.Result{Units: make([]content.DisplayUnit, 20)}
	assert.Equal(t, 10, reanchor(old, next, 5))

	for i := range old.Units {
		old.Units[i].Chapter = "gone"
	}
	for i := range next.Units {
		next.Units[i].Chapter = "other"
	}
	assert.Equal(t, 8, reanchor(old, next, 4))

	assert.Equal(t, 19, reanchor(old, next, 50))
}

func titled(titles ...string) paginate.Result {
	units := make([]content.DisplayUnit, 0, len(titles)+1)
	for _, title := range titles {
		units = append(units, content.DisplayUnit{Kind: content.KindText, Chapter: title})
	}
	units = append(units, content.NewFooter(content.FooterNoMore))
	return paginate.Result{Units: units, Chapters: paginate.BuildChapters(units)}
}

func TestReanchorRepeatedTitle(t *testing.T) {
	old := titled("A", "A", "B", "B", "A", "A", "A", "A")
	next := titled("A", "B", "A", "A")

	// Offset 1 into the second run of A lands in the second run of A.
	assert.Equal(t, 3, reanchor(old, next, 5))
	assert.Equal(t, 1, reanchor(old, next, 2))
	assert.Equal(t, 1, reanchor(old, next, 1))
}
