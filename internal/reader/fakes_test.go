package reader

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vidyasagar/yamireader/internal/cache"
	"github.com/vidyasagar/yamireader/internal/content"
	"github.com/vidyasagar/yamireader/internal/forum"
	"github.com/vidyasagar/yamireader/internal/paginate"
	"github.com/vidyasagar/yamireader/internal/storage"
)

type fakePage struct {
	html     string
	maxPage  int
	finalURL string
	err      error
}

// fakeFetcher serves pages from a map. Fetches of held pages block until the
// hold channel is closed, regardless of cancellation.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[int]fakePage
	hold  map[int]chan struct{}
	reqs  []forum.FetchRequest
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: make(map[int]fakePage), hold: make(map[int]chan struct{})}
}

func (f *fakeFetcher) set(page int, p fakePage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pages[page] = p
}

func (f *fakeFetcher) holdPage(page int) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.hold[page] = ch
	return ch
}

func (f *fakeFetcher) requests() []forum.FetchRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]forum.FetchRequest(nil), f.reqs...)
}

func (f *fakeFetcher) FetchPage(_ context.Context, req forum.FetchRequest) (*forum.FetchResult, error) {
	f.mu.Lock()
	f.reqs = append(f.reqs, req)
	gate := f.hold[req.Page]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}

	f.mu.Lock()
	p, ok := f.pages[req.Page]
	f.mu.Unlock()
	if !ok {
		return nil, errors.New("page not found")
	}
	if p.err != nil {
		return nil, p.err
	}
	final := p.finalURL
	if final == "" {
		final = forum.PageURL("https://bbs.example.com", req)
	}
	return &forum.FetchResult{URL: final, FinalURL: final, HTML: p.html, MaxPage: p.maxPage}, nil
}

// fakeParser maps markup to prepared units. Parsing held markup blocks until
// the hold channel is closed.
type fakeParser struct {
	mu         sync.Mutex
	units      map[string][]content.Unit
	hold       map[string]chan struct{}
	lastImages bool
	calls      int
}

func newFakeParser() *fakeParser {
	return &fakeParser{units: make(map[string][]content.Unit), hold: make(map[string]chan struct{})}
}

func (p *fakeParser) holdMarkup(markup string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan struct{})
	p.hold[markup] = ch
	return ch
}

func (p *fakeParser) set(markup string, units []content.Unit) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.units[markup] = units
}

func (p *fakeParser) Parse(markup string, includeImages bool) []content.Unit {
	p.mu.Lock()
	gate := p.hold[markup]
	p.mu.Unlock()
	if gate != nil {
		<-gate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	p.lastImages = includeImages
	return p.units[markup]
}

type fakeSettings struct {
	mu   sync.Mutex
	set  storage.ReaderSettings
	ok   bool
	puts int
}

func (f *fakeSettings) Get() (storage.ReaderSettings, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.ok {
		return storage.DefaultReaderSettings(), false, nil
	}
	return f.set, true, nil
}

func (f *fakeSettings) Put(s storage.ReaderSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.set, f.ok = s, true
	f.puts++
	return nil
}

// fakeFavorites records progress of favorite threads only.
type fakeFavorites struct {
	mu      sync.Mutex
	entries map[string]storage.Progress
	updates []storage.Progress
}

func newFakeFavorites(entries map[string]storage.Progress) *fakeFavorites {
	if entries == nil {
		entries = make(map[string]storage.Progress)
	}
	return &fakeFavorites{entries: entries}
}

func (f *fakeFavorites) All() (map[string]storage.Progress, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m := make(map[string]storage.Progress, len(f.entries))
	for k, v := range f.entries {
		m[k] = v
	}
	return m, nil
}

func (f *fakeFavorites) Update(threadID string, p storage.Progress) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[threadID]; !ok {
		return nil
	}
	f.entries[threadID] = p
	f.updates = append(f.updates, p)
	return nil
}

func (f *fakeFavorites) saved() []storage.Progress {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]storage.Progress(nil), f.updates...)
}

type harness struct {
	fetcher   *fakeFetcher
	parser    *fakeParser
	cache     *cache.Memory
	settings  *fakeSettings
	favorites *fakeFavorites
	session   *Session
}

const testThread = "forum.php?mod=viewthread&tid=1"

func newHarness(t *testing.T, progress *storage.Progress) *harness {
	t.Helper()
	fav := newFakeFavorites(nil)
	if progress != nil {
		fav.entries[testThread] = *progress
	}
	h := &harness{
		fetcher:   newFakeFetcher(),
		parser:    newFakeParser(),
		cache:     cache.NewMemory(),
		settings:  &fakeSettings{},
		favorites: fav,
	}
	h.session = New(Deps{
		Fetcher:   h.fetcher,
		Parser:    h.parser,
		Cache:     h.cache,
		Settings:  h.settings,
		Favorites: h.favorites,
		Logger:    zaptest.NewLogger(t),
	})
	t.Cleanup(func() { h.session.Close() })
	return h
}

// testViewport fits two rows of the default 43px line height.
func testViewport() paginate.Viewport {
	return paginate.NewViewport(400, 160)
}

func (h *harness) open(t *testing.T) State {
	t.Helper()
	require.NoError(t, h.session.Open(testThread, testViewport()))
	h.session.Wait()
	return h.session.Snapshot()
}

// settle settles the view and waits for any fetch it started.
func (h *harness) settle(index int) State {
	h.session.Settle(index)
	h.session.Wait()
	return h.session.Snapshot()
}

func images(title string, n int) []content.Unit {
	units := make([]content.Unit, n)
	for i := range units {
		units[i] = content.Image{URL: "https://img.example.com/" + title + "/" + strings.Repeat("x", i+1), Title: title}
	}
	return units
}

func lines(title string, n int) content.Text {
	return content.Text{Body: strings.Repeat("a\n", n), Title: title}
}

func footerOf(st State) content.DisplayUnit {
	return st.Units[len(st.Units)-1]
}
