package reader

import (
	"context"

	"go.uber.org/zap"

	"github.com/vidyasagar/yamireader/internal/cache"
	"github.com/vidyasagar/yamireader/internal/content"
	"github.com/vidyasagar/yamireader/internal/forum"
	"github.com/vidyasagar/yamireader/internal/paginate"
)

type fetchKind int

const (
	fetchPrimary fetchKind = iota
	fetchPreload
)

func (k fetchKind) String() string {
	if k == fetchPreload {
		return "preload"
	}
	return "primary"
}

// laidOut is a page parsed and laid out off the lock, without its footer.
type laidOut struct {
	units []content.Unit
	body  []content.DisplayUnit
	cfg   paginate.Config
}

func (s *Session) layout(markup string, includeImages bool, cfg paginate.Config) laidOut {
	units := s.parser.Parse(markup, includeImages)
	return laidOut{units: units, body: paginate.Layout(units, cfg), cfg: cfg}
}

// bodyFor returns l's units laid out under the session's current config,
// redoing the layout if the config changed while l was being built.
func (s *Session) bodyForLocked(l laidOut) []content.DisplayUnit {
	if l.cfg == s.cfg {
		return l.body
	}
	return paginate.Layout(l.units, s.cfg)
}

// fetchLocked issues a background fetch of page. A primary fetch supersedes
// any earlier primary fetch; a preload fills the single preload slot.
// Completions carry the generation they were issued with and are dropped if
// it is no longer current.
func (s *Session) fetchLocked(kind fetchKind, page int) {
	s.gen++
	gen := s.gen
	ctx, cancel := context.WithCancel(s.ctx)

	switch kind {
	case fetchPrimary:
		if s.loadCancel != nil {
			s.loadCancel()
		}
		s.loadGen, s.loadCancel = gen, cancel
	case fetchPreload:
		s.preloadGen, s.preloadPage, s.preloadStop = gen, page, cancel
	}

	req := forum.FetchRequest{ThreadPath: s.threadID, Page: page, AuthorID: s.authorID}
	includeImages := s.settings.LoadImages
	cfg := s.cfg
	s.log.Info("fetch issued", zap.Stringer("kind", kind), zap.Int("page", page), zap.String("author", req.AuthorID))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()

		res, err := s.fetcher.FetchPage(ctx, req)
		if err != nil {
			s.fetchFailed(kind, gen, page, err)
			return
		}
		s.fetchDone(kind, gen, page, res, s.layout(res.HTML, includeImages, cfg))
	}()
}

func (s *Session) fetchFailed(kind fetchKind, gen uint64, page int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return
	case kind == fetchPrimary && gen == s.loadGen:
		s.loadGen, s.loadCancel = 0, nil
		s.err = &FetchError{Page: page, Err: err}
		s.loading = false
		s.transitioning = false
		s.units, s.seq, s.fromCache = nil, paginate.Result{}, false
		s.version++
		s.log.Warn("fetch failed", zap.Int("page", page), zap.Error(err))
	case kind == fetchPreload && gen == s.preloadGen:
		s.preloadGen, s.preloadStop = 0, nil
		s.preloadFailed = page
		s.log.Warn("preload failed", zap.Int("page", page), zap.Error(err))
	default:
		s.log.Debug("dropping stale fetch failure", zap.Stringer("kind", kind), zap.Int("page", page))
		return
	}
	s.notifyLocked()
}

func (s *Session) fetchDone(kind fetchKind, gen uint64, page int, res *forum.FetchResult, l laidOut) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	current := (kind == fetchPrimary && gen == s.loadGen) || (kind == fetchPreload && gen == s.preloadGen)
	if !current {
		s.log.Debug("dropping stale fetch", zap.Stringer("kind", kind), zap.Int("page", page))
		return
	}

	s.adoptAuthorLocked(res.FinalURL)
	s.maxPage = max(res.MaxPage, 1)
	s.cachePutLocked(cache.Entry{
		ThreadID: s.threadID,
		Page:     page,
		HTML:     res.HTML,
		MaxPage:  s.maxPage,
		AuthorID: s.authorID,
	})

	if kind == fetchPreload {
		s.preloadGen, s.preloadStop = 0, nil
		body := s.bodyForLocked(l)
		s.preload = &buffered{
			page:  page,
			units: l.units,
			seq:   paginate.Finish(body, paginate.Continuation{MorePages: page < s.maxPage}),
		}
		s.patchFooterLocked(content.FooterNextReady)
		s.log.Info("preload ready", zap.Int("page", page), zap.Int("units", len(s.preload.seq.Units)))
		s.notifyLocked()
		return
	}

	s.loadGen, s.loadCancel = 0, nil
	index := s.target
	if s.hasShown {
		index = 0
	}
	s.installLocked(l, false, index)
	s.loading = false
	s.notifyLocked()
}

// completeFromCacheLocked parses a cached page in the background and installs
// it at target. target travels with this completion so a superseding Open or
// SetPage cannot make it land elsewhere.
func (s *Session) completeFromCacheLocked(e cache.Entry, target int) {
	s.gen++
	gen := s.gen
	if s.loadCancel != nil {
		s.loadCancel()
	}
	s.loadGen, s.loadCancel = gen, nil

	includeImages := s.settings.LoadImages
	cfg := s.cfg

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		l := s.layout(e.HTML, includeImages, cfg)

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.closed || gen != s.loadGen {
			s.log.Debug("dropping stale cache completion", zap.Int("page", e.Page))
			return
		}
		s.loadGen = 0
		s.installLocked(l, true, target)
		s.notifyLocked()
	}()
}

// installLocked replaces the displayed sequence and its index in one step.
func (s *Session) installLocked(l laidOut, fromCache bool, index int) {
	s.units = l.units
	s.fromCache = fromCache
	s.seq = paginate.Finish(s.bodyForLocked(l), s.continuationLocked())
	s.version++

	index = paginate.Clamp(index, s.seq.Len())
	s.index, s.target = index, index
	s.percent = paginate.Percent(index, s.seq.Len())
	s.hasShown = true
	s.err = nil
	s.log.Info("sequence installed",
		zap.Int("page", s.page),
		zap.Int("units", s.seq.Len()),
		zap.Int("index", index),
		zap.Bool("from_cache", fromCache),
	)
}

func (s *Session) continuationLocked() paginate.Continuation {
	return paginate.Continuation{
		Transitioning: s.transitioning,
		FromCache:     s.fromCache,
		PreloadReady:  s.preload != nil,
		MorePages:     s.page < s.maxPage,
	}
}

// patchFooterLocked rewrites only the trailing footer of the displayed
// sequence. The slice is copied so earlier snapshots stay unchanged.
func (s *Session) patchFooterLocked(status content.FooterStatus) {
	n := len(s.seq.Units)
	if n == 0 || !s.seq.Units[n-1].IsFooter() {
		return
	}
	units := make([]content.DisplayUnit, n)
	copy(units, s.seq.Units)
	units[n-1] = content.NewFooter(status)
	s.seq.Units = units
}

// discardPreloadLocked cancels an outstanding preload and drops the buffer.
func (s *Session) discardPreloadLocked() {
	if s.preloadStop != nil {
		s.preloadStop()
		s.preloadStop = nil
	}
	s.preloadGen, s.preloadPage = 0, 0
	s.preload = nil
	s.preloadFailed = 0
}

func (s *Session) cacheGetLocked(page int) (cache.Entry, bool) {
	if s.cache == nil {
		return cache.Entry{}, false
	}
	e, ok, err := s.cache.Get(s.threadID, page)
	if err != nil {
		s.log.Warn("reading page cache", zap.Int("page", page), zap.Error(err))
		return cache.Entry{}, false
	}
	return e, ok
}

func (s *Session) cachePutLocked(e cache.Entry) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(e); err != nil {
		s.log.Warn("writing page cache", zap.Int("page", e.Page), zap.Error(err))
	}
}
