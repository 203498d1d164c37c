package reader

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vidyasagar/yamireader/internal/content"
	"github.com/vidyasagar/yamireader/internal/paginate"
)

// Settle reports that the view came to rest on index. Call it only once a
// page turn or scroll has finished, not while it is in motion.
func (s *Session) Settle(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	if s.settleLocked(index) {
		s.notifyLocked()
	}
}

// settleLocked reports whether the state changed.
func (s *Session) settleLocked(index int) bool {
	if s.transitioning {
		if index != s.target || s.loadGen != 0 {
			return false
		}
		s.transitioning = false
		s.index = index
		if n := len(s.seq.Units); n > 0 && s.seq.Units[n-1].Status == content.FooterNone {
			s.patchFooterLocked(s.continuationLocked().Status())
		}
		s.log.Info("transition complete", zap.Int("page", s.page), zap.Int("index", index))
		return true
	}

	changed := s.zoom != Identity
	s.zoom = Identity

	if index == s.index || index < 0 || index >= len(s.seq.Units) {
		return changed
	}

	s.percent = paginate.Percent(index, len(s.seq.Units))
	s.pageChangeLocked(index)
	return true
}

// pageChangeLocked saves progress, swaps in a preloaded page when the footer
// is reached, and starts a preload near the end of the sequence.
func (s *Session) pageChangeLocked(index int) {
	old := s.index
	oldCh := paginate.ChapterOf(s.seq.Units, old)
	newCh := paginate.ChapterOf(s.seq.Units, index)
	switch {
	case newCh != "" && newCh != oldCh:
		s.saveProgressLocked(index)
	case s.cfg.Mode == paginate.Horizontal && !s.transitioning:
		s.saveProgressLocked(index)
	}

	n := len(s.seq.Units)
	if index == n-1 && s.preload != nil && !s.transitioning {
		s.swapInPreloadLocked()
		return
	}

	lastContent := max(n-2, 0)
	trigger := max(lastContent-paginate.TriggerDistance(s.cfg.Mode), 0)
	if index >= trigger && s.canPreloadLocked() {
		s.log.Info("preload triggered", zap.Int("index", index), zap.Int("trigger", trigger), zap.Int("page", s.page+1))
		s.fetchLocked(fetchPreload, s.page+1)
	}

	s.index = index
}

// canPreloadLocked enforces the single preload slot.
func (s *Session) canPreloadLocked() bool {
	return s.preloadGen == 0 &&
		s.preload == nil &&
		s.page < s.maxPage &&
		!s.transitioning &&
		s.loadGen == 0 &&
		s.err == nil &&
		s.preloadFailed != s.page+1
}

// swapInPreloadLocked makes the preloaded page the displayed one, starting
// at its first unit.
func (s *Session) swapInPreloadLocked() {
	p := s.preload
	s.preload = nil
	s.transitioning = true
	s.page = p.page
	s.units = p.units
	s.seq = p.seq
	s.fromCache = false
	s.version++
	s.index, s.target, s.percent = 0, 0, 0
	s.zoom = Identity
	s.log.Info("switched to preloaded page", zap.Int("page", s.page), zap.Int("units", s.seq.Len()))
}

// SetPage jumps to a network page, starting at its first unit. The call is a
// no-op when already on page unless force is set or a transition is running.
func (s *Session) SetPage(page int, force bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpenLocked(); err != nil {
		return err
	}
	if page < 1 || (s.maxPage > 0 && page > s.maxPage) {
		return fmt.Errorf("page %d out of range [1, %d]", page, max(s.maxPage, 1))
	}
	if s.setPageLocked(page, force) {
		s.notifyLocked()
	}
	return nil
}

func (s *Session) setPageLocked(page int, force bool) bool {
	if page == s.page && !s.transitioning && !force {
		s.log.Debug("already on page", zap.Int("page", page))
		return false
	}

	if page == s.page+1 && s.preload != nil && s.preload.page == page && !force {
		s.swapInPreloadLocked()
		return true
	}

	s.discardPreloadLocked()
	s.err = nil
	s.page = page
	s.transitioning = true

	if e, ok := s.cacheGetLocked(page); ok && e.AuthorID == s.authorID {
		s.log.Info("cache hit", zap.Int("page", page))
		s.maxPage = max(e.MaxPage, 1)
		s.target, s.percent = 0, 0
		s.loading = false
		s.completeFromCacheLocked(e, 0)
		return true
	}

	s.log.Info("cache miss", zap.Int("page", page))
	s.target, s.percent = 0, 0
	s.loading = true
	s.fetchLocked(fetchPrimary, page)
	return true
}

// NextPage moves to the following network page.
func (s *Session) NextPage() error {
	s.mu.Lock()
	page := s.page + 1
	s.mu.Unlock()
	return s.SetPage(page, false)
}

// PrevPage moves to the preceding network page.
func (s *Session) PrevPage() error {
	s.mu.Lock()
	page := s.page - 1
	s.mu.Unlock()
	return s.SetPage(page, false)
}

// Retry re-issues the fetch that failed: the current page after a load
// error, or the next page after a failed preload. Nothing is retried
// automatically.
func (s *Session) Retry() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpenLocked(); err != nil {
		return err
	}
	switch {
	case s.err != nil:
		s.log.Info("retrying", zap.Int("page", s.page))
		s.err = nil
		s.loading = true
		s.transitioning = true
		s.fetchLocked(fetchPrimary, s.page)
	case s.preloadFailed != 0:
		s.preloadFailed = 0
		if !s.canPreloadLocked() {
			return nil
		}
		s.log.Info("retrying preload", zap.Int("page", s.page+1))
		s.fetchLocked(fetchPreload, s.page+1)
	default:
		return nil
	}
	s.notifyLocked()
	return nil
}

// JumpToChapter moves to the start of chapter i of the displayed sequence and
// closes the chapter drawer.
func (s *Session) JumpToChapter(i int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkOpenLocked(); err != nil {
		return 0, err
	}
	if i < 0 || i >= len(s.seq.Chapters) {
		return 0, fmt.Errorf("chapter %d out of range [0, %d)", i, len(s.seq.Chapters))
	}
	start := s.seq.Chapters[i].StartIndex
	s.drawer = false
	s.settleLocked(start)
	s.notifyLocked()
	return start, nil
}

// ToggleChapterDrawer shows or hides the chapter list.
func (s *Session) ToggleChapterDrawer(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drawer == show {
		return
	}
	s.drawer = show
	s.notifyLocked()
}

// Transform applies a zoom and pan gesture to the visible unit. The scale is
// kept within [0.5, 3].
func (s *Session) Transform(panX, panY, zoom float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zoom = s.zoom.apply(panX, panY, zoom)
	s.notifyLocked()
}

func (s *Session) checkOpenLocked() error {
	if s.closed {
		return ErrClosed
	}
	if !s.opened {
		return ErrNotOpen
	}
	return nil
}
