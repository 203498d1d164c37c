package reader

import (
	"go.uber.org/zap"

	"github.com/vidyasagar/yamireader/internal/content"
	"github.com/vidyasagar/yamireader/internal/paginate"
	"github.com/vidyasagar/yamireader/internal/storage"
)

// ReapplyLayout re-paginates the displayed content with typography t and
// keeps the reader in place: anchor is mapped to the same offset within the
// same chapter of the new layout. Settings are updated in memory only.
func (s *Session) ReapplyLayout(t paginate.Typography, anchor int) error {
	return s.relayout(anchor, false, func(set *storage.ReaderSettings, _ *paginate.Viewport) {
		setTypography(set, t)
	})
}

// ApplySettings persists set and re-paginates under it. A change of the image
// setting reloads the current page instead, since images come from parsing.
func (s *Session) ApplySettings(set storage.ReaderSettings, anchor int) error {
	s.mu.Lock()
	imagesChanged := s.settings.LoadImages != set.LoadImages
	s.mu.Unlock()

	if imagesChanged {
		if err := s.relayout(anchor, true, func(cur *storage.ReaderSettings, _ *paginate.Viewport) {
			*cur = set
			cur.LoadImages = !set.LoadImages
		}); err != nil {
			return err
		}
		return s.SetLoadImages(set.LoadImages)
	}
	return s.relayout(anchor, true, func(cur *storage.ReaderSettings, _ *paginate.Viewport) {
		*cur = set
	})
}

// SetFontSize changes the font size, raising the line height to at least
// 1.5 times the font size.
func (s *Session) SetFontSize(size float64, anchor int) error {
	return s.relayout(anchor, true, func(set *storage.ReaderSettings, _ *paginate.Viewport) {
		setTypography(set, typographyOf(*set).WithFontSize(size))
	})
}

// SetLineHeight changes the line height within [1.5×font size, 100].
func (s *Session) SetLineHeight(h float64, anchor int) error {
	return s.relayout(anchor, true, func(set *storage.ReaderSettings, _ *paginate.Viewport) {
		setTypography(set, typographyOf(*set).WithLineHeight(h))
	})
}

// SetPadding changes the horizontal page padding.
func (s *Session) SetPadding(p float64, anchor int) error {
	return s.relayout(anchor, true, func(set *storage.ReaderSettings, _ *paginate.Viewport) {
		set.Padding = max(p, 0)
	})
}

// SetLetterSpacing changes the extra space added after every glyph.
func (s *Session) SetLetterSpacing(ls float64, anchor int) error {
	return s.relayout(anchor, true, func(set *storage.ReaderSettings, _ *paginate.Viewport) {
		set.LetterSpacing = ls
	})
}

// SetMode switches between page turning and scrolling.
func (s *Session) SetMode(m paginate.Mode, anchor int) error {
	return s.relayout(anchor, true, func(set *storage.ReaderSettings, _ *paginate.Viewport) {
		set.VerticalMode = m == paginate.Vertical
	})
}

// Resize re-paginates for a new viewport.
func (s *Session) Resize(vp paginate.Viewport, anchor int) error {
	return s.relayout(anchor, false, func(_ *storage.ReaderSettings, cur *paginate.Viewport) {
		*cur = vp
	})
}

// SetNightMode toggles night mode and drops any custom background.
func (s *Session) SetNightMode(on bool) {
	s.updateDisplay(func(set *storage.ReaderSettings) {
		set.NightMode = on
		set.BackgroundColor = ""
	})
}

// SetBackgroundColor sets a custom background, leaving night mode. An empty
// color restores the theme default.
func (s *Session) SetBackgroundColor(color string) {
	s.updateDisplay(func(set *storage.ReaderSettings) {
		set.BackgroundColor = color
		set.NightMode = false
	})
}

// SetLoadImages persists the image setting and reloads the current page so
// its images are parsed in or out.
func (s *Session) SetLoadImages(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.settings.LoadImages == on {
		return nil
	}
	s.settings.LoadImages = on
	s.saveSettingsLocked()
	if s.opened {
		s.setPageLocked(s.page, true)
	}
	s.notifyLocked()
	return nil
}

func (s *Session) updateDisplay(update func(*storage.ReaderSettings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	update(&s.settings)
	s.saveSettingsLocked()
	s.notifyLocked()
}

// relayout applies update to the settings and viewport, then lays the
// displayed page and any preloaded page out again. The layout runs outside
// the lock; its result is dropped if the sequence or config changed meanwhile.
func (s *Session) relayout(anchor int, persist bool, update func(*storage.ReaderSettings, *paginate.Viewport)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	vp := s.cfg.Viewport
	update(&s.settings, &vp)
	if persist {
		s.saveSettingsLocked()
	}
	cfg := configFor(s.settings, vp)
	if cfg == s.cfg || len(s.seq.Units) == 0 {
		s.cfg = cfg
		s.notifyLocked()
		s.mu.Unlock()
		return nil
	}
	s.cfg = cfg

	var (
		version  = s.version
		units    = s.units
		old      = s.seq
		preload  = s.preload
		preUnits []content.Unit
	)
	if preload != nil {
		preUnits = preload.units
	}
	s.mu.Unlock()

	body := paginate.Layout(units, cfg)
	var preBody []content.DisplayUnit
	if preload != nil {
		preBody = paginate.Layout(preUnits, cfg)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.cfg != cfg {
		return nil
	}

	if preload != nil && s.preload == preload {
		s.preload = &buffered{
			page:  preload.page,
			units: preload.units,
			seq:   paginate.Finish(preBody, paginate.Continuation{MorePages: preload.page < s.maxPage}),
		}
	}
	if s.version != version {
		s.notifyLocked()
		return nil
	}

	s.seq = paginate.Finish(body, s.continuationLocked())
	s.version++
	index := reanchor(old, s.seq, anchor)
	s.index, s.target = index, index
	s.percent = paginate.Percent(index, s.seq.Len())
	if index == 0 {
		s.zoom = Identity
	}
	s.log.Info("layout reapplied",
		zap.Stringer("mode", cfg.Mode),
		zap.Float64("font_size", cfg.Typography.FontSize),
		zap.Int("units", s.seq.Len()),
		zap.Int("anchor", anchor),
		zap.Int("index", index),
	)
	s.notifyLocked()
	return nil
}

// reanchor maps anchor in old to the same chapter offset in next, falling
// back to the same relative position when the chapter cannot be found.
func reanchor(old, next paginate.Result, anchor int) int {
	if title, nth, start := chapterRun(old.Units, anchor); title != "" {
		if nstart, ok := nthRun(next.Units, title, nth); ok {
			return paginate.Clamp(nstart+anchor-start, next.Len())
		}
	}
	frac := float64(anchor) / float64(max(old.Len(), 1))
	return paginate.Clamp(int(frac*float64(next.Len())), next.Len())
}

// chapterRun finds the run of consecutive units sharing the title of the unit
// at index. nth counts the earlier runs with the same title.
func chapterRun(units []content.DisplayUnit, index int) (title string, nth, start int) {
	title = paginate.ChapterOf(units, index)
	if title == "" {
		return "", 0, 0
	}
	start = index
	for start > 0 && paginate.ChapterOf(units, start-1) == title {
		start--
	}
	for i := 0; i < start; i++ {
		if paginate.ChapterOf(units, i) == title && paginate.ChapterOf(units, i-1) != title {
			nth++
		}
	}
	return title, nth, start
}

// nthRun returns where the nth run titled title starts.
func nthRun(units []content.DisplayUnit, title string, nth int) (int, bool) {
	for i := range units {
		if paginate.ChapterOf(units, i) != title || paginate.ChapterOf(units, i-1) == title {
			continue
		}
		if nth == 0 {
			return i, true
		}
		nth--
	}
	return 0, false
}

func typographyOf(set storage.ReaderSettings) paginate.Typography {
	return paginate.Typography{
		FontSize:      set.FontSize,
		LineHeight:    set.LineHeight,
		LetterSpacing: set.LetterSpacing,
		Padding:       set.Padding,
	}
}

func setTypography(set *storage.ReaderSettings, t paginate.Typography) {
	set.FontSize = t.FontSize
	set.LineHeight = t.LineHeight
	set.LetterSpacing = t.LetterSpacing
	set.Padding = t.Padding
}
