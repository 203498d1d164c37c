package reader

import (
	"github.com/vidyasagar/yamireader/internal/content"
	"github.com/vidyasagar/yamireader/internal/paginate"
	"github.com/vidyasagar/yamireader/internal/storage"
)

// Phase is the coarse state of a session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseReady
	PhasePreloading
	PhaseTransitioning
	PhaseError
	PhaseClosed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhasePreloading:
		return "preloading"
	case PhaseTransitioning:
		return "transitioning"
	case PhaseError:
		return "error"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Transform is the zoom and pan applied to the visible unit.
type Transform struct {
	Scale   float64
	OffsetX float64
	OffsetY float64
}

// Identity is the untransformed view.
var Identity = Transform{Scale: 1}

const (
	minScale = 0.5
	maxScale = 3
)

// apply multiplies the scale by zoom and shifts the offset by the pan.
// The offset snaps back to the origin whenever the scale is exactly 1.
func (t Transform) apply(panX, panY, zoom float64) Transform {
	scale := t.Scale * zoom
	scale = max(minScale, min(scale, maxScale))
	if scale == 1 {
		return Identity
	}
	return Transform{Scale: scale, OffsetX: t.OffsetX + panX, OffsetY: t.OffsetY + panY}
}

// State is an immutable snapshot of a session. Slices are shared between
// snapshots and must not be modified.
type State struct {
	Phase    Phase
	ThreadID string
	Page     int
	MaxPage  int
	AuthorID string

	Config   paginate.Config
	Settings storage.ReaderSettings

	Units    []content.DisplayUnit
	Chapters []content.ChapterMark
	// Version changes whenever Units is replaced by a new sequence.
	Version uint64
	// Index is the last settled display index.
	Index int
	// Target is the index the view should move to. It differs from Index
	// right after a sequence is installed.
	Target  int
	Percent float64

	Loading       bool
	Preloading    bool
	PreloadReady  bool
	Transitioning bool
	Err           error

	Zoom          Transform
	ChapterDrawer bool
}

// Current returns the display unit at Index, if any.
func (st State) Current() (content.DisplayUnit, bool) {
	if st.Index < 0 || st.Index >= len(st.Units) {
		return content.DisplayUnit{}, false
	}
	return st.Units[st.Index], true
}

// Chapter returns the chapter title of the unit at Index.
func (st State) Chapter() string {
	return paginate.ChapterOf(st.Units, st.Index)
}

// phaseLocked derives the phase from the session flags.
func (s *Session) phaseLocked() Phase {
	switch {
	case s.closed:
		return PhaseClosed
	case s.err != nil:
		return PhaseError
	case s.loadGen != 0:
		return PhaseLoading
	case s.transitioning:
		return PhaseTransitioning
	case s.preloadGen != 0:
		return PhasePreloading
	case s.hasShown:
		return PhaseReady
	default:
		return PhaseIdle
	}
}

func (s *Session) snapshotLocked() State {
	return State{
		Phase:         s.phaseLocked(),
		ThreadID:      s.threadID,
		Page:          s.page,
		MaxPage:       s.maxPage,
		AuthorID:      s.authorID,
		Config:        s.cfg,
		Settings:      s.settings,
		Units:         s.seq.Units,
		Chapters:      s.seq.Chapters,
		Version:       s.version,
		Index:         s.index,
		Target:        s.target,
		Percent:       s.percent,
		Loading:       s.loading,
		Preloading:    s.preloadGen != 0,
		PreloadReady:  s.preload != nil,
		Transitioning: s.transitioning,
		Err:           s.err,
		Zoom:          s.zoom,
		ChapterDrawer: s.drawer,
	}
}

// Snapshot returns the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel receiving a snapshot after every state change.
// Only the latest snapshot is kept for a slow reader. The channel is closed
// when the session closes or cancel is called.
func (s *Session) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan State, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	s.subs = append(s.subs, ch)
	ch <- s.snapshotLocked()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, c := range s.subs {
			if c == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// notifyLocked publishes the current state to every subscriber, replacing a
// snapshot that was not received yet.
func (s *Session) notifyLocked() {
	if len(s.subs) == 0 {
		return
	}
	st := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case ch <- st:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- st:
		default:
		}
	}
}
