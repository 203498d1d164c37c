// Package reader implements the reader session: the state machine that loads
// forum thread pages, paginates them, preloads the next page and keeps the
// reading position.
package reader

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vidyasagar/yamireader/internal/cache"
	"github.com/vidyasagar/yamireader/internal/content"
	"github.com/vidyasagar/yamireader/internal/forum"
	"github.com/vidyasagar/yamireader/internal/paginate"
	"github.com/vidyasagar/yamireader/internal/storage"
)

// Fetcher retrieves one network page of a thread.
type Fetcher interface {
	FetchPage(ctx context.Context, req forum.FetchRequest) (*forum.FetchResult, error)
}

// Parser turns page markup into content units. It must be deterministic.
type Parser interface {
	Parse(markup string, includeImages bool) []content.Unit
}

// SettingsStore persists reader settings.
type SettingsStore interface {
	Get() (storage.ReaderSettings, bool, error)
	Put(storage.ReaderSettings) error
}

// FavoritesStore persists per-thread reading progress.
type FavoritesStore interface {
	All() (map[string]storage.Progress, error)
	Update(threadID string, p storage.Progress) error
}

// Deps are the collaborators of a session. Cache, Settings and Favorites may
// be nil, in which case nothing is cached or persisted.
type Deps struct {
	Fetcher   Fetcher
	Parser    Parser
	Cache     cache.Store
	Settings  SettingsStore
	Favorites FavoritesStore
	Logger    *zap.Logger
}

// buffered is a preloaded next network page.
type buffered struct {
	page  int
	units []content.Unit
	seq   paginate.Result
}

// Session is one open thread view. All exported methods are safe for
// concurrent use; fetches, parsing and pagination of fetched pages run in
// background goroutines whose results are applied under the session lock.
type Session struct {
	fetcher   Fetcher
	parser    Parser
	cache     cache.Store
	settingsS SettingsStore
	favorites FavoritesStore
	baseLog   *zap.Logger
	log       *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu sync.Mutex

	opened   bool
	closed   bool
	threadID string
	page     int
	maxPage  int
	authorID string

	settings storage.ReaderSettings
	cfg      paginate.Config

	units     []content.Unit
	seq       paginate.Result
	fromCache bool
	version   uint64 // bumped whenever seq is replaced

	index   int
	target  int
	percent float64

	loading       bool
	transitioning bool
	hasShown      bool
	err           error

	gen         uint64
	loadGen     uint64
	loadCancel  context.CancelFunc
	preloadGen  uint64
	preloadPage int
	preloadStop context.CancelFunc
	preload     *buffered
	// preloadFailed is the page whose preload failed; it is not requested
	// again until Retry.
	preloadFailed int

	zoom   Transform
	drawer bool

	subs []chan State
}

// New creates an idle session.
func New(deps Deps) *Session {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("session", uuid.NewString()))
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		fetcher:   deps.Fetcher,
		parser:    deps.Parser,
		cache:     deps.Cache,
		settingsS: deps.Settings,
		favorites: deps.Favorites,
		baseLog:   log,
		log:       log,
		ctx:       ctx,
		cancel:    cancel,
		settings:  storage.DefaultReaderSettings(),
		zoom:      Identity,
	}
}

// Open starts reading threadID in the given viewport. A thread opened
// earlier on the same session has its position saved first. Typography and layout
// mode come from the settings store, the starting position from the thread's
// saved progress. A cached copy of the saved page is shown at the saved
// position; otherwise the page is fetched.
func (s *Session) Open(threadID string, vp paginate.Viewport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.hasShown {
		s.saveProgressLocked(s.index)
	}
	s.resetLocked()
	s.opened = true
	s.threadID = threadID
	s.log = s.baseLog.With(zap.String("thread", threadID))

	s.settings = s.loadSettingsLocked()
	s.cfg = configFor(s.settings, vp)

	progress := s.loadProgressLocked()
	s.page = max(progress.LastNetworkPage, 1)
	s.authorID = progress.AuthorID
	target := s.cfg.IndexFromStored(progress.LastIndex)

	if e, ok := s.cacheGetLocked(s.page); ok {
		s.log.Info("cache hit", zap.Int("page", s.page))
		if s.authorID == "" && e.AuthorID != "" {
			s.authorID = e.AuthorID
		}
		s.maxPage = max(e.MaxPage, 1)
		s.completeFromCacheLocked(e, target)
	} else {
		s.log.Info("cache miss", zap.Int("page", s.page))
		s.target = target
		s.loading = true
		s.transitioning = true
		s.fetchLocked(fetchPrimary, s.page)
	}
	s.notifyLocked()
	return nil
}

// resetLocked drops everything tied to a previously opened thread.
func (s *Session) resetLocked() {
	s.stopFetchesLocked()
	s.units, s.seq, s.fromCache = nil, paginate.Result{}, false
	s.version++
	s.index, s.target, s.percent = 0, 0, 0
	s.loading, s.transitioning, s.hasShown, s.err = false, false, false, nil
	s.maxPage, s.authorID = 0, ""
	s.zoom, s.drawer = Identity, false
}

func (s *Session) stopFetchesLocked() {
	if s.loadCancel != nil {
		s.loadCancel()
		s.loadCancel = nil
	}
	s.loadGen = 0
	s.discardPreloadLocked()
}

// Close saves the reading position, if anything was ever shown, and stops
// background work. It waits for in-flight fetches to return.
func (s *Session) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	if s.hasShown {
		s.saveProgressLocked(s.index)
	}
	s.stopFetchesLocked()
	s.closed = true
	s.cancel()
	for _, ch := range s.subs {
		close(ch)
	}
	s.subs = nil
	s.log.Debug("session closed")
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}

// Wait blocks until all background fetches and their completions have run.
func (s *Session) Wait() {
	s.wg.Wait()
}

func configFor(set storage.ReaderSettings, vp paginate.Viewport) paginate.Config {
	def := paginate.DefaultTypography()
	t := typographyOf(set)
	if t.FontSize <= 0 {
		t.FontSize = def.FontSize
	}
	if t.LineHeight <= 0 {
		t.LineHeight = def.LineHeight
	}
	if t.Padding < 0 {
		t.Padding = def.Padding
	}
	mode := paginate.Horizontal
	if set.VerticalMode {
		mode = paginate.Vertical
	}
	return paginate.Config{Viewport: vp, Typography: t, Mode: mode}
}

func (s *Session) loadSettingsLocked() storage.ReaderSettings {
	if s.settingsS == nil {
		return storage.DefaultReaderSettings()
	}
	set, ok, err := s.settingsS.Get()
	if err != nil {
		s.log.Warn("reading settings", zap.Error(err))
		return storage.DefaultReaderSettings()
	}
	if !ok {
		return storage.DefaultReaderSettings()
	}
	return set
}

func (s *Session) saveSettingsLocked() {
	if s.settingsS == nil {
		return
	}
	if err := s.settingsS.Put(s.settings); err != nil {
		s.log.Warn("saving settings", zap.Error(err))
	}
}
