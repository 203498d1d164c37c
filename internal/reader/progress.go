package reader

import (
	"go.uber.org/zap"

	"github.com/vidyasagar/yamireader/internal/forum"
	"github.com/vidyasagar/yamireader/internal/paginate"
	"github.com/vidyasagar/yamireader/internal/storage"
)

func (s *Session) loadProgressLocked() storage.Progress {
	if s.favorites == nil {
		return storage.Progress{}
	}
	all, err := s.favorites.All()
	if err != nil {
		s.log.Warn("reading progress", zap.Error(err))
		return storage.Progress{}
	}
	return all[s.threadID]
}

// saveProgressLocked records index as the reading position. In vertical mode
// the row index is stored as an equivalent page number.
func (s *Session) saveProgressLocked(index int) {
	if s.favorites == nil {
		return
	}
	chapter := paginate.ChapterOf(s.seq.Units, index)
	if chapter == "" && index == len(s.seq.Units)-1 {
		// The footer belongs to the last post before it.
		chapter = paginate.ChapterOf(s.seq.Units, index-1)
	}
	p := storage.Progress{
		LastNetworkPage: s.page,
		LastIndex:       s.cfg.StoredFromIndex(index),
		LastChapter:     chapter,
		AuthorID:        s.authorID,
	}
	if err := s.favorites.Update(s.threadID, p); err != nil {
		s.log.Warn("saving progress", zap.Error(err))
		return
	}
	s.log.Debug("progress saved",
		zap.Int("page", p.LastNetworkPage),
		zap.Int("index", p.LastIndex),
		zap.String("chapter", p.LastChapter),
	)
}

// adoptAuthorLocked takes the author filter from a fetched URL when the
// session has none, and records it on the thread's favorite if that lacks one.
func (s *Session) adoptAuthorLocked(finalURL string) {
	if s.authorID != "" {
		return
	}
	id := forum.AuthorIDFromURL(finalURL)
	if id == "" {
		return
	}
	s.authorID = id
	s.log.Info("author filter discovered", zap.String("author", id))

	if s.favorites == nil {
		return
	}
	all, err := s.favorites.All()
	if err != nil {
		s.log.Warn("reading progress", zap.Error(err))
		return
	}
	p, ok := all[s.threadID]
	if !ok || p.AuthorID != "" {
		return
	}
	p.AuthorID = id
	if err := s.favorites.Update(s.threadID, p); err != nil {
		s.log.Warn("saving author filter", zap.Error(err))
	}
}
