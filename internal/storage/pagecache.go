package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/vidyasagar/yamireader/internal/cache"
)

// PageCacheStore persists fetched network pages in SQLite. It satisfies
// cache.Store.
type PageCacheStore struct {
	db *sql.DB
}

// NewPageCacheStore creates a page cache using the given database.
func NewPageCacheStore(db *DB) *PageCacheStore {
	return &PageCacheStore{db: db.Conn()}
}

// Get returns the cached page for (threadID, page).
func (ps *PageCacheStore) Get(threadID string, page int) (cache.Entry, bool, error) {
	var (
		e        = cache.Entry{ThreadID: threadID, Page: page}
		authorID sql.NullString
	)
	err := ps.db.QueryRow(
		`SELECT html, max_page, author_id FROM page_cache WHERE thread_id = ? AND page = ?`,
		threadID, page,
	).Scan(&e.HTML, &e.MaxPage, &authorID)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	}
	if err != nil {
		return cache.Entry{}, false, fmt.Errorf("reading cached page %d of %s: %w", page, threadID, err)
	}
	e.AuthorID = authorID.String
	return e, true, nil
}

// Put stores e, replacing any previous entry for the same key.
func (ps *PageCacheStore) Put(e cache.Entry) error {
	_, err := ps.db.Exec(
		`INSERT OR REPLACE INTO page_cache (thread_id, page, html, max_page, author_id, cached_at)
		 VALUES (?, ?, ?, ?, ?, datetime('now'))`,
		e.ThreadID, e.Page, e.HTML, e.MaxPage, nullString(e.AuthorID),
	)
	if err != nil {
		return fmt.Errorf("caching page %d of %s: %w", e.Page, e.ThreadID, err)
	}
	return nil
}

// CachedPage summarizes one cache row without its HTML.
type CachedPage struct {
	ThreadID string
	Page     int
	MaxPage  int
	AuthorID string
	Size     int
}

// List returns a summary of every cached page, grouped by thread.
func (ps *PageCacheStore) List() ([]CachedPage, error) {
	rows, err := ps.db.Query(
		`SELECT thread_id, page, max_page, author_id, length(html)
		 FROM page_cache ORDER BY thread_id, page`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing cache: %w", err)
	}
	defer rows.Close()

	var pages []CachedPage
	for rows.Next() {
		var (
			p        CachedPage
			authorID sql.NullString
		)
		if err := rows.Scan(&p.ThreadID, &p.Page, &p.MaxPage, &authorID, &p.Size); err != nil {
			return nil, fmt.Errorf("scanning cache row: %w", err)
		}
		p.AuthorID = authorID.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// Clear removes cached pages of threadID, or of every thread when threadID is "".
// It returns the number of pages removed.
func (ps *PageCacheStore) Clear(threadID string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if threadID == "" {
		res, err = ps.db.Exec(`DELETE FROM page_cache`)
	} else {
		res, err = ps.db.Exec(`DELETE FROM page_cache WHERE thread_id = ?`, threadID)
	}
	if err != nil {
		return 0, fmt.Errorf("clearing cache: %w", err)
	}
	return res.RowsAffected()
}
