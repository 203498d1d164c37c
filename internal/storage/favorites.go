package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Progress is the reading position persisted per thread.
type Progress struct {
	// LastNetworkPage is the forum page the reader was on (1-based).
	LastNetworkPage int
	// LastIndex is a page index (horizontal) or a row index converted to an
	// equivalent page number (vertical).
	LastIndex   int
	LastChapter string
	AuthorID    string
}

// Favorite is a thread saved to the reading list.
type Favorite struct {
	ThreadID  string
	Title     string
	Position  int
	Hidden    bool
	Progress  Progress
	UpdatedAt time.Time
}

// FavoriteStore manages favorites and their reading progress in SQLite.
type FavoriteStore struct {
	db *sql.DB
}

// NewFavoriteStore creates a favorites store using the given database.
func NewFavoriteStore(db *DB) *FavoriteStore {
	return &FavoriteStore{db: db.Conn()}
}

const favoriteColumns = `thread_id, title, position, hidden, last_view, last_page, last_chapter, author_id, updated_at`

// Add appends a favorite. Returns false if the thread is already a favorite.
func (fs *FavoriteStore) Add(threadID, title string) (bool, error) {
	res, err := fs.db.Exec(
		`INSERT OR IGNORE INTO favorites (thread_id, title, position)
		 VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM favorites))`,
		threadID, title,
	)
	if err != nil {
		return false, fmt.Errorf("adding favorite %s: %w", threadID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Merge adds every favorite in list that is not stored yet, in list order.
// Existing favorites keep their progress, position and visibility.
func (fs *FavoriteStore) Merge(list []Favorite) (int, error) {
	added := 0
	for _, f := range list {
		ok, err := fs.Add(f.ThreadID, f.Title)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

// Remove deletes a favorite. Returns false if not found.
func (fs *FavoriteStore) Remove(threadID string) (bool, error) {
	res, err := fs.db.Exec(`DELETE FROM favorites WHERE thread_id = ?`, threadID)
	if err != nil {
		return false, fmt.Errorf("removing favorite %s: %w", threadID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Get returns a single favorite.
func (fs *FavoriteStore) Get(threadID string) (Favorite, bool, error) {
	row := fs.db.QueryRow(`SELECT `+favoriteColumns+` FROM favorites WHERE thread_id = ?`, threadID)
	f, err := scanFavorite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Favorite{}, false, nil
	}
	if err != nil {
		return Favorite{}, false, err
	}
	return f, true, nil
}

// List returns favorites in display order. Hidden ones are skipped unless
// includeHidden is set.
func (fs *FavoriteStore) List(includeHidden bool) ([]Favorite, error) {
	query := `SELECT ` + favoriteColumns + ` FROM favorites`
	if !includeHidden {
		query += ` WHERE hidden = 0`
	}
	query += ` ORDER BY position, rowid`

	rows, err := fs.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("listing favorites: %w", err)
	}
	defer rows.Close()

	var favorites []Favorite
	for rows.Next() {
		f, err := scanFavorite(rows)
		if err != nil {
			return nil, err
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

// All returns the reading progress of every favorite keyed by thread id.
func (fs *FavoriteStore) All() (map[string]Progress, error) {
	list, err := fs.List(true)
	if err != nil {
		return nil, err
	}
	m := make(map[string]Progress, len(list))
	for _, f := range list {
		m[f.ThreadID] = f.Progress
	}
	return m, nil
}

// Update stores the reading progress of a favorite. Threads that are not
// favorites are left alone.
func (fs *FavoriteStore) Update(threadID string, p Progress) error {
	_, err := fs.db.Exec(
		`UPDATE favorites
		 SET last_view = ?, last_page = ?, last_chapter = ?, author_id = ?, updated_at = datetime('now')
		 WHERE thread_id = ?`,
		p.LastNetworkPage, p.LastIndex, nullString(p.LastChapter), nullString(p.AuthorID), threadID,
	)
	if err != nil {
		return fmt.Errorf("updating progress of %s: %w", threadID, err)
	}
	return nil
}

// SaveOrder persists ids as the new display order. Favorites missing from ids
// keep their relative order after the listed ones.
func (fs *FavoriteStore) SaveOrder(ids []string) error {
	tx, err := fs.db.Begin()
	if err != nil {
		return fmt.Errorf("saving order: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE favorites SET position = position + ?`, len(ids)); err != nil {
		return fmt.Errorf("saving order: %w", err)
	}
	for i, id := range ids {
		if _, err := tx.Exec(`UPDATE favorites SET position = ? WHERE thread_id = ?`, i, id); err != nil {
			return fmt.Errorf("saving order: %w", err)
		}
	}
	return tx.Commit()
}

// Move reorders the visible favorites, moving the item at from to to.
// Hidden favorites are placed after all visible ones.
func (fs *FavoriteStore) Move(from, to int) error {
	all, err := fs.List(true)
	if err != nil {
		return err
	}

	var visible, hidden []string
	for _, f := range all {
		if f.Hidden {
			hidden = append(hidden, f.ThreadID)
		} else {
			visible = append(visible, f.ThreadID)
		}
	}
	if from < 0 || from >= len(visible) || to < 0 || to >= len(visible) {
		return fmt.Errorf("move %d -> %d: index out of range [0, %d)", from, to, len(visible))
	}
	if from == to {
		return nil
	}

	item := visible[from]
	visible = append(visible[:from], visible[from+1:]...)
	visible = append(visible[:to], append([]string{item}, visible[to:]...)...)

	return fs.SaveOrder(append(visible, hidden...))
}

// SetHidden hides or reveals the given favorites.
func (fs *FavoriteStore) SetHidden(ids []string, hidden bool) error {
	flag := 0
	if hidden {
		flag = 1
	}
	for _, id := range ids {
		if _, err := fs.db.Exec(`UPDATE favorites SET hidden = ? WHERE thread_id = ?`, flag, id); err != nil {
			return fmt.Errorf("updating visibility of %s: %w", id, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFavorite(row rowScanner) (Favorite, error) {
	var (
		f         Favorite
		hidden    int
		chapter   sql.NullString
		authorID  sql.NullString
		updatedAt string
	)
	err := row.Scan(&f.ThreadID, &f.Title, &f.Position, &hidden,
		&f.Progress.LastNetworkPage, &f.Progress.LastIndex, &chapter, &authorID, &updatedAt)
	if err != nil {
		return Favorite{}, err
	}
	f.Hidden = hidden != 0
	f.Progress.LastChapter = chapter.String
	f.Progress.AuthorID = authorID.String
	f.UpdatedAt = parseTimestamp(updatedAt)
	return f, nil
}

// parseTimestamp accepts both SQLite's datetime() text and the RFC 3339 form
// the driver produces for DATETIME columns.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
