// Package cache stores one fetched network page per (thread, page number).
package cache

import "sync"

// Key identifies a cached network page.
type Key struct {
	ThreadID string
	Page     int
}

// Entry is a cached network fetch result.
type Entry struct {
	ThreadID string
	Page     int
	HTML     string
	MaxPage  int
	AuthorID string // "" when the page was fetched without an author filter
}

// Key returns the entry's cache key.
func (e Entry) Key() Key {
	return Key{ThreadID: e.ThreadID, Page: e.Page}
}

// Store is the page cache contract. Put fully replaces any entry under the
// same key. There is no eviction.
type Store interface {
	Get(threadID string, page int) (Entry, bool, error)
	Put(e Entry) error
}

// Memory is a process-local Store.
type Memory struct {
	mu      sync.RWMutex
	entries map[Key]Entry
}

// NewMemory creates an empty in-memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[Key]Entry)}
}

// Get returns the entry for (threadID, page).
func (m *Memory) Get(threadID string, page int) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[Key{ThreadID: threadID, Page: page}]
	return e, ok, nil
}

// Put stores e, replacing whatever was cached under its key.
func (m *Memory) Put(e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Key()] = e
	return nil
}

// Len returns the number of cached pages.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
