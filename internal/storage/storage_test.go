package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidyasagar/yamireader/internal/cache"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPageCacheRoundTrip(t *testing.T) {
	pc := NewPageCacheStore(openTestDB(t))
	var _ cache.Store = pc

	_, ok, err := pc.Get("forum.php?tid=1", 2)
	require.NoError(t, err)
	assert.False(t, ok)

	e := cache.Entry{ThreadID: "forum.php?tid=1", Page: 2, HTML: "<div>x</div>", MaxPage: 3, AuthorID: "9"}
	require.NoError(t, pc.Put(e))

	got, ok, err := pc.Get("forum.php?tid=1", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e, got)

	// Overwrite drops the author id instead of merging.
	e2 := cache.Entry{ThreadID: "forum.php?tid=1", Page: 2, HTML: "new", MaxPage: 4}
	require.NoError(t, pc.Put(e2))
	got, _, err = pc.Get("forum.php?tid=1", 2)
	require.NoError(t, err)
	assert.Equal(t, e2, got)
}

func TestPageCacheListAndClear(t *testing.T) {
	pc := NewPageCacheStore(openTestDB(t))
	require.NoError(t, pc.Put(cache.Entry{ThreadID: "a", Page: 1, HTML: "12345", MaxPage: 2}))
	require.NoError(t, pc.Put(cache.Entry{ThreadID: "a", Page: 2, HTML: "1", MaxPage: 2}))
	require.NoError(t, pc.Put(cache.Entry{ThreadID: "b", Page: 1, HTML: "", MaxPage: 1, AuthorID: "3"}))

	pages, err := pc.List()
	require.NoError(t, err)
	require.Len(t, pages, 3)
	assert.Equal(t, CachedPage{ThreadID: "a", Page: 1, MaxPage: 2, Size: 5}, pages[0])
	assert.Equal(t, "3", pages[2].AuthorID)

	n, err := pc.Clear("a")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	n, err = pc.Clear("")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestFavoritesAddAndProgress(t *testing.T) {
	fs := NewFavoriteStore(openTestDB(t))

	added, err := fs.Add("t1", "First")
	require.NoError(t, err)
	assert.True(t, added)
	added, err = fs.Add("t1", "Again")
	require.NoError(t, err)
	assert.False(t, added)

	f, ok, err := fs.Get("t1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "First", f.Title)
	assert.Equal(t, Progress{LastNetworkPage: 1}, f.Progress)

	p := Progress{LastNetworkPage: 3, LastIndex: 17, LastChapter: "第三章", AuthorID: "42"}
	require.NoError(t, fs.Update("t1", p))
	// Progress of a thread that is not a favorite is not recorded.
	require.NoError(t, fs.Update("missing", p))

	all, err := fs.All()
	require.NoError(t, err)
	assert.Equal(t, map[string]Progress{"t1": p}, all)
}

func TestFavoritesMergeKeepsProgress(t *testing.T) {
	fs := NewFavoriteStore(openTestDB(t))
	_, err := fs.Add("t1", "One")
	require.NoError(t, err)
	require.NoError(t, fs.Update("t1", Progress{LastNetworkPage: 5, LastIndex: 2}))

	n, err := fs.Merge([]Favorite{{ThreadID: "t1", Title: "One renamed"}, {ThreadID: "t2", Title: "Two"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	list, err := fs.List(false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "t1", list[0].ThreadID)
	assert.Equal(t, 5, list[0].Progress.LastNetworkPage)
	assert.Equal(t, "t2", list[1].ThreadID)
}

func threadIDs(list []Favorite) []string {
	ids := make([]string, len(list))
	for i, f := range list {
		ids[i] = f.ThreadID
	}
	return ids
}

func TestFavoritesMoveAndHide(t *testing.T) {
	fs := NewFavoriteStore(openTestDB(t))
	for _, id := range []string{"a", "b", "c", "d"} {
		_, err := fs.Add(id, id)
		require.NoError(t, err)
	}

	require.NoError(t, fs.SetHidden([]string{"b"}, true))
	visible, err := fs.List(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, threadIDs(visible))

	require.NoError(t, fs.Move(2, 0))
	all, err := fs.List(true)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "c", "b"}, threadIDs(all))

	require.Error(t, fs.Move(0, 3))

	require.NoError(t, fs.SetHidden([]string{"b"}, false))
	visible, err = fs.List(false)
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "a", "c", "b"}, threadIDs(visible))

	removed, err := fs.Remove("a")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = fs.Remove("a")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestSettingsFileDefaults(t *testing.T) {
	sf := NewSettingsFile(t.TempDir())

	s, ok, err := sf.Get()
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, DefaultReaderSettings(), s)
}

func TestSettingsFileRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	sf := NewSettingsFile(dir)

	want := ReaderSettings{
		FontSize:        30,
		LineHeight:      50,
		Padding:         8,
		LetterSpacing:   1,
		NightMode:       true,
		BackgroundColor: "",
		LoadImages:      true,
		VerticalMode:    true,
	}
	require.NoError(t, sf.Put(want))

	got, ok, err := sf.Get()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, err = os.Stat(sf.Path() + ".tmp")
	assert.True(t, os.IsNotExist(err))
}

func TestSettingsFilePartial(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte(`{"font_size_px": 28}`), 0o644))

	s, ok, err := NewSettingsFile(dir).Get()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 28.0, s.FontSize)
	assert.Equal(t, 43.0, s.LineHeight)
	assert.Equal(t, 16.0, s.Padding)
}

func TestSettingsFileCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, settingsFileName), []byte(`{`), 0o644))

	s, _, err := NewSettingsFile(dir).Get()
	require.Error(t, err)
	assert.Equal(t, DefaultReaderSettings(), s)
}
