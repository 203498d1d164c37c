package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()

	_, ok, err := m.Get("tid=1", 1)
	require.NoError(t, err)
	assert.False(t, ok)

	e := Entry{ThreadID: "tid=1", Page: 1, HTML: "<p>hi</p>", MaxPage: 3, AuthorID: "42"}
	require.NoError(t, m.Put(e))

	got, ok, err := m.Get("tid=1", 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e, got)
}

func TestMemoryLastWriterWins(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Put(Entry{ThreadID: "t", Page: 2, HTML: "old", MaxPage: 2, AuthorID: "7"}))
	require.NoError(t, m.Put(Entry{ThreadID: "t", Page: 2, HTML: "new", MaxPage: 5}))

	got, ok, err := m.Get("t", 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Entry{ThreadID: "t", Page: 2, HTML: "new", MaxPage: 5}, got)
	assert.Equal(t, 1, m.Len())
}

func TestMemoryKeysAreIndependent(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Put(Entry{ThreadID: "a", Page: 1, HTML: "a1"}))
	require.NoError(t, m.Put(Entry{ThreadID: "a", Page: 2, HTML: "a2"}))
	require.NoError(t, m.Put(Entry{ThreadID: "b", Page: 1, HTML: "b1"}))

	got, _, _ := m.Get("a", 2)
	assert.Equal(t, "a2", got.HTML)
	got, _, _ = m.Get("b", 1)
	assert.Equal(t, "b1", got.HTML)
	assert.Equal(t, 3, m.Len())
}
