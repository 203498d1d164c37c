package forum

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestPageURL(t *testing.T) {
	tests := []struct {
		name string
		req  FetchRequest
		want string
	}{
		{
			name: "query path",
			req:  FetchRequest{ThreadPath: "forum.php?mod=viewthread&tid=1", Page: 2},
			want: "https://bbs.example.com/forum.php?mod=viewthread&tid=1&page=2",
		},
		{
			name: "author filter",
			req:  FetchRequest{ThreadPath: "/forum.php?mod=viewthread&tid=1", Page: 1, AuthorID: "77"},
			want: "https://bbs.example.com/forum.php?mod=viewthread&tid=1&page=1&authorid=77",
		},
		{
			name: "plain path",
			req:  FetchRequest{ThreadPath: "thread-1", Page: 3},
			want: "https://bbs.example.com/thread-1?page=3",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageURL("https://bbs.example.com/", tt.req))
		})
	}
}

func TestFetchPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "viewthread", r.URL.Query().Get("mod"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "9", r.URL.Query().Get("authorid"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(`<html><body><div class="message">hello</div>` +
			`<div class="pg"><label><span title="共 4 页"> / 4 页</span></label></div></body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, zaptest.NewLogger(t))
	res, err := f.FetchPage(context.Background(), FetchRequest{
		ThreadPath: "forum.php?mod=viewthread&tid=5",
		Page:       2,
		AuthorID:   "9",
	})
	require.NoError(t, err)
	assert.Contains(t, res.HTML, "hello")
	assert.Equal(t, 4, res.MaxPage)
	assert.Equal(t, "9", AuthorIDFromURL(res.FinalURL))
}

func TestFetchPageStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL, zaptest.NewLogger(t))
	_, err := f.FetchPage(context.Background(), FetchRequest{ThreadPath: "forum.php?tid=1", Page: 1})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
}

func TestFetchPageCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("never"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(srv.URL, nil)
	_, err := f.FetchPage(ctx, FetchRequest{ThreadPath: "forum.php?tid=1", Page: 1})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
