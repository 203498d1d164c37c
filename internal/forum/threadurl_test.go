package forum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanConvertToReaderMode(t *testing.T) {
	assert.True(t, CanConvertToReaderMode("https://bbs.yamibo.com/forum.php?mod=viewthread&tid=563621&mobile=2"))
	assert.False(t, CanConvertToReaderMode("https://bbs.yamibo.com/forum.php?mod=forumdisplay&fid=55"))
	assert.False(t, CanConvertToReaderMode("https://bbs.yamibo.com/forum.php?mod=viewthread"))
	assert.False(t, CanConvertToReaderMode("   "))
}

func TestExtractThreadPath(t *testing.T) {
	base := "https://bbs.yamibo.com"
	assert.Equal(t,
		"forum.php?mod=viewthread&tid=563621&extra=page%3D1&mobile=2",
		ExtractThreadPath(base, "https://bbs.yamibo.com/forum.php?mod=viewthread&tid=563621&extra=page%3D1&mobile=2"))
	assert.Equal(t,
		"forum.php?mod=viewthread&tid=1",
		ExtractThreadPath(base, "http://mirror.example/forum.php?mod=viewthread&tid=1"))
	assert.Equal(t, "", ExtractThreadPath(base, "https://example.com/index.html"))
	assert.Equal(t, "", ExtractThreadPath(base, ""))
}

func TestAuthorIDFromURL(t *testing.T) {
	assert.Equal(t, "123", AuthorIDFromURL("https://x/forum.php?tid=1&authorid=123&page=2"))
	assert.Equal(t, "123", AuthorIDFromURL("https://x/forum.php?tid=1&authorid=123"))
	assert.Equal(t, "1", AuthorIDFromURL("https://x/?authorid=1&authorid=2"))
	assert.Equal(t, "", AuthorIDFromURL("https://x/forum.php?tid=1"))
}

func TestParseMaxPage(t *testing.T) {
	tests := []struct {
		name string
		html string
		want int
	}{
		{
			name: "pager label",
			html: `<div class="pg"><a href="forum.php?mod=viewthread&tid=1&page=2">2</a><label><span title="共 12 页"> / 12 页</span></label></div>`,
			want: 12,
		},
		{
			name: "page links only",
			html: `<div><a href="forum.php?mod=viewthread&amp;tid=1&amp;page=2">2</a><a href="forum.php?mod=viewthread&amp;tid=1&amp;page=7">7</a></div>`,
			want: 7,
		},
		{
			name: "unrelated links",
			html: `<a href="home.php?mod=space&page=40">space</a>`,
			want: 1,
		},
		{
			name: "no pager",
			html: `<div class="message">only page</div>`,
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMaxPage(tt.html))
		})
	}
}
