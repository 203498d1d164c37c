package forum

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/vidyasagar/yamireader/internal/content"
)

const threadPage = `<html><body>
<div class="message">第一章 开始<br>正文一<i class="pstatus">本帖最后由 someone 编辑</i></div>
<div class="message">   </div>
<div class="message">第二章 继续<br/><img src="data/attachment/a.jpg"><img src="https://img.example.com/b.png"></div>
</body></html>`

func TestParsePosts(t *testing.T) {
	p := NewParser("https://bbs.example.com", zaptest.NewLogger(t))

	units := p.Parse(threadPage, false)
	require.Len(t, units, 2)
	assert.Equal(t, content.Text{Body: "第一章 开始\n正文一", Title: "第一章 开始"}, units[0])
	assert.Equal(t, content.Text{Body: "第二章 继续", Title: "第二章 继续"}, units[1])
}

func TestParseImages(t *testing.T) {
	p := NewParser("https://bbs.example.com/", zaptest.NewLogger(t))

	units := p.Parse(threadPage, true)
	require.Len(t, units, 4)
	assert.Equal(t, content.Image{URL: "https://bbs.example.com/data/attachment/a.jpg", Title: "第二章 继续"}, units[2])
	assert.Equal(t, content.Image{URL: "https://img.example.com/b.png", Title: "第二章 继续"}, units[3])
}

func TestParseChapterTitleTruncated(t *testing.T) {
	long := strings.Repeat("长", 40)
	p := NewParser("", nil)

	units := p.Parse(`<div class="message"><p>  </p>  `+long+`<br>body</div>`, false)
	require.Len(t, units, 1)
	assert.Equal(t, strings.Repeat("长", chapterTitleRunes), units[0].Chapter())
}

func TestParseMemoizedResultIsCopied(t *testing.T) {
	p := NewParser("", nil)

	first := p.Parse(threadPage, false)
	first[0] = content.Text{Body: "mutated"}

	second := p.Parse(threadPage, false)
	assert.Equal(t, "第一章 开始", second[0].Chapter())
	assert.Equal(t, 1, p.memo.Len())

	p.Parse(threadPage, true)
	assert.Equal(t, 2, p.memo.Len())
}

func TestParseEmptyMarkup(t *testing.T) {
	p := NewParser("", nil)
	assert.Empty(t, p.Parse("", false))
	assert.Empty(t, p.Parse("<html><body></body></html>", false))
}
