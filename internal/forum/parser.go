package forum

import (
	"crypto/sha256"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/vidyasagar/yamireader/internal/content"
)

const (
	// chapterTitleRunes bounds the chapter title taken from a post's first line.
	chapterTitleRunes = 30
	parseMemoSize     = 64
)

type memoKey struct {
	sum    [sha256.Size]byte
	images bool
}

// Parser turns thread page markup into content units. Results are memoized
// by markup hash, so re-paginating the same page skips the DOM walk.
type Parser struct {
	baseURL string
	memo    *lru.Cache[memoKey, []content.Unit]
	log     *zap.Logger
}

// NewParser creates a Parser resolving relative image sources against baseURL.
func NewParser(baseURL string, log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	memo, _ := lru.New[memoKey, []content.Unit](parseMemoSize)
	return &Parser{
		baseURL: strings.TrimRight(baseURL, "/"),
		memo:    memo,
		log:     log,
	}
}

// Parse extracts one Text unit per post, plus the post's images when
// includeImages is set. Markup without posts yields the readable text of the
// page as a single unit, or nothing.
func (p *Parser) Parse(markup string, includeImages bool) []content.Unit {
	key := memoKey{sum: sha256.Sum256([]byte(markup)), images: includeImages}
	if units, ok := p.memo.Get(key); ok {
		return append([]content.Unit(nil), units...)
	}

	units := p.parse(markup, includeImages)
	p.memo.Add(key, units)
	return append([]content.Unit(nil), units...)
}

func (p *Parser) parse(markup string, includeImages bool) []content.Unit {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		p.log.Debug("unparseable markup", zap.Error(err))
		return nil
	}
	doc.Find("i").Remove()

	messages := doc.Find(".message")
	if messages.Length() == 0 {
		return p.fallback(markup)
	}

	var units []content.Unit
	messages.Each(func(_ int, s *goquery.Selection) {
		text := blockText(s)
		title := chapterTitle(text)

		if strings.TrimSpace(text) != "" {
			units = append(units, content.Text{Body: text, Title: title})
		}
		if !includeImages {
			return
		}
		s.Find("img").Each(func(_ int, img *goquery.Selection) {
			src, ok := img.Attr("src")
			if !ok || src == "" {
				return
			}
			units = append(units, content.Image{URL: p.resolve(src), Title: title})
		})
	})
	return units
}

// fallback runs readability over pages without post blocks.
func (p *Parser) fallback(markup string) []content.Unit {
	if strings.TrimSpace(markup) == "" {
		return nil
	}
	base, _ := url.Parse(p.baseURL)
	article, err := readability.FromReader(strings.NewReader(markup), base)
	if err != nil {
		p.log.Debug("readability found no content", zap.Error(err))
		return nil
	}
	text := strings.TrimSpace(normalizeText(article.TextContent))
	if text == "" {
		return nil
	}
	return []content.Unit{content.Text{Body: text, Title: chapterTitle(text)}}
}

func (p *Parser) resolve(src string) string {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https") {
		return src
	}
	return p.baseURL + "/" + strings.TrimLeft(src, "/")
}

// blockText renders a post as plain text, keeping its line breaks.
func blockText(s *goquery.Selection) string {
	s = s.Clone()
	s.Find("br").ReplaceWithNodes(newline())
	s.Find("p, div, li").AppendNodes(newline())
	return normalizeText(s.Text())
}

func newline() *html.Node {
	return &html.Node{Type: html.TextNode, Data: "\n"}
}

func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Trim(s, " \t\n")
}

// chapterTitle returns the first non-blank line of text, trimmed and cut to
// chapterTitleRunes runes.
func chapterTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if r := []rune(line); len(r) > chapterTitleRunes {
			line = string(r[:chapterTitleRunes])
		}
		return line
	}
	return ""
}
