package forum

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CanConvertToReaderMode reports whether url points at a thread view that the
// reader can open.
func CanConvertToReaderMode(url string) bool {
	if strings.TrimSpace(url) == "" {
		return false
	}
	return strings.Contains(url, "mod=viewthread") && strings.Contains(url, "tid=")
}

// ExtractThreadPath strips the forum origin from url, leaving the path the
// reader keys threads by. Returns "" when url is not a forum address.
func ExtractThreadPath(baseURL, url string) string {
	url = strings.TrimSpace(url)
	if url == "" {
		return ""
	}
	prefix := strings.TrimRight(baseURL, "/") + "/"
	switch {
	case strings.HasPrefix(url, prefix):
		return strings.TrimPrefix(url, prefix)
	case strings.Contains(url, "forum.php"):
		return url[strings.Index(url, "forum.php"):]
	default:
		return ""
	}
}

// AuthorIDFromURL returns the value of the first authorid= parameter in url,
// or "".
func AuthorIDFromURL(url string) string {
	_, after, ok := strings.Cut(url, "authorid=")
	if !ok {
		return ""
	}
	id, _, _ := strings.Cut(after, "&")
	return id
}

var (
	totalPagesRe = regexp.MustCompile(`共\s*(\d+)\s*页`)
	pageParamRe  = regexp.MustCompile(`[?&]page=(\d+)`)
)

// ParseMaxPage reads the thread's page count from the pager of a thread page.
// It prefers the "共 N 页" label and falls back to the largest page=N link.
// Returns 1 when the page has no pager.
func ParseMaxPage(html string) int {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 1
	}

	maxPage := 0
	doc.Find(".pg, .page").Each(func(_ int, s *goquery.Selection) {
		s.Find("[title], label, span").Each(func(_ int, el *goquery.Selection) {
			for _, text := range []string{el.AttrOr("title", ""), el.Text()} {
				if m := totalPagesRe.FindStringSubmatch(text); m != nil {
					if n, _ := strconv.Atoi(m[1]); n > maxPage {
						maxPage = n
					}
				}
			}
		})
	})
	if maxPage > 0 {
		return maxPage
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if !strings.Contains(href, "mod=viewthread") && !strings.Contains(href, "thread-") {
			return
		}
		for _, m := range pageParamRe.FindAllStringSubmatch(href, -1) {
			if n, _ := strconv.Atoi(m[1]); n > maxPage {
				maxPage = n
			}
		}
	})
	if maxPage > 0 {
		return maxPage
	}
	return 1
}
