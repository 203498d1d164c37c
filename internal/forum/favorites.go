package forum

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FavoritesPath is the forum page listing the logged-in user's favorite threads.
const FavoritesPath = "home.php?mod=space&do=favorite&type=thread&mobile=2"

// FavoriteLink is one entry of the forum's favorites page.
type FavoriteLink struct {
	Title      string
	ThreadPath string
}

// ParseFavorites reads the favorite threads listed on a favorites page. Each
// .sclist entry carries its title as text and the thread link as its second
// child.
func ParseFavorites(baseURL, html string) []FavoriteLink {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var links []FavoriteLink
	seen := make(map[string]bool)
	doc.Find(".sclist").Each(func(_ int, li *goquery.Selection) {
		href := li.Children().Eq(1).AttrOr("href", "")
		if href == "" {
			href = li.Find("a[href]").Last().AttrOr("href", "")
		}
		path := ExtractThreadPath(baseURL, href)
		if path == "" {
			path = strings.TrimLeft(href, "/")
		}
		if path == "" || seen[path] {
			return
		}
		seen[path] = true
		links = append(links, FavoriteLink{
			Title:      strings.TrimSpace(li.Text()),
			ThreadPath: path,
		})
	})
	return links
}

// FetchFavorites downloads and parses the favorites page. The forum only
// lists favorites for an authenticated session.
func (f *Fetcher) FetchFavorites(ctx context.Context) ([]FavoriteLink, error) {
	res, err := f.FetchURL(ctx, FavoritesPath)
	if err != nil {
		return nil, err
	}
	return ParseFavorites(f.baseURL, res.HTML), nil
}
