// Package forum talks to the forum site: it fetches thread pages and turns
// their markup into reader content.
package forum

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultBaseURL is the forum the reader is built for.
	DefaultBaseURL = "https://bbs.yamibo.com"

	defaultTimeout   = 15 * time.Second
	maxBodySize      = 10 * 1024 * 1024 // 10 MB
	defaultUserAgent = "yamireader/0.1 (terminal reader)"
)

// SharedTransport is a tuned HTTP transport shared across all clients.
var SharedTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   20,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ResponseHeaderTimeout: 15 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ForceAttemptHTTP2:     true,
}

// StatusError is returned when the forum answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: unexpected status %d", e.URL, e.StatusCode)
}

// FetchRequest identifies one network page of a thread.
type FetchRequest struct {
	// ThreadPath is the thread location relative to the base URL,
	// e.g. "forum.php?mod=viewthread&tid=563621".
	ThreadPath string
	Page       int
	// AuthorID restricts the page to one poster when set.
	AuthorID string
}

// FetchResult holds a fetched thread page.
type FetchResult struct {
	URL      string
	FinalURL string // after redirects
	HTML     string
	MaxPage  int
	Duration time.Duration
}

// Fetcher retrieves thread pages over HTTP.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	log       *zap.Logger
}

// NewFetcher creates a Fetcher for the forum at baseURL using the shared transport.
func NewFetcher(baseURL string, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		client: &http.Client{
			Transport: SharedTransport,
			Timeout:   defaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects (>10)")
				}
				return nil
			},
		},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
		log:       log,
	}
}

// BaseURL returns the forum root without a trailing slash.
func (f *Fetcher) BaseURL() string {
	return f.baseURL
}

// PageURL builds the address of one network page of a thread.
func (f *Fetcher) PageURL(req FetchRequest) string {
	return PageURL(f.baseURL, req)
}

// PageURL builds base/threadPath&page=N, adding &authorid=X when the request
// carries an author filter.
func PageURL(baseURL string, req FetchRequest) string {
	path := strings.TrimLeft(req.ThreadPath, "/")
	sep := "&"
	if !strings.Contains(path, "?") {
		sep = "?"
	}
	u := fmt.Sprintf("%s/%s%spage=%d", strings.TrimRight(baseURL, "/"), path, sep, req.Page)
	if req.AuthorID != "" {
		u += "&authorid=" + req.AuthorID
	}
	return u
}

// FetchPage retrieves one network page of a thread and detects the thread's
// page count from its pager.
func (f *Fetcher) FetchPage(ctx context.Context, req FetchRequest) (*FetchResult, error) {
	res, err := f.fetch(ctx, f.PageURL(req))
	if err != nil {
		return nil, err
	}
	res.MaxPage = ParseMaxPage(res.HTML)
	f.log.Debug("fetched thread page",
		zap.String("thread", req.ThreadPath),
		zap.Int("page", req.Page),
		zap.Int("max_page", res.MaxPage),
		zap.Duration("took", res.Duration),
	)
	return res, nil
}

// FetchURL retrieves an arbitrary forum address, relative to the base URL
// unless absolute.
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string) (*FetchResult, error) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = f.baseURL + "/" + strings.TrimLeft(rawURL, "/")
	}
	return f.fetch(ctx, rawURL)
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	return &FetchResult{
		URL:      rawURL,
		FinalURL: resp.Request.URL.String(),
		HTML:     string(body),
		Duration: time.Since(start),
	}, nil
}
