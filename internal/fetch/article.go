package fetch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	nurl "net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
)

const (
	minContentRunes = 100
	fetchAttempts   = 3
	fetchBackoff    = time.Second
)

// Result is one fetched article.
type Result struct {
	ID      string
	URL     string
	Title   string
	Content string
}

// ArticleFetcher pulls web pages and extracts readable article text.
type ArticleFetcher struct {
	httpc  *http.Client
	logger *slog.Logger
}

// NewArticleFetcher creates a fetcher with the given timeout per request.
func NewArticleFetcher(timeout time.Duration, logger *slog.Logger) *ArticleFetcher {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &ArticleFetcher{
		httpc:  &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Fetch validates and retrieves one article. Transient failures are
// retried with exponential backoff; a page whose extracted text is under
// the minimum length counts as a failure, since it is usually a bot wall
// or a consent page.
func (f *ArticleFetcher) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL != "" && !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	if err := ValidateArticleURL(rawURL); err != nil {
		return nil, err
	}

	backoff := fetchBackoff
	var lastErr error
	for attempt := 1; attempt <= fetchAttempts; attempt++ {
		res, err := f.once(ctx, rawURL)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if attempt == fetchAttempts {
			break
		}
		f.logger.Warn("fetch: retrying",
			slog.String("url", rawURL),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("fetch: %s: %w", rawURL, lastErr)
}

func (f *ArticleFetcher) once(ctx context.Context, rawURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: create request: %w", err)
	}
	setBrowserHeaders(req.Header)

	res, err := f.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: status %d", res.StatusCode)
	}

	pageURL, err := nurl.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: parse url: %w", err)
	}
	article, err := readability.FromReader(res.Body, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: extract: %w", err)
	}

	content := cleanContent(article.TextContent)
	if utf8.RuneCountInString(content) < minContentRunes {
		return nil, fmt.Errorf("fetch: extracted content too short (%d runes)", utf8.RuneCountInString(content))
	}

	title := cleanTitle(article.Title)
	if title == "" {
		title = pageURL.Host
	}

	return &Result{
		ID:      SlugID(rawURL),
		URL:     rawURL,
		Title:   title,
		Content: content,
	}, nil
}

// setBrowserHeaders mimics a desktop browser; several publishers refuse
// default Go client requests outright.
func setBrowserHeaders(h http.Header) {
	h.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	h.Set("Accept-Language", "en-US,en;q=0.5")
	h.Set("DNT", "1")
	h.Set("Upgrade-Insecure-Requests", "1")
	h.Set("Sec-Fetch-Dest", "document")
	h.Set("Sec-Fetch-Mode", "navigate")
	h.Set("Sec-Fetch-Site", "none")
	h.Set("Cache-Control", "max-age=0")
}

// cleanTitle strips site-name suffixes publishers append to page titles.
func cleanTitle(title string) string {
	title = strings.TrimSpace(title)
	title, _, _ = strings.Cut(title, " | ")
	title, _, _ = strings.Cut(title, " - ")
	return strings.TrimSpace(title)
}

// cleanContent normalizes whitespace and drops very short paragraphs,
// which are usually navigation or metadata fragments.
func cleanContent(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	text = strings.Join(lines, "\n")

	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if utf8.RuneCountInString(p) > 40 {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n\n")
}
