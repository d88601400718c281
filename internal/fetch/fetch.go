// Package fetch retrieves source material for draft generation: web
// articles are pulled and extracted here, video transcripts arrive as text
// from the caller.
package fetch

import (
	"fmt"
	"regexp"
	"strings"
)

// Blocked hosts for article fetching. Videos go through the transcript
// path, the rest are not articles.
var blockedDomains = []string{
	"youtube.com", "youtu.be",
	"github.com",
	"reddit.com",
}

// DetectType classifies a source URL.
func DetectType(url string) string {
	if strings.Contains(url, "youtube.com") || strings.Contains(url, "youtu.be") {
		return "video"
	}
	return "article"
}

// VideoID extracts the video identifier from the two YouTube URL shapes.
func VideoID(url string) (string, bool) {
	if _, rest, ok := strings.Cut(url, "youtube.com/watch?v="); ok {
		id, _, _ := strings.Cut(rest, "&")
		return id, id != ""
	}
	if _, rest, ok := strings.Cut(url, "youtu.be/"); ok {
		id, _, _ := strings.Cut(rest, "?")
		return id, id != ""
	}
	return "", false
}

// ValidateArticleURL rejects URLs that cannot be fetched as articles.
func ValidateArticleURL(url string) error {
	u := strings.ToLower(strings.TrimSpace(url))
	if u == "" {
		return fmt.Errorf("fetch: empty url")
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("fetch: url must start with http:// or https://")
	}
	for _, domain := range blockedDomains {
		if strings.Contains(u, domain) {
			return fmt.Errorf("fetch: %s is not an article source", domain)
		}
	}
	return nil
}

var (
	nonSlugChars = regexp.MustCompile(`[^a-zA-Z0-9-]`)
	hyphenRuns   = regexp.MustCompile(`-+`)
)

// SlugID derives a stable source id from an article URL: protocol
// stripped, non-alphanumerics collapsed to single hyphens, capped at 50.
func SlugID(url string) string {
	s := strings.TrimPrefix(strings.TrimPrefix(url, "https://"), "http://")
	s = nonSlugChars.ReplaceAllString(s, "-")
	s = hyphenRuns.ReplaceAllString(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
