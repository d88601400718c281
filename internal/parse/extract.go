package parse

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/marlowe/inkwell/internal/models"
)

// Mode selects the title-fallback policy.
//
// ModeStrict rejects any section without a recognized title pattern.
// ModeNotes additionally attempts tiered title synthesis, attaches trailing
// short sections as notes, and decomposes bodies into anchored sub-fields.
// The two policies are deliberately never merged.
type Mode int

const (
	ModeStrict Mode = iota
	ModeNotes
)

const (
	minSectionRunes = 80
	minBodyStrict   = 100
	minBodyNotes    = 50
	minBodySaved    = 50
	synthesisWindow = 500
	maxSynthTitle   = 60
)

var (
	boldTitleRe    = regexp.MustCompile(`(?m)^\*\*(.+?)\*\*`)
	headingTitleRe = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// titleMatch is the result of one matcher attempt: the extracted title and
// the byte offset just past the full matched title token (markup included).
type titleMatch struct {
	title     string
	bodyStart int
}

// titleMatcher attempts to locate a title within a section.
type titleMatcher interface {
	attempt(section string) (titleMatch, bool)
}

type regexMatcher struct {
	re *regexp.Regexp
}

func (m regexMatcher) attempt(section string) (titleMatch, bool) {
	loc := m.re.FindStringSubmatchIndex(section)
	if loc == nil {
		return titleMatch{}, false
	}
	return titleMatch{
		title:     strings.TrimSpace(section[loc[2]:loc[3]]),
		bodyStart: loc[1],
	}, true
}

// titleMatchers is the fixed priority order: strict inline bold first,
// then a single-level heading.
var titleMatchers = []titleMatcher{
	regexMatcher{boldTitleRe},
	regexMatcher{headingTitleRe},
}

// placeholderTitles are formatting artifacts the model sometimes bolds on
// their own line; they are never acceptable as draft titles.
var placeholderTitles = map[string]struct{}{
	"key insight:":    {},
	"key insight":     {},
	"innovation":      {},
	"think about it:": {},
	"summary:":        {},
}

func matchTitle(section string) (titleMatch, bool) {
	for _, m := range titleMatchers {
		if tm, ok := m.attempt(section); ok {
			return tm, true
		}
	}
	return titleMatch{}, false
}

// Extract identifies a title and body within one section, or rejects it.
// Rejection is silent and ordered: empty section first, then the section
// length floor, then title detection, then the body length floor.
func Extract(section string, mode Mode) (models.Article, bool) {
	section = strings.TrimSpace(section)
	if section == "" {
		return models.Article{}, false
	}
	if utf8.RuneCountInString(section) < minSectionRunes {
		return models.Article{}, false
	}

	tm, ok := matchTitle(section)
	if ok && mode == ModeNotes {
		if _, bad := placeholderTitles[strings.ToLower(tm.title)]; bad {
			return models.Article{}, false
		}
	}
	if !ok {
		if mode != ModeNotes {
			return models.Article{}, false
		}
		// Notes mode: tiered synthesis. The synthesized title is a clause
		// inside the narrative, not a removable token, so the body stays
		// the whole section.
		title, found := synthesizeTitle(section)
		if !found {
			return models.Article{}, false
		}
		tm = titleMatch{title: title, bodyStart: 0}
	}

	body := strings.TrimSpace(section[tm.bodyStart:])
	minBody := minBodyStrict
	if mode == ModeNotes {
		minBody = minBodyNotes
	}
	if utf8.RuneCountInString(body) < minBody {
		return models.Article{}, false
	}

	return models.Article{Title: tm.title, Body: body}, true
}

// Narrative lead-in phrasings tried, in order, over the first 500 runes.
var leadInRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Here's (?:something|a truth|what's)\s+(?:that\s+)?([^.!?]{20,80})[.!?]`),
	regexp.MustCompile(`(?i)(?:You know what|Think about)\s+([^.!?]{20,80})[.!?]`),
	regexp.MustCompile(`(?i)Jesus (?:said|told|taught)\s+([^.!?]{20,80})[.!?]`),
}

// A capitalized sentence of 10-80 runes directly after a blank line.
var firstSentenceRe = regexp.MustCompile(`\n\n([A-Z][^.!?]{10,80})[.!?]`)

// synthesizeTitle guesses a title from the section's narrative content:
// lead-in phrasings within the opening window first, then the first
// capitalized sentence after a blank line. Both tiers cap the result at
// 60 runes and upper-case the first letter.
func synthesizeTitle(section string) (string, bool) {
	window := runePrefix(section, synthesisWindow)
	for _, re := range leadInRes {
		if m := re.FindStringSubmatch(window); m != nil {
			return polishTitle(m[1]), true
		}
	}
	if m := firstSentenceRe.FindStringSubmatch(section); m != nil {
		return polishTitle(m[1]), true
	}
	return "", false
}

func polishTitle(clause string) string {
	t := runePrefix(strings.TrimSpace(clause), maxSynthTitle)
	r, size := utf8.DecodeRuneInString(t)
	if r != utf8.RuneError && unicode.IsLower(r) {
		t = string(unicode.ToUpper(r)) + t[size:]
	}
	return t
}

func runePrefix(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
