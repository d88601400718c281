// Package parse turns a raw model reply into a list of article drafts:
// delimiter segmentation, title extraction, side-channel note attachment,
// and anchored body decomposition. Every function is pure and total over
// arbitrary string input; malformed sections are silently rejected.
package parse

import (
	"regexp"
	"strings"
)

// A delimiter is a line of three or more hyphens standing alone between two
// line breaks. Hyphen runs at the very start or end of the input have no
// surrounding newlines and are therefore not delimiters.
var delimiterRe = regexp.MustCompile(`\n-{3,}\n`)

// Segment splits raw into ordered, whitespace-trimmed sections.
// Empty and short sections are kept; filtering is the extractor's job.
func Segment(raw string) []string {
	parts := delimiterRe.Split(raw, -1)
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out
}
