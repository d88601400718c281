package parse

import (
	"regexp"
	"strings"

	"github.com/marlowe/inkwell/internal/models"
)

// Anchor markers for the side-channel note filter and body decomposition.
const (
	markerInsight    = "Key Insight:"
	markerReflection = "Think about it:"
)

// Go's regexp has no lookahead, so the patterns capture the field and
// consume the terminator; slicing offsets below use the capture-group
// bounds, which match the lookahead-based originals exactly.
var (
	insightRe    = regexp.MustCompile(`(?i)Key Insight:\s*(.+?)\n\n`)
	reflectionRe = regexp.MustCompile(`(?is)\*\*Think about it:\*\*\s*(.+?)\n\n\*\*Summary`)
	summaryRe    = regexp.MustCompile(`(?is)\*\*Summary:\*\*\s*(.+)`)
)

// Decompose extracts the anchored sub-fields from a draft body. The four
// extractions are independent and optional; a missing anchor yields an empty
// field, never an error. MainText is all-or-nothing: the slice strictly
// between the insight and reflection anchors when BOTH matched, otherwise
// the entire body unmodified.
func Decompose(body string) models.BodyFields {
	f := models.BodyFields{MainText: body}

	insight := insightRe.FindStringSubmatchIndex(body)
	if insight != nil {
		f.Insight = strings.TrimSpace(body[insight[2]:insight[3]])
	}

	reflection := reflectionRe.FindStringSubmatchIndex(body)
	if reflection != nil {
		f.Reflection = strings.TrimSpace(body[reflection[2]:reflection[3]])
	}

	if m := summaryRe.FindStringSubmatch(body); m != nil {
		f.Summary = strings.TrimSpace(m[1])
	}

	if insight != nil && reflection != nil {
		// insight[3] is the end of the captured insight line;
		// reflection[0] is the start of the bold reflection marker.
		f.MainText = strings.TrimSpace(body[insight[3]:reflection[0]])
	}

	return f
}
