package parse

import (
	"strings"
	"unicode/utf8"

	"github.com/marlowe/inkwell/internal/models"
)

// maxNoteRunes is the length ceiling for a trailing section to qualify as a
// side-channel note rather than an article candidate.
const maxNoteRunes = 400

// Parse runs the full pipeline over one raw model reply: segment, extract in
// order, and in notes mode attach trailing notes and decompose bodies.
// Articles are emitted in section order. Empty input yields an empty list.
// A zero-length result on non-empty input is the caller's cue for the
// debug-dump contract; Parse itself never errors.
func Parse(raw string, mode Mode) []models.Article {
	sections := Segment(raw)

	var out []models.Article
	for i := 0; i < len(sections); i++ {
		art, ok := Extract(sections[i], mode)
		if !ok {
			continue
		}

		if mode == ModeNotes {
			// Lookahead-and-consume: at most two notes per article,
			// strictly sequential. A non-qualifying section stays
			// available as the next article candidate.
			if note, ok := noteCandidate(sections, i+1); ok {
				art.Note1 = note
				i++
				if note, ok := noteCandidate(sections, i+1); ok {
					art.Note2 = note
					i++
				}
			}
			fields := Decompose(art.Body)
			art.Fields = &fields
		}

		out = append(out, art)
	}
	return out
}

// noteCandidate reports whether sections[i] qualifies as a note: shorter
// than the note ceiling and free of the structured-field anchor markers.
func noteCandidate(sections []string, i int) (string, bool) {
	if i >= len(sections) {
		return "", false
	}
	s := sections[i]
	if utf8.RuneCountInString(s) >= maxNoteRunes {
		return "", false
	}
	if strings.Contains(s, markerInsight) || strings.Contains(s, markerReflection) {
		return "", false
	}
	return s, true
}

// ParseSavedFile re-parses a persisted draft file. It is the lenient
// fallback used when the master CSV holds no rows for a source: sections
// without a recognized title become "Untitled", and the body floor drops
// to the saved-file minimum.
func ParseSavedFile(raw string) []models.Article {
	var out []models.Article
	for _, section := range Segment(raw) {
		if section == "" || utf8.RuneCountInString(section) < minSectionRunes {
			continue
		}

		title := "Untitled"
		body := section
		if tm, ok := matchTitle(section); ok {
			title = tm.title
			body = strings.TrimSpace(section[tm.bodyStart:])
		}
		if utf8.RuneCountInString(body) < minBodySaved {
			continue
		}
		out = append(out, models.Article{Title: title, Body: body})
	}
	return out
}
