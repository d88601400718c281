package parse

import (
	"fmt"
	"strings"
	"testing"
)

func article(title string) string {
	return "**" + title + "**\n\n" + longBody
}

func TestParse_RoundTripOrder(t *testing.T) {
	const n = 5
	var sections []string
	var want []string
	for i := 0; i < n; i++ {
		title := fmt.Sprintf("Draft Number %d", i)
		want = append(want, title)
		sections = append(sections, article(title))
	}
	raw := strings.Join(sections, "\n---\n")

	got := Parse(raw, ModeStrict)
	if len(got) != n {
		t.Fatalf("len = %d, want %d", len(got), n)
	}
	for i, art := range got {
		if art.Title != want[i] {
			t.Errorf("title[%d] = %q, want %q", i, art.Title, want[i])
		}
		if art.Body != longBody {
			t.Errorf("body[%d] = %q", i, art.Body)
		}
	}
}

func TestParse_EmptyInput(t *testing.T) {
	if got := Parse("", ModeStrict); len(got) != 0 {
		t.Errorf("Parse(empty) = %v", got)
	}
	if got := Parse("   \n\n  ", ModeNotes); len(got) != 0 {
		t.Errorf("Parse(blank) = %v", got)
	}
}

func TestParse_StrictSkipsMalformed(t *testing.T) {
	raw := strings.Join([]string{
		article("Keep Me"),
		"no title pattern here at all, just enough prose to clear the section length floor easily",
		article("Keep Me Too"),
	}, "\n---\n")

	got := Parse(raw, ModeStrict)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (%v)", len(got), got)
	}
	if got[0].Title != "Keep Me" || got[1].Title != "Keep Me Too" {
		t.Errorf("titles = %q, %q", got[0].Title, got[1].Title)
	}
}

func TestParse_NotesAttachesTwo(t *testing.T) {
	note1 := strings.Repeat("a short trailing aside ", 5)                       // 115 runes
	note2 := strings.Repeat("another brief remark ", 4)                         // 84 runes
	tooLate := "a third short section that must not be swallowed as a note now" // under 80
	raw := strings.Join([]string{
		article("Main Draft"),
		note1,
		note2,
		tooLate,
	}, "\n---\n")

	got := Parse(raw, ModeNotes)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1 (%v)", len(got), got)
	}
	art := got[0]
	if art.Note1 != strings.TrimSpace(note1) {
		t.Errorf("note1 = %q", art.Note1)
	}
	if art.Note2 != strings.TrimSpace(note2) {
		t.Errorf("note2 = %q", art.Note2)
	}
	if art.Fields == nil {
		t.Fatal("notes mode should decompose the body")
	}
	if art.Fields.MainText != art.Body {
		t.Errorf("main = %q, want full body", art.Fields.MainText)
	}
}

func TestParse_NoteScanAdvances(t *testing.T) {
	// Sections consumed as notes never re-surface as article candidates.
	// The second article is pushed past the note ceiling so the scanner has
	// to stop at one note.
	note := strings.Repeat("short aside that also happens to carry a title **Inside Bold** marker ", 2)
	second := "**Second**\n\n" + strings.Repeat(longBody+" ", 3)
	raw := strings.Join([]string{
		article("First"),
		note,
		second,
	}, "\n---\n")

	got := Parse(raw, ModeNotes)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2 (%v)", len(got), got)
	}
	if got[0].Note1 == "" {
		t.Error("first article should have consumed the aside as note_1")
	}
	if got[1].Title != "Second" {
		t.Errorf("second title = %q", got[1].Title)
	}
}

func TestParse_LongSectionNotANote(t *testing.T) {
	long := "plain prose with no title that runs well past the note ceiling " + strings.Repeat("and keeps going ", 25)
	raw := strings.Join([]string{article("Only Draft"), long}, "\n---\n")

	got := Parse(raw, ModeNotes)
	if len(got) != 1 {
		t.Fatalf("len = %d (%v)", len(got), got)
	}
	if got[0].Note1 != "" {
		t.Errorf("long section taken as note: %q", got[0].Note1)
	}
}

func TestParse_AnchorMarkerDisqualifiesNote(t *testing.T) {
	marked := "Key Insight: this aside carries an anchor marker and so stays a candidate, never a note"
	raw := strings.Join([]string{article("Draft"), marked}, "\n---\n")

	got := Parse(raw, ModeNotes)
	if len(got) != 1 {
		t.Fatalf("len = %d (%v)", len(got), got)
	}
	if got[0].Note1 != "" {
		t.Errorf("anchored section taken as note: %q", got[0].Note1)
	}
}

func TestParseSavedFile_UntitledFallback(t *testing.T) {
	raw := strings.Join([]string{
		article("Titled Draft"),
		"a saved section whose title line was lost but whose prose still clears every floor comfortably",
	}, "\n---\n")

	got := ParseSavedFile(raw)
	if len(got) != 2 {
		t.Fatalf("len = %d (%v)", len(got), got)
	}
	if got[0].Title != "Titled Draft" {
		t.Errorf("title[0] = %q", got[0].Title)
	}
	if got[1].Title != "Untitled" {
		t.Errorf("title[1] = %q, want Untitled", got[1].Title)
	}
}

func TestParseSavedFile_FloorsStillApply(t *testing.T) {
	raw := strings.Join([]string{
		"tiny",
		article("Survivor"),
	}, "\n---\n")

	got := ParseSavedFile(raw)
	if len(got) != 1 || got[0].Title != "Survivor" {
		t.Fatalf("got %v", got)
	}
}
