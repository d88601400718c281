package storage

import (
	"strings"
	"testing"

	"github.com/marlowe/inkwell/internal/models"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`a/b\c:d*e?f"g<h>i|j`, "a-b-c-d-e-f-g-h-i-j"},
		{"  spaced   \t out  ", "spaced out"},
		{"clean title", "clean title"},
	}
	for _, c := range cases {
		if got := SanitizeFilename(c.in); got != c.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSanitizeFilenameCaps(t *testing.T) {
	long := strings.Repeat("x", 300)
	if got := SanitizeFilename(long); len([]rune(got)) != 180 {
		t.Errorf("len = %d, want 180", len([]rune(got)))
	}
}

func TestDraftPath(t *testing.T) {
	got := DraftPath("What: A Title?")
	if got != "drafts/What- A Title-.txt" {
		t.Errorf("path = %q", got)
	}
}

func TestRenderDrafts_NoTrailingDelimiter(t *testing.T) {
	arts := []models.Article{
		{Title: "One", Body: "first body"},
		{Title: "Two", Body: "second body"},
	}
	got := string(RenderDrafts(arts))
	want := "**One**\n\nfirst body\n\n---\n\n**Two**\n\nsecond body\n\n"
	if got != want {
		t.Errorf("rendered = %q", got)
	}
	if strings.HasSuffix(strings.TrimSpace(got), "---") {
		t.Error("trailing delimiter")
	}
}

func TestRenderTranscriptRoundTrip(t *testing.T) {
	data := RenderTranscript("My Talk", "abcd1234abcd1234", "video", "line one\n\nline two")
	h := ParseTranscript(data)
	if h.Title != "My Talk" || h.SourceID != "abcd1234abcd1234" || h.SourceType != "video" {
		t.Errorf("header = %+v", h)
	}
	if h.Content != "line one\n\nline two" {
		t.Errorf("content = %q", h.Content)
	}
}

func TestParseTranscript_NoHeader(t *testing.T) {
	h := ParseTranscript([]byte("raw transcript text\n\nwith paragraphs"))
	if h.Title != "" || h.SourceID != "" {
		t.Errorf("unexpected header: %+v", h)
	}
	if h.Content != "raw transcript text\n\nwith paragraphs" {
		t.Errorf("content = %q", h.Content)
	}
}

func TestRenderNotes(t *testing.T) {
	art := models.Article{Note1: "first note", Note2: "second note"}
	got := string(RenderNotes("Draft Title", "https://example.com/a", art))
	if !strings.Contains(got, "Title: Draft Title\n") {
		t.Errorf("missing title line: %q", got)
	}
	if !strings.Contains(got, "NOTE 1:\nfirst note\n\nNOTE 2:\nsecond note\n") {
		t.Errorf("notes block wrong: %q", got)
	}
}
