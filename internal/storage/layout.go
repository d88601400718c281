package storage

import (
	"path"
	"strings"

	"github.com/marlowe/inkwell/internal/models"
)

// Fixed layout under the data root. Paths below are relative and meant to
// be handed to a Provider.
const (
	DraftsDir      = "drafts"
	NotesDir       = "drafts/notes"
	TranscriptsDir = "transcripts"
	MasterCSV      = "drafts/all_drafts.csv"
	DebugDumpFile  = "debug_model_output.txt"
)

const articleSeparator = "---"

// DraftPath returns the relative path of the draft file for a source title.
func DraftPath(sourceTitle string) string {
	return path.Join(DraftsDir, SanitizeFilename(sourceTitle)+".txt")
}

// NotesPath returns the relative path of the notes file for one draft.
func NotesPath(sourceTitle, draftTitle string) string {
	name := SanitizeFilename(sourceTitle) + " - " + SanitizeFilename(draftTitle)
	return path.Join(NotesDir, name+".txt")
}

// TranscriptPath returns the relative path of the transcript file for a
// source title.
func TranscriptPath(sourceTitle string) string {
	return path.Join(TranscriptsDir, SanitizeFilename(sourceTitle)+".txt")
}

// RenderDrafts serializes articles into the draft file format: bold title,
// blank line, body, with a stand-alone delimiter between articles and no
// trailing delimiter. The result round-trips through the saved-file parser.
func RenderDrafts(articles []models.Article) []byte {
	var b strings.Builder
	for i, art := range articles {
		b.WriteString("**" + art.Title + "**\n\n")
		b.WriteString(art.Body + "\n\n")
		if i < len(articles)-1 {
			b.WriteString(articleSeparator + "\n\n")
		}
	}
	return []byte(b.String())
}

// RenderNotes serializes the side-channel notes of one draft.
func RenderNotes(draftTitle, sourceURL string, art models.Article) []byte {
	var b strings.Builder
	b.WriteString("Title: " + draftTitle + "\n")
	b.WriteString("Source URL: " + sourceURL + "\n\n")
	b.WriteString("NOTE 1:\n" + strings.TrimSpace(art.Note1) + "\n\n")
	b.WriteString("NOTE 2:\n" + strings.TrimSpace(art.Note2) + "\n")
	return []byte(b.String())
}

// RenderTranscript serializes fetched source content with its identifying
// header lines.
func RenderTranscript(title, sourceID, sourceType, content string) []byte {
	var b strings.Builder
	b.WriteString("Title: " + title + "\n")
	b.WriteString("Source ID: " + sourceID + "\n")
	b.WriteString("Source Type: " + sourceType + "\n\n")
	b.WriteString(content)
	return []byte(b.String())
}

// TranscriptHeader is the parsed identifying header of a transcript file.
type TranscriptHeader struct {
	Title      string
	SourceID   string
	SourceType string
	Content    string
}

// ParseTranscript splits a transcript file back into header and content.
// Files without the header (hand-dropped transcripts) come back with empty
// identity fields and the full text as content.
func ParseTranscript(data []byte) TranscriptHeader {
	s := string(data)
	head, content, found := strings.Cut(s, "\n\n")
	if !found {
		head = s
		content = ""
	}

	var h TranscriptHeader
	matched := false
	for _, line := range strings.Split(head, "\n") {
		key, val, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "Title":
			h.Title = val
			matched = true
		case "Source ID":
			h.SourceID = val
			matched = true
		case "Source Type":
			h.SourceType = val
			matched = true
		}
	}
	if !matched {
		return TranscriptHeader{Content: s}
	}
	h.Content = content
	return h
}
