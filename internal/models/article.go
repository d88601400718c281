// Package models defines the domain types for Inkwell.
package models

import "time"

// Source types.
const (
	SourceTypeArticle = "article"
	SourceTypeVideo   = "video"
)

// Article is one generated draft recovered from a model reply: a title, a
// body, and in notes mode up to two short companion notes plus the anchored
// sub-fields decomposed from the body.
type Article struct {
	Title  string      `json:"title"`
	Body   string      `json:"body"`
	Note1  string      `json:"note_1,omitempty"`
	Note2  string      `json:"note_2,omitempty"`
	Fields *BodyFields `json:"fields,omitempty"`
}

// BodyFields holds the optional anchored sub-fields of a draft body.
// Each field is independently absent (empty) when its anchor was not found;
// MainText always carries text (the slice between anchors, or the whole body).
type BodyFields struct {
	Insight    string `json:"insight,omitempty"`
	MainText   string `json:"main_text"`
	Reflection string `json:"reflection,omitempty"`
	Summary    string `json:"summary,omitempty"`
}

// Source is one processed content source with its draft count.
type Source struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Type          string    `json:"type"`
	DraftCount    int       `json:"draft_count"`
	HasTranscript bool      `json:"has_transcript"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SourceContent is fetched source material ready for generation.
type SourceContent struct {
	ID      string
	URL     string
	Title   string
	Type    string
	Content string
}
