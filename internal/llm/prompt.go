package llm

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Prompt inputs are capped so one oversized transcript cannot blow the
// model's context window.
const (
	maxStyleRunes   = 6000
	maxContentRunes = 15000
)

// Prompts is one system+user prompt pair ready to send.
type Prompts struct {
	System string
	User   string
}

const draftSystemTemplate = `You are a ghostwriter for the author's newsletter.

ABOUT THE AUTHOR AND NEWSLETTER:
%s

WRITING STYLE — Study these previous articles carefully and match the tone, rhythm, sentence length, and voice EXACTLY:
%s

YOUR TASK:
Read the provided source material and write 2-3 complete article drafts inspired by its ideas. Each article should be something the author could publish directly.

CRITICAL RULES:
1. Write in FIRST PERSON — as the author. Use "I", "me", "my" naturally.
2. Match the author's conversational, reflective, story-driven style. NOT corporate. NOT listicle. NOT generic AI writing.
3. Each article MUST have a UNIQUE, COMPELLING HEADLINE — the kind that makes someone stop scrolling and click.
   - BAD: "Article 1", "Key Takeaways", "Summary"
4. Articles should be 400-700 words each.
5. Include personal reflection, insight, and a clear point.
6. End each article with a thought-provoking takeaway or call to reflection.

FORMAT — Use this EXACT structure (separate articles with ---):

**<Compelling Headline>**

<Full article body written in the author's voice. Multiple paragraphs. Personal, reflective, insightful.>

---

**<Next Compelling Headline>**

<Full article body...>

IMPORTANT: Do NOT include section headers like "Key Insight" or "Why it matters" — write naturally flowing articles like the style reference shows. These are essays, not structured reports.
`

const draftUserTemplate = `Write 2-3 article drafts inspired by this source.

SOURCE TITLE: %s

CONTENT:
%s
`

const notesSystemTemplate = `You are a ghostwriter for the author's newsletter.

ABOUT THE AUTHOR AND NEWSLETTER:
%s

WRITING STYLE — Match these short-note examples closely:
%s

YOUR TASK:
Extract the key ideas from the provided source material and write 2-3 structured pieces, each followed by two short social notes that tease it.

FORMAT — Use this EXACT structure (separate every block with ---):

**<Compelling Headline>**

Key Insight: <one-sentence core insight>

<Main text. Several paragraphs developing the idea in the author's voice.>

**Think about it:** <one reflection question that challenges assumptions>

**Summary:** <two-sentence wrap-up>

---

<First short note for this piece: under 400 characters, conversational, no headline>

---

<Second short note for this piece: under 400 characters, conversational, no headline>

---

Repeat the pattern for each remaining piece.
`

const notesUserTemplate = `Write 2-3 structured pieces with notes from this source.

SOURCE TITLE: %s

CONTENT:
%s
`

// DraftPrompts builds the free-flowing essay prompt pair.
func DraftPrompts(sourceTitle, content, styleRef, channelVoice string) Prompts {
	return Prompts{
		System: fmt.Sprintf(draftSystemTemplate, strings.TrimSpace(channelVoice), truncateRunes(styleRef, maxStyleRunes)),
		User:   fmt.Sprintf(draftUserTemplate, sourceTitle, truncateRunes(content, maxContentRunes)),
	}
}

// NotesPrompts builds the structured-piece prompt pair used in notes mode.
func NotesPrompts(sourceTitle, content, styleRef, channelVoice string) Prompts {
	return Prompts{
		System: fmt.Sprintf(notesSystemTemplate, strings.TrimSpace(channelVoice), truncateRunes(styleRef, maxStyleRunes)),
		User:   fmt.Sprintf(notesUserTemplate, sourceTitle, truncateRunes(content, maxContentRunes)),
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
