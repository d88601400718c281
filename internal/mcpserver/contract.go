package mcpserver

// ReplyFormatContract describes the reply layout the draft parser expects
// from a generative model. Exposed so LLM consumers can shape their output
// before calling generate tools or writing drafts by hand.
const ReplyFormatContract = `# Inkwell Model Reply Contract

A model reply is a sequence of sections separated by a delimiter line of
three or more hyphens on its own line:

` + "```" + `
**First Draft Title**

Body text of the first draft...

---

**Second Draft Title**

Body text of the second draft...
` + "```" + `

## Rules

1. **Delimiter.** Three or more hyphens alone on a line (` + "`---`" + `) split the
   reply into sections. Surrounding whitespace in each section is trimmed.
2. **Titles.** The preferred title form is bold Markdown on its own line:
   ` + "`**Title Here**`" + `. A Markdown H1 heading (` + "`# Title Here`" + `) is also
   accepted. The body is everything after the title line.
3. **Length.** A section shorter than 80 characters is discarded. A body
   shorter than 100 characters is discarded in strict mode (50 in notes mode).
4. **Notes mode.** A short section (under 400 characters) directly following
   a draft becomes a companion note for that draft; at most two notes attach
   per draft. Notes must not contain the anchor markers below.
5. **Anchored fields (notes mode).** Inside a draft body these markers are
   recognized and decomposed into structured fields:
   - ` + "`Key Insight:`" + ` followed by one sentence.
   - ` + "`Think about it:`" + ` followed by one sentence.
   - ` + "`Summary:`" + ` followed by one sentence.
   The main text is the span between the insight and the reflection.
6. **No fences.** Do not wrap the reply in a Markdown code fence; a single
   surrounding fence is stripped, anything else is kept verbatim.
7. A reply that yields zero drafts is kept on disk verbatim for inspection.
`
