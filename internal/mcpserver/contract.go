package mcpserver

// NoteFormatContract describes how NeuralNotes interprets note text. LLM
// consumers should follow it when creating notes.
const NoteFormatContract = `# NeuralNotes Note Format Contract

A note is a **title** plus free **content**. Content is plain text; Markdown
is encouraged but never parsed beyond wikilinks.

## Titles

- Titles identify notes inside one vault. Keep them unique.
- A title may contain slashes to mimic folders: ` + "`" + `topics/go` + "`" + `.
  The part after the last slash is the note's **basename** (` + "`" + `go` + "`" + `).
- Imported files get their path inside the imported folder as title,
  without the ` + "`" + `.md` + "`" + ` extension.

## Wikilinks

Reference another note with double brackets:

| Form | Target |
|------|--------|
| ` + "`" + `[[Title]]` + "`" + ` | Title |
| ` + "`" + `[[Title|shown text]]` + "`" + ` | Title |
| ` + "`" + `[[Title#Heading]]` + "`" + ` | Title |
| ` + "`" + `[[Title.md]]` + "`" + ` | Title |
| ` + "`" + `[[folder/Title]]` + "`" + ` | folder/Title |

## Resolution

1. The target is compared with every full title, ignoring case.
2. Otherwise its basename is compared with the basenames of all notes.
   A basename shared by several notes is **ambiguous** and resolves to nothing.
3. Anything else is **unresolved** and silently dropped.
4. A note never links to itself; repeated targets count once.

Use the ` + "`" + `resolve_links` + "`" + ` tool to preview which targets resolve
before creating a note.

## Example

` + "```" + `markdown
Weekly standup 2025-01-20

- [[alice]] to review the [[design/Design doc|design doc]]
- Bob to update [[roadmap#Q1]]
` + "```" + `
`
