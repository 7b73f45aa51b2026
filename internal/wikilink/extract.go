// Package wikilink parses [[double-bracket]] references out of free text and
// resolves them to note ids within a vault.
//
// Everything in this package is pure: an index is built from the notes passed
// in, resolution reads only its arguments, and results are fresh slices.
// Functions are safe to call from multiple goroutines.
package wikilink

import (
	"regexp"
	"strings"
)

var referenceRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// ExtractReferences returns the raw target of every [[...]] reference in
// text, in order of appearance. Alias ("|alias") and heading ("#heading")
// segments are removed, whitespace trimmed and a trailing ".md" stripped.
// Targets that end up empty are dropped; duplicates are kept.
func ExtractReferences(text string) []string {
	matches := referenceRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if target := cleanTarget(m[1]); target != "" {
			out = append(out, target)
		}
	}
	return out
}

// cleanTarget reduces the inside of a reference to the note it names:
// [[Target|Alias]] → Target, [[Target#Heading]] → Target, [[Target.md]] → Target.
func cleanTarget(raw string) string {
	target := strings.TrimSpace(raw)
	if i := strings.Index(target, "|"); i >= 0 {
		target = strings.TrimSpace(target[:i])
	}
	if i := strings.Index(target, "#"); i >= 0 {
		target = strings.TrimSpace(target[:i])
	}
	return StripMarkdownSuffix(target)
}

// StripMarkdownSuffix removes a trailing ".md" (any case).
func StripMarkdownSuffix(s string) string {
	if IsMarkdown(s) {
		return s[:len(s)-len(".md")]
	}
	return s
}

// IsMarkdown reports whether name ends with ".md", ignoring case.
func IsMarkdown(name string) bool {
	return len(name) >= 3 && strings.EqualFold(name[len(name)-3:], ".md")
}
