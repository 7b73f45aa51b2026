package wikilink

import "strings"

// TitleFromFilename derives a note title from a file name by dropping ".md".
func TitleFromFilename(filename string) string {
	return StripMarkdownSuffix(filename)
}

// TitleFromRelativePath derives a note title from a path inside an imported
// folder. The first segment is the folder itself and is stripped, so
// "vault/topics/go.md" becomes "topics/go". Backslashes count as separators.
// An empty relative path falls back to the file name.
func TitleFromRelativePath(relativePath, filename string) string {
	if relativePath == "" {
		return TitleFromFilename(filename)
	}
	normalized := strings.ReplaceAll(relativePath, `\`, "/")
	var segments []string
	for _, s := range strings.Split(normalized, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	var title string
	switch {
	case len(segments) > 1:
		title = strings.Join(segments[1:], "/")
	case len(segments) == 1:
		title = segments[0]
	default:
		title = filename
	}
	return StripMarkdownSuffix(title)
}

// RootSegment returns the first non-empty segment of a relative path.
func RootSegment(relativePath string) string {
	for _, s := range strings.Split(strings.ReplaceAll(relativePath, `\`, "/"), "/") {
		if s != "" {
			return s
		}
	}
	return ""
}
