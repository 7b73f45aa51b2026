package wikilink

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/starford/neuralnotes/internal/models"
)

// LinkIndex maps normalized titles to note ids for one note universe.
//
// byTitle holds every titled note keyed by its full normalized title; when
// titles collide the note processed last wins. byBasename only holds
// basenames carried by exactly one note. Notes with an empty title
// contribute nothing.
type LinkIndex struct {
	byTitle    map[string]string
	byBasename map[string]string
	ambiguous  map[string]struct{}
}

// BuildIndex indexes notes in a single pass.
func BuildIndex(notes []models.Note) *LinkIndex {
	fold := newNormalizer()

	idx := &LinkIndex{
		byTitle:    make(map[string]string, len(notes)),
		byBasename: make(map[string]string, len(notes)),
		ambiguous:  make(map[string]struct{}),
	}

	counts := make(map[string]int, len(notes))
	lastID := make(map[string]string, len(notes))

	for _, n := range notes {
		title := strings.TrimSpace(n.Title)
		if title == "" {
			continue
		}
		idx.byTitle[fold.key(title)] = n.ID

		base := fold.key(Basename(title))
		if base == "" {
			continue
		}
		counts[base]++
		lastID[base] = n.ID
	}

	for base, c := range counts {
		if c == 1 {
			idx.byBasename[base] = lastID[base]
		} else {
			idx.ambiguous[base] = struct{}{}
		}
	}

	return idx
}

// Len returns the number of distinct full titles in the index.
func (idx *LinkIndex) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.byTitle)
}

// ByTitle looks up a note id by full title.
func (idx *LinkIndex) ByTitle(title string) (string, bool) {
	if idx == nil {
		return "", false
	}
	id, ok := idx.byTitle[Normalize(title)]
	return id, ok
}

// ByBasename looks up a note id by unique basename.
func (idx *LinkIndex) ByBasename(name string) (string, bool) {
	if idx == nil {
		return "", false
	}
	id, ok := idx.byBasename[Normalize(name)]
	return id, ok
}

// Ambiguous reports whether two or more notes share the basename.
func (idx *LinkIndex) Ambiguous(name string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.ambiguous[Normalize(name)]
	return ok
}

// Basename returns the part of s after its last "/", or s itself.
func Basename(s string) string {
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Normalize trims and case-folds s. It is the only normalization applied to
// titles and targets.
func Normalize(s string) string {
	return newNormalizer().key(s)
}

// normalizer wraps a case folder. cases.Caser keeps state between calls, so
// each build or resolve call gets its own.
type normalizer struct {
	caser cases.Caser
}

func newNormalizer() *normalizer {
	return &normalizer{caser: cases.Fold()}
}

func (n *normalizer) key(s string) string {
	return n.caser.String(strings.TrimSpace(s))
}
