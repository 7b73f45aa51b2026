package wikilink

// Resolution is the detailed outcome of resolving one text.
type Resolution struct {
	// IDs are the resolved note ids, first-occurrence order, deduplicated,
	// without the resolving note's own id.
	IDs []string `json:"ids"`
	// Unresolved lists targets that matched no title and no basename.
	Unresolved []string `json:"unresolved"`
	// Ambiguous lists targets whose basename is shared by several notes.
	Ambiguous []string `json:"ambiguous"`
}

// Resolve returns the ids of the notes referenced by text. Targets are
// matched by full title first, then by unique basename; anything else is
// dropped silently. selfID never appears in the result.
func Resolve(text, selfID string, idx *LinkIndex) []string {
	return ResolveDetailed(text, selfID, idx).IDs
}

// ResolveDetailed resolves like Resolve and also reports the targets that
// were dropped, for callers that want to show them to the user.
func ResolveDetailed(text, selfID string, idx *LinkIndex) Resolution {
	res := Resolution{IDs: []string{}, Unresolved: []string{}, Ambiguous: []string{}}
	targets := ExtractReferences(text)
	if len(targets) == 0 {
		return res
	}
	if idx == nil {
		idx = &LinkIndex{}
	}

	fold := newNormalizer()
	seen := make(map[string]struct{}, len(targets))
	dropped := make(map[string]struct{})

	for _, target := range targets {
		id, ok := idx.byTitle[fold.key(target)]
		if !ok {
			base := fold.key(Basename(target))
			id, ok = idx.byBasename[base]
			if !ok {
				if _, dup := dropped[target]; !dup {
					dropped[target] = struct{}{}
					if _, amb := idx.ambiguous[base]; amb {
						res.Ambiguous = append(res.Ambiguous, target)
					} else {
						res.Unresolved = append(res.Unresolved, target)
					}
				}
				continue
			}
		}
		if id == selfID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		res.IDs = append(res.IDs, id)
	}
	return res
}
