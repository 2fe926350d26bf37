package ranking

import "strings"

// Preference is an explicit total order over provider names. Earlier entries
// are preferred; providers that are not listed share the lowest rank.
type Preference struct {
	rank map[string]int
	n    int
}

func NewPreference(names []string) Preference {
	p := Preference{rank: make(map[string]int, len(names)), n: len(names)}
	for i, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := p.rank[name]; !dup && name != "" {
			p.rank[name] = i
		}
	}
	return p
}

// Rank returns the position of source in the order, or the number of listed
// providers when it is not listed. "indexer:bludv" falls back to the rank of
// "indexer" when only the family is listed.
func (p Preference) Rank(source string) int {
	source = strings.ToLower(source)
	if r, ok := p.rank[source]; ok {
		return r
	}
	if family, _, found := strings.Cut(source, ":"); found {
		if r, ok := p.rank[family]; ok {
			return r
		}
	}
	return p.n
}

// Prefers reports whether a is strictly preferred over b.
func (p Preference) Prefers(a, b string) bool {
	return p.Rank(a) < p.Rank(b)
}
