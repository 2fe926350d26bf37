// Package ranking merges candidates that share a content hash and orders the
// survivors.
package ranking

import (
	"encoding/json"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

// Deduper keeps one candidate per content hash. The kept candidate is the best
// one by Better, whatever the arrival order, and it inherits the selected-file
// annotation of the best duplicate that carries one when it has none itself.
type Deduper struct {
	pref      Preference
	best      map[string]schema.Candidate
	annotated map[string]schema.Candidate
	order     []string
}

func NewDeduper(pref Preference) *Deduper {
	return &Deduper{
		pref:      pref,
		best:      make(map[string]schema.Candidate),
		annotated: make(map[string]schema.Candidate),
	}
}

func (d *Deduper) Add(c schema.Candidate) {
	if !c.Usable() {
		return
	}
	key := schema.NormalizeHash(c.InfoHash)
	c.InfoHash = key

	incumbent, ok := d.best[key]
	if !ok {
		d.order = append(d.order, key)
		d.best[key] = c
	} else if d.Better(c, incumbent) {
		d.best[key] = c
	}

	if c.FileIndex != nil {
		if a, ok := d.annotated[key]; !ok || d.Better(c, a) {
			d.annotated[key] = c
		}
	}
}

func (d *Deduper) Len() int {
	return len(d.order)
}

// Results returns the merged candidates in first-seen order.
func (d *Deduper) Results() []schema.Candidate {
	out := make([]schema.Candidate, 0, len(d.order))
	for _, key := range d.order {
		c := d.best[key]
		if c.FileIndex == nil {
			if a, ok := d.annotated[key]; ok {
				c.FileIndex = a.FileIndex
				if len(c.Files) == 0 {
					c.Files = a.Files
				}
			}
		}
		out = append(out, c)
	}
	return out
}

// Better reports whether a should replace b: a better language class, then a
// preferred provider, then more seeders. Remaining ties are broken on size,
// title, source and finally the full record so that the relation is a strict
// total order.
func (d *Deduper) Better(a, b schema.Candidate) bool {
	if a.Language != b.Language {
		return a.Language > b.Language
	}
	if ra, rb := d.pref.Rank(a.Source), d.pref.Rank(b.Source); ra != rb {
		return ra < rb
	}
	if a.Seeders != b.Seeders {
		return a.Seeders > b.Seeders
	}
	if a.Size != b.Size {
		return a.Size > b.Size
	}
	if a.Title != b.Title {
		return a.Title < b.Title
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return canonical(a) < canonical(b)
}

func canonical(c schema.Candidate) string {
	b, _ := json.Marshal(c)
	return string(b)
}

// Dedupe merges cands by content hash.
func Dedupe(cands []schema.Candidate, pref Preference) []schema.Candidate {
	d := NewDeduper(pref)
	for _, c := range cands {
		d.Add(c)
	}
	return d.Results()
}
