package ranking

import (
	"sort"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

// Less is the ranking order: language class, quality tier, size and seeders,
// all descending, then info hash ascending.
func Less(a, b schema.Candidate) bool {
	if a.Language != b.Language {
		return a.Language > b.Language
	}
	if qa, qb := tier(a), tier(b); qa != qb {
		return qa > qb
	}
	if a.Size != b.Size {
		return a.Size > b.Size
	}
	if a.Seeders != b.Seeders {
		return a.Seeders > b.Seeders
	}
	if a.InfoHash != b.InfoHash {
		return a.InfoHash < b.InfoHash
	}
	if a.Source != b.Source {
		return a.Source < b.Source
	}
	return a.Title < b.Title
}

// Rank returns a new slice ordered by Less. The input is left untouched.
func Rank(cands []schema.Candidate) []schema.Candidate {
	out := make([]schema.Candidate, len(cands))
	copy(out, cands)
	sort.SliceStable(out, func(i, j int) bool { return Less(out[i], out[j]) })
	return out
}

func tier(c schema.Candidate) int {
	if c.Quality == "" {
		return schema.QualityTier(schema.DetectQuality(c.Title))
	}
	return schema.QualityTier(c.Quality)
}
