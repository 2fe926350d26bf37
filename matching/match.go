// Package matching decides whether a release title is the requested movie,
// episode, season pack or anime batch.
package matching

import (
	"sort"

	"github.com/hbollon/go-edlib"
	"github.com/samber/lo"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

// Thresholds are the word-overlap ratios used by title checks.
type Thresholds struct {
	// TitleWords is the share of significant query-title words a release must contain.
	TitleWords float64
	// LocalizedWords is the share of localized-title words that marks a release as
	// localized when no explicit language marker is present.
	LocalizedWords float64
}

var DefaultThresholds = Thresholds{TitleWords: 0.70, LocalizedWords: 0.60}

type Matcher struct {
	Thresholds Thresholds
}

func NewMatcher(t Thresholds) *Matcher {
	if t.TitleWords <= 0 {
		t.TitleWords = DefaultThresholds.TitleWords
	}
	if t.LocalizedWords <= 0 {
		t.LocalizedWords = DefaultThresholds.LocalizedWords
	}
	return &Matcher{Thresholds: t}
}

var defaultMatcher = NewMatcher(DefaultThresholds)

// Matches reports whether title satisfies q under the default thresholds.
func Matches(title string, q schema.MediaQuery) bool {
	return defaultMatcher.Match(title, q).Matched()
}

// Filter applies the default matcher; see Matcher.Filter.
func Filter(cands []schema.Candidate, q schema.MediaQuery, fallbackLimit int) []schema.Candidate {
	return defaultMatcher.Filter(cands, q, fallbackLimit)
}

// Title checks the release against every known title, then against the part
// of each title preceding a dash or colon.
func (m *Matcher) Title(candidate string, q schema.MediaQuery) Verdict {
	titles := q.AllTitles()
	for _, t := range titles {
		if v := MovieTitle(candidate, t, m.Thresholds.TitleWords); v.Matched() {
			return v
		}
	}
	for _, t := range titles {
		short := schema.ShortTitle(t)
		if short == t {
			continue
		}
		if v := MovieTitle(candidate, short, m.Thresholds.TitleWords); v.Matched() {
			return v
		}
	}
	return NoMatch
}

// Match runs the title check and then the rules of the query's kind.
func (m *Matcher) Match(candidate string, q schema.MediaQuery) Verdict {
	if !m.Title(candidate, q).Matched() {
		return NoMatch
	}

	switch q.Kind {
	case schema.KindMovie:
		return YearWithin(candidate, q.Year, q.AllTitles()...)
	case schema.KindSeries:
		switch {
		case q.Season != nil && q.Episode != nil:
			return SeriesEpisode(candidate, *q.Season, *q.Episode)
		case q.Season != nil:
			if IndicatesSeason(candidate, *q.Season) {
				return SeasonPackMatch
			}
			return NoMatch
		}
		return TitleMatch
	case schema.KindAnime:
		ep, ok := q.AbsoluteNumber()
		if !ok {
			return TitleMatch
		}
		titles := q.AllTitles()
		return first(
			func() Verdict { return AnimeEpisode(candidate, ep, titles...) },
			func() Verdict { return AnimeRange(candidate, ep, titles...) },
		)
	}
	return NoMatch
}

// Filter keeps the candidates whose title matches q. When nothing matches but
// there were candidates, movies and series fall back to the fallbackLimit
// candidates most similar to the primary title; anime returns nothing.
func (m *Matcher) Filter(cands []schema.Candidate, q schema.MediaQuery, fallbackLimit int) []schema.Candidate {
	matched := lo.Filter(cands, func(c schema.Candidate, _ int) bool {
		return m.Match(c.Title, q).Matched()
	})
	if len(matched) > 0 || len(cands) == 0 || q.Kind == schema.KindAnime || fallbackLimit <= 0 {
		return matched
	}

	primary := NormalizeTitle(q.PrimaryTitle())
	type scored struct {
		c     schema.Candidate
		score float32
	}
	all := lo.Map(cands, func(c schema.Candidate, _ int) scored {
		return scored{c: c, score: edlib.JaccardSimilarity(primary, NormalizeTitle(c.Title), 2)}
	})
	sort.SliceStable(all, func(i, j int) bool { return all[i].score > all[j].score })

	if len(all) > fallbackLimit {
		all = all[:fallbackLimit]
	}
	return lo.Map(all, func(s scored, _ int) schema.Candidate { return s.c })
}
